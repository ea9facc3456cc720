package services

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"videomerger/models"
	"videomerger/utils"
)

// AudioService aligns and mixes audio tracks onto the timeline duration
type AudioService struct {
	runner     MediaRunner
	sampleRate int
	bitrate    string
}

// NewAudioService creates a new audio compositor
func NewAudioService(runner MediaRunner, sampleRate int, bitrate string) *AudioService {
	return &AudioService{
		runner:     runner,
		sampleRate: sampleRate,
		bitrate:    bitrate,
	}
}

// Compose fits every track to the timeline duration and mixes them into one
// audio file inside the workspace. Any failure here is recoverable: the
// caller logs it and continues video-only.
func (as *AudioService) Compose(ctx context.Context, ws *utils.Workspace, tracks []models.AudioTrack, targetDuration float64) (string, error) {
	if len(tracks) == 0 {
		return "", nil
	}

	fitted := make([]string, 0, len(tracks))
	gains := make([]float64, 0, len(tracks))

	for i, track := range tracks {
		duration, err := as.runner.Duration(ctx, track.Path)
		if err != nil {
			return "", fmt.Errorf("failed to read audio track %s: %w", track.Path, err)
		}

		path := track.Path
		switch {
		case duration < targetDuration:
			path, err = as.loopToDuration(ctx, ws, track.Path, duration, targetDuration, i)
		case duration > targetDuration:
			path, err = as.trimToDuration(ctx, ws, track.Path, targetDuration, i)
		}
		if err != nil {
			return "", err
		}

		fitted = append(fitted, path)
		gains = append(gains, track.Gain)
	}

	mixPath := ws.Path("mixed_audio.m4a")
	if err := as.runner.Run(ctx, utils.MixAudioArgs(fitted, gains, mixPath, as.sampleRate, as.bitrate)); err != nil {
		return "", fmt.Errorf("failed to mix audio tracks: %w", err)
	}

	log.Printf("[Job %s] composed %d audio track(s) over %.2fs", ws.JobID, len(tracks), targetDuration)
	return mixPath, nil
}

// loopToDuration repeats a track until it covers the target duration, then
// cuts the overshoot. Repetition is seamless: the content restarts with no
// gap at each boundary.
func (as *AudioService) loopToDuration(ctx context.Context, ws *utils.Workspace, input string, duration, targetDuration float64, index int) (string, error) {
	repeats := int(targetDuration/duration) + 1

	listPath := ws.Path(fmt.Sprintf("loop_list_%d.txt", index))
	if err := utils.WriteConcatList(listPath, input, repeats); err != nil {
		return "", fmt.Errorf("failed to write loop list: %w", err)
	}

	// The loop pass is a stream copy, so keep the source container
	loopedPath := ws.Path(fmt.Sprintf("looped_%d%s", index, filepath.Ext(input)))
	if err := as.runner.Run(ctx, utils.LoopConcatArgs(listPath, loopedPath)); err != nil {
		return "", fmt.Errorf("failed to loop audio: %w", err)
	}

	return as.trimToDuration(ctx, ws, loopedPath, targetDuration, index)
}

// trimToDuration cuts a track to exactly the target duration
func (as *AudioService) trimToDuration(ctx context.Context, ws *utils.Workspace, input string, targetDuration float64, index int) (string, error) {
	trimmedPath := ws.Path(fmt.Sprintf("fitted_%d.m4a", index))
	if err := as.runner.Run(ctx, utils.TrimAudioArgs(input, trimmedPath, targetDuration, as.sampleRate, as.bitrate)); err != nil {
		return "", fmt.Errorf("failed to trim audio: %w", err)
	}
	return trimmedPath, nil
}
