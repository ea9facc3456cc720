package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"

	"videomerger/config"
	"videomerger/models"
	"videomerger/utils"
)

// MergeService runs the canonical merge pipeline: fetch all sources into a
// job workspace, build the visual timeline, compose audio against it, and
// encode the final output. The workspace is released on every exit path.
type MergeService struct {
	cfg      *config.Config
	fetcher  *FetchService
	timeline *TimelineService
	audio    *AudioService
	encoder  *EncodeService
}

// NewMergeService wires the pipeline services against the real ffmpeg runner
func NewMergeService(cfg *config.Config) *MergeService {
	runner := utils.FFmpeg{}

	return &MergeService{
		cfg:      cfg,
		fetcher:  NewFetchService(cfg.DownloadTimeout, cfg.MaxConcurrentDownloads),
		timeline: NewTimelineService(runner, cfg.VideoResolution, cfg.VideoFPS),
		audio:    NewAudioService(runner, cfg.AudioSampleRate, cfg.AudioBitrate),
		encoder:  NewEncodeService(runner, cfg.VideoBitrate, cfg.AudioBitrate, cfg.FFmpegThreads),
	}
}

// Run processes one merge request to completion. narrationUpload, when
// non-nil, is an uploaded narration stream that replaces any narration URL.
//
// Failure policy: video and narration downloads are fatal; a background-audio
// download failure and every later audio-stage failure degrade to video-only
// output.
func (ms *MergeService) Run(ctx context.Context, req *models.MergeRequest, narrationUpload io.Reader) (*models.MergedOutput, error) {
	if req.MaxDuration <= 0 {
		req.MaxDuration = ms.cfg.MaxDuration
	}
	if req.BackgroundVolume <= 0 {
		req.BackgroundVolume = ms.cfg.BackgroundVolume
	}

	ws, err := utils.AcquireWorkspace(ms.cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire workspace: %w", err)
	}
	defer ws.Release()

	log.Printf("[Job %s] merging %d video(s)", ws.JobID, len(req.Videos))

	clipPaths, tracks, err := ms.fetchInputs(ctx, ws, req, narrationUpload)
	if err != nil {
		return nil, err
	}

	timeline, err := ms.timeline.Build(ctx, ws, clipPaths, req.MaxDuration)
	if err != nil {
		return nil, err
	}

	mixPath, err := ms.audio.Compose(ctx, ws, tracks, timeline.Duration)
	if err != nil {
		// Degrade to video-only rather than aborting
		log.Printf("[Job %s] audio composition failed, continuing without audio: %v", ws.JobID, err)
		mixPath = ""
	}

	filename := fmt.Sprintf("merged_video_%s.mp4", ws.JobID)
	outputPath := filepath.Join(ms.cfg.OutputDir, filename)

	log.Printf("[Job %s] writing final video to %s", ws.JobID, outputPath)
	if err := ms.encoder.Encode(ctx, timeline, mixPath, outputPath); err != nil {
		return nil, err
	}

	log.Printf("[Job %s] merge completed, duration: %.2fs", ws.JobID, timeline.Duration)
	return &models.MergedOutput{
		Path:     outputPath,
		Filename: filename,
		Duration: timeline.Duration,
		HasAudio: mixPath != "",
	}, nil
}

// fetchInputs materializes every source inside the workspace. Video and
// narration downloads run in one concurrent group and are fatal; the
// background track downloads alongside them but its failure only drops the
// track.
func (ms *MergeService) fetchInputs(ctx context.Context, ws *utils.Workspace, req *models.MergeRequest, narrationUpload io.Reader) ([]string, []models.AudioTrack, error) {
	downloads := make([]Download, 0, len(req.Videos)+1)
	clipPaths := make([]string, 0, len(req.Videos))
	for i, url := range req.Videos {
		dest := ws.Path(fmt.Sprintf("video_%03d.mp4", i))
		downloads = append(downloads, Download{URL: url, Dest: dest})
		clipPaths = append(clipPaths, dest)
	}

	narrationPath := ""
	if narrationUpload != nil {
		narrationPath = ws.Path("narration.mp3")
		if err := ms.fetcher.SaveUpload(narrationUpload, narrationPath); err != nil {
			return nil, nil, err
		}
	} else if req.Narration != "" {
		narrationPath = ws.Path("narration.mp3")
		downloads = append(downloads, Download{URL: req.Narration, Dest: narrationPath})
	}

	backgroundPath := ""
	backgroundErr := make(chan error, 1)
	if req.BackgroundAudio != "" {
		backgroundPath = ws.Path("background.mp3")
		url, dest := req.BackgroundAudio, backgroundPath
		go func() {
			backgroundErr <- ms.fetcher.Fetch(ctx, url, dest)
		}()
	} else {
		backgroundErr <- nil
	}

	if err := ms.fetcher.FetchAll(ctx, downloads); err != nil {
		if backgroundPath != "" {
			<-backgroundErr
		}
		return nil, nil, err
	}

	// Join point: all downloads settle before the timeline builder runs
	if err := <-backgroundErr; err != nil {
		log.Printf("[Job %s] background audio unavailable, continuing without it: %v", ws.JobID, err)
		backgroundPath = ""
	}

	tracks := make([]models.AudioTrack, 0, 2)
	if backgroundPath != "" {
		tracks = append(tracks, models.AudioTrack{Path: backgroundPath, Gain: req.BackgroundVolume})
	}
	if narrationPath != "" {
		tracks = append(tracks, models.AudioTrack{Path: narrationPath, Gain: 1.0})
	}

	return clipPaths, tracks, nil
}
