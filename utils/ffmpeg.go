package utils

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// FFmpeg executes the external ffmpeg/ffprobe binaries
type FFmpeg struct{}

// Run executes an FFmpeg command
func (FFmpeg) Run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		return fmt.Errorf("ffmpeg error: %w, stderr: %s", err, stderr.String())
	}

	return nil
}

// Duration returns the duration of a media file in seconds. A file ffprobe
// cannot read is a decode failure.
func (FFmpeg) Duration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe error: %w", err)
	}

	durationStr := strings.TrimSpace(string(output))
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	return duration, nil
}

// splitResolution turns "1920x1080" into scale/pad dimensions
func splitResolution(resolution string) (string, string) {
	parts := strings.SplitN(resolution, "x", 2)
	if len(parts) != 2 {
		return "1920", "1080"
	}
	return parts[0], parts[1]
}

// ConcatVideoArgs builds the argument list that concatenates video inputs into
// one continuous visual track, normalizing resolution, aspect ratio, frame
// rate, and pixel format so mismatched clips concat cleanly.
func ConcatVideoArgs(inputs []string, output string, resolution string, fps int) []string {
	args := []string{}
	for _, file := range inputs {
		args = append(args, "-i", file)
	}

	w, h := splitResolution(resolution)

	filterParts := []string{}
	for i := range inputs {
		vNorm := fmt.Sprintf("[%d:v]scale=%s:%s:force_original_aspect_ratio=decrease,pad=%s:%s:(ow-iw)/2:(oh-ih)/2,setsar=1,fps=%d,format=yuv420p[v%d]",
			i, w, h, w, h, fps, i)
		filterParts = append(filterParts, vNorm)
	}

	concatFilter := ""
	for i := range inputs {
		concatFilter += fmt.Sprintf("[v%d]", i)
	}
	concatFilter += fmt.Sprintf("concat=n=%d:v=1:a=0[vout]", len(inputs))
	filterParts = append(filterParts, concatFilter)

	args = append(args,
		"-filter_complex", strings.Join(filterParts, ";"),
		"-map", "[vout]",
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "18",
		"-an",
		"-y", output,
	)

	return args
}

// TrimVideoArgs builds the argument list that trims a video to the first
// targetDuration seconds without re-encoding
func TrimVideoArgs(input, output string, targetDuration float64) []string {
	return []string{
		"-i", input,
		"-t", fmt.Sprintf("%.3f", targetDuration),
		"-c", "copy",
		"-y", output,
	}
}

// WriteConcatList writes an ffmpeg concat-demuxer list repeating one input
func WriteConcatList(listPath, input string, repeats int) error {
	var b strings.Builder
	for i := 0; i < repeats; i++ {
		fmt.Fprintf(&b, "file '%s'\n", input)
	}
	return os.WriteFile(listPath, []byte(b.String()), 0644)
}

// LoopConcatArgs builds the argument list that replays a concat list without
// re-encoding
func LoopConcatArgs(listPath, output string) []string {
	return []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y", output,
	}
}

// TrimAudioArgs builds the argument list that cuts an audio track to exactly
// targetDuration seconds
func TrimAudioArgs(input, output string, targetDuration float64, sampleRate int, bitrate string) []string {
	return []string{
		"-i", input,
		"-t", fmt.Sprintf("%.3f", targetDuration),
		"-ar", strconv.Itoa(sampleRate),
		"-ab", bitrate,
		"-y", output,
	}
}

// MixAudioArgs builds the argument list that superimposes audio inputs after
// applying a per-input gain. Inputs are expected to already match the target
// duration; amix pads nothing beyond the longest input.
func MixAudioArgs(inputs []string, gains []float64, output string, sampleRate int, bitrate string) []string {
	args := []string{}
	for _, file := range inputs {
		args = append(args, "-i", file)
	}

	filterParts := []string{}
	mixInputs := ""
	for i, gain := range gains {
		filterParts = append(filterParts, fmt.Sprintf("[%d:a]volume=%.2f[a%d]", i, gain, i))
		mixInputs += fmt.Sprintf("[a%d]", i)
	}
	filterParts = append(filterParts, fmt.Sprintf("%samix=inputs=%d:duration=longest:dropout_transition=0:normalize=0[aout]",
		mixInputs, len(inputs)))

	args = append(args,
		"-filter_complex", strings.Join(filterParts, ";"),
		"-map", "[aout]",
		"-ar", strconv.Itoa(sampleRate),
		"-ab", bitrate,
		"-y", output,
	)

	return args
}

// MuxArgs builds the argument list that combines the visual track and the
// mixed audio track into the final output container
func MuxArgs(videoPath, audioPath, output string, videoBitrate, audioBitrate string, threads int) []string {
	return []string{
		"-i", videoPath,
		"-i", audioPath,
		"-c:v", "libx264",
		"-preset", "medium",
		"-b:v", videoBitrate,
		"-c:a", "aac",
		"-b:a", audioBitrate,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-shortest",
		"-threads", strconv.Itoa(threads),
		"-y", output,
	}
}

// VideoOnlyArgs builds the argument list that finalizes the visual track with
// no audio stream
func VideoOnlyArgs(videoPath, output string) []string {
	return []string{
		"-i", videoPath,
		"-c:v", "copy",
		"-an",
		"-y", output,
	}
}
