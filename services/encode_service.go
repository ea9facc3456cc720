package services

import (
	"context"
	"os"

	"videomerger/models"
	"videomerger/utils"
)

// EncodeService materializes the final output file via the external encoder
type EncodeService struct {
	runner       MediaRunner
	videoBitrate string
	audioBitrate string
	threads      int
}

// NewEncodeService creates a new encode service
func NewEncodeService(runner MediaRunner, videoBitrate, audioBitrate string, threads int) *EncodeService {
	return &EncodeService{
		runner:       runner,
		videoBitrate: videoBitrate,
		audioBitrate: audioBitrate,
		threads:      threads,
	}
}

// Encode writes the final container to outputPath: H.264 video plus, when
// audioPath is non-empty, AAC audio. The intermediate audio artifact is
// removed once the output is fully written. On failure no file is left at
// outputPath.
func (es *EncodeService) Encode(ctx context.Context, timeline *models.Timeline, audioPath, outputPath string) error {
	var args []string
	if audioPath != "" {
		args = utils.MuxArgs(timeline.Path, audioPath, outputPath, es.videoBitrate, es.audioBitrate, es.threads)
	} else {
		args = utils.VideoOnlyArgs(timeline.Path, outputPath)
	}

	if err := es.runner.Run(ctx, args); err != nil {
		_ = os.Remove(outputPath)
		return &models.EncodeError{Err: err}
	}

	if audioPath != "" {
		_ = os.Remove(audioPath)
	}

	return nil
}
