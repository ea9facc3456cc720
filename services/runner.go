package services

import "context"

// MediaRunner abstracts the external ffmpeg/ffprobe binaries so the pipeline
// services can be exercised without them
type MediaRunner interface {
	Run(ctx context.Context, args []string) error
	Duration(ctx context.Context, path string) (float64, error)
}
