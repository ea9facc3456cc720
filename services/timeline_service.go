package services

import (
	"context"
	"fmt"
	"log"

	"videomerger/models"
	"videomerger/utils"
)

// TimelineService concatenates downloaded clips into one continuous visual
// track
type TimelineService struct {
	runner     MediaRunner
	resolution string
	fps        int
}

// NewTimelineService creates a new timeline service
func NewTimelineService(runner MediaRunner, resolution string, fps int) *TimelineService {
	return &TimelineService{
		runner:     runner,
		resolution: resolution,
		fps:        fps,
	}
}

// Build probes each clip, skips the ones that will not decode, and
// concatenates the survivors in their original order. The result is trimmed
// to maxDuration, measured from the start of the concatenated timeline.
func (ts *TimelineService) Build(ctx context.Context, ws *utils.Workspace, clipPaths []string, maxDuration float64) (*models.Timeline, error) {
	surviving := make([]string, 0, len(clipPaths))
	total := 0.0

	for _, path := range clipPaths {
		duration, err := ts.runner.Duration(ctx, path)
		if err != nil {
			// A clip that will not decode does not abort the request
			log.Printf("[Job %s] skipping clip %s: %v", ws.JobID, path, err)
			continue
		}
		log.Printf("[Job %s] loaded clip %s, duration: %.2fs", ws.JobID, path, duration)
		surviving = append(surviving, path)
		total += duration
	}

	if len(surviving) == 0 {
		return nil, models.ErrNoUsableVideo
	}

	concatPath := ws.Path("timeline.mp4")
	if err := ts.runner.Run(ctx, utils.ConcatVideoArgs(surviving, concatPath, ts.resolution, ts.fps)); err != nil {
		return nil, fmt.Errorf("failed to concatenate clips: %w", err)
	}

	if total <= maxDuration {
		return &models.Timeline{Path: concatPath, Duration: total}, nil
	}

	log.Printf("[Job %s] trimming timeline to max duration: %.0fs", ws.JobID, maxDuration)
	trimmedPath := ws.Path("timeline_trimmed.mp4")
	if err := ts.runner.Run(ctx, utils.TrimVideoArgs(concatPath, trimmedPath, maxDuration)); err != nil {
		return nil, fmt.Errorf("failed to trim timeline: %w", err)
	}

	return &models.Timeline{Path: trimmedPath, Duration: maxDuration}, nil
}
