package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videomerger/config"
	"videomerger/models"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Port:                   "8080",
		TempDir:                t.TempDir(),
		OutputDir:              t.TempDir(),
		MaxDuration:            600,
		BackgroundVolume:       0.4,
		DownloadTimeout:        time.Minute,
		MaxConcurrentDownloads: 4,
		VideoResolution:        "1920x1080",
		VideoFPS:               30,
		VideoBitrate:           "5M",
		AudioBitrate:           "192k",
		AudioSampleRate:        44100,
		FFmpegThreads:          2,
	}
}

func newTestMerger(cfg *config.Config, runner *fakeRunner) *MergeService {
	return &MergeService{
		cfg:      cfg,
		fetcher:  NewFetchService(cfg.DownloadTimeout, cfg.MaxConcurrentDownloads),
		timeline: NewTimelineService(runner, cfg.VideoResolution, cfg.VideoFPS),
		audio:    NewAudioService(runner, cfg.AudioSampleRate, cfg.AudioBitrate),
		encoder:  NewEncodeService(runner, cfg.VideoBitrate, cfg.AudioBitrate, cfg.FFmpegThreads),
	}
}

// mediaServer serves fake media bytes; paths containing "missing" 404
func mediaServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "missing") {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		fmt.Fprint(w, "media bytes for ", r.URL.Path)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func assertTempRootEmpty(t *testing.T, cfg *config.Config) {
	t.Helper()
	entries, err := os.ReadDir(cfg.TempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "job workspace must not survive the request")
}

func TestRunMergesVideosWithMixedAudio(t *testing.T) {
	srv := mediaServer(t)
	cfg := testConfig(t)

	runner := newFakeRunner()
	runner.durations["video_000.mp4"] = 10
	runner.durations["video_001.mp4"] = 15
	runner.durations["video_002.mp4"] = 8
	runner.durations["background.mp3"] = 12
	runner.durations["narration.mp3"] = 40

	ms := newTestMerger(cfg, runner)
	req := &models.MergeRequest{
		Videos:          []string{srv.URL + "/v1", srv.URL + "/v2", srv.URL + "/v3"},
		BackgroundAudio: srv.URL + "/bg",
		Narration:       srv.URL + "/narration",
	}

	output, err := ms.Run(context.Background(), req, nil)
	require.NoError(t, err)

	assert.InDelta(t, 33, output.Duration, 1e-9)
	assert.True(t, output.HasAudio)
	assert.FileExists(t, output.Path)
	assert.Contains(t, output.Filename, "merged_video_")
	assertTempRootEmpty(t, cfg)
}

func TestRunTruncatesToMaxDuration(t *testing.T) {
	srv := mediaServer(t)
	cfg := testConfig(t)

	runner := newFakeRunner()
	runner.durations["video_000.mp4"] = 10
	runner.durations["video_001.mp4"] = 15
	runner.durations["video_002.mp4"] = 8

	ms := newTestMerger(cfg, runner)
	req := &models.MergeRequest{
		Videos:      []string{srv.URL + "/v1", srv.URL + "/v2", srv.URL + "/v3"},
		MaxDuration: 20,
	}

	output, err := ms.Run(context.Background(), req, nil)
	require.NoError(t, err)

	assert.InDelta(t, 20, output.Duration, 1e-9)
	assert.False(t, output.HasAudio)
}

func TestRunBackgroundFetchFailureDegradesToVideoOnly(t *testing.T) {
	srv := mediaServer(t)
	cfg := testConfig(t)

	runner := newFakeRunner()
	runner.durations["video_000.mp4"] = 10

	ms := newTestMerger(cfg, runner)
	req := &models.MergeRequest{
		Videos:          []string{srv.URL + "/v1"},
		BackgroundAudio: srv.URL + "/missing-bg",
	}

	output, err := ms.Run(context.Background(), req, nil)
	require.NoError(t, err)

	assert.False(t, output.HasAudio)
	assert.FileExists(t, output.Path)
	assertTempRootEmpty(t, cfg)
}

func TestRunAudioComposeFailureDegradesToVideoOnly(t *testing.T) {
	srv := mediaServer(t)
	cfg := testConfig(t)

	runner := newFakeRunner()
	runner.durations["video_000.mp4"] = 10
	runner.durationErrs["background.mp3"] = errors.New("invalid data found")

	ms := newTestMerger(cfg, runner)
	req := &models.MergeRequest{
		Videos:          []string{srv.URL + "/v1"},
		BackgroundAudio: srv.URL + "/bg",
	}

	output, err := ms.Run(context.Background(), req, nil)
	require.NoError(t, err)

	assert.False(t, output.HasAudio)
	assertTempRootEmpty(t, cfg)
}

func TestRunVideoFetchFailureIsFatal(t *testing.T) {
	srv := mediaServer(t)
	cfg := testConfig(t)

	ms := newTestMerger(cfg, newFakeRunner())
	req := &models.MergeRequest{
		Videos: []string{srv.URL + "/missing-1", srv.URL + "/missing-2"},
	}

	_, err := ms.Run(context.Background(), req, nil)

	var fetchErr *models.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assertTempRootEmpty(t, cfg)
}

func TestRunNarrationFetchFailureIsFatal(t *testing.T) {
	srv := mediaServer(t)
	cfg := testConfig(t)

	runner := newFakeRunner()
	runner.durations["video_000.mp4"] = 10

	ms := newTestMerger(cfg, runner)
	req := &models.MergeRequest{
		Videos:    []string{srv.URL + "/v1"},
		Narration: srv.URL + "/missing-narration",
	}

	_, err := ms.Run(context.Background(), req, nil)

	var fetchErr *models.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assertTempRootEmpty(t, cfg)
}

func TestRunNoDecodableVideoIsFatal(t *testing.T) {
	srv := mediaServer(t)
	cfg := testConfig(t)

	runner := newFakeRunner()
	runner.durationErrs["video_000.mp4"] = errors.New("bad header")
	runner.durationErrs["video_001.mp4"] = errors.New("bad header")

	ms := newTestMerger(cfg, runner)
	req := &models.MergeRequest{
		Videos: []string{srv.URL + "/v1", srv.URL + "/v2"},
	}

	_, err := ms.Run(context.Background(), req, nil)

	assert.ErrorIs(t, err, models.ErrNoUsableVideo)
	assertTempRootEmpty(t, cfg)
}

func TestRunNarrationUploadBypassesFetch(t *testing.T) {
	srv := mediaServer(t)
	cfg := testConfig(t)

	runner := newFakeRunner()
	runner.durations["video_000.mp4"] = 10
	runner.durations["narration.mp3"] = 40

	ms := newTestMerger(cfg, runner)
	req := &models.MergeRequest{
		Videos: []string{srv.URL + "/v1"},
	}

	output, err := ms.Run(context.Background(), req, strings.NewReader("uploaded narration"))
	require.NoError(t, err)

	assert.True(t, output.HasAudio)
	assertTempRootEmpty(t, cfg)
}

func TestRunEncodeFailureIsFatal(t *testing.T) {
	srv := mediaServer(t)
	cfg := testConfig(t)

	runner := newFakeRunner()
	runner.durations["video_000.mp4"] = 10
	runner.failWhen = func(args []string) error {
		// Fail only the finalize step (stream copy), not the concat encode
		for i := 0; i < len(args)-1; i++ {
			if args[i] == "-c:v" && args[i+1] == "copy" {
				return errors.New("ffmpeg error: exit status 1")
			}
		}
		return nil
	}

	ms := newTestMerger(cfg, runner)
	req := &models.MergeRequest{
		Videos: []string{srv.URL + "/v1"},
	}

	_, err := ms.Run(context.Background(), req, nil)

	var encodeErr *models.EncodeError
	require.ErrorAs(t, err, &encodeErr)
	assertTempRootEmpty(t, cfg)

	entries, readErr := os.ReadDir(cfg.OutputDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "no output file may be left behind on encode failure")
}
