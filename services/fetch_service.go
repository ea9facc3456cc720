package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"videomerger/models"
)

// FetchService downloads remote media sources into the job workspace
type FetchService struct {
	httpClient    *http.Client
	maxConcurrent int
}

// NewFetchService creates a new fetch service
func NewFetchService(timeout time.Duration, maxConcurrent int) *FetchService {
	return &FetchService{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxConcurrent: maxConcurrent,
	}
}

// Download pairs a source URL with its destination inside the workspace
type Download struct {
	URL  string
	Dest string
}

// Fetch streams a remote resource to destPath. The file appears at destPath
// only after the full body has been written. A transport error and a non-2xx
// status are the same failure class.
func (fs *FetchService) Fetch(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &models.FetchError{URL: url, Err: err}
	}

	resp, err := fs.httpClient.Do(req)
	if err != nil {
		return &models.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &models.FetchError{URL: url, Status: resp.StatusCode}
	}

	partPath := destPath + ".part"
	out, err := os.Create(partPath)
	if err != nil {
		return &models.FetchError{URL: url, Err: err}
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return &models.FetchError{URL: url, Err: err}
	}
	if err := out.Close(); err != nil {
		return &models.FetchError{URL: url, Err: err}
	}

	if err := os.Rename(partPath, destPath); err != nil {
		return &models.FetchError{URL: url, Err: err}
	}

	return nil
}

// FetchAll downloads all sources concurrently and returns once every download
// has finished. The first failure cancels the remaining downloads.
func (fs *FetchService) FetchAll(ctx context.Context, downloads []Download) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fs.maxConcurrent)

	for _, dl := range downloads {
		dl := dl
		g.Go(func() error {
			return fs.Fetch(ctx, dl.URL, dl.Dest)
		})
	}

	return g.Wait()
}

// SaveUpload copies a caller-supplied byte stream into the workspace,
// bypassing any network fetch
func (fs *FetchService) SaveUpload(src io.Reader, destPath string) error {
	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create upload file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("failed to write upload: %w", err)
	}

	return nil
}
