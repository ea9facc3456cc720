package handlers

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"videomerger/config"
	"videomerger/metrics"
	"videomerger/models"
	"videomerger/services"
	"videomerger/utils"
)

// LatestOutputName is the fixed-name artifact overwritten on each success
const LatestOutputName = "latest.mp4"

// MergeHandler exposes the merge pipeline over HTTP. Three routes share one
// pipeline and differ only in how the output is delivered: JSON reference,
// streamed bytes, or multipart-upload-driven narration with streamed bytes.
type MergeHandler struct {
	cfg     *config.Config
	merger  *services.MergeService
	metrics *metrics.Metrics
}

// NewMergeHandler creates a new merge handler
func NewMergeHandler(cfg *config.Config, merger *services.MergeService, m *metrics.Metrics) *MergeHandler {
	return &MergeHandler{
		cfg:     cfg,
		merger:  merger,
		metrics: m,
	}
}

// Merge handles POST /api/merge: runs the pipeline and returns a JSON
// reference to the output file kept in the output directory.
func (h *MergeHandler) Merge(c *gin.Context) {
	var req models.MergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request: " + err.Error()})
		return
	}

	output, ok := h.runPipeline(c, &req, nil)
	if !ok {
		return
	}

	// Keep a fixed-name copy of the most recent success
	if err := h.copyLatest(output.Path); err != nil {
		log.Printf("failed to update %s: %v", LatestOutputName, err)
	}

	c.JSON(http.StatusOK, models.MergeResponse{
		OutputFile: "/output/" + output.Filename,
		Duration:   output.Duration,
		Message:    "videos and audio merged successfully",
	})
}

// MergeAndDownload handles POST /api/merge/download: runs the pipeline and
// streams the output back, deleting it after the response is written.
func (h *MergeHandler) MergeAndDownload(c *gin.Context) {
	var req models.MergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request: " + err.Error()})
		return
	}

	output, ok := h.runPipeline(c, &req, nil)
	if !ok {
		return
	}

	h.streamOutput(c, output)
}

// MergeUpload handles POST /api/merge/upload: multipart form with an uploaded
// narration file; streams the output back.
func (h *MergeHandler) MergeUpload(c *gin.Context) {
	req, narration, err := bindMultipart(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request: " + err.Error()})
		return
	}
	if narration != nil {
		defer narration.Close()
	}

	var reader io.Reader
	if narration != nil {
		reader = narration
	}

	output, ok := h.runPipeline(c, req, reader)
	if !ok {
		return
	}

	h.streamOutput(c, output)
}

// Output handles GET /output/:filename, serving mode-B results
func (h *MergeHandler) Output(c *gin.Context) {
	filename := filepath.Base(c.Param("filename"))
	path := filepath.Join(h.cfg.OutputDir, filename)

	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "output file not found"})
		return
	}

	c.Header("Content-Type", "video/mp4")
	c.File(path)
}

// runPipeline executes the merge and maps failures onto the transport. The
// bool result reports whether a response still needs to be written.
func (h *MergeHandler) runPipeline(c *gin.Context, req *models.MergeRequest, narration io.Reader) (*models.MergedOutput, bool) {
	h.metrics.IncMerges()
	h.metrics.MergeStarted()
	start := time.Now()

	output, err := h.merger.Run(c.Request.Context(), req, narration)
	h.metrics.MergeFinished(time.Since(start).Seconds())

	if err != nil {
		kind := models.ErrorKind(err)
		h.metrics.IncFailures(kind)
		log.Printf("merge failed: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error(), Kind: kind})
		return nil, false
	}

	hadAudioSources := req.BackgroundAudio != "" || req.Narration != "" || narration != nil
	if hadAudioSources && !output.HasAudio {
		h.metrics.IncAudioDegrades()
	}

	return output, true
}

// streamOutput delivers the file as an attachment and removes it afterwards,
// including when the client disconnects mid-stream or delivery fails
func (h *MergeHandler) streamOutput(c *gin.Context, output *models.MergedOutput) {
	defer func() {
		if err := os.Remove(output.Path); err != nil {
			log.Printf("failed to remove delivered output %s: %v", output.Path, err)
		}
	}()

	if _, err := os.Stat(output.Path); err != nil {
		deliveryErr := &models.DeliveryError{Err: err}
		h.metrics.IncFailures(models.ErrorKind(deliveryErr))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: deliveryErr.Error(),
			Kind:  models.ErrorKind(deliveryErr),
		})
		return
	}

	c.Header("Content-Type", "video/mp4")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", output.Filename))
	c.File(output.Path)
}

func (h *MergeHandler) copyLatest(src string) error {
	return utils.CopyFile(src, filepath.Join(h.cfg.OutputDir, LatestOutputName))
}

// bindMultipart reads the upload form: videos as a repeated field, narration
// as an uploaded file, and the scalar overrides as plain form values
func bindMultipart(c *gin.Context) (*models.MergeRequest, io.ReadCloser, error) {
	videos := c.PostFormArray("videos")
	if len(videos) == 0 {
		return nil, nil, fmt.Errorf("at least one video URL is required")
	}

	req := &models.MergeRequest{
		Videos:          videos,
		BackgroundAudio: c.PostForm("background_audio"),
		Narration:       c.PostForm("narration_url"),
	}

	if v := c.PostForm("background_volume"); v != "" {
		vol, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid background_volume: %w", err)
		}
		req.BackgroundVolume = vol
	}
	if v := c.PostForm("max_duration"); v != "" {
		maxDur, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid max_duration: %w", err)
		}
		req.MaxDuration = maxDur
	}

	fileHeader, err := c.FormFile("narration")
	if err != nil {
		// Narration upload is optional when a narration URL is given
		return req, nil, nil
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open narration upload: %w", err)
	}

	return req, file, nil
}
