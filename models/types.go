package models

// MergeRequest represents the input from the caller
type MergeRequest struct {
	Videos           []string `json:"videos" binding:"required,min=1"`
	BackgroundAudio  string   `json:"background_audio"`
	BackgroundVolume float64  `json:"background_volume"`
	Narration        string   `json:"narration"`
	MaxDuration      float64  `json:"max_duration"`
}

// MergeResponse names the produced output file
type MergeResponse struct {
	OutputFile string  `json:"output_file"`
	Duration   float64 `json:"duration"`
	Message    string  `json:"message"`
}

// ErrorResponse carries a pipeline failure to the caller
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// Timeline is the concatenated visual track
type Timeline struct {
	Path     string
	Duration float64
}

// AudioTrack is one audio input with its mix gain. Its duration is read
// during composition and fitted to the timeline.
type AudioTrack struct {
	Path string
	Gain float64
}

// MergedOutput is the final encoded file
type MergedOutput struct {
	Path     string
	Filename string
	Duration float64
	HasAudio bool
}
