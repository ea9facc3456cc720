package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port      string
	TempDir   string
	OutputDir string

	// Merge defaults
	MaxDuration      float64
	BackgroundVolume float64

	// Download settings
	DownloadTimeout        time.Duration
	MaxConcurrentDownloads int

	// Quality settings
	VideoResolution string
	VideoFPS        int
	VideoBitrate    string
	AudioBitrate    string
	AudioSampleRate int
	FFmpegThreads   int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:      getEnv("PORT", "8080"),
		TempDir:   getEnv("TEMP_DIR", "./temp"),
		OutputDir: getEnv("OUTPUT_DIR", "./output"),

		// Merge defaults
		MaxDuration:      getEnvAsFloat("MAX_DURATION", 600),
		BackgroundVolume: getEnvAsFloat("BACKGROUND_VOLUME", 0.4),

		// Download settings
		DownloadTimeout:        time.Duration(getEnvAsInt("DOWNLOAD_TIMEOUT_SECONDS", 300)) * time.Second,
		MaxConcurrentDownloads: getEnvAsInt("MAX_CONCURRENT_DOWNLOADS", 4),

		// Quality settings
		VideoResolution: getEnv("VIDEO_RESOLUTION", "1920x1080"),
		VideoFPS:        getEnvAsInt("VIDEO_FPS", 30),
		VideoBitrate:    getEnv("VIDEO_BITRATE", "5M"),
		AudioBitrate:    getEnv("AUDIO_BITRATE", "192k"),
		AudioSampleRate: getEnvAsInt("AUDIO_SAMPLE_RATE", 44100),
		FFmpegThreads:   getEnvAsInt("FFMPEG_THREADS", 4),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.TempDir == "" {
		return errors.New("TEMP_DIR must not be empty")
	}
	if c.OutputDir == "" {
		return errors.New("OUTPUT_DIR must not be empty")
	}
	if c.MaxDuration <= 0 {
		return errors.New("MAX_DURATION must be positive")
	}
	if c.BackgroundVolume <= 0 || c.BackgroundVolume > 1 {
		return errors.New("BACKGROUND_VOLUME must be in (0, 1]")
	}
	if c.MaxConcurrentDownloads <= 0 {
		return errors.New("MAX_CONCURRENT_DOWNLOADS must be positive")
	}
	if c.VideoFPS <= 0 {
		return errors.New("VIDEO_FPS must be positive")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{Port: %s, TempDir: %s, OutputDir: %s, MaxDuration: %.0fs}",
		c.Port, c.TempDir, c.OutputDir, c.MaxDuration)
}
