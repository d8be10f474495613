// Package config loads the optional TOML settings file, overlays
// environment secrets, and validates the result before the pipeline
// accepts it.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Clips  ClipsConfig  `toml:"clips"`
	Oracle OracleConfig `toml:"oracle"`
	Faces  FacesConfig  `toml:"faces"`
	Tools  ToolsConfig  `toml:"tools"`
	Log    LogConfig    `toml:"log"`
}

type ClipsConfig struct {
	MaxHighlights      int     `toml:"max_highlights" validate:"gt=0"`
	MinDurationSec     float64 `toml:"min_duration_sec" validate:"gt=0"`
	MaxDurationSec     float64 `toml:"max_duration_sec" validate:"gt=0"`
	MinScore           float64 `toml:"min_score" validate:"gte=0,lte=1"`
	PerChunk           int     `toml:"per_chunk" validate:"gt=0"`
	SegmentsPerChunk   int     `toml:"segments_per_chunk" validate:"gt=0"`
	Language           string  `toml:"language" validate:"required"`
	ScoringConcurrency int     `toml:"scoring_concurrency" validate:"gt=0"`
}

type OracleConfig struct {
	Provider     string   `toml:"provider" validate:"oneof=openrouter ollama"`
	Model        string   `toml:"model"`
	APIKey       string   `toml:"-"` // env only, never from file
	BaseURL      string   `toml:"base_url"`
	AllowedHosts []string `toml:"allowed_hosts"`
	MaxAttempts  int      `toml:"max_attempts" validate:"gt=0"`
}

type FacesConfig struct {
	DetectorBin   string  `toml:"detector_bin" validate:"required"`
	MinConfidence float64 `toml:"min_confidence" validate:"gt=0,lte=1"`
	Margin        float64 `toml:"margin" validate:"gte=0,lt=1"`
	MaxFaces      int     `toml:"max_faces" validate:"gt=0"`
	DetectEveryN  int     `toml:"detect_every_n" validate:"gt=0"`
	IoUThreshold  float64 `toml:"iou_threshold" validate:"gt=0,lte=1"`
	TimeThreshold float64 `toml:"time_threshold" validate:"gt=0"`
}

type ToolsConfig struct {
	FFmpeg       string `toml:"ffmpeg"`
	FFprobe      string `toml:"ffprobe"`
	WhisperBin   string `toml:"whisper_bin" validate:"required"`
	WhisperModel string `toml:"whisper_model" validate:"required"`
}

type LogConfig struct {
	Level string `toml:"level"`
	JSON  bool   `toml:"json"`
}

// Default returns the settings a run starts from before any file or
// environment overlay.
func Default() Config {
	return Config{
		Clips: ClipsConfig{
			MaxHighlights:      5,
			MinDurationSec:     10,
			MaxDurationSec:     60,
			MinScore:           0.7,
			PerChunk:           3,
			SegmentsPerChunk:   30,
			Language:           "en",
			ScoringConcurrency: 4,
		},
		Oracle: OracleConfig{
			Provider:    "openrouter",
			MaxAttempts: 3,
		},
		Faces: FacesConfig{
			DetectorBin:   "facescan",
			MinConfidence: 0.5,
			Margin:        0.2,
			MaxFaces:      5,
			DetectEveryN:  5,
			IoUThreshold:  0.5,
			TimeThreshold: 0.5,
		},
		Tools: ToolsConfig{
			FFmpeg:       "ffmpeg",
			FFprobe:      "ffprobe",
			WhisperBin:   ".cache/bin/whisper.cpp",
			WhisperModel: ".cache/models/ggml-base.bin",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load merges defaults, the optional TOML file at path, and environment
// secrets. An empty path skips the file entirely.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		cfg.Oracle.APIKey = v
	}
	if v := os.Getenv("ORACLE_PROVIDER"); v != "" {
		cfg.Oracle.Provider = v
	}
	if v := os.Getenv("ORACLE_MODEL"); v != "" {
		cfg.Oracle.Model = v
	}
	if v := os.Getenv("ORACLE_BASE_URL"); v != "" {
		cfg.Oracle.BaseURL = v
	}
}

// Validate enforces the field tags plus the cross-field constraints the
// tags cannot express.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Clips.MinDurationSec >= c.Clips.MaxDurationSec {
		return errors.New("config: clips.min_duration_sec must be below clips.max_duration_sec")
	}
	if c.Oracle.Provider == "openrouter" && c.Oracle.APIKey == "" {
		return errors.New("config: OPENROUTER_API_KEY is required for the openrouter provider")
	}
	return nil
}
