// Package config loads the optional dubalot TOML configuration file and
// supplies defaults for everything the CLI flags do not cover.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Tools locates the external binaries the pipeline shells out to.
type Tools struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
	Whisper string `toml:"whisper"`
	TTS     string `toml:"tts"`
	Python  string `toml:"python"`
}

// Models selects the external model identifiers.
type Models struct {
	Whisper string `toml:"whisper"`
	TTS     string `toml:"tts"`
}

// Dubbing tunes pipeline behavior.
type Dubbing struct {
	SampleRate            int     `toml:"sample_rate"`
	Workers               int     `toml:"workers"`
	OnSegmentError        string  `toml:"on_segment_error"`
	ReferenceSeconds      int     `toml:"reference_seconds"`
	LipSyncTimeoutMinutes int     `toml:"lip_sync_timeout_minutes"`
	KeepBackground        bool    `toml:"keep_background"`
	BackgroundGain        float64 `toml:"background_gain"`
}

// Translate configures the translation endpoint.
type Translate struct {
	BaseURL      string   `toml:"base_url"`
	AllowedHosts []string `toml:"allowed_hosts"`
}

type Config struct {
	Tools     Tools     `toml:"tools"`
	Models    Models    `toml:"models"`
	Dubbing   Dubbing   `toml:"dubbing"`
	Translate Translate `toml:"translate"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Tools: Tools{
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
			Whisper: "whisper",
			TTS:     "tts",
			Python:  "python",
		},
		Models: Models{
			Whisper: "base",
		},
		Dubbing: Dubbing{
			SampleRate:            24000,
			Workers:               4,
			OnSegmentError:        "silence",
			ReferenceSeconds:      30,
			LipSyncTimeoutMinutes: 30,
			KeepBackground:        true,
			BackgroundGain:        0.3,
		},
	}
}

// Load reads the TOML file at path over the defaults. An empty path returns
// the defaults; a missing file at an explicit path is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file %s not found", path)
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Dubbing.SampleRate <= 0 {
		return fmt.Errorf("dubbing.sample_rate must be positive, got %d", c.Dubbing.SampleRate)
	}
	if c.Dubbing.Workers <= 0 {
		return fmt.Errorf("dubbing.workers must be positive, got %d", c.Dubbing.Workers)
	}
	if c.Dubbing.ReferenceSeconds <= 0 {
		return fmt.Errorf("dubbing.reference_seconds must be positive, got %d", c.Dubbing.ReferenceSeconds)
	}
	if c.Dubbing.LipSyncTimeoutMinutes <= 0 {
		return fmt.Errorf("dubbing.lip_sync_timeout_minutes must be positive, got %d", c.Dubbing.LipSyncTimeoutMinutes)
	}
	if g := c.Dubbing.BackgroundGain; g <= 0 || g > 1 {
		return fmt.Errorf("dubbing.background_gain must be in (0, 1], got %g", g)
	}
	return nil
}
