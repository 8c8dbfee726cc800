package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/sprite2video/internal/model"
)

// EnvPrefix prefixes every environment override, e.g. S2V_FPS.
const EnvPrefix = "S2V_"

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	FPS          int     `yaml:"fps"`
	Workers      int     `yaml:"workers"`
	VideoEncoder string  `yaml:"video_encoder"`
	Quality      int     `yaml:"quality"`
	Scale        int     `yaml:"scale"`
	FadeIn       float64 `yaml:"fade_in"`
	FadeOut      float64 `yaml:"fade_out"`
	ShowStats    bool    `yaml:"show_stats"`
	// MemoryBudget is the share of available host memory a render may hold
	// in decoded frames.
	MemoryBudget float64       `yaml:"memory_budget"`
	Library      string        `yaml:"library"`
	Logging      LoggingConfig `yaml:"logging"`
	BuildVersion string        `yaml:"-"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
	File   string `yaml:"file"`
}

// EncodeParams describe one encode of a rendered frame sequence.
type EncodeParams struct {
	Width, Height int
	FPS           int
	Duration      float64
	Scale         int
	FadeIn        float64
	FadeOut       float64
}

func Default() *Config {
	return &Config{
		FPS:          model.DefaultFPS,
		Workers:      runtime.NumCPU(),
		VideoEncoder: "libx264",
		Scale:        1,
		MemoryBudget: 0.5,
		Library:      "library.sqlite",
		Logging:      LoggingConfig{Level: "info", Format: "console"},
		BuildVersion: "dev",
	}
}

// LoadFile reads a YAML config on top of the defaults. Keys missing from the
// file keep their default value.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from S2V_* variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	ints := map[string]*int{
		"FPS":     &c.FPS,
		"WORKERS": &c.Workers,
		"QUALITY": &c.Quality,
		"SCALE":   &c.Scale,
	}
	for key, dst := range ints {
		if v, ok := lookup(EnvPrefix + key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s%s=%q: %w", EnvPrefix, key, v, ErrInvalidConfig)
			}
			*dst = n
		}
	}

	floats := map[string]*float64{
		"FADE_IN":       &c.FadeIn,
		"FADE_OUT":      &c.FadeOut,
		"MEMORY_BUDGET": &c.MemoryBudget,
	}
	for key, dst := range floats {
		if v, ok := lookup(EnvPrefix + key); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return fmt.Errorf("%s%s=%q: %w", EnvPrefix, key, v, ErrInvalidConfig)
			}
			*dst = f
		}
	}

	strs := map[string]*string{
		"VIDEO_ENCODER": &c.VideoEncoder,
		"LIBRARY":       &c.Library,
		"LOG_LEVEL":     &c.Logging.Level,
		"LOG_FORMAT":    &c.Logging.Format,
		"LOG_FILE":      &c.Logging.File,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}

	if v, ok := lookup(EnvPrefix + "SHOW_STATS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sSHOW_STATS=%q: %w", EnvPrefix, v, ErrInvalidConfig)
		}
		c.ShowStats = b
	}
	return nil
}

func (c *Config) Validate() error {
	switch {
	case c.FPS <= 0:
		return fmt.Errorf("fps %d: %w", c.FPS, ErrInvalidConfig)
	case c.Workers <= 0:
		return fmt.Errorf("workers %d: %w", c.Workers, ErrInvalidConfig)
	case c.Scale <= 0:
		return fmt.Errorf("scale %d: %w", c.Scale, ErrInvalidConfig)
	case c.FadeIn < 0 || c.FadeOut < 0:
		return fmt.Errorf("fades %.2f/%.2f: %w", c.FadeIn, c.FadeOut, ErrInvalidConfig)
	case c.MemoryBudget <= 0 || c.MemoryBudget > 1:
		return fmt.Errorf("memory budget %.2f: %w", c.MemoryBudget, ErrInvalidConfig)
	}
	return nil
}

// DefaultQuality is the quality value used when none is configured for encoder.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75 // bitrate = Q*100 kbit/s
	case "h264_nvenc":
		return 28
	default:
		return 23 // x264 CRF
	}
}
