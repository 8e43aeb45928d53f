package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/kelseyhightower/envconfig"
	yaml "gopkg.in/yaml.v3"
)

type AppConfig struct {
	SquareSize    int `yaml:"square_size" envconfig:"SQUARE_SIZE"`
	FramesPerMove int `yaml:"frames_per_move" envconfig:"FRAMES_PER_MOVE"`

	OutputWidth  int    `yaml:"output_width" envconfig:"OUTPUT_WIDTH"`
	OutputHeight int    `yaml:"output_height" envconfig:"OUTPUT_HEIGHT"`
	OutputFormat string `yaml:"output_format" envconfig:"OUTPUT_FORMAT"`
	JPEGQuality  int    `yaml:"jpeg_quality" envconfig:"JPEG_QUALITY"`
	OutputDir    string `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	TemplatePath string `yaml:"template_path" envconfig:"TEMPLATE_PATH"`
	EmitSVG      bool   `yaml:"emit_svg" envconfig:"EMIT_SVG"`

	RenderWorkers int `yaml:"render_workers" envconfig:"RENDER_WORKERS"`

	RedisURL string `yaml:"redis_url" envconfig:"REDIS_URL"`
	HTTPAddr string `yaml:"http_addr" envconfig:"HTTP_ADDR"`
}

// ConfigFileEnv names the optional YAML file read before the environment.
const ConfigFileEnv = "PUZZLE_RENDER_CONFIG"

// Defaults mirror the video pipeline: 135px squares, 24 frames per move,
// 1920x1080 JPEG output.
func Defaults() *AppConfig {
	return &AppConfig{
		SquareSize:    135,
		FramesPerMove: 24,
		OutputWidth:   1920,
		OutputHeight:  1080,
		OutputFormat:  "jpg",
		JPEGQuality:   90,
		OutputDir:     "chess",
		RenderWorkers: runtime.GOMAXPROCS(0),
		HTTPAddr:      ":8080",
	}
}

// Load applies defaults, then the YAML file named by PUZZLE_RENDER_CONFIG,
// then environment variables.
func Load() (*AppConfig, error) {
	cfg := Defaults()

	if path := strings.TrimSpace(os.Getenv(ConfigFileEnv)); path != "" {
		if err := cfg.MergeFile(path); err != nil {
			return nil, err
		}
	}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	cfg.OutputFormat = strings.ToLower(strings.TrimSpace(cfg.OutputFormat))
	cfg.OutputDir = strings.TrimSpace(cfg.OutputDir)
	cfg.TemplatePath = strings.TrimSpace(cfg.TemplatePath)
	cfg.RedisURL = strings.TrimSpace(cfg.RedisURL)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MergeFile overlays the keys present in a YAML file.
func (c *AppConfig) MergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *AppConfig) Validate() error {
	if c.SquareSize <= 0 {
		return errors.New("SQUARE_SIZE must be positive")
	}
	if c.FramesPerMove < 1 || c.FramesPerMove > 999 {
		return errors.New("FRAMES_PER_MOVE must be between 1 and 999")
	}
	if c.OutputWidth < 0 || c.OutputHeight < 0 {
		return errors.New("OUTPUT_WIDTH and OUTPUT_HEIGHT must not be negative")
	}
	switch c.OutputFormat {
	case "png", "jpg", "jpeg":
	default:
		return fmt.Errorf("OUTPUT_FORMAT %q is not png or jpg", c.OutputFormat)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return errors.New("JPEG_QUALITY must be between 1 and 100")
	}
	if c.OutputDir == "" {
		return errors.New("OUTPUT_DIR is required")
	}
	if c.RenderWorkers <= 0 {
		c.RenderWorkers = 1
	}
	return nil
}
