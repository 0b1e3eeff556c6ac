// Package config loads runtime settings for the CLI and the editor server.
//
// Settings are layered: built-in defaults, then an optional TOML file, then
// environment variables prefixed with AYATCARD_. The Gemini key is also read
// from the unprefixed GEMINI_API_KEY.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/xob0t/ayatcard/pkg/content"
	"github.com/xob0t/ayatcard/pkg/genai"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "AYATCARD_"

// Config holds the runtime settings.
type Config struct {
	Port    string `toml:"port"    env:"PORT"`
	Debug   bool   `toml:"debug"   env:"DEBUG"`
	FontDir string `toml:"font_dir" env:"FONT_DIR"`

	QuranAPIBase      string        `toml:"quran_api_base"      env:"QURAN_API_BASE"`
	CommentaryAPIBase string        `toml:"commentary_api_base" env:"COMMENTARY_API_BASE"`
	HTTPTimeout       time.Duration `toml:"http_timeout"        env:"HTTP_TIMEOUT"`

	GeminiAPIKey  string  `toml:"gemini_api_key"  env:"GEMINI_API_KEY"`
	GeminiModel   string  `toml:"gemini_model"    env:"GEMINI_MODEL"`
	GeminiBaseURL string  `toml:"gemini_base_url" env:"GEMINI_BASE_URL"`
	GenerationRPS float64 `toml:"generation_rps"  env:"GENERATION_RPS"`

	// PreviewScale is the default scale of /preview when none is given.
	PreviewScale float64 `toml:"preview_scale" env:"PREVIEW_SCALE"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:              "8080",
		FontDir:           "fonts",
		QuranAPIBase:      content.DefaultQuranBase,
		CommentaryAPIBase: content.DefaultCommentaryBase,
		HTTPTimeout:       12 * time.Second,
		GeminiModel:       genai.DefaultModel,
		GeminiBaseURL:     genai.DefaultBaseURL,
		GenerationRPS:     0.2,
		PreviewScale:      1,
	}
}

// XDGConfigHome returns XDG_CONFIG_HOME or ~/.config.
func XDGConfigHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config")
}

// DefaultPath is the config file read when no path is given.
func DefaultPath() string {
	return filepath.Join(XDGConfigHome(), "ayatcard", "config.toml")
}

// Load builds the settings. An empty path means DefaultPath; a missing file
// at the default path is not an error, a missing explicit file is.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	return cfg, nil
}

// Addr is the listen address for Port.
func (c Config) Addr() string { return ":" + c.Port }

// Write encodes c as TOML to path, creating the parent directory.
func Write(path string, c Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return f.Close()
}
