package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// DefaultConfigPaths are tried in order when no path is given
var DefaultConfigPaths = []string{
	"halfway.yaml",
	"halfway.yml",
}

const (
	// ConfigPathEnvVar names an explicit configuration file
	ConfigPathEnvVar = "HALFWAY_CONFIG"

	envPrefix = "HALFWAY_"
)

// Config is the complete client configuration
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Session   SessionConfig   `koanf:"session"`
	Animation AnimationConfig `koanf:"animation"`
	TTS       TTSConfig       `koanf:"tts"`
	Auth      AuthConfig      `koanf:"auth"`
	Points    PointsConfig    `koanf:"points"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig locates the lobby server
type ServerConfig struct {
	URL     string        `koanf:"url" validate:"required,url"`
	WSPath  string        `koanf:"ws_path" validate:"required,startswith=/"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

// SessionConfig selects where client state is kept
type SessionConfig struct {
	Store string        `koanf:"store" validate:"oneof=memory file badger"`
	Dir   string        `koanf:"dir"`
	TTL   time.Duration `koanf:"ttl" validate:"gte=0"`
}

// AnimationConfig controls connector animation
type AnimationConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Duration time.Duration `koanf:"duration" validate:"gte=0"`
}

// TTSConfig controls where synthesized speech is written
type TTSConfig struct {
	OutputDir string        `koanf:"output_dir" validate:"required"`
	Timeout   time.Duration `koanf:"timeout" validate:"gt=0"`
}

// AuthConfig holds an optional identity-provider ID token
type AuthConfig struct {
	IDToken string `koanf:"id_token"`
}

// PointsConfig paces point updates; a zero rate disables pacing
type PointsConfig struct {
	Rate  float64 `koanf:"rate" validate:"gte=0"`
	Burst int     `koanf:"burst" validate:"gte=1"`
}

// LoggingConfig configures the zerolog logger
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// Default returns the built-in configuration
func Default() *Config {
	stateDir := defaultStateDir()
	return &Config{
		Server: ServerConfig{
			URL:     "http://localhost:8000",
			WSPath:  "/ws",
			Timeout: 15 * time.Second,
		},
		Session: SessionConfig{
			Store: "memory",
			Dir:   filepath.Join(stateDir, "session"),
			TTL:   0,
		},
		Animation: AnimationConfig{
			Enabled:  true,
			Duration: 2 * time.Second,
		},
		TTS: TTSConfig{
			OutputDir: filepath.Join(stateDir, "audio"),
			Timeout:   30 * time.Second,
		},
		Points: PointsConfig{
			Rate:  2,
			Burst: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "halfway")
	}
	return ".halfway"
}

// Load builds the configuration from defaults, the file at path (or the
// first default path found) and the environment
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads a single YAML file over the defaults, ignoring the environment
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envMappings maps HALFWAY_* names (prefix stripped, lower case) to config keys
var envMappings = map[string]string{
	"server_url":         "server.url",
	"server_ws_path":     "server.ws_path",
	"server_timeout":     "server.timeout",
	"session_store":      "session.store",
	"session_dir":        "session.dir",
	"session_ttl":        "session.ttl",
	"animation_enabled":  "animation.enabled",
	"animation_duration": "animation.duration",
	"tts_output_dir":     "tts.output_dir",
	"tts_timeout":        "tts.timeout",
	"auth_id_token":      "auth.id_token",
	"points_rate":        "points.rate",
	"points_burst":       "points.burst",
	"log_level":          "logging.level",
	"log_format":         "logging.format",
	"logging_level":      "logging.level",
	"logging_format":     "logging.format",
}

// envTransformFunc returns "" for variables that are not configuration keys
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	return envMappings[key]
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and cross-field rules
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if c.Session.Store == "file" && c.Session.Dir == "" {
		return fmt.Errorf("%w: session.dir is required for the file store", ErrInvalidConfig)
	}
	if c.Session.TTL > 0 && c.Session.Store != "badger" {
		return fmt.Errorf("%w: session.ttl is only supported by the badger store", ErrInvalidConfig)
	}
	return nil
}

// WebSocketPath returns the WebSocket path with a leading slash
func (c *Config) WebSocketPath() string {
	return "/" + strings.TrimLeft(c.Server.WSPath, "/")
}
