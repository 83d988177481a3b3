package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config is the persistent application configuration
type Config struct {
	// Where saved content comes from
	Store StoreConfig `json:"store"`

	// Fetch, retry and projection timings
	Timing TimingConfig `json:"timing"`

	// Email -> plan table for the entitlement resolver
	Entitlements map[string]string `json:"entitlements" validate:"dive,keys,required,endkeys,oneof=admin ambassador subscriber free"`

	Server ServerConfig `json:"server"`
}

// StoreConfig selects and configures the content store backend
type StoreConfig struct {
	Backend     string `json:"backend" validate:"oneof=sqlite rest"`
	DBPath      string `json:"db_path" validate:"required_if=Backend sqlite"`
	RESTURL     string `json:"rest_url,omitempty" validate:"required_if=Backend rest,omitempty,url"`
	APIKey      string `json:"api_key,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
	JWTSecret   string `json:"jwt_secret,omitempty"`

	// Optional S3 listing for generated images
	ImageBucket  string `json:"image_bucket,omitempty"`
	ImagePrefix  string `json:"image_prefix,omitempty"`
	ImageRegion  string `json:"image_region,omitempty"`
	ImageBaseURL string `json:"image_base_url,omitempty" validate:"required_with=ImageBucket,omitempty,url"`
}

// TimingConfig holds the fetch pipeline timings in milliseconds
type TimingConfig struct {
	MinIntervalMs       int `json:"min_interval_ms" validate:"gte=600,lte=1000"`
	CooldownMs          int `json:"cooldown_ms" validate:"gt=0"`
	RetryBaseMs         int `json:"retry_base_ms" validate:"gt=0"`
	RetryMaxMs          int `json:"retry_max_ms" validate:"gtefield=RetryBaseMs"`
	MaxRetries          int `json:"max_retries" validate:"gte=0"`
	ProjectorThrottleMs int `json:"projector_throttle_ms" validate:"gt=0"`
	HistorySize         int `json:"history_size" validate:"gt=0"`
	EmptyRecheckMs      int `json:"empty_recheck_ms" validate:"gte=0"`
}

// ServerConfig holds contentd settings
type ServerConfig struct {
	Addr string `json:"addr" validate:"required"`
}

var validate = validator.New()

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: "sqlite",
			DBPath:  filepath.Join(Dir(), "content.db"),
		},
		Timing: TimingConfig{
			MinIntervalMs:       800,
			CooldownMs:          800,
			RetryBaseMs:         500,
			RetryMaxMs:          3000,
			MaxRetries:          3,
			ProjectorThrottleMs: 2000,
			HistorySize:         3,
			EmptyRecheckMs:      600,
		},
		Entitlements: map[string]string{},
		Server: ServerConfig{
			Addr: ":8787",
		},
	}
}

// Dir returns the application directory (~/.lessonvault)
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".lessonvault")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(Dir(), "config.json")
}

// Load reads config from disk (or defaults), applies .env and environment
// overrides, and validates the result.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath(), ".env")
}

// LoadFrom is Load with explicit paths. A missing file at either path is not an error.
func LoadFrom(path, dotEnvPath string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if dotEnvPath != "" {
		if err := godotenv.Load(dotEnvPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", dotEnvPath, err)
		}
	}
	cfg.AutoPopulateFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config: invalid: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}

// Save writes config to disk
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes config to path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600) // holds API keys
}

// AutoPopulateFromEnv overlays LESSONVAULT_* environment variables
func (c *Config) AutoPopulateFromEnv() {
	overrides := []struct {
		env string
		dst *string
	}{
		{"LESSONVAULT_BACKEND", &c.Store.Backend},
		{"LESSONVAULT_DB", &c.Store.DBPath},
		{"LESSONVAULT_REST_URL", &c.Store.RESTURL},
		{"LESSONVAULT_API_KEY", &c.Store.APIKey},
		{"LESSONVAULT_ACCESS_TOKEN", &c.Store.AccessToken},
		{"LESSONVAULT_JWT_SECRET", &c.Store.JWTSecret},
		{"LESSONVAULT_IMAGE_BUCKET", &c.Store.ImageBucket},
		{"LESSONVAULT_ADDR", &c.Server.Addr},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.dst = v
		}
	}
}

// Duration helpers

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func (t TimingConfig) MinInterval() time.Duration       { return ms(t.MinIntervalMs) }
func (t TimingConfig) Cooldown() time.Duration          { return ms(t.CooldownMs) }
func (t TimingConfig) RetryBase() time.Duration         { return ms(t.RetryBaseMs) }
func (t TimingConfig) RetryMax() time.Duration          { return ms(t.RetryMaxMs) }
func (t TimingConfig) ProjectorThrottle() time.Duration { return ms(t.ProjectorThrottleMs) }
func (t TimingConfig) EmptyRecheck() time.Duration      { return ms(t.EmptyRecheckMs) }
