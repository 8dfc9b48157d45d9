package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	yaml "gopkg.in/yaml.v3"
)

// AppConfig holds everything the client binaries need at startup.
type AppConfig struct {
	Host string `yaml:"host" validate:"required,hostname|ip"`
	Port int    `yaml:"port" validate:"required,min=1,max=65535"`

	// WSURL and HTTPURL default to ws://host:port/ws and http://host:port.
	WSURL   string `yaml:"ws_url" validate:"required,url"`
	HTTPURL string `yaml:"http_url" validate:"required,url"`

	ReconnectAttempts int           `yaml:"reconnect_attempts" validate:"min=0,max=100"`
	ReconnectDelay    time.Duration `yaml:"reconnect_delay"`
	QueryTimeout      time.Duration `yaml:"query_timeout"`

	// CueMode selects the feedback player: bell, log or off.
	CueMode string `yaml:"cue_mode" validate:"oneof=bell log off"`

	RedisURL    string `yaml:"redis_url" validate:"omitempty,url"`
	DatabaseURL string `yaml:"database_url"`

	MessageDir  string `yaml:"message_dir"`
	SnapshotDir string `yaml:"snapshot_dir"`
}

var validate = validator.New()

// Load builds the config from defaults, an optional YAML file named by
// LANCHESS_CONFIG, and LANCHESS_* environment variables, in that order.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		Host:              "localhost",
		Port:              3001,
		ReconnectAttempts: 5,
		ReconnectDelay:    time.Second,
		QueryTimeout:      5 * time.Second,
		CueMode:           "bell",
		SnapshotDir:       ".",
	}

	if path := strings.TrimSpace(os.Getenv("LANCHESS_CONFIG")); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if v := strings.TrimSpace(os.Getenv("LANCHESS_HOST")); v != "" {
		cfg.Host = v
	}
	if v := strings.TrimSpace(os.Getenv("LANCHESS_PORT")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("LANCHESS_PORT: %w", err)
		}
		cfg.Port = n
	}
	if v := strings.TrimSpace(os.Getenv("LANCHESS_WS_URL")); v != "" {
		cfg.WSURL = v
	}
	if v := strings.TrimSpace(os.Getenv("LANCHESS_HTTP_URL")); v != "" {
		cfg.HTTPURL = v
	}
	if v := strings.TrimSpace(os.Getenv("LANCHESS_RECONNECT_ATTEMPTS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.ReconnectAttempts = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("LANCHESS_QUERY_TIMEOUT_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.QueryTimeout = time.Duration(n) * time.Millisecond
		}
	}
	if v := strings.TrimSpace(os.Getenv("LANCHESS_CUE_MODE")); v != "" {
		cfg.CueMode = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("LANCHESS_MESSAGE_DIR")); v != "" {
		cfg.MessageDir = v
	}
	if v := strings.TrimSpace(os.Getenv("LANCHESS_SNAPSHOT_DIR")); v != "" {
		cfg.SnapshotDir = v
	}
	cfg.RedisURL = firstNonEmpty(strings.TrimSpace(os.Getenv("REDIS_URL")), cfg.RedisURL)
	cfg.DatabaseURL = firstNonEmpty(strings.TrimSpace(os.Getenv("DATABASE_URL")), cfg.DatabaseURL)

	cfg.fillDerived()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct constraints.
func (c *AppConfig) Validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid config: %s failed %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *AppConfig) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *AppConfig) fillDerived() {
	base := fmt.Sprintf("%s:%d", c.Host, c.Port)
	if strings.TrimSpace(c.WSURL) == "" {
		c.WSURL = "ws://" + base + "/ws"
	}
	if strings.TrimSpace(c.HTTPURL) == "" {
		c.HTTPURL = "http://" + base
	}
	c.HTTPURL = strings.TrimRight(c.HTTPURL, "/")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
