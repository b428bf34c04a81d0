package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// SMTPConfig carries outbound mail settings. The account password is never
// stored in the TOML file; it is read from the SMTP_PASSWORD environment
// variable at startup.
type SMTPConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
	User string `toml:"user"`
	From string `toml:"from"`
}

type Config struct {
	Model             string  `toml:"model"`
	BaseURL           string  `toml:"base_url"`
	MaxResponseTokens int     `toml:"max_response_tokens"`
	Temperature       float32 `toml:"temperature"`
	MaxTurns          int     `toml:"max_turns"`
	MaxToolIterations int     `toml:"max_tool_iterations"`
	SystemPrompt      string  `toml:"system_prompt"`
	DatabaseURL       string  `toml:"database_url"`

	SMTP SMTPConfig `toml:"smtp"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:             "gpt-4o",
		MaxResponseTokens: 2048,
		Temperature:       0.1,
		MaxTurns:          30,
		MaxToolIterations: 10,
		SMTP: SMTPConfig{
			Port: 587,
		},
	}
}

// ValidateConfig checks if all required configuration fields are properly set
func ValidateConfig(cfg *Config) error {
	var missingFields []string

	if cfg.Model == "" {
		missingFields = append(missingFields, "model")
	}
	if cfg.MaxResponseTokens <= 0 {
		missingFields = append(missingFields, "max_response_tokens")
	}
	if cfg.MaxTurns <= 0 {
		missingFields = append(missingFields, "max_turns")
	}
	if cfg.MaxToolIterations <= 0 {
		missingFields = append(missingFields, "max_tool_iterations")
	}

	if len(missingFields) > 0 {
		return fmt.Errorf("missing or invalid configuration fields: %s", strings.Join(missingFields, ", "))
	}

	return nil
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decoding config %s: %w", path, err)
	}

	// Environment overrides for values that should not live in the file.
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		cfg.DatabaseURL = dsn
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating config file %s: %w", path, err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// LoadOrCreate reads the config at path, writing a default file first when
// none exists yet.
func LoadOrCreate(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := SaveConfig(path, DefaultConfig()); err != nil {
			return nil, err
		}
	}
	return LoadConfig(path)
}
