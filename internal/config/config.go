// Package config provides centralized configuration management using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration values for applywiz.
type Config struct {
	APIURL string `mapstructure:"api_url" yaml:"api_url"`
	Token  string `mapstructure:"token" yaml:"token,omitempty"`

	UserID    string `mapstructure:"user_id" yaml:"user_id,omitempty"`
	UserName  string `mapstructure:"user_name" yaml:"user_name,omitempty"`
	UserEmail string `mapstructure:"user_email" yaml:"user_email,omitempty"`
	UserRole  string `mapstructure:"user_role" yaml:"user_role,omitempty"`

	AutosaveInterval time.Duration `mapstructure:"autosave_interval" yaml:"autosave_interval"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`

	DataDir  string `mapstructure:"data_dir" yaml:"data_dir"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	LogFile  string `mapstructure:"log_file" yaml:"log_file"`

	// Reference backend (applywiz serve)
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`
	StepsFile  string `mapstructure:"steps_file" yaml:"steps_file,omitempty"`
	NATSDir    string `mapstructure:"nats_dir" yaml:"nats_dir"`
}

var envKeys = []string{
	"api_url", "token",
	"user_id", "user_name", "user_email", "user_role",
	"autosave_interval", "request_timeout",
	"data_dir", "log_level", "log_file",
	"listen_addr", "steps_file", "nats_dir",
}

// Load loads configuration with full precedence:
// CLI flags > ENV vars > project config > XDG global config > defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("applywiz")

	v.SetDefault("api_url", "http://localhost:8080/api")
	v.SetDefault("user_role", "student")
	v.SetDefault("autosave_interval", "30s")
	v.SetDefault("request_timeout", "15s")
	v.SetDefault("data_dir", ".applywiz")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("nats_dir", ".applywiz/nats")

	v.SetEnvPrefix("APPLYWIZ")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Explicit ENV bindings so Unmarshal sees keys that have no default
	for _, key := range envKeys {
		if err := v.BindEnv(key, "APPLYWIZ_"+strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", key, err)
		}
	}

	globalPath := GlobalPath()
	if fileExists(globalPath) {
		v.SetConfigFile(globalPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	projectPath := ProjectPath()
	if fileExists(projectPath) {
		v.SetConfigFile(projectPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks values that would otherwise fail much later.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("api_url is required")
	}
	if c.AutosaveInterval <= 0 {
		return fmt.Errorf("autosave_interval must be positive, got %s", c.AutosaveInterval)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	switch c.UserRole {
	case "", "admin", "officer", "interviewer", "student":
	default:
		return fmt.Errorf("unknown user_role %q", c.UserRole)
	}
	return nil
}

// Exists returns true if any config file exists (global or project).
func Exists() bool {
	return fileExists(GlobalPath()) || fileExists(ProjectPath())
}

// GlobalPath returns the XDG global config path.
// Returns ~/.config/applywiz/applywiz.yml or $XDG_CONFIG_HOME/applywiz/applywiz.yml.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "applywiz", "applywiz.yml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "applywiz", "applywiz.yml")
}

// ProjectPath returns the project-local config path.
func ProjectPath() string {
	return "applywiz.yml"
}

// WriteGlobal writes the config to the XDG global location.
func WriteGlobal(cfg *Config) error {
	path := GlobalPath()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return write(path, cfg)
}

// WriteProject writes the config to the project-local location.
func WriteProject(cfg *Config) error {
	return write(ProjectPath(), cfg)
}

func write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	// 0600: the file may carry an API token
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
