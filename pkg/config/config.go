// Package config loads the server configuration from a YAML file, optional .env files and the
// process environment, then applies defaults and validates the result.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aii-robotic-labs/http-privacy/pkg/backendtypes"
)

// reservedRoutes cannot be used as backend names because fixed routes already own them
var reservedRoutes = map[string]bool{
	"api":     true,
	"boto3":   true,
	"health":  true,
	"status":  true,
	"version": true,
	"metrics": true,
}

var backendNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// LoadEnvFiles loads .env files into the process environment without overriding variables
// that are already set. With no arguments it loads ./.env and tolerates its absence.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("failed to load env files %v: %w", files, err)
	}
	return nil
}

// Load reads the YAML configuration at path. An empty path yields the defaults.
// PORT in the environment overrides server.port.
func Load(path string) (*backendtypes.BackendConfig, error) {
	cfg := &backendtypes.BackendConfig{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		cfg.Server.Port = p
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks a configuration after defaults have been applied
func Validate(cfg *backendtypes.BackendConfig) error {
	var errs []error

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", cfg.Server.Port))
	}
	if cfg.Preprocess.Command == "" {
		errs = append(errs, errors.New("preprocess.command is required"))
	}
	if cfg.Preprocess.Timeout < 0 {
		errs = append(errs, errors.New("preprocess.timeout must not be negative"))
	}
	if cfg.Forward.URL == "" {
		errs = append(errs, errors.New("forward.url is required"))
	}
	if cfg.Forward.Timeout < 0 {
		errs = append(errs, errors.New("forward.timeout must not be negative"))
	}

	for name, backend := range cfg.Backends {
		if !backendNamePattern.MatchString(name) {
			errs = append(errs, fmt.Errorf("backend name %q must be a lowercase path segment", name))
			continue
		}
		if reservedRoutes[name] {
			errs = append(errs, fmt.Errorf("backend name %q collides with a built-in route", name))
			continue
		}
		if !backend.Type.Valid() {
			errs = append(errs, fmt.Errorf("backend %q: unsupported type %q", name, backend.Type))
		}
		if backend.Model == "" {
			errs = append(errs, fmt.Errorf("backend %q: model is required", name))
		}
		if backend.RequestsPerMinute < 0 {
			errs = append(errs, fmt.Errorf("backend %q: requests_per_minute must not be negative", name))
		}
	}

	return errors.Join(errs...)
}
