// Package config loads, validates and writes the sci-dl configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/sci-dl/pkg/types"
)

// EnvPrefix prefixes environment overrides, e.g. SCI_DL_RETRIES.
const EnvPrefix = "SCI_DL"

// FileName is the config file name inside the config directory.
const FileName = "sci-dl.yaml"

// ErrNotFound is returned by Load when the config file does not exist.
var ErrNotFound = errors.New("config file not found")

// ErrInvalid is returned by Validate when a setting fails its check.
var ErrInvalid = errors.New("config validation failed")

// requiredKeys must be present in the file or environment.
var requiredKeys = []string{
	"base_url",
	"retries",
	"use_proxy",
	"outdir",
	"log_file",
	"debug_mode",
}

// requiredProxyKeys must also be present when use_proxy is true.
var requiredProxyKeys = []string{
	"proxy_protocol",
	"proxy_user",
	"proxy_password",
	"proxy_host",
	"proxy_port",
}

// optionalKeys have defaults or may be left empty.
var optionalKeys = []string{
	"file_link_selector",
	"timeout",
	"retry_delay",
	"user_agent",
	"secrets_dir",
}

// Dir returns the directory holding the config file:
// <user config dir>/sci-dl.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config directory: %w", err)
	}
	return filepath.Join(base, "sci-dl"), nil
}

// DefaultPath returns the config file path used when --config is not given.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load reads the config file at path, applies SCI_DL_* environment
// overrides and defaults, and validates the result. A required key that is
// absent yields *types.MissingKeyError.
func Load(path string) (*types.Config, error) {
	v := viper.New()
	setDefaults(v, path)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range allKeys() {
		// Bound keys show up in Unmarshal even when absent from the file.
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s, run `sci-dl init-config` to create one", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := checkRequired(v); err != nil {
		return nil, err
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets values for the optional keys only. Required keys get no
// default so that IsSet reports whether the user provided them.
func setDefaults(v *viper.Viper, path string) {
	v.SetDefault("file_link_selector", types.DefaultFileLinkSelector)
	v.SetDefault("timeout", types.DefaultTimeout.String())
	v.SetDefault("retry_delay", "0s")
	v.SetDefault("user_agent", "")
	v.SetDefault("secrets_dir", filepath.Join(filepath.Dir(path), "secrets"))
}

func allKeys() []string {
	keys := make([]string, 0, len(requiredKeys)+len(requiredProxyKeys)+len(optionalKeys))
	keys = append(keys, requiredKeys...)
	keys = append(keys, requiredProxyKeys...)
	return append(keys, optionalKeys...)
}

func checkRequired(v *viper.Viper) error {
	for _, key := range requiredKeys {
		if !v.IsSet(key) {
			return &types.MissingKeyError{Key: key}
		}
	}
	if !v.GetBool("use_proxy") {
		return nil
	}
	for _, key := range requiredProxyKeys {
		if !v.IsSet(key) {
			return &types.MissingKeyError{Key: key}
		}
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their config key rather than the Go field name.
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return val
}

// Validate checks cfg against its struct tags. Proxy settings are checked
// only when UseProxy is set.
func Validate(cfg *types.Config) error {
	if err := validate.Struct(cfg); err != nil {
		return invalidConfig(err)
	}
	if cfg.UseProxy {
		if err := validate.Struct(cfg.ProxyConfig); err != nil {
			return invalidConfig(err)
		}
	}
	return nil
}

func invalidConfig(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "url":
		return fmt.Sprintf("%s must be a URL, got %q", fe.Field(), fe.Value())
	case "dir":
		return fmt.Sprintf("%s must be an existing directory, got %q", fe.Field(), fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", fe.Field(), fe.Param(), fe.Value())
	case "min", "max":
		return fmt.Sprintf("%s must be %s %s, got %v", fe.Field(), boundWord(fe.Tag()), fe.Param(), fe.Value())
	case "hostname|ip":
		return fmt.Sprintf("%s must be a hostname or IP address, got %q", fe.Field(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %q check", fe.Field(), fe.Tag())
	}
}

func boundWord(tag string) string {
	if tag == "min" {
		return "at least"
	}
	return "at most"
}

// Write stores cfg as YAML at path, creating the directory if needed. The
// file is written with owner-only permissions since it may hold proxy
// credentials.
func Write(path string, cfg *types.Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
