package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvThreshold = "MDXOPT_THRESHOLD"
	EnvLinearize = "MDXOPT_LINEARIZE"
	EnvOutside   = "MDXOPT_OUTSIDE"
	EnvStrict    = "MDXOPT_STRICT"
	EnvSuffix    = "MDXOPT_SUFFIX"
	EnvLogLevel  = "MDXOPT_LOG_LEVEL"
	EnvLogFile   = "MDXOPT_LOG_FILE"
)

// DotEnvFile is read from the working directory when present.
const DotEnvFile = ".env"

// Load loads configuration with priority: defaults < file < environment <
// flags. f may be nil.
func Load(f *Flags) (*Config, error) {
	cfg := Default()

	configPath := ""
	if f != nil {
		configPath = f.ConfigPath
	}
	if configPath == "" {
		configPath = findConfigFile()
	}
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	lookup, err := envLookup(DotEnvFile)
	if err != nil {
		return nil, err
	}
	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}

	applyFlags(cfg, f)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./mdxopt.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "mdxopt")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "mdxopt")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "mdxopt")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "mdxopt")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// envLookup returns a lookup that prefers the process environment over the
// values of a dotenv file. A missing dotenv file is not an error.
func envLookup(dotenv string) (func(string) (string, bool), error) {
	values, err := godotenv.Read(dotenv)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", dotenv, err)
		}
		values = nil
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := values[key]
		return v, ok
	}, nil
}

// applyEnv applies environment overrides to the config.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvThreshold); ok {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvThreshold, err)
		}
		cfg.Optimizer.Threshold = float32(f)
	}
	for key, dst := range map[string]*bool{
		EnvLinearize: &cfg.Optimizer.Linearize,
		EnvOutside:   &cfg.Optimizer.Outside,
		EnvStrict:    &cfg.Codec.Strict,
	} {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
	}
	if v, ok := lookup(EnvSuffix); ok && v != "" {
		cfg.Output.Suffix = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.Logging.Level = v
	}
	if v, ok := lookup(EnvLogFile); ok {
		cfg.Logging.LogFile = v
	}
	return nil
}
