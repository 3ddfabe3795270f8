package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brettbedarf/jsontree/internal/util"
	"github.com/go-playground/validator/v10"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Bytes per MB
const MB = 1024 * 1024

// Default configuration constants. See [Config] for field descriptions.
const (
	// DefaultStorageDir is the storage root, relative to the working directory
	DefaultStorageDir = "rest-storage"

	// DefaultBackend is the storage backend type
	DefaultBackend = "os"

	// DefaultAddr is the HTTP listen address
	DefaultAddr = "0.0.0.0:3000"

	// DefaultMaxBodySize is the largest accepted PUT body in bytes
	DefaultMaxBodySize = 10 * MB

	// DefaultUser is the caller identity used when a request names none
	DefaultUser = "anon"

	DefaultCompress = true

	// DefaultReadTimeout and DefaultWriteTimeout are HTTP server timeouts in seconds
	DefaultReadTimeout  = 30.0
	DefaultWriteTimeout = 30.0

	DefaultLogLvl = util.InfoLevel
)

// CLI/config verbosity values; higher is chattier.
const (
	ErrorVerbose = iota + 1
	WarnVerbose
	InfoVerbose
	DebugVerbose
	TraceVerbose
)

// Config contains runtime configuration values for the document store.
type Config struct {
	MountOptions
	LogLvl util.LogLevel

	StorageDir string `validate:"required"`             // Slash-delimited storage root (Default rest-storage)
	Backend    string `validate:"required,oneof=os memory"` // Storage backend type (Default os)
	Sync       bool   // Flush every leaf write to disk (os backend only)

	Addr         string  `validate:"required,hostname_port"` // HTTP listen address (Default 0.0.0.0:3000)
	MaxBodySize  int64   `validate:"gt=0"`                   // Largest accepted PUT body in bytes (Default 10MB)
	DefaultUser  string  `validate:"required"`               // Identity for requests without X-User (Default anon)
	Compress     bool    // gzip responses when the client accepts it (Default true)
	ReadTimeout  float64 `validate:"gt=0"` // Seconds (Default 30)
	WriteTimeout float64 `validate:"gt=0"` // Seconds (Default 30)
}

// ConfigOverride uses pointer fields to distinguish between unset and zero values
// when loading partial configuration. See [Config] for field descriptions.
type ConfigOverride struct {
	StorageDir   *string  `yaml:"storage_dir,omitempty" json:"storage_dir,omitempty"`
	Backend      *string  `yaml:"backend,omitempty" json:"backend,omitempty"`
	Sync         *bool    `yaml:"sync,omitempty" json:"sync,omitempty"`
	Addr         *string  `yaml:"addr,omitempty" json:"addr,omitempty"`
	MaxBodySize  *int64   `yaml:"max_body_size,omitempty" json:"max_body_size,omitempty"`
	DefaultUser  *string  `yaml:"default_user,omitempty" json:"default_user,omitempty"`
	Compress     *bool    `yaml:"compress,omitempty" json:"compress,omitempty"`
	ReadTimeout  *float64 `yaml:"read_timeout,omitempty" json:"read_timeout,omitempty"`
	WriteTimeout *float64 `yaml:"write_timeout,omitempty" json:"write_timeout,omitempty"`
	// Verbosity 1 (errors only) to 5 (trace), clamped
	LogLvl *int `yaml:"log_level,omitempty" json:"log_level,omitempty"`

	Debug        *bool    `yaml:"debug,omitempty" json:"debug,omitempty"`
	FsName       *string  `yaml:"fs_name,omitempty" json:"fs_name,omitempty"`
	Name         *string  `yaml:"name,omitempty" json:"name,omitempty"`
	AttrTimeout  *float64 `yaml:"attr_timeout,omitempty" json:"attr_timeout,omitempty"`
	EntryTimeout *float64 `yaml:"entry_timeout,omitempty" json:"entry_timeout,omitempty"`
}

// NewDefaultConfig creates a new Config with all default values.
func NewDefaultConfig() *Config {
	return &Config{
		MountOptions: NewDefaultMountOptions(),
		LogLvl:       DefaultLogLvl,
		StorageDir:   DefaultStorageDir,
		Backend:      DefaultBackend,
		Addr:         DefaultAddr,
		MaxBodySize:  DefaultMaxBodySize,
		DefaultUser:  DefaultUser,
		Compress:     DefaultCompress,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
	}
}

// NewConfig returns the defaults with override applied on top. A nil override
// yields the defaults.
func NewConfig(override *ConfigOverride) *Config {
	cfg := NewDefaultConfig()
	if override != nil {
		cfg.Merge(override)
	}
	return cfg
}

// VerbosityToLogLevel clamps v to 1..5 and maps it onto a log level.
func VerbosityToLogLevel(v int) util.LogLevel {
	v = max(ErrorVerbose, min(v, TraceVerbose))
	return util.ErrorLevel - (v - ErrorVerbose)
}

// Merge applies non-nil values from override onto this Config.
// This allows partial configuration updates while preserving existing values.
func (c *Config) Merge(override *ConfigOverride) {
	if override.StorageDir != nil {
		c.StorageDir = *override.StorageDir
	}
	if override.Backend != nil {
		c.Backend = *override.Backend
	}
	if override.Sync != nil {
		c.Sync = *override.Sync
	}
	if override.Addr != nil {
		c.Addr = *override.Addr
	}
	if override.MaxBodySize != nil {
		c.MaxBodySize = *override.MaxBodySize
	}
	if override.DefaultUser != nil {
		c.DefaultUser = *override.DefaultUser
	}
	if override.Compress != nil {
		c.Compress = *override.Compress
	}
	if override.ReadTimeout != nil {
		c.ReadTimeout = *override.ReadTimeout
	}
	if override.WriteTimeout != nil {
		c.WriteTimeout = *override.WriteTimeout
	}
	if override.LogLvl != nil {
		c.LogLvl = VerbosityToLogLevel(*override.LogLvl)
	}
	c.MountOptions.merge(override)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports every field that holds an unusable value.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadConfigOverrideFile loads configuration overrides from a file without merging.
// Supports YAML (.yaml, .yml), JSON (.json) and JSON with comments (.jsonc).
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	case ".json", ".jsonc":
		if ext == ".jsonc" {
			data = jsonc.ToJSON(data)
		}
		if err := json.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config file extension: %s", path)
	}

	return &override, nil
}

// NewConfigFromFile creates a new Config by merging file overrides with defaults.
func NewConfigFromFile(path string) (*Config, error) {
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	return NewConfig(override), nil
}
