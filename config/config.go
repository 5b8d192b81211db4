// Package config loads the idlmap configuration from idlmap.toml and
// IDLMAP_ environment variables.
package config

import (
	"go/token"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/ifabos/go-idlmap/errors"
)

// FileName is the name of the configuration file searched in the working directory
const FileName = "idlmap.toml"

// EnvPrefix prefixes the environment variables overriding configuration values
const EnvPrefix = "IDLMAP"

// Config is the idlmap configuration
type Config struct {
	Output   OutputConfig   `mapstructure:"output" toml:"output"`
	Mapping  MappingConfig  `mapstructure:"mapping" toml:"mapping"`
	Compiler CompilerConfig `mapstructure:"compiler" toml:"compiler"`
}

// OutputConfig controls where generated files go
type OutputConfig struct {
	Dir       string `mapstructure:"dir" toml:"dir"`
	GoPackage string `mapstructure:"go_package" toml:"go_package"`
}

// MappingConfig controls the CLS to IDL generator
type MappingConfig struct {
	// File is a TOML file of custom mappings, empty for none
	File               string `mapstructure:"file" toml:"file"`
	WideCharDefault    bool   `mapstructure:"wide_char_default" toml:"wide_char_default"`
	AnonymousSequences bool   `mapstructure:"anonymous_sequences" toml:"anonymous_sequences"`
	MaxDepth           int    `mapstructure:"max_depth" toml:"max_depth"`
}

// CompilerConfig controls the IDL to CLS compiler
type CompilerConfig struct {
	// RefManifests are type manifests whose types are referenced instead of built
	RefManifests []string `mapstructure:"ref_manifests" toml:"ref_manifests"`
	IncludeDirs  []string `mapstructure:"include_dirs" toml:"include_dirs"`
}

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("output.dir", "out")
	v.SetDefault("output.go_package", "generated")

	v.SetDefault("mapping.file", "")
	v.SetDefault("mapping.wide_char_default", true)
	v.SetDefault("mapping.anonymous_sequences", false)
	v.SetDefault("mapping.max_depth", 256)

	v.SetDefault("compiler.ref_manifests", []string{})
	v.SetDefault("compiler.include_dirs", []string{})
}

// Default returns the configuration used when nothing is configured
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	// defaults always decode
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Load reads the configuration. An empty path searches idlmap.toml in the
// working directory; a missing file there is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, ".toml"))
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "failed to read config file")
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that have a restricted range
func (c *Config) Validate() error {
	if c.Mapping.MaxDepth < 1 {
		return errors.InvalidInputf("mapping.max_depth must be positive, got %d", c.Mapping.MaxDepth)
	}
	if c.Output.Dir == "" {
		return errors.InvalidInputf("output.dir must not be empty")
	}
	if pkg := c.Output.GoPackage; !token.IsIdentifier(pkg) || token.IsKeyword(pkg) {
		return errors.InvalidInputf("output.go_package %q is not a valid package name", pkg)
	}
	return nil
}

// WriteDefault writes a starter configuration file. An existing file is
// only replaced with force.
func WriteDefault(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.InvalidInputf("config file %s already exists", path)
	}
	data, err := toml.Marshal(Default())
	if err != nil {
		return errors.Wrap(err, "failed to marshal default config")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write config file %s", path)
	}
	return nil
}
