// Package config provides configuration loading and management for cardwire.
package config

import (
	"fmt"
	"go/token"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/cardwire/card"
	"github.com/c360studio/cardwire/codegen"
	"github.com/c360studio/cardwire/discovery"
)

// Config represents the complete cardwire configuration
type Config struct {
	// Directive is the comment marker that opts a type in (without "//")
	Directive string       `yaml:"directive"`
	Output    OutputConfig `yaml:"output"`
	Scan      ScanConfig   `yaml:"scan"`
}

// OutputConfig configures where and how registrars are generated
type OutputConfig struct {
	// Dir is the generated package directory, relative to the scan root
	Dir string `yaml:"dir"`
	// Package is the package name of generated files (default: generate)
	Package string `yaml:"package"`
	// Prefix is the registrar function name prefix (default: CardRegistrar_)
	Prefix string `yaml:"prefix"`
	// RuntimeImport is the import path of the card runtime package
	RuntimeImport string `yaml:"runtime_import"`
}

// ScanConfig configures which directories are scanned
type ScanConfig struct {
	// Include limits scanning to directories matching these patterns (empty = all)
	Include []string `yaml:"include"`
	// Exclude skips directories matching these patterns
	Exclude []string `yaml:"exclude"`
	// SkipDirs lists directories, relative to the scan root, that are never scanned
	SkipDirs []string `yaml:"skip_dirs"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Directive: card.Directive,
		Output: OutputConfig{
			Dir:           codegen.DefaultPackage,
			Package:       codegen.DefaultPackage,
			Prefix:        card.RegistrarPrefix,
			RuntimeImport: codegen.DefaultRuntimeImport,
		},
		Scan: ScanConfig{
			Include:  nil, // Scan everything
			Exclude:  nil,
			SkipDirs: nil,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Directive == "" {
		return fmt.Errorf("directive is required")
	}
	if strings.ContainsAny(c.Directive, " \t\n") || strings.HasPrefix(c.Directive, "//") {
		return fmt.Errorf("directive %q must be a single word without the comment marker", c.Directive)
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}
	if !token.IsIdentifier(c.Output.Package) {
		return fmt.Errorf("output.package %q is not a valid package name", c.Output.Package)
	}
	if !token.IsIdentifier(c.Output.Prefix) {
		return fmt.Errorf("output.prefix %q is not a valid identifier", c.Output.Prefix)
	}
	if c.Output.RuntimeImport == "" {
		return fmt.Errorf("output.runtime_import is required")
	}
	for _, p := range c.Scan.Include {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("scan.include: invalid pattern %q", p)
		}
	}
	for _, p := range c.Scan.Exclude {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("scan.exclude: invalid pattern %q", p)
		}
	}
	return nil
}

// EngineConfig returns the discovery settings for a scan of root. The
// output directory is always skipped.
func (c *Config) EngineConfig(root string, logger *slog.Logger) discovery.Config {
	skip := []string{c.OutputDir(root)}
	for _, dir := range c.Scan.SkipDirs {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
		skip = append(skip, dir)
	}

	return discovery.Config{
		Directive: c.Directive,
		Include:   c.Scan.Include,
		Exclude:   c.Scan.Exclude,
		SkipDirs:  skip,
		Logger:    logger,
	}
}

// GeneratorOptions returns the code generation settings described by c.
func (c *Config) GeneratorOptions() codegen.Options {
	return codegen.Options{
		Package:       c.Output.Package,
		Prefix:        c.Output.Prefix,
		RuntimeImport: c.Output.RuntimeImport,
	}
}

// OutputDir resolves the generated package directory against root.
func (c *Config) OutputDir(root string) string {
	if filepath.IsAbs(c.Output.Dir) {
		return c.Output.Dir
	}
	return filepath.Join(root, c.Output.Dir)
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Directive != "" {
		c.Directive = other.Directive
	}

	// Output
	if other.Output.Dir != "" {
		c.Output.Dir = other.Output.Dir
	}
	if other.Output.Package != "" {
		c.Output.Package = other.Output.Package
	}
	if other.Output.Prefix != "" {
		c.Output.Prefix = other.Output.Prefix
	}
	if other.Output.RuntimeImport != "" {
		c.Output.RuntimeImport = other.Output.RuntimeImport
	}

	// Scan
	if len(other.Scan.Include) > 0 {
		c.Scan.Include = other.Scan.Include
	}
	if len(other.Scan.Exclude) > 0 {
		c.Scan.Exclude = other.Scan.Exclude
	}
	if len(other.Scan.SkipDirs) > 0 {
		c.Scan.SkipDirs = other.Scan.SkipDirs
	}
}
