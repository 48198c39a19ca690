package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/emailbuilder/internal/foundation/errors"
)

// Default values applied by ApplyDefaults.
const (
	DefaultRoot           = "builder"
	DefaultOutputRoot     = "."
	DefaultSassEntry      = "app.scss"
	DefaultStylesheetHref = "css/app.css"
	DefaultPlaceholder    = "<!-- <style> -->"
	DefaultLayout         = "default"
	DefaultPort           = 3000
)

// DefaultFoundationInclude is the foundation-emails include path used by app.scss.
var DefaultFoundationInclude = filepath.Join("node_modules", "foundation-emails", "scss")

// Config is the build configuration. It is immutable once handed to the pipeline.
type Config struct {
	Root       string       `yaml:"root"`
	OutputRoot string       `yaml:"output_root"`
	Sass       SassConfig   `yaml:"sass"`
	Pages      PagesConfig  `yaml:"pages"`
	Inline     InlineConfig `yaml:"inline"`
	Server     ServerConfig `yaml:"server"`
	Report     ReportConfig `yaml:"report"`
}

// SassConfig configures the stylesheet compiler.
type SassConfig struct {
	Entry        string   `yaml:"entry"`
	IncludePaths []string `yaml:"include_paths"`
	// Binary is the Dart Sass executable speaking the embedded protocol.
	Binary string `yaml:"binary,omitempty"`
}

// PagesConfig configures the page compiler.
type PagesConfig struct {
	DefaultLayout string `yaml:"default_layout"`
}

// InlineConfig configures CSS inlining.
type InlineConfig struct {
	StylesheetHref string `yaml:"stylesheet_href"`
	Placeholder    string `yaml:"placeholder"`
	SkipMinify     bool   `yaml:"skip_minify"`
}

// ServerConfig configures the preview server.
type ServerConfig struct {
	Port         int  `yaml:"port"`
	NoLiveReload bool `yaml:"no_live_reload"`
}

// ReportConfig configures build report persistence; empty Dir disables it.
type ReportConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// Load reads an optional YAML configuration file. A missing file yields the defaults.
// Environment variables (including those from .env files) are expanded in the YAML content.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	cfg := &Config{}
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// optional file
		case err != nil:
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
				WithContext("path", configPath).Build()
		default:
			dec := yaml.NewDecoder(bytes.NewReader([]byte(os.ExpandEnv(string(data)))))
			dec.KnownFields(true)
			if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
				return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse config file").
					WithContext("path", configPath).Build()
			}
		}
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadEnvFiles loads .env and .env.local when present. Existing variables are not overwritten.
func loadEnvFiles() {
	for _, name := range []string{".env", ".env.local"} {
		if _, err := os.Stat(name); err == nil {
			if err := godotenv.Load(name); err != nil {
				fmt.Fprintf(os.Stderr, "Note: could not load %s: %v\n", name, err)
			}
		}
	}
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Root == "" {
		c.Root = DefaultRoot
	}
	if c.OutputRoot == "" {
		c.OutputRoot = DefaultOutputRoot
	}
	if c.Sass.Entry == "" {
		c.Sass.Entry = DefaultSassEntry
	}
	if c.Sass.IncludePaths == nil {
		c.Sass.IncludePaths = []string{DefaultFoundationInclude}
	}
	if c.Pages.DefaultLayout == "" {
		c.Pages.DefaultLayout = DefaultLayout
	}
	if c.Inline.StylesheetHref == "" {
		c.Inline.StylesheetHref = DefaultStylesheetHref
	}
	if c.Inline.Placeholder == "" {
		c.Inline.Placeholder = DefaultPlaceholder
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
}

// Validate checks fields that defaults cannot repair.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return ferrors.ValidationError("server port out of range").WithContext("port", c.Server.Port).Build()
	}
	if strings.ContainsAny(c.Sass.Entry, `/\`) {
		return ferrors.ValidationError("sass entry must be a file name inside the scss directory").
			WithContext("entry", c.Sass.Entry).Build()
	}
	if filepath.Ext(c.Sass.Entry) != ".scss" && filepath.Ext(c.Sass.Entry) != ".sass" {
		return ferrors.ValidationError("sass entry must be a .scss or .sass file").
			WithContext("entry", c.Sass.Entry).Build()
	}
	return nil
}
