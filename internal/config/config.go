// Package config loads jxgen.yaml project settings
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	env "github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/jxapi/jxgen/internal/generator"
)

// FileName is the project configuration file looked up by the CLI
const FileName = "jxgen.yaml"

// EnvPrefix prefixes every environment override
const EnvPrefix = "JXGEN_"

// Config represents the jxgen.yaml configuration file. Environment
// variables named JXGEN_<TAG> override file values.
type Config struct {
	Target      string          `yaml:"target" env:"TARGET"`
	PackageName string          `yaml:"package,omitempty" env:"PACKAGE"`
	Workers     int             `yaml:"workers,omitempty" env:"WORKERS"`
	Exchanges   ExchangesConfig `yaml:"exchanges" envPrefix:"EXCHANGES_"`
	Pojos       PojosConfig     `yaml:"pojos" envPrefix:"POJOS_"`
	Watch       WatchConfig     `yaml:"watch" envPrefix:"WATCH_"`
}

// ExchangesConfig contains exchange wrapper generation settings
type ExchangesConfig struct {
	MainDir    string `yaml:"main" env:"MAIN_DIR"`
	TestDir    string `yaml:"test" env:"TEST_DIR"`
	JavaDocURL string `yaml:"javadocUrl,omitempty" env:"JAVADOC_URL"`
	SrcURL     string `yaml:"srcUrl,omitempty" env:"SRC_URL"`
}

// PojosConfig contains POJO generation settings
type PojosConfig struct {
	MainDir string `yaml:"main" env:"MAIN_DIR"`
}

// WatchConfig contains watch loop settings
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce" env:"DEBOUNCE"`
	Exclude  []string      `yaml:"exclude,omitempty" env:"EXCLUDE" envSeparator:","`
}

// DefaultDebounce is how long the watch loop waits for a burst of changes
// to settle
const DefaultDebounce = 300 * time.Millisecond

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Target == "" {
		c.Target = generator.DefaultTarget
	}
	if c.Exchanges.MainDir == "" {
		c.Exchanges.MainDir = generator.DefaultExchangeMainDir
	}
	if c.Exchanges.TestDir == "" {
		c.Exchanges.TestDir = generator.DefaultExchangeTestDir
	}
	if c.Pojos.MainDir == "" {
		c.Pojos.MainDir = generator.DefaultPojoMainDir
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = DefaultDebounce
	}
	if len(c.Watch.Exclude) == 0 {
		c.Watch.Exclude = []string{".*", "*~", "*.swp"}
	}
}

// Load finds jxgen.yaml in startDir or a parent directory and returns it
// together with the directory it was found in. Without a file the defaults
// are used and startDir is the project root. Environment overrides apply
// in both cases.
func Load(startDir string) (*Config, string, error) {
	return load(startDir, nil)
}

func load(startDir string, environ map[string]string) (*Config, string, error) {
	path, err := Find(startDir)
	if errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		if err := applyEnv(cfg, environ); err != nil {
			return nil, "", err
		}
		return cfg, startDir, nil
	}
	if err != nil {
		return nil, "", err
	}

	cfg, err := loadFromPath(path, environ)
	if err != nil {
		return nil, "", err
	}
	return cfg, filepath.Dir(path), nil
}

// LoadFromPath loads a specific configuration file
func LoadFromPath(path string) (*Config, error) {
	return loadFromPath(path, nil)
}

func loadFromPath(path string, environ map[string]string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := applyEnv(&cfg, environ); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overrides fields from the environment. A nil environ reads the
// process environment.
func applyEnv(cfg *Config, environ map[string]string) error {
	if err := env.ParseWithOptions(cfg, env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
	}); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	return nil
}

// Find searches for jxgen.yaml in startDir and its parents. It returns an
// error wrapping os.ErrNotExist when there is none.
func Find(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", startDir, err)
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("no %s found in %s or any parent directory: %w", FileName, startDir, os.ErrNotExist)
}

// Marshal renders the configuration as YAML
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// ExchangeRequest builds the generation request for exchange wrappers
func (c *Config) ExchangeRequest(baseDir string) generator.Request {
	return generator.Request{
		BaseDir:        baseDir,
		MainDir:        c.Exchanges.MainDir,
		TestDir:        c.Exchanges.TestDir,
		BaseJavaDocURL: c.Exchanges.JavaDocURL,
		BaseSrcURL:     c.Exchanges.SrcURL,
		Target:         c.Target,
		PackageName:    c.PackageName,
		Workers:        c.Workers,
	}
}

// PojoRequest builds the generation request for POJOs
func (c *Config) PojoRequest(baseDir string) generator.Request {
	return generator.Request{
		BaseDir:     baseDir,
		MainDir:     c.Pojos.MainDir,
		Target:      c.Target,
		PackageName: c.PackageName,
		Workers:     c.Workers,
	}
}
