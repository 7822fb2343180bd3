package mosquittobuild

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// Defaults for the upstream source.
const (
	DefaultGitURL   = "https://github.com/eclipse/mosquitto.git"
	DefaultVersion  = "2.0.4"
	DefaultCheckout = "mosquitto"
)

// Config is the root configuration for a bundled build.
//
// It is populated once at startup (defaults, then an optional YAML file,
// then environment variables) and passed to every step. Steps never read
// the process environment themselves.
type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Build    NativeConfig   `yaml:"build"`
	Bindings BindingsConfig `yaml:"bindings"`
	Output   OutputConfig   `yaml:"output"`
	Target   Platform       `yaml:"target"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SourceConfig identifies the upstream revision to build.
type SourceConfig struct {
	URL     string `yaml:"url"`
	Hash    string `yaml:"hash"`    // Optional pinned commit; enables strict verification
	Version string `yaml:"version"` // Library release, keys the binding cache
	Dir     string `yaml:"dir"`     // Checkout directory, relative to Output.OutDir
}

// NativeConfig holds overrides for the native toolchain.
type NativeConfig struct {
	CrossCompiler string `yaml:"cross_compiler"` // CROSS_COMPILE prefix (Makefile path only)
	CC            string `yaml:"cc"`             // C compiler binary (Makefile path only)
	Parallel      int    `yaml:"parallel"`       // Parallel jobs (0 = tool default)
	Generator     string `yaml:"generator"`      // CMake generator override
	Make          string `yaml:"make"`           // make program override
	Verbose       bool   `yaml:"verbose"`
}

// BindingsConfig controls Go binding generation.
type BindingsConfig struct {
	Generate   bool   `yaml:"generate"`
	Dir        string `yaml:"dir"`        // Permanent snapshot cache directory
	Translator string `yaml:"translator"` // Header translator binary
	Package    string `yaml:"package"`    // Go package name of the generated bindings
}

// OutputConfig locates generated artifacts.
type OutputConfig struct {
	OutDir  string `yaml:"out_dir"`
	CgoFile string `yaml:"cgo_file"` // Optional generated cgo flags file
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// LookupFunc resolves an environment variable; os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the process environment, then validates it.
func Load(path string) (*Config, error) {
	return LoadWith(path, os.LookupEnv)
}

// LoadWith is Load with an explicit environment lookup.
func LoadWith(path string, lookup LookupFunc) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg, lookup); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			URL:     DefaultGitURL,
			Version: DefaultVersion,
			Dir:     DefaultCheckout,
		},
		Bindings: BindingsConfig{
			Dir:        "bindings",
			Translator: "c-for-go",
			Package:    libraryName,
		},
		Output: OutputConfig{
			OutDir: "build",
		},
		Target: HostPlatform(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config, lookup LookupFunc) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return "", false
		}
		return v, true
	}

	// Source
	if v, ok := get("MOSQUITTO_GIT_URL"); ok {
		cfg.Source.URL = v
	}
	if v, ok := get("MOSQUITTO_GIT_HASH"); ok {
		cfg.Source.Hash = v
	}
	if v, ok := get("MOSQUITTO_VERSION"); ok {
		cfg.Source.Version = v
	}

	// Native toolchain
	if v, ok := get("MOSQUITTO_CROSS_COMPILER"); ok {
		cfg.Build.CrossCompiler = v
	}
	if v, ok := get("MOSQUITTO_CC"); ok {
		cfg.Build.CC = v
	}
	if v, ok := get("CMAKE_GENERATOR"); ok {
		cfg.Build.Generator = v
	}
	if v, ok := get("MAKE"); ok {
		cfg.Build.Make = v
	}
	if v, ok := get("MOSQUITTO_JOBS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing MOSQUITTO_JOBS: %w", err)
		}
		cfg.Build.Parallel = n
	}

	// Bindings
	if v, ok := get("MOSQUITTO_BINDGEN"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing MOSQUITTO_BINDGEN: %w", err)
		}
		cfg.Bindings.Generate = enabled
	}
	if v, ok := get("MOSQUITTO_BINDINGS_DIR"); ok {
		cfg.Bindings.Dir = v
	}
	if v, ok := get("MOSQUITTO_BINDGEN_TOOL"); ok {
		cfg.Bindings.Translator = v
	}

	// Output
	if v, ok := get("OUT_DIR"); ok {
		cfg.Output.OutDir = v
	}
	if v, ok := get("MOSQUITTO_CGO_FILE"); ok {
		cfg.Output.CgoFile = v
	}

	// Target
	if v, ok := get("GOOS"); ok {
		cfg.Target.GOOS = v
	}
	if v, ok := get("GOARCH"); ok {
		cfg.Target.GOARCH = v
	}

	// Logging
	if v, ok := get("MOSQUITTO_LOG_LEVEL"); ok {
		cfg.Logging.Level = v
	}
	if v, ok := get("MOSQUITTO_LOG_FORMAT"); ok {
		cfg.Logging.Format = v
	}
	if v, ok := get("MOSQUITTO_LOG_OUTPUT"); ok {
		cfg.Logging.Output = v
	}

	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Source.URL == "" {
		errs = append(errs, "source.url is required")
	}
	if c.Source.Dir == "" {
		errs = append(errs, "source.dir is required")
	}
	if _, err := semver.NewVersion(c.Source.Version); err != nil {
		errs = append(errs, fmt.Sprintf("source.version %q is not a semantic version", c.Source.Version))
	}
	if c.Output.OutDir == "" {
		errs = append(errs, "output.out_dir is required")
	}
	if c.Build.Parallel < 0 {
		errs = append(errs, "build.parallel cannot be negative")
	}
	if c.Target.GOOS == "" || c.Target.GOARCH == "" {
		errs = append(errs, "target.goos and target.goarch are required")
	}
	if c.Bindings.Generate {
		if c.Bindings.Dir == "" {
			errs = append(errs, "bindings.dir is required when bindings.generate is set")
		}
		if c.Bindings.Translator == "" {
			errs = append(errs, "bindings.translator is required when bindings.generate is set")
		}
	}
	if c.Bindings.Package == "" {
		errs = append(errs, "bindings.package is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// CheckoutDir returns the absolute path of the source checkout. A relative
// Source.Dir is taken relative to Output.OutDir, which in turn is taken
// relative to the working directory.
func (c *Config) CheckoutDir() string {
	dir := c.Source.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(c.Output.OutDir, dir)
	}
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

// LibraryVersion returns the normalized library version ("2.0.4").
// Validate guarantees it parses.
func (c *Config) LibraryVersion() string {
	v, err := semver.NewVersion(c.Source.Version)
	if err != nil {
		return c.Source.Version
	}
	return v.String()
}

// Pinned reports whether a commit hash was requested.
func (c *Config) Pinned() bool {
	return c.Source.Hash != ""
}
