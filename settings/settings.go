// Package settings loads the vga-app service configuration.
//
// Configuration comes from an optional YAML file given by --config or
// VGA_CONFIG. Without one the defaults apply. A small set of environment
// variables (PORT, VGA_DATA_DIR, VGA_FILE_ROOTS) then override the file, and
// command-line flags override both. Paths may reference ${VGA_DATA_DIR},
// ${HOME} and other environment variables, with ${VAR:-default} fallbacks.
package settings

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"vga-app/kv"
)

// Config is the full service configuration.
type Config struct {
	// Listen is the HTTP listen address.
	// Default: :8080
	Listen string `yaml:"listen"`

	// PublicURL is the origin relative configuration URLs resolve against,
	// such as the bundled demo hrefs. Default: derived from Listen.
	PublicURL string `yaml:"public_url"`

	DataDir  string         `yaml:"data_dir"`
	Store    StoreConfig    `yaml:"store"`
	Files    FilesConfig    `yaml:"files"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Host     HostConfig     `yaml:"host"`
	Sessions SessionsConfig `yaml:"sessions"`
	Log      LogConfig      `yaml:"log"`
}

// StoreConfig selects the local persistent store.
type StoreConfig struct {
	// Driver is one of bolt, sqlite, memory.
	// Default: bolt
	Driver string `yaml:"driver"`

	// Path is the database file.
	// Default: ${VGA_DATA_DIR}/vga.db
	Path string `yaml:"path"`
}

// FilesConfig controls which local files can be opened.
type FilesConfig struct {
	// Roots are the directories the picker lists and handles may point into.
	// Default: the working directory
	Roots []string `yaml:"roots"`

	// Extension is the recognized configuration file extension.
	// Default: .vgaconf
	Extension string `yaml:"extension"`
}

// FetchConfig controls configuration URL fetches.
type FetchConfig struct {
	// Timeout bounds one fetch.
	// Default: 30s
	Timeout string `yaml:"timeout"`

	// MaxBytes bounds one response body.
	// Default: 64 MiB
	MaxBytes int64 `yaml:"max_bytes"`
}

// HostConfig locates the visualization host component.
type HostConfig struct {
	// ScriptURL is the module script defining the <vga-core> element.
	ScriptURL string `yaml:"script_url"`
}

// SessionsConfig controls shell session lifetime.
type SessionsConfig struct {
	// IdleTimeout removes sessions with no connected client after this long.
	// Default: 24h
	IdleTimeout string `yaml:"idle_timeout"`
}

// LogConfig controls the service logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: info
	Level string `yaml:"level"`

	// Format is text or json.
	// Default: text
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Listen:  ":8080",
		DataDir: "${HOME}/.local/share/vga-app",
		Store: StoreConfig{
			Driver: kv.DriverBolt,
			Path:   "${VGA_DATA_DIR}/vga.db",
		},
		Files: FilesConfig{
			Roots:     []string{"."},
			Extension: ".vgaconf",
		},
		Fetch: FetchConfig{
			Timeout:  "30s",
			MaxBytes: 64 << 20,
		},
		Host: HostConfig{
			ScriptURL: "https://cdn.jsdelivr.net/npm/vga-core/dist/index.js",
		},
		Sessions: SessionsConfig{
			IdleTimeout: "24h",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the file at path over the defaults. An empty path returns the
// defaults. Variables are expanded after loading.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	return cfg, nil
}

// ApplyEnv applies environment overrides read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if port := getenv("PORT"); port != "" {
		c.Listen = ":" + port
	}
	if dir := getenv("VGA_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
	if roots := getenv("VGA_FILE_ROOTS"); roots != "" {
		c.Files.Roots = filepath.SplitList(roots)
	}
}

// Expand resolves ${VAR} references in paths. VGA_DATA_DIR refers to DataDir.
func (c *Config) Expand() {
	vars := map[string]string{"HOME": os.Getenv("HOME")}
	c.DataDir = expandVars(c.DataDir, vars)
	vars["VGA_DATA_DIR"] = c.DataDir

	c.Store.Path = expandVars(c.Store.Path, vars)
	for i, root := range c.Files.Roots {
		c.Files.Roots[i] = expandVars(root, vars)
	}
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name, fallback := parts[1], parts[2]
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return fallback
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Listen == "" {
		errs = append(errs, errors.New("listen is required"))
	}
	switch c.Store.Driver {
	case kv.DriverBolt, kv.DriverSQLite, kv.DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver))
	}
	if c.Store.Driver != kv.DriverMemory && c.Store.Path == "" {
		errs = append(errs, errors.New("store.path is required"))
	}
	if len(c.Files.Roots) == 0 {
		errs = append(errs, errors.New("files.roots needs at least one directory"))
	}
	if !strings.HasPrefix(c.Files.Extension, ".") {
		errs = append(errs, fmt.Errorf("files.extension %q must start with a dot", c.Files.Extension))
	}
	if _, err := c.FetchTimeout(); err != nil {
		errs = append(errs, err)
	}
	if c.Fetch.MaxBytes < 0 {
		errs = append(errs, errors.New("fetch.max_bytes must not be negative"))
	}
	if _, err := c.IdleTimeout(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Log.level(); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format: expected text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// FetchTimeout parses fetch.timeout. Zero disables the timeout.
func (c *Config) FetchTimeout() (time.Duration, error) {
	return parseDuration("fetch.timeout", c.Fetch.Timeout)
}

// IdleTimeout parses sessions.idle_timeout. Zero keeps sessions forever.
func (c *Config) IdleTimeout() (time.Duration, error) {
	return parseDuration("sessions.idle_timeout", c.Sessions.IdleTimeout)
}

func parseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: must not be negative", field)
	}
	return d, nil
}

// Origin returns PublicURL, or http://localhost<port>/ derived from Listen.
func (c *Config) Origin() string {
	if c.PublicURL != "" {
		return c.PublicURL
	}
	host := c.Listen
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	return "http://" + host + "/"
}

func (c LogConfig) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// NewLogger builds the service logger writing to w.
func (c LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := c.level()
	if err != nil {
		return nil, err
	}
	options := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, options)), nil
	}
	return slog.New(slog.NewTextHandler(w, options)), nil
}
