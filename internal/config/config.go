// internal/config/config.go
//
// This package handles configuration and the .overture directory structure.
// Every project that renders with overture gets a .overture/ folder in its
// root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/overture/internal/score"
)

const (
	// OvertureDir is the name of the directory we create in each project
	OvertureDir = ".overture"

	defaultIndent = 4
)

const defaultProjectConfigYAML = `# overture project configuration
version: 1

# Template used when a script names none (single-staff, two-voice-staff,
# violin-solo, string-trio).
default_template: single-staff

logs:
  enabled: true

render:
  # Paper line width in millimetres; 0 leaves LilyPond's default.
  line_width: 0
  # Spaces per nesting level in generated .ly files.
  indent: 4

# Directories holding command plugins (.yaml or .go), relative to the project.
plugins:
  - .overture/plugins
`

// LogConfig controls the project log file.
type LogConfig struct {
	Enabled bool `yaml:"enabled"`
}

// RenderConfig tunes LilyPond output.
type RenderConfig struct {
	LineWidth int `yaml:"line_width"`
	Indent    int `yaml:"indent"`
}

// ProjectConfig models .overture/config.yaml.
type ProjectConfig struct {
	Version         int          `yaml:"version"`
	DefaultTemplate string       `yaml:"default_template"`
	Logs            LogConfig    `yaml:"logs"`
	Render          RenderConfig `yaml:"render"`
	Plugins         []string     `yaml:"plugins,omitempty"`
}

// envOverrides are applied after the file is read. Unset variables leave the
// file's values alone.
type envOverrides struct {
	Template    *string `env:"OVERTURE_TEMPLATE"`
	LogDisabled *bool   `env:"OVERTURE_LOG_DISABLED"`
	Indent      *int    `env:"OVERTURE_INDENT"`
	LineWidth   *int    `env:"OVERTURE_LINE_WIDTH"`
}

// Config holds the runtime configuration for overture.
type Config struct {
	// ProjectDir is the directory overture was run from
	ProjectDir string

	// OvertureProjectDir is ProjectDir/.overture
	OvertureProjectDir string

	Project ProjectConfig
}

// InitOvertureDir creates the .overture directory structure in the given
// project directory.
//
// Structure created:
// .overture/
// ├── logs/      <- overture.log
// ├── plugins/   <- command plugins
// ├── metadata/  <- segment metadata handed from one segment to the next
// └── config.yaml
func InitOvertureDir(projectDir string) error {
	root := filepath.Join(projectDir, OvertureDir)
	dirs := []string{
		filepath.Join(root, "logs"),
		filepath.Join(root, "plugins"),
		filepath.Join(root, "metadata"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return ensureProjectConfig(filepath.Join(root, "config.yaml"))
}

// NewConfig loads the project configuration for projectDir. A missing config
// file yields the defaults.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:         projectDir,
		OvertureProjectDir: filepath.Join(projectDir, OvertureDir),
		Project:            defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.OvertureProjectDir, "logs")
}

// MetadataDir returns where segment metadata is written by default
func (c *Config) MetadataDir() string {
	return filepath.Join(c.OvertureProjectDir, "metadata")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.OvertureProjectDir, "config.yaml")
}

// DefaultTemplate returns the template used by scripts that name none.
func (c *Config) DefaultTemplate() string {
	return c.Project.DefaultTemplate
}

// LogsEnabled reports whether the project log file should be written.
func (c *Config) LogsEnabled() bool {
	return c.Project.Logs.Enabled
}

// PluginDirs returns the configured plugin directories as absolute paths.
func (c *Config) PluginDirs() []string {
	return append([]string(nil), c.Project.Plugins...)
}

// SetDefaultTemplate updates the default template and persists it to
// .overture/config.yaml.
func (c *Config) SetDefaultTemplate(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("config: template name is required")
	}
	c.Project.DefaultTemplate = name
	return c.saveProjectConfig()
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	parsed := defaultProjectConfig()
	parsed.Plugins = nil
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize(c.ProjectDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func (c *Config) applyEnv() error {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	if overrides.Template != nil {
		c.Project.DefaultTemplate = *overrides.Template
	}
	if overrides.LogDisabled != nil {
		c.Project.Logs.Enabled = !*overrides.LogDisabled
	}
	if overrides.Indent != nil {
		c.Project.Render.Indent = *overrides.Indent
	}
	if overrides.LineWidth != nil {
		c.Project.Render.LineWidth = *overrides.LineWidth
	}
	c.Project.normalize(c.ProjectDir)
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: environment: %w", err)
	}
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version:         1,
		DefaultTemplate: score.DefaultTemplate,
		Logs:            LogConfig{Enabled: true},
		Render:          RenderConfig{Indent: defaultIndent},
		Plugins:         []string{filepath.Join(OvertureDir, "plugins")},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.Render.Indent == 0 {
		pc.Render.Indent = defaultIndent
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.DefaultTemplate = strings.TrimSpace(pc.DefaultTemplate)
	if pc.DefaultTemplate == "" {
		pc.DefaultTemplate = score.DefaultTemplate
	}
	var dirs []string
	for _, dir := range pc.Plugins {
		if resolved := resolvePath(base, dir); resolved != "" && !contains(dirs, resolved) {
			dirs = append(dirs, resolved)
		}
	}
	pc.Plugins = dirs
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if _, err := score.LookupTemplate(pc.DefaultTemplate); err != nil {
		return fmt.Errorf("default_template: %w", err)
	}
	if pc.Render.Indent < 0 || pc.Render.Indent > 16 {
		return fmt.Errorf("render.indent must be between 0 and 16, got %d", pc.Render.Indent)
	}
	if pc.Render.LineWidth < 0 {
		return fmt.Errorf("render.line_width must be >= 0")
	}
	return nil
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0644)
}

func (c *Config) saveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Project.applyDefaults()
	c.Project.normalize(c.ProjectDir)
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.OvertureProjectDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure overture dir: %w", err)
	}
	data, err := yaml.Marshal(c.Project)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
