package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewConfigDefaultsWhenMissing(t *testing.T) {
	projectDir := t.TempDir()
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.Project.Version != 1 {
		t.Fatalf("expected default version == 1, got %d", c.Project.Version)
	}
	if c.DefaultTemplate() != "single-staff" {
		t.Fatalf("expected default template single-staff, got %q", c.DefaultTemplate())
	}
	if !c.LogsEnabled() || c.Project.Render.Indent != 4 {
		t.Fatalf("unexpected defaults: %+v", c.Project)
	}
	dirs := c.PluginDirs()
	if len(dirs) != 1 || dirs[0] != filepath.Join(projectDir, ".overture", "plugins") {
		t.Fatalf("unexpected plugin dirs: %v", dirs)
	}
}

func TestInitOvertureDirWritesDefaultConfig(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitOvertureDir(projectDir); err != nil {
		t.Fatalf("init: %v", err)
	}
	for _, dir := range []string{"logs", "plugins", "metadata"} {
		if info, err := os.Stat(filepath.Join(projectDir, ".overture", dir)); err != nil || !info.IsDir() {
			t.Fatalf("expected %s dir: %v", dir, err)
		}
	}
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("load default config: %v", err)
	}
	if c.DefaultTemplate() != "single-staff" || len(c.PluginDirs()) != 1 {
		t.Fatalf("default config did not round trip: %+v", c.Project)
	}
}

func TestLoadProjectConfigParsesYaml(t *testing.T) {
	projectDir := t.TempDir()
	overtureDir := filepath.Join(projectDir, ".overture")
	if err := os.MkdirAll(overtureDir, 0755); err != nil {
		t.Fatal(err)
	}
	configYAML := strings.TrimSpace(`
version: 1
default_template: string-trio
logs:
  enabled: false
render:
  line_width: 180
  indent: 2
plugins:
  - plugins/shared
  - /abs/plugins
`)
	if err := os.WriteFile(filepath.Join(overtureDir, "config.yaml"), []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}
	c := &Config{ProjectDir: projectDir, OvertureProjectDir: overtureDir, Project: defaultProjectConfig()}
	if err := c.loadProjectConfig(); err != nil {
		t.Fatalf("loadProjectConfig returned error: %v", err)
	}
	if c.DefaultTemplate() != "string-trio" || c.LogsEnabled() {
		t.Fatalf("unexpected project config: %+v", c.Project)
	}
	if c.Project.Render.LineWidth != 180 || c.Project.Render.Indent != 2 {
		t.Fatalf("unexpected render config: %+v", c.Project.Render)
	}
	dirs := c.PluginDirs()
	if len(dirs) != 2 || !strings.HasPrefix(dirs[0], projectDir) || dirs[1] != "/abs/plugins" {
		t.Fatalf("expected plugin dirs to be resolved, got %v", dirs)
	}
}

func TestLoadProjectConfigValidation(t *testing.T) {
	projectDir := t.TempDir()
	overtureDir := filepath.Join(projectDir, ".overture")
	if err := os.MkdirAll(overtureDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(overtureDir, "config.yaml"), []byte("default_template: brass-band\n"), 0644); err != nil {
		t.Fatal(err)
	}
	c := &Config{ProjectDir: projectDir, OvertureProjectDir: overtureDir, Project: defaultProjectConfig()}
	if err := c.loadProjectConfig(); err == nil {
		t.Fatalf("expected validation error but got none")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("OVERTURE_TEMPLATE", "violin-solo")
	t.Setenv("OVERTURE_LOG_DISABLED", "true")
	t.Setenv("OVERTURE_INDENT", "2")
	c, err := NewConfig(t.TempDir())
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.DefaultTemplate() != "violin-solo" || c.LogsEnabled() || c.Project.Render.Indent != 2 {
		t.Fatalf("environment not applied: %+v", c.Project)
	}

	t.Setenv("OVERTURE_INDENT", "many")
	if _, err := NewConfig(t.TempDir()); err == nil || !strings.Contains(err.Error(), "parse env") {
		t.Fatalf("expected env parse error, got %v", err)
	}
}

func TestSetDefaultTemplatePersists(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitOvertureDir(projectDir); err != nil {
		t.Fatalf("init: %v", err)
	}
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := c.SetDefaultTemplate("two-voice-staff"); err != nil {
		t.Fatalf("set template: %v", err)
	}
	reloaded, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.DefaultTemplate() != "two-voice-staff" {
		t.Fatalf("template not persisted: %q", reloaded.DefaultTemplate())
	}
	if err := c.SetDefaultTemplate("kazoo"); err == nil {
		t.Fatalf("expected unknown template to be rejected")
	}
}
