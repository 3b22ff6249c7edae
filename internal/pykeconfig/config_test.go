package pykeconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func TestLoadAppliesDefaultsWithNoFiles(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "missing-user.json"), filepath.Join(dir, "missing-project.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DefaultAction != "build" {
		t.Fatalf("got default_action %q, want build", cfg.DefaultAction)
	}
	if !cfg.CacheMakefileModule {
		t.Fatal("want cache_makefile_module true by default")
	}
}

func TestLoadProjectOverridesUser(t *testing.T) {
	dir := t.TempDir()
	userPath := writeConfig(t, dir, "user.json", `{"default_action": "report"}`)
	projectPath := writeConfig(t, dir, "project.json", `{"default_action": "run"}`)

	cfg, err := Load(userPath, projectPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DefaultAction != "run" {
		t.Fatalf("got default_action %q, want run", cfg.DefaultAction)
	}
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	dir := t.TempDir()
	projectPath := writeConfig(t, dir, "project.json", `{"not_a_real_key": true}`)

	_, err := Load(filepath.Join(dir, "missing-user.json"), projectPath)
	if err == nil {
		t.Fatal("expected error for unknown config key")
	}
}

func TestLoadResolvesInclude(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.json", `{"action_aliases": {"x": ["run"]}}`)
	projectPath := writeConfig(t, dir, "project.json", `{"include": ["base.json"], "default_action": "run"}`)

	cfg, err := Load(filepath.Join(dir, "missing-user.json"), projectPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.ActionAliases["x"]) != 1 || cfg.ActionAliases["x"][0] != "run" {
		t.Fatalf("included action alias not merged, got %v", cfg.ActionAliases)
	}
	if cfg.DefaultAction != "run" {
		t.Fatalf("got default_action %q, want run", cfg.DefaultAction)
	}
}

func TestLoadDetectsIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "a.json", `{"include": ["b.json"]}`)
	bPath := writeConfig(t, dir, "b.json", `{"include": ["a.json"]}`)

	_, err := Load(filepath.Join(dir, "missing-user.json"), bPath)
	if err == nil {
		t.Fatal("expected error for include cycle")
	}
}

func TestLoadEnvOverridesProjectFile(t *testing.T) {
	dir := t.TempDir()
	projectPath := writeConfig(t, dir, "project.json", `{"default_action": "run"}`)

	t.Setenv("PYKE_DEFAULT_ACTION", "report")

	cfg, err := Load(filepath.Join(dir, "missing-user.json"), projectPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DefaultAction != "report" {
		t.Fatalf("got default_action %q, want the env override report", cfg.DefaultAction)
	}
}
