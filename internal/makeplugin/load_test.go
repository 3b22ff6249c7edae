package makeplugin

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveFilePathReturnsItUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom_module.so")
	if err := os.WriteFile(path, []byte{}, 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	got, err := Resolve(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != path {
		t.Fatalf("got %q, want %q", got, path)
	}
}

func TestResolveDirectoryAppendsDefaultFilename(t *testing.T) {
	dir := t.TempDir()

	got, err := Resolve(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(dir, DefaultFilename)
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestResolveMissingPathErrors(t *testing.T) {
	_, err := Resolve(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Fatal("expected error for a missing path")
	}
}
