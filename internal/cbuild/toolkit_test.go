package cbuild

import (
	"errors"
	"strings"
	"testing"
)

func TestNewToolkitResolvesKnownNames(t *testing.T) {
	for _, name := range []string{"gnu", "clang", "visualstudio"} {
		tk, err := NewToolkit(name)
		if err != nil {
			t.Fatalf("NewToolkit(%q): unexpected error: %v", name, err)
		}
		if tk.Name() != name {
			t.Fatalf("got Name() == %q, want %q", tk.Name(), name)
		}
	}
}

func TestNewToolkitRejectsUnknownName(t *testing.T) {
	_, err := NewToolkit("borland")
	if !errors.Is(err, ErrUnknownToolkit) {
		t.Fatalf("got %v, want ErrUnknownToolkit", err)
	}
}

func TestUnixCompileCommandIncludesCoreFlags(t *testing.T) {
	tk, err := NewToolkit("gnu")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cmd, err := tk.CompileCommand(CompileOptions{
		Language:        "c++",
		LanguageVersion: "17",
		Warnings:        []string{"all", "extra"},
		OptLevel:        "2",
		DebugLevel:      "0",
		Defines:         []string{"NDEBUG"},
		IncludeDirs:     []string{"include"},
		Source:          "src/a.cpp",
		Object:          "build/int/a.o",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"g++", "-std=c++17", "-Wall", "-Wextra", "-g0", "-O2", "-DNDEBUG", "-Iinclude", "-o build/int/a.o src/a.cpp"} {
		if !strings.Contains(cmd, want) {
			t.Fatalf("command %q missing expected fragment %q", cmd, want)
		}
	}
}

func TestUnixCompileCommandPicksCDriverForCLanguage(t *testing.T) {
	tk, err := NewToolkit("clang")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cmd, err := tk.CompileCommand(CompileOptions{Language: "c", LanguageVersion: "11", Source: "a.c", Object: "a.o"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(cmd, "clang ") {
		t.Fatalf("command %q should start with the C driver, not the C++ one", cmd)
	}
}

func TestUnixCompileCommandRejectsUnknownLanguage(t *testing.T) {
	tk, _ := NewToolkit("gnu")
	_, err := tk.CompileCommand(CompileOptions{Language: "rust", Source: "a.rs", Object: "a.o"})
	if !errors.Is(err, ErrUnknownLanguage) {
		t.Fatalf("got %v, want ErrUnknownLanguage", err)
	}
}

func TestUnixCompileCommandAddsPICFlagWhenRequested(t *testing.T) {
	tk, _ := NewToolkit("gnu")
	cmd, err := tk.CompileCommand(CompileOptions{Language: "c++", LanguageVersion: "17", Source: "a.cpp", Object: "a.o", PIC: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(cmd, "-fPIC") {
		t.Fatalf("command %q should contain -fPIC when PIC is requested", cmd)
	}
}

func TestUnixLinkCommandGroupsStaticAndSharedLibs(t *testing.T) {
	tk, _ := NewToolkit("gnu")
	cmd, err := tk.LinkExeCommand(LinkOptions{
		Language:   "c++",
		Objects:    []string{"a.o", "b.o"},
		LibDirs:    []string{"build/lib"},
		StaticLibs: []string{"static1"},
		SharedLibs: []string{"shared1"},
		Rpaths:     []string{"/opt/lib"},
		Output:     "build/bin/app",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	staticIdx := strings.Index(cmd, "-Wl,-Bstatic")
	sharedIdx := strings.Index(cmd, "-Wl,-Bdynamic")
	if staticIdx < 0 || sharedIdx < 0 || staticIdx > sharedIdx {
		t.Fatalf("command %q should list -Bstatic group before -Bdynamic group", cmd)
	}
	if !strings.Contains(cmd, "-lstatic1") || !strings.Contains(cmd, "-lshared1") {
		t.Fatalf("command %q missing expected -l flags", cmd)
	}
	if !strings.Contains(cmd, "-Wl,-rpath,$ORIGIN -Wl,-z,origin") || !strings.Contains(cmd, "-Wl,-rpath,/opt/lib") {
		t.Fatalf("command %q missing expected rpath flags", cmd)
	}
}

func TestUnixLinkSharedObjectCommandSetsSoname(t *testing.T) {
	tk, _ := NewToolkit("gnu")
	cmd, err := tk.LinkSharedObjectCommand(LinkOptions{
		Language:        "c++",
		Objects:         []string{"a.o"},
		Output:          "build/lib/libfoo.so.1.2.3",
		SharedObjectVer: "1.2.3",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(cmd, "-shared") {
		t.Fatalf("command %q should pass -shared", cmd)
	}
	if !strings.Contains(cmd, "-Wl,-soname,build/lib/libfoo.so.1") {
		t.Fatalf("command %q should set the major-version-only soname, got no match", cmd)
	}
}

func TestUnixBasenamesFollowPosixConvention(t *testing.T) {
	tk, _ := NewToolkit("gnu")
	if got := tk.ArchiveBasename("widget"); got != "libwidget.a" {
		t.Fatalf("got %q, want libwidget.a", got)
	}
	if got := tk.SharedObjectBasename("widget", ""); got != "libwidget.so" {
		t.Fatalf("got %q, want libwidget.so", got)
	}
	if got := tk.SharedObjectBasename("widget", "2.0.0"); got != "libwidget.so.2.0.0" {
		t.Fatalf("got %q, want libwidget.so.2.0.0", got)
	}
	if got := tk.ObjectBasename("a"); got != "a.o" {
		t.Fatalf("got %q, want a.o", got)
	}
}

func TestMSVCBasenamesFollowWindowsConvention(t *testing.T) {
	tk, err := NewToolkit("visualstudio")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := tk.ArchiveBasename("widget"); got != "widget.lib" {
		t.Fatalf("got %q, want widget.lib", got)
	}
	if got := tk.ExeBasename("widget"); got != "widget.exe" {
		t.Fatalf("got %q, want widget.exe", got)
	}
	if got := tk.ObjectBasename("a"); got != "a.obj" {
		t.Fatalf("got %q, want a.obj", got)
	}
}
