// Package cbuild implements the C-family build phase family: Compile,
// Archive, LinkToExe, LinkToSharedObject and their fused composites, each a
// specialization of internal/phase.Base with a fixed option vocabulary and a
// pluggable Toolkit that builds the actual command lines.
package cbuild

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownToolkit and ErrUnknownLanguage are the defined errors for an
// invalid `toolkit`/`language` option, per spec.md §4.5.
var (
	ErrUnknownToolkit  = errors.New("unknown toolkit")
	ErrUnknownLanguage = errors.New("unknown language")
)

// Toolkit builds shell command strings for one compiler/linker family. The
// gnu and clang toolkits share an implementation (CompileCommand etc. differ
// only in which driver binary is selected); visualstudio is a distinct,
// narrower implementation, following the teacher's pattern of a small
// interface (TaskRunner in internal/dag) with swappable concrete
// implementations rather than a type switch threaded through the planner.
type Toolkit interface {
	// Name identifies the toolkit for error messages and cache-directory
	// naming (e.g. "release.gnu").
	Name() string

	// CompileCommand builds the full compile invocation for one source.
	CompileCommand(opts CompileOptions) (string, error)

	// ArchiveCommand builds the `ar`-style static-library invocation.
	ArchiveCommand(archivePath string, objects []string) string

	// LinkExeCommand builds the executable link invocation.
	LinkExeCommand(opts LinkOptions) (string, error)

	// LinkSharedObjectCommand builds the shared-object link invocation.
	LinkSharedObjectCommand(opts LinkOptions) (string, error)

	// ArchiveBasename and SharedObjectBasename apply the toolkit's naming
	// convention (e.g. POSIX `lib<name>.a` / `lib<name>.so`).
	ArchiveBasename(name string) string
	SharedObjectBasename(name, soname string) string
	ExeBasename(name string) string
	ObjectBasename(stem string) string
}

// CompileOptions is the resolved input to Toolkit.CompileCommand, already
// pulled out of a phase's options store.
type CompileOptions struct {
	Language        string // "c" or "c++"
	LanguageVersion string // e.g. "11", "17"
	Warnings        []string
	OptLevel        string
	DebugLevel      string
	Defines         []string
	IncludeDirs     []string
	ExtraCompile    []string
	PkgConfigCflags []string
	Source          string
	Object          string
	PIC             bool
	Pthread         bool
}

// LinkOptions is the resolved input to Toolkit.LinkExeCommand /
// LinkSharedObjectCommand.
type LinkOptions struct {
	Language        string
	Objects         []string
	LibDirs         []string
	StaticLibs      []string
	SharedLibs      []string
	Rpaths          []string
	PkgConfigLibs   []string
	ExtraLink       []string
	Output          string
	SharedObjectVer string // "" for unversioned
	Pthread         bool
}

// NewToolkit resolves a toolkit name to its implementation.
func NewToolkit(name string) (Toolkit, error) {
	switch name {
	case "gnu":
		return &unixToolkit{name: "gnu", cc: "gcc", cxx: "g++"}, nil
	case "clang":
		return &unixToolkit{name: "clang", cc: "clang", cxx: "clang++"}, nil
	case "visualstudio":
		return &msvcToolkit{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownToolkit, name)
	}
}

func driverFor(lang string, cc, cxx string) (string, error) {
	switch lang {
	case "c":
		return cc, nil
	case "c++":
		return cxx, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, lang)
	}
}

func stdFlag(lang, version string) string {
	if lang == "c++" {
		return "-std=c++" + version
	}
	return "-std=c" + version
}

func joinQuoted(flag string, values []string) string {
	var b strings.Builder
	for _, v := range values {
		b.WriteByte(' ')
		b.WriteString(flag)
		b.WriteString(v)
	}
	return b.String()
}
