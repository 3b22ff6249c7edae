package cbuild

import (
	"fmt"
	"strings"
)

// msvcToolkit is the visualstudio toolkit. Windows toolchain invocation is a
// documented Non-goal (spec.md §1/§5: "stubbed"), so this implementation
// produces well-formed cl.exe/lib.exe-shaped command text -- enough to
// exercise toolkit selection and the CompileOptions/LinkOptions contract --
// without attempting the full MSVC argument grammar gnu/clang get.
type msvcToolkit struct{}

func (t *msvcToolkit) Name() string { return "visualstudio" }

func (t *msvcToolkit) CompileCommand(o CompileOptions) (string, error) {
	if o.Language != "c" && o.Language != "c++" {
		return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, o.Language)
	}
	return fmt.Sprintf("cl.exe /nologo /c /Fo%s %s", o.Object, o.Source), nil
}

func (t *msvcToolkit) ArchiveCommand(archivePath string, objects []string) string {
	return fmt.Sprintf("lib.exe /nologo /OUT:%s %s", archivePath, strings.Join(objects, " "))
}

func (t *msvcToolkit) LinkExeCommand(o LinkOptions) (string, error) {
	return fmt.Sprintf("link.exe /nologo /OUT:%s %s", o.Output, strings.Join(o.Objects, " ")), nil
}

func (t *msvcToolkit) LinkSharedObjectCommand(o LinkOptions) (string, error) {
	return fmt.Sprintf("link.exe /nologo /DLL /OUT:%s %s", o.Output, strings.Join(o.Objects, " ")), nil
}

func (t *msvcToolkit) ArchiveBasename(name string) string { return name + ".lib" }

func (t *msvcToolkit) SharedObjectBasename(name, version string) string {
	return name + ".dll"
}

func (t *msvcToolkit) ExeBasename(name string) string { return name + ".exe" }

func (t *msvcToolkit) ObjectBasename(stem string) string { return stem + ".obj" }
