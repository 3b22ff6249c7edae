package cbuild

import (
	"fmt"
	"strings"
)

// unixToolkit implements the gnu and clang families, which share a command
// grammar and differ only in driver binary names (gcc/g++ vs clang/clang++).
// Grounded on _examples/original_source/pyke/tools/cpp_tool.py's flag
// ordering and the -Wl,-Bstatic/-Bdynamic grouping, pkg-config splicing, and
// $ORIGIN rpath convention.
type unixToolkit struct {
	name    string
	cc, cxx string
}

func (t *unixToolkit) Name() string { return t.name }

func (t *unixToolkit) CompileCommand(o CompileOptions) (string, error) {
	driver, err := driverFor(o.Language, t.cc, t.cxx)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(driver)
	b.WriteByte(' ')
	b.WriteString(stdFlag(o.Language, o.LanguageVersion))
	b.WriteString(joinQuoted("-W", o.Warnings))
	b.WriteString(" -c")
	if o.DebugLevel != "" {
		b.WriteString(" -g" + o.DebugLevel)
	}
	if o.OptLevel != "" {
		b.WriteString(" -O" + o.OptLevel)
	}
	if o.PIC {
		b.WriteString(" -fPIC")
	}
	b.WriteString(joinQuoted("-D", o.Defines))
	for _, extra := range o.ExtraCompile {
		b.WriteByte(' ')
		b.WriteString(extra)
	}
	b.WriteString(joinQuoted("-I", o.IncludeDirs))
	for _, cflag := range o.PkgConfigCflags {
		b.WriteByte(' ')
		b.WriteString(cflag)
	}
	fmt.Fprintf(&b, " -o %s %s", o.Object, o.Source)
	if o.Pthread {
		b.WriteString(" -pthread")
	}
	return b.String(), nil
}

func (t *unixToolkit) ArchiveCommand(archivePath string, objects []string) string {
	return fmt.Sprintf("ar cr %s %s", archivePath, strings.Join(objects, " "))
}

func (t *unixToolkit) link(o LinkOptions, shared bool) (string, error) {
	driver, err := driverFor(o.Language, t.cc, t.cxx)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(driver)
	if shared {
		b.WriteString(" -shared")
		if o.SharedObjectVer != "" {
			fmt.Fprintf(&b, " -Wl,-soname,%s", soname(o.Output, o.SharedObjectVer))
		}
	}
	fmt.Fprintf(&b, " -o %s", o.Output)
	for _, obj := range o.Objects {
		b.WriteByte(' ')
		b.WriteString(obj)
	}
	b.WriteString(joinQuoted("-L", o.LibDirs))
	if len(o.StaticLibs) > 0 {
		b.WriteString(" -Wl,-Bstatic")
		b.WriteString(joinQuoted("-l", o.StaticLibs))
	}
	if len(o.SharedLibs) > 0 {
		b.WriteString(" -Wl,-Bdynamic")
		b.WriteString(joinQuoted("-l", o.SharedLibs))
	}
	if len(o.Rpaths) > 0 {
		b.WriteString(" -Wl,-rpath,$ORIGIN -Wl,-z,origin")
		for _, rp := range o.Rpaths {
			fmt.Fprintf(&b, " -Wl,-rpath,%s", rp)
		}
	}
	for _, lflag := range o.PkgConfigLibs {
		b.WriteByte(' ')
		b.WriteString(lflag)
	}
	for _, extra := range o.ExtraLink {
		b.WriteByte(' ')
		b.WriteString(extra)
	}
	if o.Pthread {
		b.WriteString(" -pthread")
	}
	return b.String(), nil
}

func (t *unixToolkit) LinkExeCommand(o LinkOptions) (string, error) {
	return t.link(o, false)
}

func (t *unixToolkit) LinkSharedObjectCommand(o LinkOptions) (string, error) {
	return t.link(o, true)
}

func (t *unixToolkit) ArchiveBasename(name string) string { return "lib" + name + ".a" }

func (t *unixToolkit) SharedObjectBasename(name, version string) string {
	base := "lib" + name + ".so"
	if version == "" {
		return base
	}
	return base + "." + version
}

func (t *unixToolkit) ExeBasename(name string) string { return name }

func (t *unixToolkit) ObjectBasename(stem string) string { return stem + ".o" }

// soname derives the SONAME (major-version-only) from a versioned shared
// object's realname path and full version string, e.g. ".../libfoo.so.1.2.3"
// with version "1.2.3" -> ".../libfoo.so.1".
func soname(realnamePath, version string) string {
	idx := strings.Index(realnamePath, ".so")
	if idx < 0 {
		return realnamePath
	}
	base := realnamePath[:idx+len(".so")]
	major := strings.SplitN(version, ".", 2)[0]
	return base + "." + major
}
