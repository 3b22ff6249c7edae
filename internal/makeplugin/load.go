// Package makeplugin loads a make-module: a separately built Go plugin that
// exports RegisterPhases(*pyke.Registry). This is the load-time mechanism
// behind the CLI's -m/--module flag.
//
// Python's pyke loads an arbitrary .py file at runtime via importlib and
// runs its top-level use_phase()/use_phases() calls. Go has no equivalent
// for loading arbitrary source at runtime; the closest idiomatic mechanism
// is the standard library's plugin package, which opens a shared object
// built with "go build -buildmode=plugin" and resolves exported symbols
// from it. A make-module author builds their phase graph into such a
// plugin ahead of time; pyke opens it, looks up RegisterPhases, and calls
// it against a fresh Registry.
//
// hashicorp/go-plugin (used elsewhere in the example corpus for resilient
// cross-version plugin hosting) was considered and rejected here: it talks
// to a plugin over RPC in a separate process, which would require
// serializing the entire phase.Base graph and option.Value tree across
// that boundary on every Do call. A make-module and its host need to share
// those types directly and synchronously, which plugin.Open provides for
// free and go-plugin does not.
package makeplugin

import (
	"fmt"
	"os"
	"path/filepath"
	"plugin"

	"github.com/pyke-go/pyke/pkg/pyke"
)

// DefaultFilename is the compiled make-module pyke loads when -m names a
// directory rather than a file.
const DefaultFilename = "pyke_plugin.so"

// EntryPointSymbol is the exported symbol a make-module plugin must define:
// func RegisterPhases(r *pyke.Registry).
const EntryPointSymbol = "RegisterPhases"

// RegisterFunc is the signature a make-module plugin's EntryPointSymbol
// must satisfy.
type RegisterFunc func(*pyke.Registry)

// Resolve turns a -m argument (possibly empty, possibly a directory) into
// a concrete plugin file path, applying the directory-implies-default-file
// rule the original tool's pyke_file-ends-with-.py check applies.
func Resolve(path string) (string, error) {
	if path == "" {
		path = "."
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("locating make-module %s: %w", path, err)
	}
	if info.IsDir() {
		return filepath.Join(path, DefaultFilename), nil
	}
	return path, nil
}

// Load opens the compiled make-module plugin at path and calls its
// RegisterPhases entry point against a fresh Registry.
func Load(path string) (*pyke.Registry, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loading make-module %s: %w", path, err)
	}
	sym, err := p.Lookup(EntryPointSymbol)
	if err != nil {
		return nil, fmt.Errorf("make-module %s does not export %s: %w", path, EntryPointSymbol, err)
	}
	register, ok := sym.(func(*pyke.Registry))
	if !ok {
		return nil, fmt.Errorf("make-module %s's %s has the wrong signature, want func(*pyke.Registry)", path, EntryPointSymbol)
	}
	registry := pyke.NewRegistry()
	register(registry)
	return registry, nil
}
