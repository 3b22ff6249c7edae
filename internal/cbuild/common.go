package cbuild

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pyke-go/pyke/internal/fileplan"
	"github.com/pyke-go/pyke/internal/option"
	"github.com/pyke-go/pyke/internal/phase"
	"github.com/pyke-go/pyke/internal/step"
)

// pushCommonDefaults installs the shared option vocabulary every C-family
// phase reads, so a fresh phase behaves sensibly before any override is
// pushed. Concrete constructors (NewCompile, NewArchive, ...) call this
// before pushing their own variant-specific defaults.
func pushCommonDefaults(s *option.Store) {
	s.PushReplace("toolkit", option.String("gnu"))
	s.PushReplace("language", option.String("c++"))
	s.PushReplace("language_version", option.String("17"))
	s.PushReplace("kind", option.String("release"))
	s.PushReplace("warnings", option.List([]option.Value{option.String("all"), option.String("extra")}))
	s.PushReplace("defines", option.List(nil))
	s.PushReplace("include_dirs", option.List(nil))
	s.PushReplace("headers", option.List(nil))
	s.PushReplace("extra_compile_args", option.List(nil))
	s.PushReplace("extra_link_args", option.List(nil))
	s.PushReplace("sources", option.List(nil))
	s.PushReplace("pkg_configs", option.List(nil))
	s.PushReplace("cache_dir", option.String("build"))
	s.PushReplace("relocatable_code", option.Bool(false))
	s.PushReplace("pthread", option.Bool(false))
	s.PushReplace("lib_dirs", option.List(nil))
	s.PushReplace("libs", option.Map(nil, nil))
	s.PushReplace("rpath", option.List(nil))
}

// optDebugLevels derives the default -O/-g levels from the `kind` option,
// per end-to-end scenario 5: kind=debug means -g2 -O0 (plus -DDEBUG, added
// by the compile planner), kind=release means -g0 -O2.
func optDebugLevels(kind string) (optLevel, debugLevel string) {
	if kind == "debug" {
		return "0", "2"
	}
	return "2", "0"
}

// cacheSubdir is the per-variant build output subdirectory name, e.g.
// "release.gnu", matching end-to-end scenario 1's `build/release.gnu/...`.
func cacheSubdir(kind, toolkit string) string {
	return kind + "." + toolkit
}

func strList(s *option.Store, key string) ([]string, error) {
	items, err := s.List(key)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(items))
	for i, it := range items {
		str, ok := it.AsString()
		if !ok {
			return nil, fmt.Errorf("option %s: element %d is not a string", key, i)
		}
		out[i] = str
	}
	return out, nil
}

// mkdirStep builds the Step for a plan's "create directory" operation,
// shared by every C-family handler.
func mkdirStep(path string) *step.Step {
	return &step.Step{
		Name:    "mkdir " + path,
		Outputs: []string{path},
		Freshness: func() (bool, error) {
			return step.DirUpToDate(path)
		},
		Run: func(ctx context.Context) (string, error) {
			return "", os.MkdirAll(path, 0o755)
		},
	}
}

// mkdirSteps builds one mkdirStep per "create directory" operation in p's
// plan and returns them keyed by directory path, plus the Steps in
// declaration order so a caller can append them to an Action.
func mkdirSteps(p *phase.Base) (map[string]*step.Step, []*step.Step) {
	byPath := map[string]*step.Step{}
	var ordered []*step.Step
	for _, op := range p.Plan().Operations {
		if op.Tag != fileplan.OpCreateDirectory {
			continue
		}
		dir := op.Outputs[0].Path
		if _, ok := byPath[dir]; ok {
			continue
		}
		st := mkdirStep(dir)
		byPath[dir] = st
		ordered = append(ordered, st)
	}
	return byPath, ordered
}

// cleanAction builds the `clean` action shared by every C-family phase: one
// step per declared output file (not directories) that removes it if
// present, freshness-gated so a repeat clean is a no-op.
func cleanAction(p *phase.Base) *step.Action {
	act := &step.Action{Name: "clean"}
	seen := map[string]bool{}
	for _, op := range p.Plan().Operations {
		if op.Tag == fileplan.OpCreateDirectory {
			continue
		}
		for _, out := range op.Outputs {
			if seen[out.Path] {
				continue
			}
			seen[out.Path] = true
			path := out.Path
			act.Steps = append(act.Steps, &step.Step{
				Name: "remove " + path,
				Freshness: func() (bool, error) {
					_, err := os.Stat(path)
					return os.IsNotExist(err), nil
				},
				Run: func(ctx context.Context) (string, error) {
					return "", os.Remove(path)
				},
			})
		}
	}
	return act
}

func objectParent(cacheDir, kind, toolkit string) string {
	return filepath.Join(cacheDir, cacheSubdir(kind, toolkit), "int")
}

func binParent(cacheDir, kind, toolkit string) string {
	return filepath.Join(cacheDir, cacheSubdir(kind, toolkit), "bin")
}

func stemOf(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)]
}

func osRemoveIfExists(path string) error {
	err := os.Remove(path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

func osSymlink(target, link string) error {
	return os.Symlink(target, link)
}
