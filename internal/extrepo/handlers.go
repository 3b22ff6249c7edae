package extrepo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pyke-go/pyke/internal/fileplan"
	"github.com/pyke-go/pyke/internal/phase"
	"github.com/pyke-go/pyke/internal/step"
)

// handleSync builds the mkdir-anchor -> curl -> mkdir-package-dir ->
// tar-extract -> create-softlink pipeline, each stage freshness-gated so a
// repeat sync with an already-resolved version is a no-op chain of
// AlreadyUpToDate steps.
func handleSync(ctx context.Context, p *phase.Base, st *state) step.Result {
	anchorDir := filepath.Dir(st.linkPath)

	anchorStep := &step.Step{
		Name:    "mkdir " + anchorDir,
		Outputs: []string{anchorDir},
		Freshness: func() (bool, error) {
			return step.DirUpToDate(anchorDir)
		},
		Run: func(ctx context.Context) (string, error) {
			return "", os.MkdirAll(anchorDir, 0o755)
		},
	}

	downloadCmd := fmt.Sprintf("curl -fsSL -o %s %s", shellQuote(st.tarballPath), shellQuote(st.downloadURL))
	curlStep := &step.Step{
		Name:     "download " + st.downloadURL,
		Upstream: []*step.Step{anchorStep},
		Outputs:  []string{st.tarballPath},
		Echo:     downloadCmd,
		Freshness: func() (bool, error) {
			_, err := os.Stat(st.tarballPath)
			if err == nil {
				return true, nil
			}
			if os.IsNotExist(err) {
				return false, nil
			}
			return false, err
		},
		Run: func(ctx context.Context) (string, error) {
			return step.RunShell(ctx, downloadCmd)
		},
	}

	packageDirStep := &step.Step{
		Name:     "mkdir " + st.packageDir,
		Upstream: []*step.Step{curlStep},
		Outputs:  []string{st.packageDir},
		Freshness: func() (bool, error) {
			return step.DirUpToDate(st.packageDir)
		},
		Run: func(ctx context.Context) (string, error) {
			return "", os.MkdirAll(st.packageDir, 0o755)
		},
	}

	extractCmd := fmt.Sprintf("tar xzf %s -C %s --strip-components=1", shellQuote(st.tarballPath), shellQuote(st.packageDir))
	extractStep := &step.Step{
		Name:     "extract " + st.tarballPath,
		Upstream: []*step.Step{curlStep, packageDirStep},
		Inputs:   []string{st.tarballPath},
		Outputs:  []string{st.packageDir},
		Echo:     extractCmd,
		Freshness: func() (bool, error) {
			// Approximates per-file freshness with the package directory's
			// own mtime against the tarball's: good enough since the
			// directory is only ever populated by this one extract step.
			return step.NewerThanAll([]string{st.packageDir}, []string{st.tarballPath})
		},
		Run: func(ctx context.Context) (string, error) {
			return step.RunShell(ctx, extractCmd)
		},
	}

	wantTarget := filepath.Base(st.packageDir)
	linkStep := &step.Step{
		Name:     "softlink " + st.linkPath,
		Upstream: []*step.Step{extractStep},
		Outputs:  []string{st.linkPath},
		Freshness: func() (bool, error) {
			return step.SoftlinkUpToDate(st.linkPath, wantTarget)
		},
		Run: func(ctx context.Context) (string, error) {
			_ = removeIfExists(st.linkPath)
			return "", os.Symlink(wantTarget, st.linkPath)
		},
	}

	act := &step.Action{Name: "sync", Steps: []*step.Step{anchorStep, curlStep, packageDirStep, extractStep, linkStep}}

	for _, op := range p.Plan().Operations {
		if op.Tag != fileplan.OpGenerate {
			continue
		}
		out := op.Outputs[0]
		if out.Kind != fileplan.KindPykeMakefile && out.Kind != fileplan.KindCMakeMakefile {
			continue
		}
		act.Steps = append(act.Steps, makefileStep(out, linkStep, st))
	}

	return act.Run(ctx)
}

func makefileStep(out *fileplan.FileData, upstream *step.Step, st *state) *step.Step {
	var content string
	if out.Kind == fileplan.KindPykeMakefile {
		content = fmt.Sprintf("# generated stub for external package pinned at %s\nmain_phase(\"all\", \"run_phases\", {\"phase_names\": []})\n", st.resolvedVersion)
	} else {
		content = fmt.Sprintf("# generated stub for external package pinned at %s\n", st.resolvedVersion)
	}
	return &step.Step{
		Name:     "generate " + out.Path,
		Upstream: []*step.Step{upstream},
		Outputs:  []string{out.Path},
		Freshness: func() (bool, error) {
			_, err := os.Stat(out.Path)
			if err == nil {
				return true, nil
			}
			if os.IsNotExist(err) {
				return false, nil
			}
			return false, err
		},
		Run: func(ctx context.Context) (string, error) {
			return "", os.WriteFile(out.Path, []byte(content), 0o644)
		},
	}
}

// handleClean removes every path this phase's last sync produced: the
// softlink, the package directory (recursively), and the tarball. The
// anchor directory itself is left alone since sibling repo phases may still
// be using it.
func handleClean(ctx context.Context, p *phase.Base, st *state) step.Result {
	act := &step.Action{Name: "clean"}
	for _, path := range []string{st.linkPath, st.packageDir, st.tarballPath} {
		path := path
		act.Steps = append(act.Steps, &step.Step{
			Name: "remove " + path,
			Freshness: func() (bool, error) {
				_, err := os.Lstat(path)
				return os.IsNotExist(err), nil
			},
			Run: func(ctx context.Context) (string, error) {
				return "", os.RemoveAll(path)
			},
		})
	}
	return act.Run(ctx)
}

func removeIfExists(path string) error {
	err := os.Remove(path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
