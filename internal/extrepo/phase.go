package extrepo

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pyke-go/pyke/internal/fileplan"
	"github.com/pyke-go/pyke/internal/option"
	"github.com/pyke-go/pyke/internal/phase"
	"github.com/pyke-go/pyke/internal/step"
)

// state carries the values planExternalRepo resolves (the chosen version,
// the resulting paths, the download URL) across to handleSync/handleClean
// within one action ordinal. It's plain closure-captured state, not part of
// the options store, because it's derived rather than configured.
type state struct {
	resolvedVersion string
	packageDir      string
	linkPath        string
	tarballPath     string
	downloadURL     string
}

// TagLister lists the tags a repository has, used to resolve "latest" and
// semver-range version requests. New defaults to FetchTags.
type TagLister func(owner, repo string) ([]string, error)

// New builds an external-repository phase: fetch a tagged release tarball,
// extract it into a version-pinned directory under anchor_dir, and
// softlink a version-agnostic name to it. tagLister is nil-able; nil
// installs FetchTags.
func New(name, group string, tagLister TagLister) *phase.Base {
	if tagLister == nil {
		tagLister = FetchTags
	}
	p := phase.New(name, group)
	s := p.Options()
	s.PushReplace("repo_owner", option.String(""))
	s.PushReplace("repo_name", option.String(name))
	s.PushReplace("version", option.String("latest"))
	s.PushReplace("anchor_dir", option.String("external"))
	s.PushReplace("publish_makefile", option.String(""))
	s.PushReplace("url_template", option.String("https://github.com/%s/%s/archive/refs/tags/%s.tar.gz"))

	st := &state{}
	p.SetPlanFunc(func(p *phase.Base) error { return planExternalRepo(p, st, tagLister) })
	p.Handle(phase.ActionSync, func(ctx context.Context, p *phase.Base) step.Result { return handleSync(ctx, p, st) })
	p.Handle(phase.ActionBuild, func(ctx context.Context, p *phase.Base) step.Result { return handleSync(ctx, p, st) })
	p.Handle(phase.ActionClean, func(ctx context.Context, p *phase.Base) step.Result { return handleClean(ctx, p, st) })
	return p
}

// NewPykeRepo is the pyke_repo sibling: an external repo whose package root
// publishes a make.pyke, letting a dependent run_phases into it.
func NewPykeRepo(name, group string, tagLister TagLister) *phase.Base {
	p := New(name, group, tagLister)
	p.Options().PushReplace("publish_makefile", option.String("pyke_makefile"))
	return p
}

// NewCMakeRepo is the cmake_repo sibling: an external repo whose package
// root publishes a CMakeLists.txt instead.
func NewCMakeRepo(name, group string, tagLister TagLister) *phase.Base {
	p := New(name, group, tagLister)
	p.Options().PushReplace("publish_makefile", option.String("cmake_makefile"))
	return p
}

func planExternalRepo(p *phase.Base, st *state, tagLister TagLister) error {
	s := p.Options()
	owner, err := s.Str("repo_owner")
	if err != nil {
		return err
	}
	repoName, err := s.Str("repo_name")
	if err != nil {
		return err
	}
	versionReq, err := s.Str("version")
	if err != nil {
		return err
	}
	anchorDir, err := s.Str("anchor_dir")
	if err != nil {
		return err
	}
	publish, err := s.Str("publish_makefile")
	if err != nil {
		return err
	}
	urlTemplate, err := s.Str("url_template")
	if err != nil {
		return err
	}

	tags, err := tagLister(owner, repoName)
	if err != nil {
		return fmt.Errorf("listing tags for %s/%s: %w", owner, repoName, err)
	}
	resolved, err := ResolveVersion(versionReq, tags)
	if err != nil {
		return err
	}

	st.resolvedVersion = resolved
	st.packageDir = filepath.Join(anchorDir, repoName+"-"+resolved)
	st.linkPath = filepath.Join(anchorDir, repoName)
	st.tarballPath = filepath.Join(anchorDir, repoName+"-"+resolved+".tar.gz")
	st.downloadURL = fmt.Sprintf(urlTemplate, owner, repoName, resolved)

	anchorFD := p.Plan().AddCreateDirectory(anchorDir)

	tarballFD := &fileplan.FileData{Path: st.tarballPath, Kind: fileplan.KindSource, GeneratingPhase: p}
	p.Plan().Add(fileplan.Operation{Tag: fileplan.OpGenerate, Inputs: []*fileplan.FileData{anchorFD}, Outputs: []*fileplan.FileData{tarballFD}})

	packageFD := &fileplan.FileData{Path: st.packageDir, Kind: fileplan.KindDir, GeneratingPhase: p}
	p.Plan().Add(fileplan.Operation{Tag: fileplan.OpCreateDirectory, Inputs: []*fileplan.FileData{tarballFD}, Outputs: []*fileplan.FileData{packageFD}})

	linkFD := &fileplan.FileData{Path: st.linkPath, Kind: fileplan.KindSoftLink, GeneratingPhase: p}
	p.Plan().Add(fileplan.Operation{Tag: fileplan.OpSoftlink, Inputs: []*fileplan.FileData{packageFD}, Outputs: []*fileplan.FileData{linkFD}})

	switch publish {
	case "":
	case "pyke_makefile":
		mkFD := &fileplan.FileData{Path: filepath.Join(st.linkPath, "make.pyke"), Kind: fileplan.KindPykeMakefile, GeneratingPhase: p}
		p.Plan().Add(fileplan.Operation{Tag: fileplan.OpGenerate, Inputs: []*fileplan.FileData{linkFD}, Outputs: []*fileplan.FileData{mkFD}})
	case "cmake_makefile":
		mkFD := &fileplan.FileData{Path: filepath.Join(st.linkPath, "CMakeLists.txt"), Kind: fileplan.KindCMakeMakefile, GeneratingPhase: p}
		p.Plan().Add(fileplan.Operation{Tag: fileplan.OpGenerate, Inputs: []*fileplan.FileData{linkFD}, Outputs: []*fileplan.FileData{mkFD}})
	default:
		return fmt.Errorf("unknown publish_makefile kind %q", publish)
	}
	return nil
}
