package cbuild

import (
	"context"
	"path/filepath"

	"github.com/pyke-go/pyke/internal/fileplan"
	"github.com/pyke-go/pyke/internal/option"
	"github.com/pyke-go/pyke/internal/phase"
	"github.com/pyke-go/pyke/internal/step"
)

// The composite phases fuse a Compile planning/build pass with an
// Archive/LinkToExe/LinkToSharedObject pass in a single phase, per spec.md
// §4.5: "unions of the above in a single phase, with identical planning
// contracts." Each reuses the plain phases' plan/build functions, sourcing
// its archive/link inputs from its own just-planned compile outputs in
// addition to whatever its dependencies publish.

// NewCompileAndArchive builds a phase that compiles `sources` and archives
// the resulting objects (plus any objects discovered from dependencies)
// into one static library.
func NewCompileAndArchive(name, group string) *phase.Base {
	p := phase.New(name, group)
	pushCommonDefaults(p.Options())
	p.Options().PushReplace("archive_basename", option.String(name))
	p.SetPlanFunc(func(p *phase.Base) error {
		if err := planCompile(p); err != nil {
			return err
		}
		return planArchiveFrom(p, ownAndDependencyObjects(p))
	})
	p.Handle(phase.ActionBuild, func(ctx context.Context, p *phase.Base) step.Result {
		compileRes := handleCompileBuild(ctx, p)
		if !compileRes.Code.Success() {
			return compileRes
		}
		return handleArchiveBuild(ctx, p)
	})
	p.Handle(phase.ActionClean, func(ctx context.Context, p *phase.Base) step.Result {
		return cleanAction(p).Run(ctx)
	})
	return p
}

// NewCompileAndLinkToExe builds a phase that compiles `sources` and links
// the resulting objects (plus dependency-discovered objects/archives/shared
// objects) into an executable.
func NewCompileAndLinkToExe(name, group string) *phase.Base {
	p := phase.New(name, group)
	pushCommonDefaults(p.Options())
	p.Options().PushReplace("exe_basename", option.String(name))
	p.SetPlanFunc(func(p *phase.Base) error {
		if err := planCompile(p); err != nil {
			return err
		}
		return planLinkFrom(p, false, ownAndDependencyObjects(p))
	})
	p.Handle(phase.ActionBuild, func(ctx context.Context, p *phase.Base) step.Result {
		compileRes := handleCompileBuild(ctx, p)
		if !compileRes.Code.Success() {
			return compileRes
		}
		return handleLinkBuild(ctx, p, false)
	})
	p.Handle(phase.ActionClean, func(ctx context.Context, p *phase.Base) step.Result {
		return cleanAction(p).Run(ctx)
	})
	return p
}

// NewCompileAndLinkToSharedObject builds a phase that compiles `sources`
// with position-independent code and links them (plus dependency-discovered
// objects) into a shared object.
func NewCompileAndLinkToSharedObject(name, group string) *phase.Base {
	p := phase.New(name, group)
	pushCommonDefaults(p.Options())
	p.Options().PushReplace("shared_object_basename", option.String(name))
	p.Options().PushReplace("shared_object_version", option.String(""))
	p.BeforeDependencies = func(p *phase.Base, action phase.Action) {
		if action != phase.ActionBuild {
			return
		}
		p.Options().Push("relocatable_code", option.Bool(true), option.Replace)
		for _, d := range p.Dependencies() {
			d.PushOverrides(map[string]phase.Override{
				"relocatable_code": {Value: option.Bool(true), Op: option.Replace},
			})
		}
	}
	p.SetPlanFunc(func(p *phase.Base) error {
		if err := planCompile(p); err != nil {
			return err
		}
		return planLinkFrom(p, true, ownAndDependencyObjects(p))
	})
	p.Handle(phase.ActionBuild, func(ctx context.Context, p *phase.Base) step.Result {
		compileRes := handleCompileBuild(ctx, p)
		if !compileRes.Code.Success() {
			return compileRes
		}
		return handleLinkBuild(ctx, p, true)
	})
	p.Handle(phase.ActionClean, func(ctx context.Context, p *phase.Base) step.Result {
		return cleanAction(p).Run(ctx)
	})
	return p
}

func ownAndDependencyObjects(p *phase.Base) []*fileplan.FileData {
	objs := p.Plan().FilesByKind(fileplan.KindObject)
	return append(objs, discoveredByKind(p, fileplan.KindObject)...)
}

// planArchiveFrom and planLinkFrom are planArchive/planLink generalized to
// take an explicit object list, so the composite phases can supply their
// own just-compiled objects instead of only a dependency's published ones.
func planArchiveFrom(p *phase.Base, objs []*fileplan.FileData) error {
	s := p.Options()
	cacheDir, err := s.Str("cache_dir")
	if err != nil {
		return err
	}
	kind, err := s.Str("kind")
	if err != nil {
		return err
	}
	toolkitName, err := s.Str("toolkit")
	if err != nil {
		return err
	}
	tk, err := NewToolkit(toolkitName)
	if err != nil {
		return err
	}
	basename, err := s.Str("archive_basename")
	if err != nil {
		return err
	}

	binDir := binParent(cacheDir, kind, toolkitName)
	p.Plan().AddCreateDirectory(binDir)
	archivePath := filepath.Join(binDir, tk.ArchiveBasename(basename))
	archiveFD := &fileplan.FileData{Path: archivePath, Kind: fileplan.KindArchive, GeneratingPhase: p}
	p.Plan().Add(fileplan.Operation{Tag: fileplan.OpArchive, Inputs: objs, Outputs: []*fileplan.FileData{archiveFD}})
	return nil
}

func planLinkFrom(p *phase.Base, shared bool, objs []*fileplan.FileData) error {
	archives := discoveredByKind(p, fileplan.KindArchive)
	sharedObjs := discoveredByKind(p, fileplan.KindSharedObject)
	return planLinkWithInputs(p, shared, objs, archives, sharedObjs)
}
