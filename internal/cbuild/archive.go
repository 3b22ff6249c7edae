package cbuild

import (
	"context"
	"path/filepath"

	"github.com/pyke-go/pyke/internal/fileplan"
	"github.com/pyke-go/pyke/internal/option"
	"github.com/pyke-go/pyke/internal/phase"
	"github.com/pyke-go/pyke/internal/step"
)

// NewArchive builds a phase that archives every `object` FileData published
// by its dependencies (plus any objects of its own) into one static library
// named from the `archive_basename` option.
func NewArchive(name, group string) *phase.Base {
	p := phase.New(name, group)
	pushCommonDefaults(p.Options())
	p.Options().PushReplace("archive_basename", option.String(name))
	p.SetPlanFunc(planArchive)
	p.Handle(phase.ActionBuild, handleArchiveBuild)
	p.Handle(phase.ActionClean, func(ctx context.Context, p *phase.Base) step.Result {
		return cleanAction(p).Run(ctx)
	})
	return p
}

func discoveredObjects(p *phase.Base) []*fileplan.FileData {
	var out []*fileplan.FileData
	for _, dep := range p.Dependencies() {
		if dep.Plan() == nil {
			continue
		}
		out = append(out, dep.Plan().FilesByKind(fileplan.KindObject)...)
	}
	return out
}

func planArchive(p *phase.Base) error {
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

	objs := discoveredObjects(p)
	archivePath := filepath.Join(binDir, tk.ArchiveBasename(basename))
	archiveFD := &fileplan.FileData{Path: archivePath, Kind: fileplan.KindArchive, GeneratingPhase: p}
	p.Plan().Add(fileplan.Operation{Tag: fileplan.OpArchive, Inputs: objs, Outputs: []*fileplan.FileData{archiveFD}})
	return nil
}

func handleArchiveBuild(ctx context.Context, p *phase.Base) step.Result {
	s := p.Options()
	toolkitName, err := s.Str("toolkit")
	if err != nil {
		return step.Result{Code: step.InvalidOption, Notes: err.Error()}
	}
	tk, err := NewToolkit(toolkitName)
	if err != nil {
		return step.Result{Code: step.InvalidOption, Notes: err.Error()}
	}

	dirSteps, dirOrdered := mkdirSteps(p)
	act := &step.Action{Name: "build"}
	act.Steps = append(act.Steps, dirOrdered...)

	for _, op := range p.Plan().Operations {
		if op.Tag != fileplan.OpArchive {
			continue
		}
		archivePath := op.Outputs[0].Path
		objPaths := make([]string, len(op.Inputs))
		for i, fd := range op.Inputs {
			objPaths[i] = fd.Path
		}
		echo := tk.ArchiveCommand(archivePath, objPaths)
		act.Steps = append(act.Steps, &step.Step{
			Name:     "archive " + archivePath,
			Upstream: []*step.Step{dirSteps[filepath.Dir(archivePath)]},
			Inputs:   objPaths,
			Outputs:  []string{archivePath},
			Echo:     echo,
			Freshness: func() (bool, error) {
				return step.NewerThanAll([]string{archivePath}, objPaths)
			},
			Run: func(ctx context.Context) (string, error) {
				return step.RunShell(ctx, echo)
			},
		})
	}
	return act.Run(ctx)
}
