package cbuild

import (
	"context"
	"path/filepath"

	"github.com/pyke-go/pyke/internal/fileplan"
	"github.com/pyke-go/pyke/internal/option"
	"github.com/pyke-go/pyke/internal/phase"
	"github.com/pyke-go/pyke/internal/step"
)

// NewCompile builds a phase that compiles every file in its `sources`
// option into an object file under `<cache_dir>/<kind>.<toolkit>/int`.
func NewCompile(name, group string) *phase.Base {
	p := phase.New(name, group)
	pushCommonDefaults(p.Options())
	p.SetPlanFunc(planCompile)
	p.Handle(phase.ActionBuild, handleCompileBuild)
	p.Handle(phase.ActionClean, func(ctx context.Context, p *phase.Base) step.Result {
		return cleanAction(p).Run(ctx)
	})
	return p
}

func planCompile(p *phase.Base) error {
	s := p.Options()
	sources, err := strList(s, "sources")
	if err != nil {
		return err
	}
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

	objDir := objectParent(cacheDir, kind, toolkitName)
	p.Plan().AddCreateDirectory(objDir)

	for _, src := range sources {
		obj := filepath.Join(objDir, tk.ObjectBasename(stemOf(src)))
		srcFD := fileplan.External(src, fileplan.KindSource)
		objFD := &fileplan.FileData{Path: obj, Kind: fileplan.KindObject, GeneratingPhase: p}
		p.Plan().Add(fileplan.Operation{
			Tag:     fileplan.OpCompile,
			Inputs:  []*fileplan.FileData{srcFD},
			Outputs: []*fileplan.FileData{objFD},
		})
	}
	return nil
}

func readCompileOptions(s *option.Store) (lang, langVer string, warnings, defines, includeDirs, extra, headers []string, pic, pthread bool, err error) {
	if lang, err = s.Str("language"); err != nil {
		return
	}
	if langVer, err = s.Str("language_version"); err != nil {
		return
	}
	if warnings, err = strList(s, "warnings"); err != nil {
		return
	}
	if defines, err = strList(s, "defines"); err != nil {
		return
	}
	if includeDirs, err = strList(s, "include_dirs"); err != nil {
		return
	}
	if extra, err = strList(s, "extra_compile_args"); err != nil {
		return
	}
	if headers, err = strList(s, "headers"); err != nil {
		return
	}
	if pic, err = s.Bool("relocatable_code"); err != nil {
		return
	}
	if pthread, err = s.Bool("pthread"); err != nil {
		return
	}
	return
}

func handleCompileBuild(ctx context.Context, p *phase.Base) step.Result {
	s := p.Options()
	toolkitName, err := s.Str("toolkit")
	if err != nil {
		return step.Result{Code: step.InvalidOption, Notes: err.Error()}
	}
	tk, err := NewToolkit(toolkitName)
	if err != nil {
		return step.Result{Code: step.InvalidOption, Notes: err.Error()}
	}
	kind, err := s.Str("kind")
	if err != nil {
		return step.Result{Code: step.InvalidOption, Notes: err.Error()}
	}
	lang, langVer, warnings, defines, includeDirs, extra, headers, pic, pthread, err := readCompileOptions(s)
	if err != nil {
		return step.Result{Code: step.InvalidOption, Notes: err.Error()}
	}
	if kind == "debug" {
		defines = append(defines, "DEBUG")
	}
	optLvl, dbgLvl := optDebugLevels(kind)

	dirSteps, dirOrdered := mkdirSteps(p)
	act := &step.Action{Name: "build"}
	act.Steps = append(act.Steps, dirOrdered...)

	for _, op := range p.Plan().Operations {
		if op.Tag != fileplan.OpCompile {
			continue
		}
		src := op.Inputs[0].Path
		obj := op.Outputs[0].Path
		echo, err := tk.CompileCommand(CompileOptions{
			Language:        lang,
			LanguageVersion: langVer,
			Warnings:        warnings,
			OptLevel:        optLvl,
			DebugLevel:      dbgLvl,
			Defines:         defines,
			IncludeDirs:     includeDirs,
			ExtraCompile:    extra,
			Source:          src,
			Object:          obj,
			PIC:             pic,
			Pthread:         pthread,
		})
		if err != nil {
			return step.Result{Code: step.InvalidOption, Notes: err.Error()}
		}
		inputs := append([]string{src}, headers...)
		act.Steps = append(act.Steps, &step.Step{
			Name:     "compile " + src,
			Upstream: []*step.Step{dirSteps[filepath.Dir(obj)]},
			Inputs:   inputs,
			Outputs:  []string{obj},
			Echo:     echo,
			Freshness: func() (bool, error) {
				return step.NewerThanAll([]string{obj}, inputs)
			},
			Run: func(ctx context.Context) (string, error) {
				return step.RunShell(ctx, echo)
			},
		})
	}
	return act.Run(ctx)
}
