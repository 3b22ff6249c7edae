package cbuild

import (
	"context"
	"path/filepath"

	"github.com/pyke-go/pyke/internal/fileplan"
	"github.com/pyke-go/pyke/internal/option"
	"github.com/pyke-go/pyke/internal/phase"
	"github.com/pyke-go/pyke/internal/step"
)

// NewLinkToExe builds a phase that links its dependencies' discovered
// objects/archives/shared objects into an executable named from the
// `exe_basename` option.
func NewLinkToExe(name, group string) *phase.Base {
	p := phase.New(name, group)
	pushCommonDefaults(p.Options())
	p.Options().PushReplace("exe_basename", option.String(name))
	p.SetPlanFunc(func(p *phase.Base) error { return planLink(p, false) })
	p.Handle(phase.ActionBuild, func(ctx context.Context, p *phase.Base) step.Result {
		return handleLinkBuild(ctx, p, false)
	})
	p.Handle(phase.ActionClean, func(ctx context.Context, p *phase.Base) step.Result {
		return cleanAction(p).Run(ctx)
	})
	return p
}

// NewLinkToSharedObject builds a phase that links into a (possibly
// versioned) shared object. Per spec.md §4.5 it forces
// `relocatable_code=true` across its whole dependency subtree before
// planning, so upstream compile phases build position-independent objects.
func NewLinkToSharedObject(name, group string) *phase.Base {
	p := phase.New(name, group)
	pushCommonDefaults(p.Options())
	p.Options().PushReplace("shared_object_basename", option.String(name))
	p.Options().PushReplace("shared_object_version", option.String(""))
	p.BeforeDependencies = func(p *phase.Base, action phase.Action) {
		if action != phase.ActionBuild {
			return
		}
		for _, d := range p.Dependencies() {
			d.PushOverrides(map[string]phase.Override{
				"relocatable_code": {Value: option.Bool(true), Op: option.Replace},
			})
		}
	}
	p.SetPlanFunc(func(p *phase.Base) error { return planLink(p, true) })
	p.Handle(phase.ActionBuild, func(ctx context.Context, p *phase.Base) step.Result {
		return handleLinkBuild(ctx, p, true)
	})
	p.Handle(phase.ActionClean, func(ctx context.Context, p *phase.Base) step.Result {
		return cleanAction(p).Run(ctx)
	})
	return p
}

func discoveredByKind(p *phase.Base, kind fileplan.FileKind) []*fileplan.FileData {
	var out []*fileplan.FileData
	for _, dep := range p.Dependencies() {
		if dep.Plan() == nil {
			continue
		}
		out = append(out, dep.Plan().FilesByKind(kind)...)
	}
	return out
}

// deriveLinkOptions implements spec.md §4.3's post-files option patching:
// lib_dirs (unique parents of discovered archives/shared objects) and libs
// (basename -> archive/shared_object kind), derived after planning.
func deriveLinkOptions(p *phase.Base, archives, sharedObjs []*fileplan.FileData) {
	dirSeen := map[string]bool{}
	var libDirs []option.Value
	addDir := func(path string) {
		dir := filepath.Dir(path)
		if !dirSeen[dir] {
			dirSeen[dir] = true
			libDirs = append(libDirs, option.String(dir))
		}
	}
	var libKeys, libVals []option.Value
	for _, fd := range archives {
		addDir(fd.Path)
		libKeys = append(libKeys, option.String(libName(fd.Path)))
		libVals = append(libVals, option.String(string(fileplan.KindArchive)))
	}
	for _, fd := range sharedObjs {
		addDir(fd.Path)
		libKeys = append(libKeys, option.String(libName(fd.Path)))
		libVals = append(libVals, option.String(string(fileplan.KindSharedObject)))
	}
	p.Options().Push("lib_dirs", option.List(libDirs), option.Replace)
	p.Options().Push("libs", option.Map(libKeys, libVals), option.Replace)

	if len(sharedObjs) > 0 {
		var rpaths []option.Value
		seen := map[string]bool{}
		for _, fd := range sharedObjs {
			dir := filepath.Dir(fd.Path)
			if !seen[dir] {
				seen[dir] = true
				rpaths = append(rpaths, option.String(dir))
			}
		}
		p.Options().Push("rpath", option.List(rpaths), option.Replace)
	}
}

// libName strips the toolkit-specific lib prefix/suffix to recover the
// basename a -l flag would reference (e.g. ".../libfoo.a" -> "foo").
func libName(path string) string {
	base := filepath.Base(path)
	name := stemOf(base)
	if len(name) > 3 && name[:3] == "lib" {
		name = name[3:]
	}
	return name
}

func planLink(p *phase.Base, shared bool) error {
	objs := discoveredByKind(p, fileplan.KindObject)
	archives := discoveredByKind(p, fileplan.KindArchive)
	sharedObjs := discoveredByKind(p, fileplan.KindSharedObject)
	return planLinkWithInputs(p, shared, objs, archives, sharedObjs)
}

func planLinkWithInputs(p *phase.Base, shared bool, objs, archives, sharedObjs []*fileplan.FileData) error {
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
	deriveLinkOptions(p, archives, sharedObjs)

	var outPath string
	var outKind fileplan.FileKind
	var opTag fileplan.OpTag
	if shared {
		basename, err := s.Str("shared_object_basename")
		if err != nil {
			return err
		}
		version, err := s.Str("shared_object_version")
		if err != nil {
			return err
		}
		binDir := binParent(cacheDir, kind, toolkitName)
		p.Plan().AddCreateDirectory(binDir)
		outPath = filepath.Join(binDir, tk.SharedObjectBasename(basename, version))
		outKind = fileplan.KindSharedObject
		opTag = fileplan.OpLinkSharedObject

		if version != "" {
			realname := outPath
			sonamePath := filepath.Join(binDir, tk.SharedObjectBasename(basename, "")+"."+majorOf(version))
			linkerName := filepath.Join(binDir, tk.SharedObjectBasename(basename, ""))
			realFD := &fileplan.FileData{Path: realname, Kind: outKind, GeneratingPhase: p}
			sonameFD := &fileplan.FileData{Path: sonamePath, Kind: fileplan.KindSoftLink, GeneratingPhase: p}
			linkFD := &fileplan.FileData{Path: linkerName, Kind: fileplan.KindSoftLink, GeneratingPhase: p}
			p.Plan().Add(fileplan.Operation{Tag: opTag, Inputs: append(append([]*fileplan.FileData{}, objs...), archives...), Outputs: []*fileplan.FileData{realFD}})
			p.Plan().Add(fileplan.Operation{Tag: fileplan.OpSoftlink, Inputs: []*fileplan.FileData{realFD}, Outputs: []*fileplan.FileData{sonameFD}})
			p.Plan().Add(fileplan.Operation{Tag: fileplan.OpSoftlink, Inputs: []*fileplan.FileData{sonameFD}, Outputs: []*fileplan.FileData{linkFD}})
			return nil
		}
	} else {
		basename, err := s.Str("exe_basename")
		if err != nil {
			return err
		}
		binDir := binParent(cacheDir, kind, toolkitName)
		p.Plan().AddCreateDirectory(binDir)
		outPath = filepath.Join(binDir, tk.ExeBasename(basename))
		outKind = fileplan.KindExecutable
		opTag = fileplan.OpLink
	}

	outFD := &fileplan.FileData{Path: outPath, Kind: outKind, GeneratingPhase: p}
	inputs := append(append([]*fileplan.FileData{}, objs...), archives...)
	inputs = append(inputs, sharedObjs...)
	p.Plan().Add(fileplan.Operation{Tag: opTag, Inputs: inputs, Outputs: []*fileplan.FileData{outFD}})
	return nil
}

func majorOf(version string) string {
	for i, c := range version {
		if c == '.' {
			return version[:i]
		}
	}
	return version
}

func handleLinkBuild(ctx context.Context, p *phase.Base, shared bool) step.Result {
	s := p.Options()
	toolkitName, err := s.Str("toolkit")
	if err != nil {
		return step.Result{Code: step.InvalidOption, Notes: err.Error()}
	}
	tk, err := NewToolkit(toolkitName)
	if err != nil {
		return step.Result{Code: step.InvalidOption, Notes: err.Error()}
	}
	lang, err := s.Str("language")
	if err != nil {
		return step.Result{Code: step.InvalidOption, Notes: err.Error()}
	}
	libDirs, err := strList(s, "lib_dirs")
	if err != nil {
		return step.Result{Code: step.InvalidOption, Notes: err.Error()}
	}
	rpaths, err := strList(s, "rpath")
	if err != nil {
		return step.Result{Code: step.InvalidOption, Notes: err.Error()}
	}
	extra, err := strList(s, "extra_link_args")
	if err != nil {
		return step.Result{Code: step.InvalidOption, Notes: err.Error()}
	}
	pthread, err := s.Bool("pthread")
	if err != nil {
		return step.Result{Code: step.InvalidOption, Notes: err.Error()}
	}
	libs, err := s.Dict("libs")
	if err != nil {
		return step.Result{Code: step.InvalidOption, Notes: err.Error()}
	}
	var staticLibs, sharedLibs []string
	for _, kv := range libs {
		name, _ := kv.Key.AsString()
		libKind, _ := kv.Val.AsString()
		if libKind == string(fileplan.KindArchive) {
			staticLibs = append(staticLibs, name)
		} else {
			sharedLibs = append(sharedLibs, name)
		}
	}

	dirSteps, dirOrdered := mkdirSteps(p)
	act := &step.Action{Name: "build"}
	act.Steps = append(act.Steps, dirOrdered...)

	linkTags := map[fileplan.OpTag]bool{fileplan.OpLink: true, fileplan.OpLinkSharedObject: true}
	for _, op := range p.Plan().Operations {
		switch {
		case linkTags[op.Tag]:
			outPath := op.Outputs[0].Path
			inPaths := make([]string, len(op.Inputs))
			var version string
			if shared {
				version, _ = s.Str("shared_object_version")
			}
			for i, fd := range op.Inputs {
				inPaths[i] = fd.Path
			}
			echo, err := buildLinkCommand(tk, shared, LinkOptions{
				Language:        lang,
				Objects:         inPaths,
				LibDirs:         libDirs,
				StaticLibs:      staticLibs,
				SharedLibs:      sharedLibs,
				Rpaths:          rpaths,
				Output:          outPath,
				SharedObjectVer: version,
				ExtraLink:       extra,
				Pthread:         pthread,
			})
			if err != nil {
				return step.Result{Code: step.InvalidOption, Notes: err.Error()}
			}
			act.Steps = append(act.Steps, &step.Step{
				Name:     "link " + outPath,
				Upstream: []*step.Step{dirSteps[filepath.Dir(outPath)]},
				Inputs:   inPaths,
				Outputs:  []string{outPath},
				Echo:     echo,
				Freshness: func() (bool, error) {
					return step.NewerThanAll([]string{outPath}, inPaths)
				},
				Run: func(ctx context.Context) (string, error) {
					return step.RunShell(ctx, echo)
				},
			})
		case op.Tag == fileplan.OpSoftlink:
			target := op.Inputs[0].Path
			link := op.Outputs[0].Path
			act.Steps = append(act.Steps, &step.Step{
				Name:    "softlink " + link,
				Inputs:  []string{target},
				Outputs: []string{link},
				Freshness: func() (bool, error) {
					return step.SoftlinkUpToDate(link, filepath.Base(target))
				},
				Run: func(ctx context.Context) (string, error) {
					_ = osRemoveIfExists(link)
					return "", osSymlink(filepath.Base(target), link)
				},
			})
		}
	}
	return act.Run(ctx)
}

func buildLinkCommand(tk Toolkit, shared bool, o LinkOptions) (string, error) {
	if shared {
		return tk.LinkSharedObjectCommand(o)
	}
	return tk.LinkExeCommand(o)
}
