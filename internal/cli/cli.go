// Package cli implements the ordered-token command line grammar: an
// ahead-of-cobra manual walk over os.Args, grounded on the original tool's
// main() token loop (-v/-h first-token-only, -m, -p, -o, bare action
// words) and the teacher's ParseInvocation/InvocationError idiom for
// reporting malformed input with a defined exit code.
package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/pyke-go/pyke/internal/makeplugin"
	"github.com/pyke-go/pyke/internal/option"
	"github.com/pyke-go/pyke/internal/phase"
	"github.com/pyke-go/pyke/internal/pykeconfig"
	"github.com/pyke-go/pyke/internal/report"
	"github.com/pyke-go/pyke/pkg/pyke"
)

// Exit codes, per spec.md §6: 0 success, 255 an invoked action failed, 1
// the make-module itself could not be loaded, 2 any other usage error
// (unknown phase name, malformed -o/-m/-c/-p argument, make-module with no
// registered phases).
const (
	ExitSuccess          = 0
	ExitActionFailure    = 255
	ExitModuleLoadFailed = 1
	ExitUsageError       = 2
)

// Version is reported by -v/--version.
const Version = "0.1.0"

const helpText = `Runs an action on a phase's dependencies, followed by the phase itself.

  -v, --version            print version and exit
  -h, --help               print this help and exit
  -m, --module <path>      make-module to load (file, or directory holding ` + makeplugin.DefaultFilename + `)
  -c, --cache-dir <path>   override the active phase's cache_dir option
  -p, --phase <name>       select the active phase (by name or group.name)
  -o, --override <k>[:<v>] push an override onto the active phase, or pop it if <v> is omitted
  action                   run action on the active phase's dependencies, then itself

Examples:
  pyke build
  pyke -p lib build
  pyke -o kind:debug -o verbosity:0 build
  pyke clean build run
  pyke clean build -otime_run:true run
`

// Result is what Run/RunWithRegistry returns: the process exit code.
type Result struct {
	ExitCode int
}

// Run is the full CLI entrypoint: it handles -v/-h, resolves and loads the
// make-module named by -m (or the default in workDir), then dispatches the
// remaining tokens via RunWithRegistry.
func Run(ctx context.Context, args []string, cfg *pykeconfig.Config, rep *report.Reporter, workDir string) Result {
	if len(args) > 0 {
		switch args[0] {
		case "-v", "--version":
			fmt.Fprintln(rep.Out, "pyke version "+Version)
			return Result{ExitCode: ExitSuccess}
		case "-h", "--help":
			fmt.Fprint(rep.Out, helpText)
			return Result{ExitCode: ExitSuccess}
		}
	}

	modulePath := ""
	rest := args
	if len(args) > 0 && matchesFlag(args[0], "-m", "--module") {
		val, next, err := flagValue(args, 0, "-m", "--module")
		if err != nil {
			rep.Error(err.Error())
			return Result{ExitCode: ExitUsageError}
		}
		modulePath = val
		rest = args[next+1:]
	}

	resolved := workDir
	if modulePath != "" {
		resolved = modulePath
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(workDir, modulePath)
		}
	}
	pluginPath, err := makeplugin.Resolve(resolved)
	if err != nil {
		rep.Error(err.Error())
		return Result{ExitCode: ExitModuleLoadFailed}
	}
	registry, err := makeplugin.Load(pluginPath)
	if err != nil {
		rep.Error(err.Error())
		return Result{ExitCode: ExitModuleLoadFailed}
	}

	return RunWithRegistry(ctx, rest, registry, cfg, rep)
}

// RunWithRegistry dispatches the tokens that follow -m against an
// already-loaded registry: argument_aliases macro expansion, then the
// -p/-c/-o/action walk, ending in a Summary banner.
func RunWithRegistry(ctx context.Context, args []string, registry *pyke.Registry, cfg *pykeconfig.Config, rep *report.Reporter) Result {
	activePhase, ok := registry.Last()
	if !ok {
		rep.Error("make-module registered no phases")
		return Result{ExitCode: ExitUsageError}
	}

	rest := expandArguments(args, cfg.ArgumentAliases)
	if len(rest) == 0 {
		if len(cfg.DefaultArguments) > 0 {
			rest = append([]string(nil), cfg.DefaultArguments...)
		} else if cfg.DefaultAction != "" {
			rest = []string{cfg.DefaultAction}
		}
	}

	var ordinal uint64
	succeeded, failed := 0, 0

	for i := 0; i < len(rest); i++ {
		tok := rest[i]
		switch {
		case matchesFlag(tok, "-p", "--phase"):
			name, next, err := flagValue(rest, i, "-p", "--phase")
			if err != nil {
				rep.Error(err.Error())
				return Result{ExitCode: ExitUsageError}
			}
			p, ok := registry.Lookup(name)
			if !ok {
				rep.Error(unknownPhaseMessage(name, registry.Names()))
				return Result{ExitCode: ExitUsageError}
			}
			activePhase = p
			i = next

		case matchesFlag(tok, "-c", "--cache-dir"):
			val, next, err := flagValue(rest, i, "-c", "--cache-dir")
			if err != nil {
				rep.Error(err.Error())
				return Result{ExitCode: ExitUsageError}
			}
			activePhase.PushOverrides(map[string]phase.Override{
				"cache_dir": {Value: option.String(val), Op: option.Replace},
			})
			i = next

		case matchesFlag(tok, "-o", "--override"):
			val, next, err := flagValue(rest, i, "-o", "--override")
			if err != nil {
				rep.Error(err.Error())
				return Result{ExitCode: ExitUsageError}
			}
			key, rawValue, hasValue := splitOverride(val)
			if hasValue {
				parsed, perr := option.Parse(rawValue)
				if perr != nil {
					rep.Error(fmt.Sprintf("-o %s: %v", val, perr))
					return Result{ExitCode: ExitUsageError}
				}
				activePhase.PushOverrides(map[string]phase.Override{key: {Value: parsed, Op: option.Replace}})
			} else {
				activePhase.PopOverrides([]string{key})
			}
			i = next

		default:
			for _, action := range expandActionAliases(tok, cfg.ActionAliases, 0) {
				ordinal++
				rep.PhaseBanner(activePhase.PhaseName(), phase.Action(action), nil)
				res := activePhase.Do(ctx, phase.Action(action), ordinal)
				rep.PhaseBanner(activePhase.PhaseName(), phase.Action(action), &res)
				if res.Code.Success() {
					succeeded++
				} else {
					failed++
				}
			}
		}
	}

	rep.Summary(succeeded, failed)
	if failed > 0 {
		return Result{ExitCode: ExitActionFailure}
	}
	return Result{ExitCode: ExitSuccess}
}

func unknownPhaseMessage(name string, candidates []string) string {
	msg := fmt.Sprintf("unknown phase %q", name)
	ranks := fuzzy.RankFindFold(name, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		msg += fmt.Sprintf(" (did you mean %q?)", ranks[0].Target)
	}
	return msg
}

// matchesFlag reports whether tok is long, or short glued to a value
// (e.g. "-ofoo:bar"), or bare short awaiting a separate value token.
func matchesFlag(tok, short, long string) bool {
	return tok == long || strings.HasPrefix(tok, short)
}

// flagValue extracts a flag's value from tokens[i], either glued onto the
// short form or taken from tokens[i+1], returning the index flagValue
// itself consumed last (the caller's loop variable is set to this).
func flagValue(tokens []string, i int, short, long string) (string, int, error) {
	tok := tokens[i]
	if tok == long {
		if i+1 >= len(tokens) {
			return "", i, fmt.Errorf("%s requires a value", long)
		}
		return tokens[i+1], i + 1, nil
	}
	if len(tok) > len(short) {
		return tok[len(short):], i, nil
	}
	if i+1 >= len(tokens) {
		return "", i, fmt.Errorf("%s requires a value", short)
	}
	return tokens[i+1], i + 1, nil
}

// splitOverride implements "-o k[:v]": a non-empty value after the colon
// pushes; a bare key, or a key followed by an empty value ("k:"), pops.
func splitOverride(raw string) (key, value string, hasValue bool) {
	idx := strings.IndexByte(raw, ':')
	if idx < 0 {
		return raw, "", false
	}
	v := raw[idx+1:]
	return raw[:idx], v, v != ""
}

// expandArguments replaces any token matching an argument_aliases key with
// its expansion, spliced in place, before the main token walk begins.
func expandArguments(tokens []string, aliases map[string][]string) []string {
	if len(aliases) == 0 {
		return tokens
	}
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, expandAliasToken(t, aliases, 0)...)
	}
	return out
}

// expandActionAliases resolves a bare action word through action_aliases,
// recursively, so "r" can expand to "build run" and so on.
func expandActionAliases(action string, aliases map[string][]string, depth int) []string {
	return expandAliasToken(action, aliases, depth)
}

const maxAliasDepth = 8

func expandAliasToken(tok string, aliases map[string][]string, depth int) []string {
	if depth > maxAliasDepth {
		return []string{tok}
	}
	expansion, ok := aliases[tok]
	if !ok {
		return []string{tok}
	}
	out := make([]string, 0, len(expansion))
	for _, e := range expansion {
		out = append(out, expandAliasToken(e, aliases, depth+1)...)
	}
	return out
}
