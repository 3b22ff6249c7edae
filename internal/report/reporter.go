// Package report implements the §6/§7 user-visible reporting contract:
// verbosity-gated banners for phases and steps, ANSI styling via aurora,
// and an mpb progress bar at verbosity 1. Grounded on
// replicate-cog/pkg/util/console's Console type (level gate, color gate,
// mutex-guarded stderr/stdout split), generalized from log-level banners to
// phase/step/action banners.
package report

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/logrusorgru/aurora"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/pyke-go/pyke/internal/phase"
	"github.com/pyke-go/pyke/internal/step"
)

// Level is the verbosity contract from spec.md §7: 0 prints only errors, 1
// adds a one-line banner per phase/step, 2 additionally echoes the shell
// command a step ran.
type Level int

const (
	LevelQuiet   Level = 0
	LevelNormal  Level = 1
	LevelVerbose Level = 2
)

// Reporter is the single point every action driver invocation writes its
// user-visible output through.
type Reporter struct {
	Out     io.Writer
	ErrOut  io.Writer
	Level   Level
	Profile ColorProfile

	mu       sync.Mutex
	progress *mpb.Progress
	bar      *mpb.Bar
}

// New constructs a Reporter, detecting out's color profile when out is a
// terminal. level is spec.md §7's verbosity.
func New(level Level, out, errOut *os.File) *Reporter {
	return &Reporter{
		Out:     out,
		ErrOut:  errOut,
		Level:   level,
		Profile: DetectProfile(out),
	}
}

func (r *Reporter) colored() bool {
	return r.Profile != ProfileNone
}

// PhaseBanner prints "name action" at verbosity 1+, colored by result once
// known (pass nil before the phase has actually run, to announce entry).
func (r *Reporter) PhaseBanner(name string, action phase.Action, res *step.Result) {
	if r.Level < LevelNormal {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	label := fmt.Sprintf("%s %s", name, action)
	if res == nil {
		fmt.Fprintln(r.Out, r.style(label, aurora.Cyan))
		return
	}
	fmt.Fprintln(r.Out, r.resultLine(label, res.Code))
	if r.bar != nil {
		r.bar.Increment()
	}
}

// StepBanner prints one line per step at verbosity 1+, and additionally the
// step's shell echo at verbosity 2, per spec.md §7.
func (r *Reporter) StepBanner(name string, code step.ResultCode, echo string) {
	if r.Level < LevelNormal {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.Out, "  "+r.resultLine(name, code))
	if r.Level >= LevelVerbose && echo != "" {
		fmt.Fprintln(r.Out, "    "+r.style(echo, aurora.Faint))
	}
}

// Error prints msg to ErrOut regardless of verbosity: spec.md §7's "at
// verbosity 0, only errors print."
func (r *Reporter) Error(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.ErrOut, r.style(msg, aurora.Red))
}

func (r *Reporter) resultLine(label string, code step.ResultCode) string {
	switch code {
	case step.Succeeded, step.AlreadyUpToDate, step.NoAction:
		return r.style(label+" "+string(code), aurora.Green)
	default:
		return r.style(label+" "+string(code), aurora.Red)
	}
}

// style applies colorize (one of aurora's per-color helpers, e.g.
// aurora.Red) when the reporter's profile isn't "none", matching the
// on/off color gate replicate-cog's console package uses.
func (r *Reporter) style(s string, colorize func(interface{}) aurora.Value) string {
	if !r.colored() {
		return s
	}
	return colorize(s).String()
}

// StartProgress attaches an mpb bar tracking total phase/step completions,
// shown only at verbosity exactly 1 (verbosity 2's line-per-step echo would
// otherwise race the bar's own redraws).
func (r *Reporter) StartProgress(total int) {
	if r.Level != LevelNormal || total <= 0 {
		return
	}
	r.progress = mpb.New(mpb.WithOutput(r.Out), mpb.WithWidth(40))
	r.bar = r.progress.AddBar(int64(total),
		mpb.PrependDecorators(decor.Name("build ")),
		mpb.AppendDecorators(decor.CountersNoUnit("%d / %d"), decor.Percentage()),
	)
}

// StopProgress waits for the bar's final redraw. A no-op if StartProgress
// was never called (verbosity != 1).
func (r *Reporter) StopProgress() {
	if r.progress == nil {
		return
	}
	r.progress.Wait()
}

// Summary prints the run's closing "N succeeded, M failed" line: always on
// failure (even at verbosity 0), gated by verbosity otherwise.
func (r *Reporter) Summary(succeeded, failed int) {
	line := fmt.Sprintf("%d succeeded, %d failed", succeeded, failed)
	if failed > 0 {
		r.mu.Lock()
		fmt.Fprintln(r.ErrOut, r.style(line, aurora.Red))
		r.mu.Unlock()
		return
	}
	if r.Level < LevelNormal {
		return
	}
	r.mu.Lock()
	fmt.Fprintln(r.Out, r.style(line, aurora.Green))
	r.mu.Unlock()
}
