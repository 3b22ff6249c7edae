package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/pyke-go/pyke/internal/phase"
	"github.com/pyke-go/pyke/internal/pykeconfig"
	"github.com/pyke-go/pyke/internal/report"
	"github.com/pyke-go/pyke/internal/step"
	"github.com/pyke-go/pyke/pkg/pyke"
)

func newTestReporter() (*report.Reporter, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return &report.Reporter{Out: &out, ErrOut: &errOut, Level: report.LevelNormal, Profile: report.ProfileNone}, &out, &errOut
}

func baseConfig() *pykeconfig.Config {
	cfg := pykeconfig.Defaults()
	return &cfg
}

func TestRunDispatchesBareActionOnActivePhase(t *testing.T) {
	p := phase.New("build", "")
	p.Handle(phase.ActionBuild, func(ctx context.Context, p *phase.Base) step.Result {
		return step.Result{Code: step.Succeeded}
	})
	registry := pyke.NewRegistry()
	registry.Use(p)

	rep, out, _ := newTestReporter()
	res := RunWithRegistry(context.Background(), []string{"build"}, registry, baseConfig(), rep)

	if res.ExitCode != ExitSuccess {
		t.Fatalf("got exit code %d, want %d", res.ExitCode, ExitSuccess)
	}
	if !strings.Contains(out.String(), "build build SUCCEEDED") {
		t.Fatalf("missing banner, got %q", out.String())
	}
}

func TestRunActionFailureExitsWith255(t *testing.T) {
	p := phase.New("build", "")
	p.Handle(phase.ActionBuild, func(ctx context.Context, p *phase.Base) step.Result {
		return step.Result{Code: step.CommandFailed, Notes: "boom"}
	})
	registry := pyke.NewRegistry()
	registry.Use(p)

	rep, _, errOut := newTestReporter()
	res := RunWithRegistry(context.Background(), []string{"build"}, registry, baseConfig(), rep)

	if res.ExitCode != ExitActionFailure {
		t.Fatalf("got exit code %d, want %d", res.ExitCode, ExitActionFailure)
	}
	if !strings.Contains(errOut.String(), "1 failed") {
		t.Fatalf("expected failure summary, got %q", errOut.String())
	}
}

func TestRunPhaseSelectionSwitchesActivePhase(t *testing.T) {
	var ranA, ranB bool
	a := phase.New("a", "")
	a.Handle(phase.ActionBuild, func(ctx context.Context, p *phase.Base) step.Result {
		ranA = true
		return step.Result{Code: step.Succeeded}
	})
	b := phase.New("b", "")
	b.Handle(phase.ActionBuild, func(ctx context.Context, p *phase.Base) step.Result {
		ranB = true
		return step.Result{Code: step.Succeeded}
	})
	registry := pyke.NewRegistry()
	registry.Use(a)
	registry.Use(b) // b is last registered, so b is initially active

	rep, _, _ := newTestReporter()
	res := RunWithRegistry(context.Background(), []string{"-p", "a", "build"}, registry, baseConfig(), rep)

	if res.ExitCode != ExitSuccess {
		t.Fatalf("got exit code %d", res.ExitCode)
	}
	if !ranA || ranB {
		t.Fatalf("expected a's handler to run and b's not to, got ranA=%v ranB=%v", ranA, ranB)
	}
}

func TestRunUnknownPhaseSuggestsNearestName(t *testing.T) {
	p := phase.New("build", "")
	registry := pyke.NewRegistry()
	registry.Use(p)

	rep, _, errOut := newTestReporter()
	res := RunWithRegistry(context.Background(), []string{"-p", "bild"}, registry, baseConfig(), rep)

	if res.ExitCode != ExitUsageError {
		t.Fatalf("got exit code %d, want %d", res.ExitCode, ExitUsageError)
	}
	if !strings.Contains(errOut.String(), "build") {
		t.Fatalf("expected a suggestion mentioning 'build', got %q", errOut.String())
	}
}

func TestRunOverridePushThenPop(t *testing.T) {
	var seen []string
	p := phase.New("build", "")
	p.Handle(phase.ActionReport, func(ctx context.Context, p *phase.Base) step.Result {
		v, _ := p.Options().Get("mykey")
		seen = append(seen, v.String())
		return step.Result{Code: step.Succeeded}
	})
	registry := pyke.NewRegistry()
	registry.Use(p)

	rep, _, _ := newTestReporter()
	res := RunWithRegistry(context.Background(), []string{"-o", "mykey:10", "report", "-o", "mykey", "report"}, registry, baseConfig(), rep)

	if res.ExitCode != ExitSuccess {
		t.Fatalf("got exit code %d", res.ExitCode)
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 recorded values, got %v", seen)
	}
	if seen[0] != "10" {
		t.Fatalf("first read should see pushed override, got %q", seen[0])
	}
	if seen[1] != "!mykey!" {
		t.Fatalf("second read should see the undefined sentinel after popping, got %q", seen[1])
	}
}

func TestRunActionAliasExpandsToMultipleActions(t *testing.T) {
	var order []string
	p := phase.New("build", "")
	p.Handle(phase.ActionBuild, func(ctx context.Context, p *phase.Base) step.Result {
		order = append(order, "build")
		return step.Result{Code: step.Succeeded}
	})
	p.Handle(phase.ActionRun, func(ctx context.Context, p *phase.Base) step.Result {
		order = append(order, "run")
		return step.Result{Code: step.Succeeded}
	})
	registry := pyke.NewRegistry()
	registry.Use(p)

	cfg := baseConfig() // "r" -> ["build", "run"] per Defaults()
	rep, _, _ := newTestReporter()
	res := RunWithRegistry(context.Background(), []string{"r"}, registry, cfg, rep)

	if res.ExitCode != ExitSuccess {
		t.Fatalf("got exit code %d", res.ExitCode)
	}
	if len(order) != 2 || order[0] != "build" || order[1] != "run" {
		t.Fatalf("got order %v, want [build run]", order)
	}
}

func TestRunWithNoTokensUsesDefaultAction(t *testing.T) {
	var ran bool
	p := phase.New("build", "")
	p.Handle(phase.ActionBuild, func(ctx context.Context, p *phase.Base) step.Result {
		ran = true
		return step.Result{Code: step.Succeeded}
	})
	registry := pyke.NewRegistry()
	registry.Use(p)

	rep, _, _ := newTestReporter()
	res := RunWithRegistry(context.Background(), nil, registry, baseConfig(), rep)

	if res.ExitCode != ExitSuccess || !ran {
		t.Fatalf("expected default_action to run build, exit=%d ran=%v", res.ExitCode, ran)
	}
}

func TestExpandArgumentsMacroExpandsTokens(t *testing.T) {
	aliases := map[string][]string{"release": {"-o", "kind:release"}}
	got := expandArguments([]string{"release", "build"}, aliases)
	want := []string{"-o", "kind:release", "build"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestSplitOverride(t *testing.T) {
	cases := []struct {
		raw      string
		key      string
		value    string
		hasValue bool
	}{
		{"kind:debug", "kind", "debug", true},
		{"kind:", "kind", "", false},
		{"kind", "kind", "", false},
	}
	for _, c := range cases {
		k, v, has := splitOverride(c.raw)
		if k != c.key || v != c.value || has != c.hasValue {
			t.Fatalf("splitOverride(%q) = (%q, %q, %v), want (%q, %q, %v)", c.raw, k, v, has, c.key, c.value, c.hasValue)
		}
	}
}
