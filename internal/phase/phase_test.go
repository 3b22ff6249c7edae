package phase

import (
	"context"
	"errors"
	"testing"

	"github.com/pyke-go/pyke/internal/option"
	"github.com/pyke-go/pyke/internal/step"
)

func TestAddDependencyRejectsCycle(t *testing.T) {
	a := New("a", "")
	b := New("b", "")
	if err := a.AddDependency(b); err != nil {
		t.Fatalf("a->b should be admitted: %v", err)
	}

	err := b.AddDependency(a)
	if err == nil {
		t.Fatal("expected b->a to be rejected as a cycle")
	}
	var cycleErr *CircularDependencyError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CircularDependencyError, got %T", err)
	}
	if !errors.Is(err, ErrCircularDependency) {
		t.Fatal("expected errors.Is to match ErrCircularDependency")
	}
}

func TestAddDependencyRejectsSelf(t *testing.T) {
	a := New("a", "")
	if err := a.AddDependency(a); err == nil {
		t.Fatal("expected a phase to reject itself as a dependency")
	}
}

func TestDoRunsDependenciesBeforeSelf(t *testing.T) {
	var order []string

	dep := New("dep", "")
	dep.Handle(ActionBuild, func(ctx context.Context, p *Base) step.Result {
		order = append(order, "dep")
		return step.Result{Code: step.Succeeded}
	})

	top := New("top", "")
	top.Handle(ActionBuild, func(ctx context.Context, p *Base) step.Result {
		order = append(order, "top")
		return step.Result{Code: step.Succeeded}
	})
	if err := top.AddDependency(dep); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res := top.Do(context.Background(), ActionBuild, 1)
	if res.Code != step.Succeeded {
		t.Fatalf("got %v, want Succeeded", res.Code)
	}
	if len(order) != 2 || order[0] != "dep" || order[1] != "top" {
		t.Fatalf("got order %v, want [dep top]", order)
	}
}

func TestDoContinuesThroughFailedSiblings(t *testing.T) {
	var ran []string

	failing := New("failing", "")
	failing.Handle(ActionReport, func(ctx context.Context, p *Base) step.Result {
		ran = append(ran, "failing")
		return step.Result{Code: step.CommandFailed}
	})

	ok := New("ok", "")
	ok.Handle(ActionReport, func(ctx context.Context, p *Base) step.Result {
		ran = append(ran, "ok")
		return step.Result{Code: step.Succeeded}
	})

	top := New("top", "")
	top.Handle(ActionReport, func(ctx context.Context, p *Base) step.Result {
		ran = append(ran, "top")
		return step.Result{Code: step.Succeeded}
	})
	if err := top.AddDependency(failing); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := top.AddDependency(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res := top.Do(context.Background(), ActionReport, 1)

	if len(ran) != 2 || ran[0] != "failing" || ran[1] != "ok" {
		t.Fatalf("got ran %v, want both siblings to run despite the first failing", ran)
	}
	if res.Code != step.DependencyError {
		t.Fatalf("got %v, want DependencyError once a dependency failed", res.Code)
	}
}

func TestDoMemoizesPerOrdinal(t *testing.T) {
	calls := 0
	dep := New("dep", "")
	dep.Handle(ActionBuild, func(ctx context.Context, p *Base) step.Result {
		calls++
		return step.Result{Code: step.Succeeded}
	})

	left := New("left", "")
	left.Handle(ActionBuild, func(ctx context.Context, p *Base) step.Result {
		return step.Result{Code: step.Succeeded}
	})
	right := New("right", "")
	right.Handle(ActionBuild, func(ctx context.Context, p *Base) step.Result {
		return step.Result{Code: step.Succeeded}
	})
	if err := left.AddDependency(dep); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := right.AddDependency(dep); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	top := New("top", "")
	top.Handle(ActionBuild, func(ctx context.Context, p *Base) step.Result {
		return step.Result{Code: step.Succeeded}
	})
	if err := top.AddDependency(left); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := top.AddDependency(right); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	top.Do(context.Background(), ActionBuild, 1)
	if calls != 1 {
		t.Fatalf("dep reached via two paths in one ordinal should run once, ran %d times", calls)
	}

	top.Do(context.Background(), ActionBuild, 2)
	if calls != 2 {
		t.Fatalf("a fresh ordinal should re-run dep, total calls %d", calls)
	}
}

func TestDoWithNoHandlerIsNoAction(t *testing.T) {
	p := New("quiet", "")
	res := p.Do(context.Background(), ActionClean, 1)
	if res.Code != step.NoAction {
		t.Fatalf("got %v, want NoAction for an unregistered action", res.Code)
	}
}

func TestPushPopOverridesTraverseDependencies(t *testing.T) {
	dep := New("dep", "")
	top := New("top", "")
	if err := top.AddDependency(dep); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	top.PushOverrides(map[string]Override{
		"kind": {Value: option.String("debug"), Op: option.Replace},
	})

	v, err := dep.Options().Get("kind")
	if err != nil {
		t.Fatalf("unexpected error reading pushed override on dependency: %v", err)
	}
	if s, _ := v.AsString(); s != "debug" {
		t.Fatalf("got %q, want %q", s, "debug")
	}

	top.PopOverrides([]string{"kind"})
	after, err := dep.Options().Get("kind")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s, isStr := after.AsString(); !isStr || s != "!kind!" {
		t.Fatalf("got %v, want the undefined sentinel once the override is popped", after)
	}
}

func TestCloneDivergesOptionsButSharesDependencies(t *testing.T) {
	dep := New("dep", "")
	orig := New("orig", "group")
	if err := orig.AddDependency(dep); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	orig.Options().Push("kind", option.String("release"), option.Replace)

	clone := orig.Clone("clone", map[string]option.Value{"kind": option.String("debug")})

	if len(clone.Dependencies()) != 1 || clone.Dependencies()[0] != dep {
		t.Fatal("expected the clone to share the original's dependency list")
	}

	origVal, _ := orig.Options().Get("kind")
	cloneVal, _ := clone.Options().Get("kind")
	origStr, _ := origVal.AsString()
	cloneStr, _ := cloneVal.AsString()
	if origStr != "release" || cloneStr != "debug" {
		t.Fatalf("got orig=%q clone=%q, want orig=release clone=debug", origStr, cloneStr)
	}
}

func TestBeforeDependenciesRunsBeforeDependencyDo(t *testing.T) {
	var order []string

	dep := New("dep", "")
	dep.Handle(ActionBuild, func(ctx context.Context, p *Base) step.Result {
		order = append(order, "dep")
		return step.Result{Code: step.Succeeded}
	})

	top := New("top", "")
	top.BeforeDependencies = func(p *Base, action Action) {
		order = append(order, "before")
	}
	top.Handle(ActionBuild, func(ctx context.Context, p *Base) step.Result {
		return step.Result{Code: step.Succeeded}
	})
	if err := top.AddDependency(dep); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	top.Do(context.Background(), ActionBuild, 1)

	if len(order) != 2 || order[0] != "before" || order[1] != "dep" {
		t.Fatalf("got order %v, want [before dep]", order)
	}
}
