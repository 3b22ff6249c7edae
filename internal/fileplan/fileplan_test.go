package fileplan

import "testing"

type fakePhase struct{ name string }

func (f *fakePhase) PhaseName() string { return f.name }

func TestAddCreateDirectoryDedupesByPath(t *testing.T) {
	owner := &fakePhase{name: "compile"}
	plan := New(owner)

	first := plan.AddCreateDirectory("/build/obj")
	second := plan.AddCreateDirectory("/build/obj")

	if first != second {
		t.Fatal("expected the same FileData for a repeated directory path")
	}

	dirs := plan.FilesByKind(KindDir)
	if len(dirs) != 1 {
		t.Fatalf("got %d create-directory operations, want 1 (deduplicated)", len(dirs))
	}
}

func TestAddCreateDirectoryDistinguishesPaths(t *testing.T) {
	plan := New(&fakePhase{name: "compile"})
	plan.AddCreateDirectory("/build/obj")
	plan.AddCreateDirectory("/build/lib")

	dirs := plan.FilesByKind(KindDir)
	if len(dirs) != 2 {
		t.Fatalf("got %d directories, want 2", len(dirs))
	}
}

func TestFilesByKindFiltersAcrossOperations(t *testing.T) {
	owner := &fakePhase{name: "compile"}
	plan := New(owner)

	obj := &FileData{Path: "/build/a.o", Kind: KindObject, GeneratingPhase: owner}
	plan.Add(Operation{Tag: OpCompile, Inputs: []*FileData{External("a.c", KindSource)}, Outputs: []*FileData{obj}})

	archive := &FileData{Path: "/build/liba.a", Kind: KindArchive, GeneratingPhase: owner}
	plan.Add(Operation{Tag: OpArchive, Inputs: []*FileData{obj}, Outputs: []*FileData{archive}})

	objects := plan.FilesByKind(KindObject)
	if len(objects) != 1 || objects[0] != obj {
		t.Fatalf("got %v, want exactly the one object output", objects)
	}

	archives := plan.FilesByKind(KindArchive)
	if len(archives) != 1 || archives[0] != archive {
		t.Fatalf("got %v, want exactly the one archive output", archives)
	}

	if exes := plan.FilesByKind(KindExecutable); len(exes) != 0 {
		t.Fatalf("got %v, want no executable outputs", exes)
	}
}

func TestResetDiscardsOperationsAndDirDedup(t *testing.T) {
	plan := New(&fakePhase{name: "compile"})
	plan.AddCreateDirectory("/build/obj")
	plan.Add(Operation{Tag: OpCompile})

	plan.Reset()

	if len(plan.Operations) != 0 {
		t.Fatalf("got %d operations after Reset, want 0", len(plan.Operations))
	}

	// Re-adding the same directory path after Reset must not be treated as
	// a dedup hit against the discarded plan's bookkeeping.
	fd := plan.AddCreateDirectory("/build/obj")
	if fd == nil {
		t.Fatal("expected a fresh FileData for the directory after Reset")
	}
	if len(plan.Operations) != 1 {
		t.Fatalf("got %d operations, want 1 after re-adding the directory", len(plan.Operations))
	}
}

func TestExternalFileDataHasNoGeneratingPhase(t *testing.T) {
	fd := External("/usr/include/stdio.h", KindHeader)
	if fd.GeneratingPhase != nil {
		t.Fatal("expected an external file to carry no generating phase")
	}
	if fd.Kind != KindHeader {
		t.Fatalf("got kind %v, want %v", fd.Kind, KindHeader)
	}
}
