package tirta

import (
	"context"
	"errors"
	"testing"
)

// testNode is a tree component whose loads and renders are scripted.
type testNode struct {
	name      string
	children  []Component
	loadErr   error
	loadPanic bool
	renderErr error
	visits    *[]string
}

func (n *testNode) Name() string { return n.name }

func (n *testNode) Load(ctx context.Context, client Client) error {
	if n.visits != nil {
		*n.visits = append(*n.visits, "load:"+n.name)
	}
	if n.loadPanic {
		panic("loader exploded")
	}
	return n.loadErr
}

func (n *testNode) Render(ctx context.Context, scope *RenderScope) ([]Component, error) {
	if n.visits != nil {
		*n.visits = append(*n.visits, "render:"+n.name)
	}
	if n.renderErr != nil {
		return nil, n.renderErr
	}
	return n.children, nil
}

// plainNode renders children but declares no data dependency.
type plainNode struct {
	children []Component
}

func (n *plainNode) Render(ctx context.Context, scope *RenderScope) ([]Component, error) {
	return n.children, nil
}

func TestResolveTreeVisitsLoadersBeforeChildren(t *testing.T) {
	var visits []string
	leaf := &testNode{name: "leaf", visits: &visits}
	mid := &testNode{name: "mid", visits: &visits, children: []Component{leaf}}
	root := &testNode{name: "root", visits: &visits, children: []Component{mid}}

	var report FetchReport
	scope := &RenderScope{Client: newFakeClient(1)}
	resolveTree(context.Background(), root, scope, 0, DefaultMaxDepth, &report)

	want := []string{"load:root", "render:root", "load:mid", "render:mid", "load:leaf", "render:leaf"}
	if len(visits) != len(want) {
		t.Fatalf("visits = %v, want %v", visits, want)
	}
	for i := range want {
		if visits[i] != want[i] {
			t.Fatalf("visits = %v, want %v", visits, want)
		}
	}
	if report.Components != 3 || report.Loaded != 3 || report.Failed() {
		t.Errorf("report = %+v", report)
	}
}

func TestResolveTreeRecordsErrorsAndContinuesWithSiblings(t *testing.T) {
	var visits []string
	bad := &testNode{name: "bad", visits: &visits, loadErr: errors.New("load failed")}
	good := &testNode{name: "good", visits: &visits}
	root := &plainNode{children: []Component{bad, good}}

	var report FetchReport
	scope := &RenderScope{Client: newFakeClient(1)}
	resolveTree(context.Background(), root, scope, 0, DefaultMaxDepth, &report)

	if len(report.Errors) != 1 {
		t.Fatalf("expected 1 recorded error, got %v", report.Errors)
	}
	if !errors.Is(report.Errors[0], &Error{Type: ErrorTypeFetch}) {
		t.Errorf("recorded error must be a fetch error, got %v", report.Errors[0])
	}
	found := false
	for _, v := range visits {
		if v == "load:good" {
			found = true
		}
	}
	if !found {
		t.Error("a failing sibling must not stop the walk")
	}
	if report.Loaded != 1 {
		t.Errorf("Loaded = %d, want 1", report.Loaded)
	}
}

func TestResolveTreeRecoversPanics(t *testing.T) {
	var visits []string
	boom := &testNode{name: "boom", visits: &visits, loadPanic: true}
	after := &testNode{name: "after", visits: &visits}
	root := &plainNode{children: []Component{boom, after}}

	var report FetchReport
	scope := &RenderScope{Client: newFakeClient(1)}
	resolveTree(context.Background(), root, scope, 0, DefaultMaxDepth, &report)

	if len(report.Errors) != 1 {
		t.Fatalf("expected the panic to be recorded, got %v", report.Errors)
	}
	for _, v := range visits {
		if v == "load:after" {
			return
		}
	}
	t.Error("a panicking sibling must not stop the walk")
}

func TestResolveTreeRenderErrorSkipsChildren(t *testing.T) {
	var visits []string
	child := &testNode{name: "child", visits: &visits}
	root := &testNode{name: "root", visits: &visits, renderErr: errors.New("render failed"), children: []Component{child}}

	var report FetchReport
	scope := &RenderScope{Client: newFakeClient(1)}
	resolveTree(context.Background(), root, scope, 0, DefaultMaxDepth, &report)

	if len(report.Errors) != 1 {
		t.Fatalf("expected 1 recorded error, got %v", report.Errors)
	}
	for _, v := range visits {
		if v == "load:child" {
			t.Fatal("children of a failed render must not be visited")
		}
	}
}

func TestResolveTreeDepthBound(t *testing.T) {
	// Self-referential component: renders itself forever.
	var cyclic Component
	cyclic = ComponentFunc(func(ctx context.Context, scope *RenderScope) ([]Component, error) {
		return []Component{cyclic}, nil
	})

	var report FetchReport
	scope := &RenderScope{Client: newFakeClient(1)}
	resolveTree(context.Background(), cyclic, scope, 0, 5, &report)

	if report.Components != 5 {
		t.Errorf("Components = %d, want 5", report.Components)
	}
	if len(report.Errors) != 1 {
		t.Errorf("depth overflow must be recorded, got %v", report.Errors)
	}
}

func TestResolveTreeNilComponent(t *testing.T) {
	var report FetchReport
	resolveTree(context.Background(), nil, &RenderScope{}, 0, DefaultMaxDepth, &report)
	if report.Components != 0 || report.Failed() {
		t.Errorf("nil component must be a no-op, report = %+v", report)
	}
}
