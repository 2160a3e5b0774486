package tirta

import (
	"context"
	"fmt"
)

// DefaultMaxDepth bounds the prefetch recursion. Page trees deeper than
// this are almost certainly cyclic.
const DefaultMaxDepth = 32

// FetchReport is the side channel the best-effort prefetch pass records
// into: which errors occurred and how much of the tree was visited. The
// pass itself always completes; callers inspect the report when they care.
type FetchReport struct {
	// Components counts tree nodes visited.
	Components int

	// Loaded counts data loaders that ran successfully.
	Loaded int

	// Errors holds one entry per failed load or render, in visit order.
	Errors []error
}

// Failed reports whether any load or render in the pass errored.
func (r *FetchReport) Failed() bool {
	return len(r.Errors) > 0
}

// resolveTree walks the component tree depth-first, running each node's
// data loader before visiting its children so dependent queries see their
// parents' cache writes. Errors and panics are recorded and the walk
// continues with siblings.
func resolveTree(ctx context.Context, c Component, scope *RenderScope, depth int, maxDepth int, report *FetchReport) {
	if c == nil {
		return
	}
	if depth >= maxDepth {
		report.Errors = append(report.Errors, &Error{
			Type:    ErrorTypeFetch,
			Message: fmt.Sprintf("component tree deeper than %d, aborting branch", maxDepth),
		})
		return
	}
	report.Components++

	if loader, ok := c.(DataLoader); ok {
		if err := safeLoad(ctx, loader, scope.Client); err != nil {
			report.Errors = append(report.Errors, fetchError(componentName(c), err))
		} else {
			report.Loaded++
		}
	}

	children, err := safeRender(ctx, c, scope)
	if err != nil {
		report.Errors = append(report.Errors, fetchError(componentName(c), err))
		return
	}
	for _, child := range children {
		resolveTree(ctx, child, scope, depth+1, maxDepth, report)
	}
}

// safeLoad runs a data loader, converting panics into errors so a broken
// component cannot abort the response.
func safeLoad(ctx context.Context, loader DataLoader, client Client) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic during load: %v", rec)
		}
	}()
	return loader.Load(ctx, client)
}

func safeRender(ctx context.Context, c Component, scope *RenderScope) (children []Component, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic during render: %v", rec)
		}
	}()
	return c.Render(ctx, scope)
}

func componentName(c Component) string {
	type namer interface {
		Name() string
	}
	if n, ok := c.(namer); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", c)
}
