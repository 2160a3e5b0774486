package tirta

import (
	"context"
	"time"
)

// WrappedPage is a page enhanced with render-time data prefetching. It
// exposes the same initial-props hook contract as the page it wraps, plus
// the injected snapshot and client properties, and implements Component so
// it can sit in a page tree transparently.
type WrappedPage struct {
	page      Page
	ctor      Constructor
	lifecycle *Lifecycle
	ssr       bool
	maxDepth  int
	head      *Head
	appRoot   InitialPropsFunc
	initial   Snapshot
	logger    Logger
	metrics   *MetricsCollector

	validationError error
}

// Wrap enhances a page with client injection and server-side data
// prefetching. A best effort validation is performed; call IsValid /
// ValidationError for errors. A misconfigured wrapper also fails fast on
// its first InitialProps call.
func Wrap(page Page, ctor Constructor, options ...Option) *WrappedPage {
	w := &WrappedPage{
		page:      page,
		ctor:      ctor,
		lifecycle: NewLifecycle(ModeServer),
		ssr:       true,
		maxDepth:  DefaultMaxDepth,
		head:      NewHead(),
	}

	for _, option := range options {
		option(w)
	}

	if err := w.ValidateConfiguration(); err != nil {
		w.validationError = err
	}

	return w
}

// InitialProps is the wrapped initial-properties hook. On the server it
// constructs the request's client, resolves the inner hook, prefetches the
// page tree's data dependencies (best effort) and returns properties
// carrying the extracted snapshot and the live client handle.
func (w *WrappedPage) InitialProps(ctx context.Context, rc *RequestContext) (PageProps, error) {
	if w.validationError != nil {
		return PageProps{}, w.validationError
	}
	if rc == nil {
		return PageProps{}, ErrNilRequestContext
	}

	start := time.Now()
	mode := w.lifecycle.Mode()

	// An enclosing wrapper already initialized a client for this request:
	// fatal, the wrapper may be applied once per page hierarchy.
	if rc.Client() != nil {
		return PageProps{}, ErrMultipleWrappers
	}

	client, err := w.lifecycle.Resolve(w.ctor, w.initial, rc)
	if err != nil {
		return PageProps{}, err
	}
	if err := rc.attachClient(client); err != nil {
		return PageProps{}, err
	}
	if w.metrics != nil {
		w.metrics.RecordConstruction(mode)
	}

	props, err := w.innerProps(ctx, rc)
	if err != nil {
		return PageProps{}, err
	}

	var report FetchReport
	if mode == ModeServer {
		// A hook already committed the response (usually a redirect):
		// fetching data for a page nobody will see is wasted work.
		if rc.Finalized() {
			return PageProps{Props: props}, nil
		}

		if w.ssr {
			report = w.prefetch(ctx, client, props)
			if w.logger != nil && report.Failed() {
				for _, ferr := range report.Errors {
					w.logger.Error("prefetch error while running InitialProps", "requestID", rc.ID(), "err", ferr)
				}
			}
			if w.metrics != nil {
				for range report.Errors {
					w.metrics.RecordFetchError()
				}
			}
		}

		// The prefetch render bypasses unmount lifecycle, so head side
		// effects accumulated during it must be dropped explicitly.
		w.head.Reset()
	}

	state := client.Extract()
	if w.metrics != nil {
		w.metrics.RecordPrefetch(mode, time.Since(start))
		w.metrics.RecordSnapshot(len(state), state.Size())
	}
	if w.logger != nil {
		w.logger.Debug("initial props resolved", "requestID", rc.ID(), "mode", mode.String(), "entries", len(state), "duration", time.Since(start))
	}

	return PageProps{
		Props:  props,
		State:  state,
		Client: &ClientHandle{c: client},
		Report: report,
	}, nil
}

// innerProps resolves the wrapped component's own hook, falling back to the
// app-root hook in app-tree context, else an empty property set.
func (w *WrappedPage) innerProps(ctx context.Context, rc *RequestContext) (Props, error) {
	if ip, ok := w.page.(InitialPropser); ok {
		return ip.InitialProps(ctx, rc)
	}
	if rc.AppTree && w.appRoot != nil {
		return w.appRoot(ctx, rc)
	}
	return Props{}, nil
}

// prefetch recursively renders the page tree to resolve every nested data
// dependency. Always best effort: errors land in the report, never in the
// return path.
func (w *WrappedPage) prefetch(ctx context.Context, client Client, props Props) FetchReport {
	scope := &RenderScope{
		Client: client,
		Props:  props,
		Head:   w.head,
	}
	var report FetchReport
	resolveTree(ctx, w.page, scope, 0, w.maxDepth, &report)
	return report
}

// Render implements Component. If the scope carries no client (a static or
// hydration render) one is resolved from the scope's snapshot first, so
// descendants always see a ready client. The wrapped page is the sole child.
func (w *WrappedPage) Render(ctx context.Context, scope *RenderScope) ([]Component, error) {
	if w.validationError != nil {
		return nil, w.validationError
	}
	if scope.Client == nil {
		client, err := w.lifecycle.Resolve(w.ctor, scope.State, nil)
		if err != nil {
			return nil, err
		}
		scope.Client = client
	}
	if scope.Head == nil {
		scope.Head = w.head
	}
	return []Component{w.page}, nil
}

// Scope builds a render scope from resolved page properties: the live
// client on server renders, the snapshot as hydration seed otherwise.
func (w *WrappedPage) Scope(props PageProps) *RenderScope {
	return &RenderScope{
		Client: props.LiveClient(),
		Props:  props.Props,
		State:  props.State,
		Head:   w.head,
	}
}

// Head returns the wrapper's head accumulator.
func (w *WrappedPage) Head() *Head { return w.head }

// IsValid reports whether the wrapper configuration passed validation.
func (w *WrappedPage) IsValid() bool { return w.validationError == nil }

// ValidationError returns the configuration error, if any.
func (w *WrappedPage) ValidationError() error { return w.validationError }
