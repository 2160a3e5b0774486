package tirta

import "fmt"

// WithSSR controls the server-side data-fetch step. Enabled by default;
// disabling it skips the tree resolution while still snapshotting the
// freshly constructed client's cache.
func WithSSR(enabled bool) Option {
	return func(w *WrappedPage) {
		w.ssr = enabled
	}
}

// WithLifecycle supplies the client lifecycle manager. Share one Lifecycle
// across wrappers that should share the browser-mode singleton.
func WithLifecycle(l *Lifecycle) Option {
	return func(w *WrappedPage) {
		w.lifecycle = l
	}
}

// WithMode is shorthand for WithLifecycle(NewLifecycle(mode)).
func WithMode(mode Mode) Option {
	return func(w *WrappedPage) {
		w.lifecycle = NewLifecycle(mode)
	}
}

// WithInitialState seeds the constructed client's cache. In browser mode
// only the very first construction consumes it.
func WithInitialState(s Snapshot) Option {
	return func(w *WrappedPage) {
		w.initial = s
	}
}

// WithAppRoot installs the application-root initial-props hook, used when
// the wrapped component has no hook of its own and the request is an
// app-tree render.
func WithAppRoot(fn InitialPropsFunc) Option {
	return func(w *WrappedPage) {
		w.appRoot = fn
	}
}

// WithHead supplies a shared head accumulator. Wrappers rendered within one
// document must share one so the post-prefetch reset covers all of them.
func WithHead(h *Head) Option {
	return func(w *WrappedPage) {
		w.head = h
	}
}

// WithMaxDepth bounds the prefetch recursion depth.
func WithMaxDepth(n int) Option {
	return func(w *WrappedPage) {
		w.maxDepth = n
	}
}

// WithLogger sets the logger used for prefetch diagnostics.
func WithLogger(logger Logger) Option {
	return func(w *WrappedPage) {
		w.logger = logger
	}
}

// WithSimpleLogger enables diagnostics with a simple console logger.
func WithSimpleLogger() Option {
	return func(w *WrappedPage) {
		w.logger = NewSimpleLogger()
	}
}

// WithMetrics enables Prometheus metrics on the default registerer.
func WithMetrics() Option {
	return func(w *WrappedPage) {
		w.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector supplies a pre-built collector, e.g. one bound to a
// custom registry or shared between wrappers.
func WithMetricsCollector(mc *MetricsCollector) Option {
	return func(w *WrappedPage) {
		w.metrics = mc
	}
}

// ValidateConfiguration validates the wrapper configuration and returns an
// error if invalid.
func (w *WrappedPage) ValidateConfiguration() error {
	var errs []string

	errs = append(errs, w.validatePageConfig()...)
	errs = append(errs, w.validateLifecycleConfig()...)
	errs = append(errs, w.validateFetchConfig()...)

	if len(errs) > 0 {
		return configError("wrapper validation failed", fmt.Errorf("validation errors: %v", errs))
	}

	return nil
}

func (w *WrappedPage) validatePageConfig() []string {
	var errs []string

	if w.page == nil {
		errs = append(errs, "page must not be nil")
	}
	if w.ctor == nil {
		errs = append(errs, "client constructor is required")
	}

	return errs
}

func (w *WrappedPage) validateLifecycleConfig() []string {
	var errs []string

	if w.lifecycle == nil {
		errs = append(errs, "lifecycle must not be nil")
	}

	return errs
}

func (w *WrappedPage) validateFetchConfig() []string {
	var errs []string

	if w.maxDepth <= 0 {
		errs = append(errs, "maxDepth must be positive")
	}
	if w.head == nil {
		errs = append(errs, "head accumulator must not be nil")
	}

	return errs
}
