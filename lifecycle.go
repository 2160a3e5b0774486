package tirta

import "sync"

// Mode is the execution context a Lifecycle operates in. It is decided once
// at construction rather than sniffed from the environment at each call.
type Mode int

const (
	// ModeServer hands out a fresh client per request. Instances are never
	// shared across requests, which would leak cache state between
	// unrelated users.
	ModeServer Mode = iota

	// ModeBrowser hands out a single client for the lifetime of the page
	// session, constructed lazily on first need.
	ModeBrowser
)

// String returns the mode label used in logs and metrics.
func (m Mode) String() string {
	switch m {
	case ModeServer:
		return "server"
	case ModeBrowser:
		return "browser"
	default:
		return "unknown"
	}
}

// Lifecycle decides whether to construct a fresh client or reuse the
// session singleton. Safe for concurrent use; in browser mode the singleton
// slot has single-assignment semantics, so concurrent first resolutions
// construct exactly once.
type Lifecycle struct {
	mode Mode

	mu     sync.Mutex
	shared Client
}

// NewLifecycle creates a lifecycle manager for the given execution mode.
func NewLifecycle(mode Mode) *Lifecycle {
	return &Lifecycle{mode: mode}
}

// Mode returns the execution mode the lifecycle was built with.
func (l *Lifecycle) Mode() Mode { return l.mode }

// Resolve returns a usable client. In server mode the constructor runs on
// every call. In browser mode the first call constructs and stores the
// session singleton; later calls return it and ignore their initial state.
// Constructor errors propagate unwrapped and leave the slot empty so a
// retry can construct again.
func (l *Lifecycle) Resolve(ctor Constructor, initial Snapshot, rc *RequestContext) (Client, error) {
	if ctor == nil {
		return nil, ErrNilConstructor
	}
	if l.mode == ModeServer {
		return ctor(initial, rc)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.shared != nil {
		return l.shared, nil
	}
	c, err := ctor(initial, rc)
	if err != nil {
		return nil, err
	}
	l.shared = c
	return c, nil
}

// Current returns the browser-mode singleton if one has been constructed.
// Always nil in server mode.
func (l *Lifecycle) Current() Client {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.shared
}

// Reset clears the browser-mode singleton, ending the page session. The
// next Resolve constructs a fresh client.
func (l *Lifecycle) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.shared = nil
}
