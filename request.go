package tirta

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// RequestContext is the transient per-request bag handed to initial-props
// hooks: framework request/response handles, route params, the app-tree
// signal and the client attached by the wrapper. Lifetime is bounded to one
// request; never retain one across requests.
type RequestContext struct {
	// Request is the inbound HTTP request, nil during static/client renders.
	Request *http.Request

	// Response is the response writer, wrapped so the context can observe
	// whether the response has been finalized (e.g. by a redirect). Handlers
	// must write through this field for finalization tracking to work.
	Response http.ResponseWriter

	// Params carries route parameters extracted by the host router.
	Params map[string]string

	// AppTree marks a root-level (application wrapper) render as opposed to
	// an individual page render.
	AppTree bool

	id string

	mu     sync.Mutex
	client Client

	wrote *atomic.Bool
}

// NewRequestContext builds a request context for one inbound request.
// The response writer is wrapped to track finalization; use rc.Response
// in place of w from here on.
func NewRequestContext(w http.ResponseWriter, r *http.Request) *RequestContext {
	rc := &RequestContext{
		Request: r,
		Params:  map[string]string{},
		id:      uuid.NewString(),
		wrote:   &atomic.Bool{},
	}
	if w != nil {
		rc.Response = &trackedWriter{ResponseWriter: w, wrote: rc.wrote}
	}
	return rc
}

// ID returns the request's debug identifier.
func (rc *RequestContext) ID() string { return rc.id }

// Client returns the client attached by an enclosing wrapper, or nil.
func (rc *RequestContext) Client() Client {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.client
}

// attachClient stores the request's client. At most one wrapper may attach
// a client per request; a second attempt reports ErrMultipleWrappers.
func (rc *RequestContext) attachClient(c Client) error {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.client != nil {
		return ErrMultipleWrappers
	}
	rc.client = c
	return nil
}

// Finalized reports whether the response has already been committed, which
// happens when a hook wrote a redirect or body before the prefetch ran.
func (rc *RequestContext) Finalized() bool {
	if rc.wrote == nil {
		return false
	}
	return rc.wrote.Load()
}

// trackedWriter flips a flag on first write so Finalized can observe
// redirects issued by inner hooks.
type trackedWriter struct {
	http.ResponseWriter
	wrote *atomic.Bool
}

func (t *trackedWriter) WriteHeader(statusCode int) {
	t.wrote.Store(true)
	t.ResponseWriter.WriteHeader(statusCode)
}

func (t *trackedWriter) Write(p []byte) (int, error) {
	t.wrote.Store(true)
	return t.ResponseWriter.Write(p)
}
