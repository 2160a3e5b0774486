package tirta

import (
	"context"
)

// Client is an opaque handle to a data-fetching/caching layer. The only
// operation the render lifecycle needs is snapshot extraction; richer
// capabilities (query execution, cache restoration) are discovered by
// components through type assertion.
type Client interface {
	// Extract returns a serializable snapshot of the client's cache.
	Extract() Snapshot
}

// Querier is implemented by clients that can execute data operations.
// The built-in GraphQL client implements it; data loaders assert for it.
type Querier interface {
	Query(ctx context.Context, op Operation, out any) error
}

// Constructor builds a client for one request (server) or one page session
// (browser). The initial snapshot seeds the client's cache and may be nil;
// rc carries request-scoped fields and is nil outside a request.
type Constructor func(initial Snapshot, rc *RequestContext) (Client, error)

// Props is the property bag produced by initial-props hooks.
type Props map[string]any

// InitialPropsFunc is the hook contract pages and app roots expose: given a
// request context, produce the first-render properties for the tree below.
type InitialPropsFunc func(ctx context.Context, rc *RequestContext) (Props, error)

// Component is one node of a renderable page tree. Render may emit markup
// through the host framework and returns the node's children so the
// prefetch pass can recurse into them.
type Component interface {
	Render(ctx context.Context, scope *RenderScope) ([]Component, error)
}

// DataLoader is implemented by components with data dependencies. Load runs
// during the server-side prefetch pass, before the component's children are
// visited, using the request's client.
type DataLoader interface {
	Load(ctx context.Context, client Client) error
}

// Page is a renderable page component. Pages that need first-render
// properties additionally implement InitialPropser.
type Page interface {
	Component
}

// InitialPropser is implemented by pages carrying their own initial-props
// hook. Discovered by assertion, like the optional interfaces in net/http.
type InitialPropser interface {
	InitialProps(ctx context.Context, rc *RequestContext) (Props, error)
}

// RenderScope is the per-render bag handed down the component tree: the
// resolved client, the page properties, the hydration seed and the shared
// head accumulator.
type RenderScope struct {
	Client Client
	Props  Props
	State  Snapshot
	Head   *Head
}

// Option configures a WrappedPage.
type Option func(*WrappedPage)

// ComponentFunc adapts a plain function to the Component interface.
type ComponentFunc func(ctx context.Context, scope *RenderScope) ([]Component, error)

// Render implements Component.
func (f ComponentFunc) Render(ctx context.Context, scope *RenderScope) ([]Component, error) {
	return f(ctx, scope)
}
