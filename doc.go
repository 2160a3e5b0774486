// Package tirta wires a data-fetching client into the server-side render
// lifecycle of a Go web application and ships the client's cache to the
// browser for hydration:
//
//   - Client lifecycle policy: one fresh client per server request, a
//     construct-once singleton for the browser-equivalent runtime
//   - Render-time prefetch: walk the page's component tree and resolve every
//     declared data dependency before the response is written
//   - Cache snapshot extraction and Apollo-compatible hydration state
//     (the serialized form browsers read from window.__APOLLO_STATE__)
//   - A batteries-included GraphQL client with retries, in-flight query
//     de-duplication, circuit breaking and a normalized in-memory cache
//   - Prometheus metrics and lightweight structured debug logging
//
// Design goals:
//   - Small surface area – functional options configure everything
//   - Client-agnostic: bring your own Constructor; the built-in GraphQL
//     client is a convenience, not a requirement
//   - Safe concurrent use of a shared Lifecycle across requests
//   - Best effort prefetch: a failing query never aborts a page render
//
// Typical usage:
//
//	page := tirta.Wrap(itemsPage{},
//	    tirta.GraphQLConstructor("https://api.example.com/graphql"),
//	    tirta.WithSSR(true),
//	    tirta.WithSimpleLogger(),
//	)
//	props, err := page.InitialProps(ctx, tirta.NewRequestContext(w, r))
//
// The returned props carry the extracted cache under "apolloState"; the live
// client handle marshals to JSON null so it can never leak into the response
// body. On hydration, resolve a working client from the snapshot with the
// same wrapped page before rendering children.
package tirta
