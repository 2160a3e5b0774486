package tirta

import (
	"encoding/json"
)

// Reserved property keys injected by the wrapper.
const (
	// PropState is the key carrying the serialized cache snapshot. Browser
	// runtimes read it to hydrate an Apollo-compatible client.
	PropState = "apolloState"

	// PropClient is the key carrying the live client handle. Only
	// meaningful server-side; it serializes to null.
	PropClient = "apolloClient"
)

// ClientHandle wraps the live client so it can ride along in page
// properties without ever reaching the browser: whatever serializes the
// properties, the handle marshals to JSON null while the snapshot travels
// under its own key.
type ClientHandle struct {
	c Client
}

// Get returns the wrapped client, or nil.
func (h *ClientHandle) Get() Client {
	if h == nil {
		return nil
	}
	return h.c
}

// MarshalJSON always emits null: the live client is not serializable and
// must never be transmitted.
func (h *ClientHandle) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// PageProps is the property bag a wrapped page's initial-props hook
// resolves with: the inner component properties plus the injected snapshot
// and client handle.
type PageProps struct {
	// Props are the wrapped component's own properties.
	Props Props

	// State is the extracted cache snapshot, serialized under "apolloState".
	State Snapshot

	// Client is the live client handle, present only on server renders.
	Client *ClientHandle

	// Report is the best-effort fetch report of the prefetch pass that
	// produced these props. Diagnostic only, never serialized;
	// per-component errors surface through each component's own error
	// convention.
	Report FetchReport
}

// LiveClient returns the live client if the props came from a server
// render, or nil after hydration.
func (p PageProps) LiveClient() Client {
	return p.Client.Get()
}

// MarshalJSON flattens the inner properties and the injected keys into one
// object. Inner properties never override the injected keys.
func (p PageProps) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(p.Props)+2)
	for k, v := range p.Props {
		if k == PropState || k == PropClient {
			continue
		}
		flat[k] = v
	}
	if p.State != nil {
		flat[PropState] = p.State
	}
	if p.Client != nil {
		flat[PropClient] = p.Client
	}
	return json.Marshal(flat)
}

// HydrateProps parses serialized page properties back into PageProps. The
// snapshot is recovered under State; the client handle is gone (it was
// nulled before transport) and every other key lands in Props.
func HydrateProps(data []byte) (PageProps, error) {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return PageProps{}, err
	}

	out := PageProps{Props: Props{}}
	for k, v := range flat {
		switch k {
		case PropState:
			state, err := ParseSnapshot(v)
			if err != nil {
				return PageProps{}, err
			}
			out.State = state
		case PropClient:
			// Always null on the wire; nothing to recover.
		default:
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				return PageProps{}, err
			}
			out.Props[k] = val
		}
	}
	return out, nil
}
