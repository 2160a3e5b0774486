package tirta

import "sync"

// Meta is one document-head metadata entry recorded during a render pass.
type Meta struct {
	Name    string
	Content string
}

// Head accumulates document-head side effects (title, meta tags) emitted by
// components while rendering. The prefetch pass renders the tree without
// running unmount lifecycle, so its accumulated head state must be reset
// explicitly once the pass completes; otherwise the real render would see
// stale entries. Safe for concurrent use.
type Head struct {
	mu    sync.Mutex
	title string
	metas []Meta
}

// NewHead returns an empty head accumulator.
func NewHead() *Head {
	return &Head{}
}

// SetTitle records the document title; the last writer wins.
func (h *Head) SetTitle(title string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.title = title
}

// AddMeta appends a meta entry.
func (h *Head) AddMeta(name, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.metas = append(h.metas, Meta{Name: name, Content: content})
}

// Title returns the recorded title.
func (h *Head) Title() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.title
}

// Metas returns a copy of the recorded meta entries.
func (h *Head) Metas() []Meta {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Meta, len(h.metas))
	copy(out, h.metas)
	return out
}

// Reset discards all accumulated head state.
func (h *Head) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.title = ""
	h.metas = nil
}
