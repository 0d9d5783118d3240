package layout

import "sync"

// Highlights tracks which AOI block is currently highlighted and
// notifies an optional observer on changes. It implements the
// conditioner's Highlighter capability without any rendering
// dependency; the browser applies the actual visual state.
type Highlights struct {
	mu       sync.Mutex
	current  string
	onChange func(id string)
}

// NewHighlights creates a highlight recorder. onChange may be nil; it
// is invoked only when the highlighted block actually changes, with ""
// meaning all highlights cleared.
func NewHighlights(onChange func(id string)) *Highlights {
	return &Highlights{onChange: onChange}
}

// SetHighlighted highlights one block and clears all others.
func (h *Highlights) SetHighlighted(id string) {
	h.mu.Lock()
	changed := h.current != id
	h.current = id
	fn := h.onChange
	h.mu.Unlock()
	if changed && fn != nil {
		fn(id)
	}
}

// Current returns the currently highlighted block id, or "".
func (h *Highlights) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}
