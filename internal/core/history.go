package core

// PlayHistory is the ordered list of played track ids with a cursor.
// The cursor is -1 when the history is empty and always in range otherwise.
type PlayHistory struct {
	ids   []string
	index int
}

// NewPlayHistory returns an empty history.
func NewPlayHistory() *PlayHistory {
	return &PlayHistory{index: -1}
}

// Push records a newly selected track. Entries after the cursor are
// discarded first.
func (h *PlayHistory) Push(id string) {
	if h.index < len(h.ids)-1 {
		h.ids = h.ids[:h.index+1]
	}
	h.ids = append(h.ids, id)
	h.index = len(h.ids) - 1
}

// Current returns the id at the cursor.
func (h *PlayHistory) Current() (string, bool) {
	if h.index < 0 || h.index >= len(h.ids) {
		return "", false
	}
	return h.ids[h.index], true
}

// CanBack reports whether Back would move the cursor.
func (h *PlayHistory) CanBack() bool {
	return h.index > 0
}

// CanForward reports whether Forward would move the cursor.
func (h *PlayHistory) CanForward() bool {
	return h.index < len(h.ids)-1
}

// Back moves the cursor one step back and returns the id there.
func (h *PlayHistory) Back() (string, bool) {
	if !h.CanBack() {
		return "", false
	}
	h.index--
	return h.ids[h.index], true
}

// Forward moves the cursor one step forward and returns the id there.
func (h *PlayHistory) Forward() (string, bool) {
	if !h.CanForward() {
		return "", false
	}
	h.index++
	return h.ids[h.index], true
}

// Index returns the cursor position.
func (h *PlayHistory) Index() int {
	return h.index
}

// Len returns the number of entries.
func (h *PlayHistory) Len() int {
	return len(h.ids)
}

// IsEmpty returns true if nothing has been played.
func (h *PlayHistory) IsEmpty() bool {
	return len(h.ids) == 0
}

// IDs returns a copy of the entries.
func (h *PlayHistory) IDs() []string {
	out := make([]string, len(h.ids))
	copy(out, h.ids)
	return out
}
