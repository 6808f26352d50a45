package core

import (
	"sort"

	"github.com/tessro/needle/internal/store"
)

// HeardKey is the store key holding the heard-track ids.
const HeardKey = "heard_tracks"

// HeardSet is the set of track ids already served to this listener.
type HeardSet struct {
	ids map[string]struct{}
}

// NewHeardSet returns an empty set.
func NewHeardSet() *HeardSet {
	return &HeardSet{ids: make(map[string]struct{})}
}

// LoadHeardSet reads the persisted set. A missing or corrupt entry yields
// an empty set.
func LoadHeardSet(kv store.KV) *HeardSet {
	h := NewHeardSet()
	var ids []string
	if ok, err := store.GetJSON(kv, HeardKey, &ids); err != nil || !ok {
		return h
	}
	for _, id := range ids {
		h.ids[id] = struct{}{}
	}
	return h
}

// Save persists the set as a sorted JSON array.
func (h *HeardSet) Save(kv store.KV) error {
	return store.SetJSON(kv, HeardKey, h.IDs())
}

// Add marks id as heard. It reports whether id was new.
func (h *HeardSet) Add(id string) bool {
	if _, ok := h.ids[id]; ok {
		return false
	}
	h.ids[id] = struct{}{}
	return true
}

// Has reports whether id has been heard.
func (h *HeardSet) Has(id string) bool {
	_, ok := h.ids[id]
	return ok
}

// Len returns the number of heard ids.
func (h *HeardSet) Len() int {
	return len(h.ids)
}

// Clear empties the set.
func (h *HeardSet) Clear() {
	h.ids = make(map[string]struct{})
}

// IDs returns the heard ids in sorted order.
func (h *HeardSet) IDs() []string {
	out := make([]string, 0, len(h.ids))
	for id := range h.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Prune drops ids that are not in the catalog. It reports whether anything
// was removed.
func (h *HeardSet) Prune(c *Catalog) bool {
	removed := false
	for id := range h.ids {
		if !c.Contains(id) {
			delete(h.ids, id)
			removed = true
		}
	}
	return removed
}

// Unheard returns the catalog tracks not yet heard, in catalog order.
func (h *HeardSet) Unheard(c *Catalog) []Track {
	var out []Track
	for _, t := range c.tracks {
		if !h.Has(t.ID) {
			out = append(out, t)
		}
	}
	return out
}

// Covers reports whether every catalog track has been heard.
func (h *HeardSet) Covers(c *Catalog) bool {
	for _, t := range c.tracks {
		if !h.Has(t.ID) {
			return false
		}
	}
	return true
}

// Percent returns how much of the catalog has been heard, rounded.
func (h *HeardSet) Percent(c *Catalog) int {
	total := c.Len()
	if total == 0 {
		return 0
	}
	heard := 0
	for _, t := range c.tracks {
		if h.Has(t.ID) {
			heard++
		}
	}
	return (heard*100 + total/2) / total
}
