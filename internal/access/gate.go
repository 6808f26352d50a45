package access

import (
	"fmt"

	"github.com/tessro/needle/internal/store"
)

// TierKey is the store key holding the persisted tier.
const TierKey = "access_tier"

// Gate reads and raises the persisted tier. It never lowers it.
type Gate struct {
	kv store.KV
}

// NewGate creates a gate backed by kv.
func NewGate(kv store.KV) *Gate {
	return &Gate{kv: kv}
}

// Tier returns the persisted tier, or Guest when it is absent, malformed
// or cannot be read.
func (g *Gate) Tier() Tier {
	raw, ok, err := g.kv.Get(TierKey)
	if err != nil || !ok {
		return Guest
	}
	t, _ := ParseTier(raw)
	return t
}

// Has reports whether the current tier is at least t.
func (g *Gate) Has(t Tier) bool {
	return g.Tier() >= t
}

// Upgrade persists t if it is strictly greater than the current tier.
// It reports whether the stored tier changed. The comparison and write
// happen in one store update, so a concurrent lower upgrade cannot
// overwrite a higher one.
func (g *Gate) Upgrade(t Tier) (bool, error) {
	changed := false
	err := store.Update(g.kv, TierKey, func(old string, ok bool) (string, bool, error) {
		current := Guest
		if ok {
			current, _ = ParseTier(old)
		}
		if t <= current {
			return "", false, nil
		}
		changed = true
		return t.String(), true, nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to persist tier: %w", err)
	}
	return changed, nil
}

// Reset removes the persisted tier. This is the only way to go back to
// Guest and is exposed for the CLI's logout command.
func (g *Gate) Reset() error {
	if err := g.kv.Delete(TierKey); err != nil {
		return fmt.Errorf("failed to reset tier: %w", err)
	}
	return nil
}
