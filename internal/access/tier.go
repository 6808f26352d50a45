// Package access tracks the listener's privilege tier.
package access

import "strings"

// Tier is a privilege level. Tiers are totally ordered.
type Tier int

const (
	Guest Tier = iota
	Authenticated
	Secret
)

// String returns the persisted name of the tier.
func (t Tier) String() string {
	switch t {
	case Authenticated:
		return "authenticated"
	case Secret:
		return "secret"
	default:
		return "guest"
	}
}

// Label returns a display name for the tier.
func (t Tier) Label() string {
	switch t {
	case Authenticated:
		return "Authenticated"
	case Secret:
		return "Secret"
	default:
		return "Guest"
	}
}

// ParseTier parses a persisted tier name. Unknown or malformed values
// parse as Guest and report false.
func ParseTier(s string) (Tier, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "guest":
		return Guest, true
	case "authenticated":
		return Authenticated, true
	case "secret":
		return Secret, true
	default:
		return Guest, false
	}
}

// Tiers lists every tier in ascending order.
func Tiers() []Tier {
	return []Tier{Guest, Authenticated, Secret}
}
