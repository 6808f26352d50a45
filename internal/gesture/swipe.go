package gesture

// SwipeThreshold is the minimum travel, in pointer units, for a swipe.
const SwipeThreshold = 50

// Classify turns a pointer displacement into a swipe direction.
// Horizontal travel wins when it dominates; short movements yield None.
func Classify(dx, dy float64) Token {
	ax, ay := abs(dx), abs(dy)
	switch {
	case ax > ay && ax > SwipeThreshold:
		if dx > 0 {
			return Right
		}
		return Left
	case ay > SwipeThreshold:
		if dy > 0 {
			return Down
		}
		return Up
	default:
		return None
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
