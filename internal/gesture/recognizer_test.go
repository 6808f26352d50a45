package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedAll(r *Recognizer, toks ...Token) []Signal {
	out := make([]Signal, 0, len(toks))
	for _, tok := range toks {
		out = append(out, r.FeedDirectional(tok))
	}
	return out
}

func countKind(signals []Signal, kind Kind) int {
	n := 0
	for _, s := range signals {
		if s.Kind == kind {
			n++
		}
	}
	return n
}

func TestPrimaryUnlockFiresOnce(t *testing.T) {
	r := New()

	first := feedAll(r, Sequence...)
	assert.Equal(t, 1, countKind(first, PrimaryUnlock))
	assert.Equal(t, PrimaryUnlock, first[len(first)-1].Kind)
	assert.Equal(t, 0, r.Progress())
	assert.True(t, r.AwaitingChord())

	again := feedAll(r, Sequence...)
	assert.Equal(t, 0, countKind(again, PrimaryUnlock))
	assert.Equal(t, len(Sequence), countKind(again, Ignored))
}

func TestProgressAdvances(t *testing.T) {
	r := New()
	for i, tok := range Sequence[:len(Sequence)-1] {
		sig := r.FeedDirectional(tok)
		require.Equal(t, Advanced, sig.Kind)
		assert.Equal(t, i+1, sig.Progress)
		assert.Equal(t, i+1, r.Progress())
	}
}

func TestMismatchResets(t *testing.T) {
	r := New()

	signals := feedAll(r, Up, Up, Down, Right)
	assert.Equal(t, Mismatch, signals[3].Kind)
	assert.Equal(t, 0, r.Progress())

	signals = feedAll(r, Sequence...)
	assert.Equal(t, PrimaryUnlock, signals[len(signals)-1].Kind)
}

func TestMismatchDoesNotRestartOnMatchingToken(t *testing.T) {
	r := New()
	// A wrong "up" at step 3 resets to zero rather than counting as step 1.
	feedAll(r, Up, Up, Up)
	assert.Equal(t, 0, r.Progress())
}

func TestNoneTokenIgnored(t *testing.T) {
	r := New()
	feedAll(r, Up, Up)
	sig := r.FeedDirectional(None)
	assert.Equal(t, Ignored, sig.Kind)
	assert.Equal(t, 2, r.Progress())
}

func TestInactiveIgnoresInput(t *testing.T) {
	r := New()
	r.SetActive(false)
	signals := feedAll(r, Sequence...)
	assert.Equal(t, len(Sequence), countKind(signals, Ignored))
	assert.Equal(t, 0, r.Progress())

	r.SetActive(true)
	signals = feedAll(r, Sequence...)
	assert.Equal(t, 1, countKind(signals, PrimaryUnlock))
}

func TestChordRequiresPrimary(t *testing.T) {
	r := New()
	assert.Equal(t, Ignored, r.FeedChord(KeyB).Kind)
	assert.Equal(t, Ignored, r.FeedChord(KeyA).Kind)
}

func TestChordBThenA(t *testing.T) {
	r := New()
	feedAll(r, Sequence...)

	assert.Equal(t, Armed, r.FeedChord(KeyB).Kind)
	sig := r.FeedChord(KeyA)
	assert.Equal(t, SecondaryUnlock, sig.Kind)
	assert.Equal(t, MethodKeys, sig.Method)
	assert.True(t, r.Done())
	assert.False(t, r.AwaitingChord())

	assert.Equal(t, Ignored, r.FeedChord(KeyB).Kind)
	assert.Equal(t, Ignored, r.FeedChord(KeyA).Kind)
	assert.Equal(t, Ignored, r.FeedDirectional(Up).Kind)
}

func TestChordOutOfOrder(t *testing.T) {
	r := New()
	feedAll(r, Sequence...)

	assert.Equal(t, Ignored, r.FeedChord(KeyA).Kind)
	assert.Equal(t, Armed, r.FeedChord(KeyB).Kind)
	assert.Equal(t, Ignored, r.FeedChord(KeyOther).Kind)
	assert.Equal(t, Ignored, r.FeedChord(KeyA).Kind)
	assert.True(t, r.AwaitingChord())

	assert.Equal(t, Armed, r.FeedChord(KeyB).Kind)
	assert.Equal(t, SecondaryUnlock, r.FeedChord(KeyA).Kind)
}

func TestSwipeRouting(t *testing.T) {
	r := New()
	for _, tok := range Sequence {
		r.FeedSwipe(tok)
	}
	require.True(t, r.AwaitingChord())

	assert.Equal(t, Armed, r.FeedSwipe(Down).Kind)
	sig := r.FeedSwipe(Up)
	assert.Equal(t, SecondaryUnlock, sig.Kind)
	assert.Equal(t, MethodSwipe, sig.Method)
}

func TestSwipeSidewaysClearsPending(t *testing.T) {
	r := New()
	feedAll(r, Sequence...)
	r.FeedSwipe(Down)
	r.FeedSwipe(Left)
	assert.Equal(t, Ignored, r.FeedSwipe(Up).Kind)
}

func TestCompleteIgnoresEverything(t *testing.T) {
	r := New()
	r.Complete()
	signals := feedAll(r, Sequence...)
	assert.Equal(t, len(Sequence), countKind(signals, Ignored))
	assert.Equal(t, Ignored, r.FeedChord(KeyB).Kind)

	r.Reset()
	assert.True(t, r.Done())
}

func TestResetAllowsNewAttempt(t *testing.T) {
	r := New()
	feedAll(r, Sequence...)
	r.Reset()
	assert.False(t, r.AwaitingChord())
	signals := feedAll(r, Sequence...)
	assert.Equal(t, 1, countKind(signals, PrimaryUnlock))
}

func TestProgressStaysInBounds(t *testing.T) {
	r := New()
	inputs := []Token{Up, Down, Up, Up, Down, Down, Left, Left, Right, Up, Up, Down, Down, Left, Right, Left, Right, Up}
	for _, tok := range inputs {
		r.FeedDirectional(tok)
		p := r.Progress()
		assert.GreaterOrEqual(t, p, 0)
		assert.LessOrEqual(t, p, r.Len())
	}
}

func TestParse(t *testing.T) {
	assert.Equal(t, Up, ParseToken("UP"))
	assert.Equal(t, None, ParseToken("sideways"))
	assert.Equal(t, "left", Left.String())
	assert.Equal(t, KeyA, ParseKey("A"))
	assert.Equal(t, KeyB, ParseKey("b"))
	assert.Equal(t, KeyOther, ParseKey("enter"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		dx, dy float64
		want   Token
	}{
		{"right", 120, 10, Right},
		{"left", -80, 30, Left},
		{"down", 5, 90, Down},
		{"up", -10, -60, Up},
		{"too short", 20, 30, None},
		{"diagonal favors vertical on tie", 60, 60, Down},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.dx, tt.dy))
		})
	}
}
