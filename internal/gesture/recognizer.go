// Package gesture recognizes the unlock sequence and the chord that follows it.
package gesture

import "strings"

// Token is a directional input.
type Token int

const (
	None Token = iota
	Up
	Down
	Left
	Right
)

func (t Token) String() string {
	switch t {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return ""
	}
}

// ParseToken parses "up", "down", "left" or "right".
func ParseToken(s string) Token {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return Up
	case "down":
		return Down
	case "left":
		return Left
	case "right":
		return Right
	default:
		return None
	}
}

// Sequence is the primary unlock sequence.
var Sequence = []Token{Up, Up, Down, Down, Left, Right, Left, Right}

// Key is a chord input.
type Key int

const (
	KeyOther Key = iota
	KeyA
	KeyB
)

// ParseKey maps a key name to a chord key.
func ParseKey(s string) Key {
	switch strings.ToLower(s) {
	case "a":
		return KeyA
	case "b":
		return KeyB
	default:
		return KeyOther
	}
}

// Kind classifies a Signal.
type Kind int

const (
	// Ignored means the input was not consumed.
	Ignored Kind = iota
	// Advanced means the input matched the next step.
	Advanced
	// Mismatch means the input broke the sequence and progress was reset.
	Mismatch
	// Armed means the first chord key was accepted.
	Armed
	// PrimaryUnlock fires once when the full sequence is entered.
	PrimaryUnlock
	// SecondaryUnlock fires once when the chord completes.
	SecondaryUnlock
)

func (k Kind) String() string {
	switch k {
	case Advanced:
		return "advanced"
	case Mismatch:
		return "mismatch"
	case Armed:
		return "armed"
	case PrimaryUnlock:
		return "primary_unlock"
	case SecondaryUnlock:
		return "secondary_unlock"
	default:
		return "ignored"
	}
}

// Method names how a chord was entered.
const (
	MethodKeys  = "keys"
	MethodSwipe = "swipe"
)

// Signal reports the outcome of one input.
type Signal struct {
	Kind     Kind
	Progress int
	Method   string
}

// Recognizer matches directional tokens against Sequence and then the B, A
// chord. Input is ignored while the recognizer is inactive or after the
// chord has fired. It is not safe for concurrent use.
type Recognizer struct {
	sequence []Token
	progress int
	awaiting bool
	pendingB bool
	fired    bool
	done     bool
	active   bool
}

// New returns an active recognizer for Sequence.
func New() *Recognizer {
	return NewWithSequence(Sequence)
}

// NewWithSequence returns an active recognizer for a custom sequence.
func NewWithSequence(seq []Token) *Recognizer {
	s := make([]Token, len(seq))
	copy(s, seq)
	return &Recognizer{sequence: s, active: true}
}

// Len returns the length of the primary sequence.
func (r *Recognizer) Len() int {
	return len(r.sequence)
}

// Progress returns the number of tokens matched so far.
func (r *Recognizer) Progress() int {
	return r.progress
}

// AwaitingChord reports whether the primary sequence has completed and the
// chord has not.
func (r *Recognizer) AwaitingChord() bool {
	return r.awaiting
}

// Done reports whether the recognizer no longer consumes input.
func (r *Recognizer) Done() bool {
	return r.done
}

// SetActive enables or disables input. Progress is kept.
func (r *Recognizer) SetActive(active bool) {
	r.active = active
}

// Complete marks the gated tier as reached; all further input is ignored.
func (r *Recognizer) Complete() {
	r.done = true
	r.awaiting = false
	r.pendingB = false
	r.progress = 0
}

// Reset clears progress so a new attempt can begin. It does not undo
// Complete.
func (r *Recognizer) Reset() {
	r.progress = 0
	r.awaiting = false
	r.pendingB = false
	r.fired = false
}

func (r *Recognizer) accepting() bool {
	return r.active && !r.done
}

// FeedDirectional consumes a directional token.
func (r *Recognizer) FeedDirectional(tok Token) Signal {
	if !r.accepting() || r.fired || tok == None {
		return Signal{Kind: Ignored, Progress: r.progress}
	}

	if r.sequence[r.progress] != tok {
		r.progress = 0
		return Signal{Kind: Mismatch}
	}

	r.progress++
	if r.progress < len(r.sequence) {
		return Signal{Kind: Advanced, Progress: r.progress}
	}

	r.progress = 0
	r.fired = true
	r.awaiting = true
	return Signal{Kind: PrimaryUnlock, Progress: len(r.sequence)}
}

// FeedChord consumes a chord key. It only has an effect while awaiting.
func (r *Recognizer) FeedChord(key Key) Signal {
	return r.feedChord(key, MethodKeys)
}

func (r *Recognizer) feedChord(key Key, method string) Signal {
	if !r.accepting() || !r.awaiting {
		return Signal{Kind: Ignored}
	}

	switch {
	case key == KeyB:
		r.pendingB = true
		return Signal{Kind: Armed, Method: method}
	case key == KeyA && r.pendingB:
		r.awaiting = false
		r.pendingB = false
		r.done = true
		return Signal{Kind: SecondaryUnlock, Method: method}
	default:
		r.pendingB = false
		return Signal{Kind: Ignored}
	}
}

// FeedSwipe routes a swipe. While awaiting the chord a downward swipe
// stands for B and an upward one for A; otherwise it is a directional token.
func (r *Recognizer) FeedSwipe(tok Token) Signal {
	if !r.awaiting {
		return r.FeedDirectional(tok)
	}
	switch tok {
	case Down:
		return r.feedChord(KeyB, MethodSwipe)
	case Up:
		return r.feedChord(KeyA, MethodSwipe)
	default:
		return r.feedChord(KeyOther, MethodSwipe)
	}
}
