package domain

import "time"

// Utterance is one finalized span of recognized speech. The segmenter emits
// it when the recognizer endpoints on silence; the dialogue loop consumes it
// exactly once. Never persisted.
type Utterance struct {
	Text  string
	Heard time.Time
}

// Verdict is the garbled-input classifier's ruling on an utterance.
type Verdict int

const (
	VerdictClear Verdict = iota
	VerdictGarbled
)

func (v Verdict) String() string {
	if v == VerdictGarbled {
		return "garbled"
	}
	return "clear"
}
