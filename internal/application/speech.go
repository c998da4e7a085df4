package application

import "context"

// Hypothesis is one recognizer report for a fed frame. Final marks an
// endpoint: silence closed the current span of speech. Anything else is a
// partial that the segmenter discards.
type Hypothesis struct {
	Text  string
	Final bool
}

// Recognizer is an incremental offline speech recognizer. Reset clears
// buffered audio state so speech heard before a pause never bleeds into the
// next utterance.
type Recognizer interface {
	Accept(frame []byte) (Hypothesis, error)
	Reset()
	Close() error
}

// Synthesizer renders text to playable audio bytes, entirely in memory.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
