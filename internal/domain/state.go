package domain

// DialogueState is the phase of the running session. Exactly one instance
// exists, owned and mutated only by the dialogue loop. Audio capture is
// active only in StateListening and playback only in StateSpeaking, so the
// microphone can never hear the assistant's own voice.
type DialogueState int

const (
	StateIdle DialogueState = iota
	StateListening
	StateProcessing
	StateSpeaking
)

func (s DialogueState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateProcessing:
		return "processing"
	case StateSpeaking:
		return "speaking"
	default:
		return "unknown"
	}
}
