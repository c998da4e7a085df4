//go:build !vosk
// +build !vosk

package vosk

import (
	"fmt"
	"log/slog"

	"github.com/Easiofy-Anant/voice-assistant/internal/application"
)

// Recognizer stub when the vosk shared library is not available
type Recognizer struct{}

func NewRecognizer(modelPath string, sampleRate int, logger *slog.Logger) (*Recognizer, error) {
	return nil, fmt.Errorf("recognizer not available: rebuild with -tags vosk")
}

func (r *Recognizer) Accept(_ []byte) (application.Hypothesis, error) {
	return application.Hypothesis{}, fmt.Errorf("recognizer not available")
}

func (r *Recognizer) Reset() {}

func (r *Recognizer) Close() error {
	return nil
}
