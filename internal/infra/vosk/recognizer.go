//go:build vosk
// +build vosk

package vosk

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	vosk "github.com/alphacep/vosk-api/go"

	"github.com/Easiofy-Anant/voice-assistant/internal/application"
)

// Recognizer wraps the offline Kaldi recognizer. A missing or corrupt model
// fails construction, which aborts the process before the loop ever starts.
type Recognizer struct {
	model  *vosk.VoskModel
	rec    *vosk.VoskRecognizer
	logger *slog.Logger
}

func NewRecognizer(modelPath string, sampleRate int, logger *slog.Logger) (*Recognizer, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("recognizer model at %s: %w", modelPath, err)
	}

	vosk.SetLogLevel(-1)

	model, err := vosk.NewModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("loading recognizer model: %w", err)
	}

	rec, err := vosk.NewRecognizer(model, float64(sampleRate))
	if err != nil {
		model.Free()
		return nil, fmt.Errorf("creating recognizer: %w", err)
	}

	logger.Info("recognizer ready", "model", modelPath, "sample_rate", sampleRate)
	return &Recognizer{model: model, rec: rec, logger: logger}, nil
}

// Accept feeds one PCM frame. The returned hypothesis is final only when
// the recognizer detected an endpoint for the current span of speech.
func (r *Recognizer) Accept(frame []byte) (application.Hypothesis, error) {
	if r.rec.AcceptWaveform(frame) != 0 {
		var res struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal([]byte(r.rec.Result()), &res); err != nil {
			return application.Hypothesis{}, fmt.Errorf("decoding result: %w", err)
		}
		return application.Hypothesis{Text: res.Text, Final: true}, nil
	}

	var partial struct {
		Partial string `json:"partial"`
	}
	if err := json.Unmarshal([]byte(r.rec.PartialResult()), &partial); err != nil {
		return application.Hypothesis{}, fmt.Errorf("decoding partial: %w", err)
	}
	return application.Hypothesis{Text: partial.Partial, Final: false}, nil
}

// Reset drops buffered audio so speech heard before a pause never bleeds
// into the next utterance.
func (r *Recognizer) Reset() {
	r.rec.Reset()
}

func (r *Recognizer) Close() error {
	r.rec.Free()
	r.model.Free()
	return nil
}
