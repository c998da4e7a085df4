package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Easiofy-Anant/voice-assistant/internal/domain"
)

// Segmenter turns the raw frame stream into finalized utterances. Next is
// the only entry point: it blocks until the recognizer endpoints on a
// non-empty span of speech, so the loop consumes speech as a sequential
// pull instead of recognizer callbacks.
type Segmenter struct {
	source FrameSource
	rec    Recognizer
	logger *slog.Logger
}

func NewSegmenter(source FrameSource, rec Recognizer, logger *slog.Logger) *Segmenter {
	return &Segmenter{
		source: source,
		rec:    rec,
		logger: logger,
	}
}

// Next returns the next finalized utterance. Partial hypotheses and empty
// or whitespace-only finals are skipped without emitting anything.
func (s *Segmenter) Next(ctx context.Context) (domain.Utterance, error) {
	for {
		select {
		case <-ctx.Done():
			return domain.Utterance{}, ctx.Err()
		default:
		}

		frame, err := s.source.ReadFrame(ctx)
		if err != nil {
			return domain.Utterance{}, fmt.Errorf("reading frame: %w", err)
		}
		if len(frame) == 0 {
			continue
		}

		hyp, err := s.rec.Accept(frame)
		if err != nil {
			return domain.Utterance{}, fmt.Errorf("recognizing: %w", err)
		}
		if !hyp.Final {
			continue
		}

		text := strings.TrimSpace(hyp.Text)
		if text == "" {
			continue
		}

		s.logger.Debug("utterance finalized", "text", text)
		return domain.Utterance{Text: text, Heard: time.Now()}, nil
	}
}

// Reset drops recognizer state left over from audio heard before capture
// was last suspended.
func (s *Segmenter) Reset() {
	s.rec.Reset()
}
