package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// Speaker synthesizes a reply and plays it to completion. Speak is
// synchronous: control does not return to the loop until playback finished
// or failed.
type Speaker struct {
	synth    Synthesizer
	player   Player
	logger   *slog.Logger
	speaking atomic.Bool
}

func NewSpeaker(synth Synthesizer, player Player, logger *slog.Logger) *Speaker {
	return &Speaker{
		synth:  synth,
		player: player,
		logger: logger,
	}
}

func (s *Speaker) Speak(ctx context.Context, text string) error {
	s.speaking.Store(true)
	defer s.speaking.Store(false)

	audio, err := s.synth.Synthesize(ctx, text)
	if err != nil {
		return fmt.Errorf("synthesizing: %w", err)
	}
	if len(audio) == 0 {
		return fmt.Errorf("synthesizer returned no audio")
	}

	s.logger.Debug("playing reply", "bytes", len(audio))
	if err := s.player.Play(ctx, audio); err != nil {
		return fmt.Errorf("playing: %w", err)
	}
	return nil
}

// IsSpeaking reports whether a Speak call is in flight.
func (s *Speaker) IsSpeaking() bool {
	return s.speaking.Load()
}
