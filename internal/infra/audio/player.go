package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

// BeepPlayer plays MP3 audio held entirely in memory to the default output
// device. Nothing ever touches the filesystem.
type BeepPlayer struct {
	logger *slog.Logger

	mu          sync.Mutex
	initialized bool
	sampleRate  beep.SampleRate
}

func NewBeepPlayer(logger *slog.Logger) *BeepPlayer {
	return &BeepPlayer{logger: logger}
}

// Play decodes and plays audio, returning once playback has completed. A
// cancelled ctx clears the output buffer and returns immediately so
// shutdown never waits on the speaker.
func (p *BeepPlayer) Play(ctx context.Context, audio []byte) error {
	streamer, format, err := mp3.Decode(io.NopCloser(bytes.NewReader(audio)))
	if err != nil {
		return fmt.Errorf("decoding audio: %w", err)
	}
	defer streamer.Close()

	if err := p.ensureSpeaker(format.SampleRate); err != nil {
		return err
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(streamer, beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}

// ensureSpeaker initializes the output device once per sample rate. The TTS
// backend always returns the same format, so in practice this runs once.
func (p *BeepPlayer) ensureSpeaker(rate beep.SampleRate) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized && p.sampleRate == rate {
		return nil
	}
	if err := speaker.Init(rate, rate.N(time.Second/10)); err != nil {
		return fmt.Errorf("initializing speaker: %w", err)
	}
	p.initialized = true
	p.sampleRate = rate
	p.logger.Debug("speaker initialized", "sample_rate", int(rate))
	return nil
}
