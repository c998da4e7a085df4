//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// MicrophoneSource captures 16-bit mono PCM frames from the default input
// device. Pause stops the underlying portaudio stream rather than dropping
// frames in software: while paused the device delivers nothing at all, so
// the assistant's own playback cannot reach the recognizer.
type MicrophoneSource struct {
	sampleRate      int
	framesPerBuffer int
	logger          *slog.Logger

	mu      sync.Mutex
	stream  *portaudio.Stream
	samples []int16
	paused  bool
}

func NewMicrophoneSource(sampleRate, framesPerBuffer int, logger *slog.Logger) *MicrophoneSource {
	return &MicrophoneSource{
		sampleRate:      sampleRate,
		framesPerBuffer: framesPerBuffer,
		logger:          logger,
	}
}

func (m *MicrophoneSource) Name() string {
	return "microphone"
}

func (m *MicrophoneSource) Start(_ context.Context) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}

	m.samples = make([]int16, m.framesPerBuffer)

	stream, err := portaudio.OpenDefaultStream(
		1, // input channels
		0, // output channels
		float64(m.sampleRate),
		m.framesPerBuffer,
		m.samples,
	)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("opening stream: %w", err)
	}
	m.stream = stream

	if err := m.stream.Start(); err != nil {
		m.stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("starting stream: %w", err)
	}

	m.logger.Info("microphone started",
		"sample_rate", m.sampleRate,
		"frames_per_buffer", m.framesPerBuffer,
	)
	return nil
}

// Pause stops the capture stream at the device level.
func (m *MicrophoneSource) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.paused || m.stream == nil {
		return nil
	}
	if err := m.stream.Stop(); err != nil {
		return fmt.Errorf("stopping stream: %w", err)
	}
	m.paused = true
	m.logger.Debug("capture paused")
	return nil
}

// Resume restarts the capture stream after a Pause.
func (m *MicrophoneSource) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.paused || m.stream == nil {
		return nil
	}
	if err := m.stream.Start(); err != nil {
		return fmt.Errorf("restarting stream: %w", err)
	}
	m.paused = false
	m.logger.Debug("capture resumed")
	return nil
}

// ReadFrame blocks until one full buffer of samples is available and
// returns it as little-endian bytes, the layout the recognizer expects.
// While paused it returns an empty frame without touching the device.
func (m *MicrophoneSource) ReadFrame(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	m.mu.Lock()
	paused := m.paused
	m.mu.Unlock()
	if paused {
		return nil, nil
	}

	if err := m.stream.Read(); err != nil {
		return nil, fmt.Errorf("reading from stream: %w", err)
	}

	frame := make([]byte, len(m.samples)*2)
	for i, s := range m.samples {
		binary.LittleEndian.PutUint16(frame[i*2:], uint16(s))
	}
	return frame, nil
}

func (m *MicrophoneSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream != nil {
		m.stream.Stop()
		m.stream.Close()
		m.stream = nil
	}
	portaudio.Terminate()
	return nil
}
