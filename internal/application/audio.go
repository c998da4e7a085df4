package application

import "context"

// FrameSource delivers fixed-size PCM frames from an audio input. Pause
// suspends capture at the device level, not merely in software: between
// Pause and Resume nothing the assistant plays can reach the recognizer.
type FrameSource interface {
	Start(ctx context.Context) error
	Pause() error
	Resume() error
	ReadFrame(ctx context.Context) ([]byte, error)
	Close() error
	Name() string
}

// Player plays a decodable audio buffer held in memory to completion.
type Player interface {
	Play(ctx context.Context, audio []byte) error
}
