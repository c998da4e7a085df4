package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Easiofy-Anant/voice-assistant/internal/domain"
)

// UtteranceSource yields finalized utterances one at a time. Next blocks
// until the recognizer endpoints on speech; Reset drops recognizer state
// buffered before capture was last suspended.
type UtteranceSource interface {
	Next(ctx context.Context) (domain.Utterance, error)
	Reset()
}

// Verdicter rules on whether an utterance is clear enough to answer.
type Verdicter interface {
	Classify(text string) domain.Verdict
}

// Answerer resolves a clear utterance to a stored answer.
type Answerer interface {
	Retrieve(ctx context.Context, text string) (domain.RetrievalResult, error)
}

// SpeechOutput speaks a reply to completion before returning.
type SpeechOutput interface {
	Speak(ctx context.Context, text string) error
	IsSpeaking() bool
}

// Prompts are the fixed responses the loop speaks on its own behalf.
type Prompts struct {
	Greeting      string
	Clarification string
	Fallback      string
}

// Assistant drives the listen -> recognize -> classify -> retrieve -> speak
// cycle. One utterance is fully resolved before the next is accepted; there
// is no queue and no overlapping in-flight work. Capture is suspended at the
// device level whenever the state is not Listening, so playback can never
// reach the recognizer.
type Assistant struct {
	capture    FrameSource
	utterances UtteranceSource
	classifier Verdicter
	retriever  Answerer
	speaker    SpeechOutput
	prompts    Prompts
	settle     time.Duration
	logger     *slog.Logger

	state atomic.Int32
}

func NewAssistant(
	capture FrameSource,
	utterances UtteranceSource,
	classifier Verdicter,
	retriever Answerer,
	speaker SpeechOutput,
	prompts Prompts,
	settle time.Duration,
	logger *slog.Logger,
) *Assistant {
	return &Assistant{
		capture:    capture,
		utterances: utterances,
		classifier: classifier,
		retriever:  retriever,
		speaker:    speaker,
		prompts:    prompts,
		settle:     settle,
		logger:     logger,
	}
}

// State reports the current phase of the dialogue. Mutated only by Run.
func (a *Assistant) State() domain.DialogueState {
	return domain.DialogueState(a.state.Load())
}

func (a *Assistant) setState(s domain.DialogueState) {
	a.state.Store(int32(s))
	a.logger.Debug("state", "state", s.String())
}

// Run executes the dialogue loop until ctx is cancelled. The greeting is a
// Speaking episode that precedes the first Listening phase; capture does not
// open until the greeting has played out. Every error inside the steady
// state is logged and absorbed: only cancellation ends the loop.
func (a *Assistant) Run(ctx context.Context) error {
	defer a.setState(domain.StateIdle)

	a.setState(domain.StateSpeaking)
	a.say(ctx, a.prompts.Greeting)
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := a.capture.Start(ctx); err != nil {
		return fmt.Errorf("starting audio capture: %w", err)
	}
	defer a.capture.Close()

	a.logger.Info("assistant ready", "source", a.capture.Name())

	for {
		a.setState(domain.StateListening)

		utt, err := a.utterances.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			a.logger.Error("waiting for utterance", "error", err)
			continue
		}

		if err := a.capture.Pause(); err != nil {
			a.logger.Error("pausing capture", "error", err)
		}

		a.setState(domain.StateProcessing)
		a.logger.Info("heard", "text", utt.Text)
		reply := a.resolve(ctx, utt)

		a.setState(domain.StateSpeaking)
		a.say(ctx, reply)

		// Let the playback tail drain out of the room before the
		// microphone reopens.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(a.settle):
		}

		a.utterances.Reset()
		if err := a.capture.Resume(); err != nil {
			a.logger.Error("resuming capture", "error", err)
		}
	}
}

// resolve turns an utterance into the text to speak back. Garbled input
// short-circuits to the clarification prompt and never touches retrieval: a
// noise query would otherwise find a spuriously confident nearest neighbor.
func (a *Assistant) resolve(ctx context.Context, utt domain.Utterance) string {
	if a.classifier.Classify(utt.Text) == domain.VerdictGarbled {
		a.logger.Info("utterance garbled, asking to repeat", "text", utt.Text)
		return a.prompts.Clarification
	}

	res, err := a.retriever.Retrieve(ctx, utt.Text)
	if err != nil {
		if errors.Is(err, domain.ErrNoMatch) {
			a.logger.Info("no confident match", "text", utt.Text)
		} else {
			a.logger.Error("retrieving answer", "error", err)
		}
		return a.prompts.Fallback
	}

	a.logger.Info("answer found",
		"question", res.MatchedQuestion,
		"score", res.Score,
	)
	return res.Answer
}

// say speaks text and absorbs failures: a missed response is preferable to
// a crashed session.
func (a *Assistant) say(ctx context.Context, text string) {
	if err := a.speaker.Speak(ctx, text); err != nil {
		a.logger.Error("speaking reply", "error", err, "text", text)
	}
}
