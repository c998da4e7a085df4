package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Easiofy-Anant/voice-assistant/internal/application"
	"github.com/Easiofy-Anant/voice-assistant/internal/domain"
)

var testPrompts = application.Prompts{
	Greeting:      "greeting",
	Clarification: "could you repeat?",
	Fallback:      "no information yet",
}

type fakeCapture struct {
	mu      sync.Mutex
	active  bool
	pauses  int
	resumes int
}

func (f *fakeCapture) Name() string { return "fake" }

func (f *fakeCapture) Start(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = true
	return nil
}

func (f *fakeCapture) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = false
	f.pauses++
	return nil
}

func (f *fakeCapture) Resume() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = true
	f.resumes++
	return nil
}

func (f *fakeCapture) ReadFrame(_ context.Context) ([]byte, error) { return nil, nil }
func (f *fakeCapture) Close() error                                { return nil }

func (f *fakeCapture) isActive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

type scriptedUtterances struct {
	mu     sync.Mutex
	texts  []string
	index  int
	resets int
}

func (s *scriptedUtterances) Next(ctx context.Context) (domain.Utterance, error) {
	s.mu.Lock()
	if s.index < len(s.texts) {
		text := s.texts[s.index]
		s.index++
		s.mu.Unlock()
		return domain.Utterance{Text: text, Heard: time.Now()}, nil
	}
	s.mu.Unlock()
	<-ctx.Done()
	return domain.Utterance{}, ctx.Err()
}

func (s *scriptedUtterances) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
}

type countingRetriever struct {
	mu      sync.Mutex
	calls   int
	answers map[string]domain.RetrievalResult
	err     error
}

func (c *countingRetriever) Retrieve(_ context.Context, text string) (domain.RetrievalResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return domain.RetrievalResult{}, c.err
	}
	if res, ok := c.answers[text]; ok {
		return res, nil
	}
	return domain.RetrievalResult{}, domain.ErrNoMatch
}

func (c *countingRetriever) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type recordingSpeaker struct {
	mu       sync.Mutex
	spoken   []string
	err      error
	capture  *fakeCapture
	overlap  bool
	done     chan struct{}
	expected int

	// blockFrom makes Speak hang on ctx from the n-th call onward,
	// simulating playback that only ends when shutdown aborts it.
	blockFrom int
}

func (r *recordingSpeaker) Speak(ctx context.Context, text string) error {
	r.mu.Lock()
	if r.capture != nil && r.capture.isActive() {
		r.overlap = true
	}
	r.spoken = append(r.spoken, text)
	count := len(r.spoken)
	r.mu.Unlock()

	if r.done != nil && count == r.expected {
		close(r.done)
	}
	if r.blockFrom > 0 && count >= r.blockFrom {
		<-ctx.Done()
		return ctx.Err()
	}
	return r.err
}

func (r *recordingSpeaker) IsSpeaking() bool { return false }

func (r *recordingSpeaker) texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.spoken...)
}

func newTestAssistant(
	capture *fakeCapture,
	utterances application.UtteranceSource,
	retriever application.Answerer,
	speaker application.SpeechOutput,
) *application.Assistant {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return application.NewAssistant(
		capture,
		utterances,
		application.NewClassifier(application.DefaultClassifierConfig()),
		retriever,
		speaker,
		testPrompts,
		time.Millisecond,
		logger,
	)
}

func waitOrFail(t *testing.T, done chan struct{}, msg string) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal(msg)
	}
}

func TestAssistant_AnswersClearUtterance(t *testing.T) {
	capture := &fakeCapture{}
	utterances := &scriptedUtterances{texts: []string{"what is bigship"}}
	retriever := &countingRetriever{
		answers: map[string]domain.RetrievalResult{
			"what is bigship": {
				Answer:          "Bigship is a logistics platform.",
				Score:           0.91,
				MatchedQuestion: "What is Bigship?",
			},
		},
	}
	done := make(chan struct{})
	speaker := &recordingSpeaker{done: done, expected: 2} // greeting + answer

	assistant := newTestAssistant(capture, utterances, retriever, speaker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = assistant.Run(ctx) }()

	waitOrFail(t, done, "timeout waiting for answer to be spoken")
	cancel()

	spoken := speaker.texts()
	if spoken[0] != testPrompts.Greeting {
		t.Errorf("first spoken text should be the greeting, got %q", spoken[0])
	}
	if spoken[1] != "Bigship is a logistics platform." {
		t.Errorf("expected stored answer, got %q", spoken[1])
	}
	if retriever.callCount() != 1 {
		t.Errorf("expected 1 retrieval, got %d", retriever.callCount())
	}
}

func TestAssistant_GarbledNeverReachesRetriever(t *testing.T) {
	capture := &fakeCapture{}
	utterances := &scriptedUtterances{texts: []string{"uh"}}
	retriever := &countingRetriever{}
	done := make(chan struct{})
	speaker := &recordingSpeaker{done: done, expected: 2}

	assistant := newTestAssistant(capture, utterances, retriever, speaker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = assistant.Run(ctx) }()

	waitOrFail(t, done, "timeout waiting for clarification")
	cancel()

	if retriever.callCount() != 0 {
		t.Errorf("retriever must never see garbled input, got %d calls", retriever.callCount())
	}
	spoken := speaker.texts()
	if spoken[1] != testPrompts.Clarification {
		t.Errorf("expected clarification prompt, got %q", spoken[1])
	}
}

func TestAssistant_NoMatchSpeaksFallback(t *testing.T) {
	capture := &fakeCapture{}
	utterances := &scriptedUtterances{texts: []string{"tell me about quantum physics"}}
	retriever := &countingRetriever{err: domain.ErrNoMatch}
	done := make(chan struct{})
	speaker := &recordingSpeaker{done: done, expected: 2}

	assistant := newTestAssistant(capture, utterances, retriever, speaker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = assistant.Run(ctx) }()

	waitOrFail(t, done, "timeout waiting for fallback")
	cancel()

	spoken := speaker.texts()
	if spoken[1] != testPrompts.Fallback {
		t.Errorf("expected fallback response, got %q", spoken[1])
	}
}

func TestAssistant_SpeechFailureKeepsLooping(t *testing.T) {
	capture := &fakeCapture{}
	utterances := &scriptedUtterances{texts: []string{"first question", "second question"}}
	retriever := &countingRetriever{
		answers: map[string]domain.RetrievalResult{
			"first question":  {Answer: "a1", Score: 0.9},
			"second question": {Answer: "a2", Score: 0.9},
		},
	}
	done := make(chan struct{})
	speaker := &recordingSpeaker{done: done, expected: 3, err: errors.New("tts unreachable")}

	assistant := newTestAssistant(capture, utterances, retriever, speaker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- assistant.Run(ctx) }()

	waitOrFail(t, done, "loop did not survive speech failures")
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run should only end on cancellation, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	if retriever.callCount() != 2 {
		t.Errorf("expected both utterances resolved, got %d retrievals", retriever.callCount())
	}
}

func TestAssistant_CaptureSuspendedWhileSpeaking(t *testing.T) {
	capture := &fakeCapture{}
	utterances := &scriptedUtterances{texts: []string{"what is bigship", "how do i ship"}}
	retriever := &countingRetriever{
		answers: map[string]domain.RetrievalResult{
			"what is bigship": {Answer: "a1", Score: 0.9},
			"how do i ship":   {Answer: "a2", Score: 0.9},
		},
	}
	done := make(chan struct{})
	speaker := &recordingSpeaker{done: done, expected: 3, capture: capture}

	assistant := newTestAssistant(capture, utterances, retriever, speaker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = assistant.Run(ctx) }()

	waitOrFail(t, done, "timeout waiting for replies")
	cancel()

	if speaker.overlap {
		t.Error("capture was active during playback")
	}
	if capture.pauses < 2 {
		t.Errorf("expected capture paused per utterance, got %d pauses", capture.pauses)
	}
	if capture.resumes < 1 {
		t.Error("capture was never resumed after speaking")
	}
	if utterances.resets < 1 {
		t.Error("recognizer was never reset after speaking")
	}
}

func TestAssistant_ShutdownDuringSpeaking(t *testing.T) {
	capture := &fakeCapture{}
	utterances := &scriptedUtterances{texts: []string{"what is bigship"}}
	retriever := &countingRetriever{
		answers: map[string]domain.RetrievalResult{
			"what is bigship": {Answer: "a1", Score: 0.9},
		},
	}
	done := make(chan struct{})
	speaker := &recordingSpeaker{done: done, expected: 2, blockFrom: 2}

	assistant := newTestAssistant(capture, utterances, retriever, speaker)

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- assistant.Run(ctx) }()

	waitOrFail(t, done, "timeout waiting for speak to start")
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown deadlocked while speaking")
	}

	if assistant.State() != domain.StateIdle {
		t.Errorf("expected Idle after shutdown, got %s", assistant.State())
	}
}
