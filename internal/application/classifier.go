package application

import (
	"strings"
	"unicode"

	"github.com/Easiofy-Anant/voice-assistant/internal/domain"
)

// ClassifierConfig tunes the garbled-speech heuristics. Both knobs are
// injectable so the tables can be adjusted without code changes.
type ClassifierConfig struct {
	MinWords    int
	NoiseTokens []string
}

func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		MinWords: 2,
		NoiseTokens: []string{
			"uh", "um", "umm", "hmm", "hm", "mm", "ah", "eh", "huh",
			// phrases the offline recognizer tends to hallucinate from noise
			"murder", "oh i see", "that is", "of and that",
		},
	}
}

// Classifier flags utterances too short or noisy to answer confidently.
// A garbled verdict keeps the text away from retrieval entirely.
type Classifier struct {
	minWords int
	tokens   map[string]struct{}
	phrases  []string
}

func NewClassifier(cfg ClassifierConfig) *Classifier {
	c := &Classifier{
		minWords: cfg.MinWords,
		tokens:   make(map[string]struct{}, len(cfg.NoiseTokens)),
	}
	if c.minWords <= 0 {
		c.minWords = 2
	}
	for _, t := range cfg.NoiseTokens {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if strings.Contains(t, " ") {
			c.phrases = append(c.phrases, t)
			continue
		}
		c.tokens[t] = struct{}{}
	}
	return c
}

// Classify is a pure function of the utterance text and the configured
// tables.
func (c *Classifier) Classify(text string) domain.Verdict {
	norm := strings.ToLower(strings.TrimSpace(text))
	if norm == "" {
		return domain.VerdictGarbled
	}

	if !containsAlphabetic(norm) {
		return domain.VerdictGarbled
	}

	words := strings.Fields(norm)
	if len(words) < c.minWords {
		return domain.VerdictGarbled
	}

	for _, p := range c.phrases {
		if strings.Contains(norm, p) {
			return domain.VerdictGarbled
		}
	}

	noisy := 0
	for _, w := range words {
		if c.isNoise(w) {
			noisy++
		}
	}
	if noisy*2 > len(words) {
		return domain.VerdictGarbled
	}

	return domain.VerdictClear
}

func (c *Classifier) isNoise(word string) bool {
	word = strings.Trim(word, ".,!?;:")
	if _, ok := c.tokens[word]; ok {
		return true
	}
	return isRepeatedRune(word)
}

// isRepeatedRune catches stutter artifacts like "aaaa" that the recognizer
// emits from hums and feedback.
func isRepeatedRune(word string) bool {
	runes := []rune(word)
	if len(runes) < 2 {
		return false
	}
	for _, r := range runes[1:] {
		if r != runes[0] {
			return false
		}
	}
	return true
}

func containsAlphabetic(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
