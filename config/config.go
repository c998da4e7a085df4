package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Audio      AudioConfig      `yaml:"audio"`
	Recognizer RecognizerConfig `yaml:"recognizer"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	TTS        TTSConfig        `yaml:"tts"`
	Index      IndexConfig      `yaml:"index"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Speech     SpeechConfig     `yaml:"speech"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Log        LogConfig        `yaml:"log"`
}

type AudioConfig struct {
	Source          string `yaml:"source"`
	SampleRate      int    `yaml:"sample_rate"`
	FramesPerBuffer int    `yaml:"frames_per_buffer"`
	FileDir         string `yaml:"file_dir"`
	SettleDelay     string `yaml:"settle_delay"`
}

// SettleDuration parses the configured settle delay, falling back to 500ms
// when unset or malformed.
func (c AudioConfig) SettleDuration() time.Duration {
	d, err := time.ParseDuration(c.SettleDelay)
	if err != nil || d < 0 {
		return 500 * time.Millisecond
	}
	return d
}

type RecognizerConfig struct {
	ModelPath string `yaml:"model_path"`
}

type OpenAIConfig struct {
	APIKey         string `yaml:"api_key"`
	EmbeddingModel string `yaml:"embedding_model"`
}

type TTSConfig struct {
	Voice  string `yaml:"voice"`
	Format string `yaml:"format"`
}

type IndexConfig struct {
	Path string `yaml:"path"`
}

type RetrievalConfig struct {
	MinScore float64 `yaml:"min_score"`
}

type ClassifierConfig struct {
	MinWords    int      `yaml:"min_words"`
	NoiseTokens []string `yaml:"noise_tokens"`
}

type SpeechConfig struct {
	Greeting      string `yaml:"greeting"`
	Clarification string `yaml:"clarification"`
	Fallback      string `yaml:"fallback"`
}

type IngestConfig struct {
	Workbook string `yaml:"workbook"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Audio.Source == "" {
		c.Audio.Source = "microphone"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.FramesPerBuffer == 0 {
		c.Audio.FramesPerBuffer = 8000
	}
	if c.Audio.FileDir == "" {
		c.Audio.FileDir = "./audio"
	}
	if c.Audio.SettleDelay == "" {
		c.Audio.SettleDelay = "500ms"
	}
	if c.Recognizer.ModelPath == "" {
		c.Recognizer.ModelPath = "./models/vosk-model-small-en-us-0.15"
	}
	if c.OpenAI.EmbeddingModel == "" {
		c.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if c.TTS.Voice == "" {
		c.TTS.Voice = "en-US-JennyNeural"
	}
	if c.TTS.Format == "" {
		c.TTS.Format = "audio-24khz-48kbitrate-mono-mp3"
	}
	if c.Index.Path == "" {
		c.Index.Path = "./data/index.db"
	}
	if c.Retrieval.MinScore == 0 {
		c.Retrieval.MinScore = 0.45
	}
	if c.Classifier.MinWords == 0 {
		c.Classifier.MinWords = 2
	}
	if c.Speech.Greeting == "" {
		c.Speech.Greeting = "Hello! I'm your Bigship voice assistant. How can I help you today?"
	}
	if c.Speech.Clarification == "" {
		c.Speech.Clarification = "I didn't quite catch that, could you repeat?"
	}
	if c.Speech.Fallback == "" {
		c.Speech.Fallback = "I don't have information on that yet."
	}
	if c.Ingest.Workbook == "" {
		c.Ingest.Workbook = "./data/bigship_qna.xlsx"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}
