package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Easiofy-Anant/voice-assistant/config"
	"github.com/Easiofy-Anant/voice-assistant/internal/application"
	"github.com/Easiofy-Anant/voice-assistant/internal/infra/audio"
	"github.com/Easiofy-Anant/voice-assistant/internal/infra/edgetts"
	"github.com/Easiofy-Anant/voice-assistant/internal/infra/index"
	"github.com/Easiofy-Anant/voice-assistant/internal/infra/openai"
	"github.com/Easiofy-Anant/voice-assistant/internal/infra/vosk"
	"github.com/Easiofy-Anant/voice-assistant/internal/ingest"
)

func main() {
	// Best effort: lets ${OPENAI_API_KEY} references in config.yaml
	// resolve during local development.
	_ = godotenv.Load()

	var configPath string
	var watch bool

	rootCmd := &cobra.Command{
		Use:          "assistant",
		Short:        "Bigship voice assistant",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config file")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the voice dialogue loop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath)
		},
	}

	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load the Q&A workbook into the knowledge index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIngest(cmd.Context(), configPath, watch)
		},
	}
	ingestCmd.Flags().BoolVar(&watch, "watch", false, "keep running and re-ingest when the workbook changes")

	rootCmd.AddCommand(runCmd, ingestCmd)

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "run")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Log)

	recognizer, err := vosk.NewRecognizer(cfg.Recognizer.ModelPath, cfg.Audio.SampleRate, logger)
	if err != nil {
		return fmt.Errorf("recognizer unavailable: %w", err)
	}
	defer recognizer.Close()

	embedder, err := openai.NewEmbedder(cfg.OpenAI.APIKey, cfg.OpenAI.EmbeddingModel)
	if err != nil {
		return fmt.Errorf("embedder unavailable: %w", err)
	}

	idx, err := index.Open(cfg.Index.Path)
	if err != nil {
		return fmt.Errorf("knowledge index unavailable: %w", err)
	}
	defer idx.Close()

	if count, err := idx.Count(ctx); err != nil {
		return fmt.Errorf("checking knowledge index: %w", err)
	} else if count == 0 {
		logger.Warn("knowledge index is empty, every query will get the fallback response",
			"hint", "run `assistant ingest` first")
	}

	capture := createFrameSource(cfg.Audio, logger)
	segmenter := application.NewSegmenter(capture, recognizer, logger)
	classifier := application.NewClassifier(classifierConfig(cfg))
	retriever := application.NewRetriever(embedder, idx, cfg.Retrieval.MinScore, logger)

	synth := edgetts.NewClient(cfg.TTS.Voice, cfg.TTS.Format, logger)
	player := audio.NewBeepPlayer(logger)
	speaker := application.NewSpeaker(synth, player, logger)

	assistant := application.NewAssistant(
		capture,
		segmenter,
		classifier,
		retriever,
		speaker,
		application.Prompts{
			Greeting:      cfg.Speech.Greeting,
			Clarification: cfg.Speech.Clarification,
			Fallback:      cfg.Speech.Fallback,
		},
		cfg.Audio.SettleDuration(),
		logger,
	)

	logger.Info("starting voice assistant",
		"audio_source", cfg.Audio.Source,
		"voice", cfg.TTS.Voice,
	)
	return assistant.Run(ctx)
}

func runIngest(ctx context.Context, configPath string, watch bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Log)

	embedder, err := openai.NewEmbedder(cfg.OpenAI.APIKey, cfg.OpenAI.EmbeddingModel)
	if err != nil {
		return fmt.Errorf("embedder unavailable: %w", err)
	}

	idx, err := index.Open(cfg.Index.Path)
	if err != nil {
		return fmt.Errorf("knowledge index unavailable: %w", err)
	}
	defer idx.Close()

	ingestor := ingest.NewIngestor(embedder, idx, logger)
	if err := ingestor.Run(ctx, cfg.Ingest.Workbook); err != nil {
		return err
	}

	if watch {
		return ingest.Watch(ctx, ingestor, cfg.Ingest.Workbook, logger)
	}
	return nil
}

func createFrameSource(cfg config.AudioConfig, logger *slog.Logger) application.FrameSource {
	switch cfg.Source {
	case "file":
		return audio.NewFileSource(cfg.FileDir, cfg.FramesPerBuffer)
	case "microphone":
		return audio.NewMicrophoneSource(cfg.SampleRate, cfg.FramesPerBuffer, logger)
	default:
		logger.Warn("unknown audio source, using microphone", "source", cfg.Source)
		return audio.NewMicrophoneSource(cfg.SampleRate, cfg.FramesPerBuffer, logger)
	}
}

func classifierConfig(cfg *config.Config) application.ClassifierConfig {
	cc := application.DefaultClassifierConfig()
	if cfg.Classifier.MinWords > 0 {
		cc.MinWords = cfg.Classifier.MinWords
	}
	if len(cfg.Classifier.NoiseTokens) > 0 {
		cc.NoiseTokens = cfg.Classifier.NoiseTokens
	}
	return cc
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
