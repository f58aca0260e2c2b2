package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fanbridge/config"
	"fanbridge/internal/application"
	"fanbridge/internal/infra/anthropic"
	"fanbridge/internal/infra/audio"
	"fanbridge/internal/infra/gemini"
	"fanbridge/internal/infra/httpapi"
	"fanbridge/internal/infra/openai"
	"fanbridge/internal/infra/pushover"
	"fanbridge/internal/infra/serial"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// .env is optional; config values reference its variables via ${VAR}.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	link := serial.NewLink(cfg.Serial.Port, cfg.Serial.Baud, logger)
	if err := link.Open(); err != nil {
		// The rest of the system keeps serving; recovery is POST /serial/retry.
		logger.Warn("starting without serial link", "error", err)
	}
	defer link.Close()

	generator := createGenerator(cfg, logger)
	timeout, err := time.ParseDuration(cfg.Classifier.Timeout)
	if err != nil {
		logger.Warn("invalid classifier timeout, using default", "value", cfg.Classifier.Timeout, "error", err)
		timeout = 15 * time.Second
	}

	pipeline := application.NewPipeline(
		application.NewMatcher(),
		application.NewClassifier(generator, timeout, logger),
		application.NewDispatcher(link, logger),
		logger,
	)

	stt := createSTT(cfg)

	server := httpapi.NewServer(cfg.HTTP.Addr, cfg.HTTP.AuthToken, pipeline, stt, link, logger)
	if err := server.Start(ctx); err != nil {
		logger.Error("starting HTTP server", "error", err)
		os.Exit(1)
	}
	defer server.Stop()

	var notifier application.Notifier
	if cfg.Pushover.Enabled {
		notifier = pushover.NewClient(cfg.Pushover.Token, cfg.Pushover.UserKey)
	} else {
		notifier = &application.NoopNotifier{}
	}

	logger.Info("fan bridge ready",
		"http_addr", cfg.HTTP.Addr,
		"serial_port", cfg.Serial.Port,
		"audio_source", cfg.Audio.Source,
	)

	if source := createAudioSource(cfg.Audio, logger); source != nil {
		listener := application.NewListener(source, stt, pipeline, notifier, logger)
		if err := listener.Run(ctx); err != nil && err != context.Canceled {
			logger.Error("listener error", "error", err)
			os.Exit(1)
		}
		return
	}

	<-ctx.Done()
}

func createGenerator(cfg *config.Config, logger *slog.Logger) application.TextGenerator {
	switch cfg.Classifier.Backend {
	case "claude":
		return anthropic.NewClaudeClient(cfg.Anthropic.APIKey, cfg.Anthropic.Model)
	case "gemini":
		return gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model)
	default:
		logger.Warn("unknown classifier backend, using gemini", "backend", cfg.Classifier.Backend)
		return gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model)
	}
}

func createSTT(cfg *config.Config) application.SpeechToText {
	switch cfg.STT.Backend {
	case "whisper":
		return openai.NewWhisperClient(cfg.OpenAI.APIKey, cfg.OpenAI.Language)
	case "gemini":
		return gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model)
	default:
		return &application.NoopSTT{}
	}
}

func createAudioSource(cfg config.AudioConfig, logger *slog.Logger) application.AudioSource {
	switch cfg.Source {
	case "microphone":
		return audio.NewMicrophoneSource(cfg.SampleRate, logger)
	case "file":
		return audio.NewFileSource(cfg.FileDir)
	default:
		return nil
	}
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
