package application

import (
	"context"
	"fmt"
	"log/slog"
)

// Listener drives the standalone voice loop: pull a clip from the audio
// source, transcribe it, run the pipeline, report the outcome. The HTTP
// front door uses the same pipeline directly and does not go through here.
type Listener struct {
	source   AudioSource
	stt      SpeechToText
	pipeline *Pipeline
	notifier Notifier
	logger   *slog.Logger
}

func NewListener(source AudioSource, stt SpeechToText, pipeline *Pipeline, notifier Notifier, logger *slog.Logger) *Listener {
	return &Listener{
		source:   source,
		stt:      stt,
		pipeline: pipeline,
		notifier: notifier,
		logger:   logger,
	}
}

func (l *Listener) Run(ctx context.Context) error {
	l.logger.Info("starting audio source", "source", l.source.Name())
	if err := l.source.Start(ctx); err != nil {
		return fmt.Errorf("starting audio source: %w", err)
	}
	defer l.source.Stop()

	l.logger.Info("listener ready")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := l.processOneClip(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				l.logger.Error("processing clip", "error", err)
			}
		}
	}
}

func (l *Listener) processOneClip(ctx context.Context) error {
	clip, mime, err := l.source.NextClip(ctx)
	if err != nil {
		return fmt.Errorf("getting clip: %w", err)
	}
	if len(clip) == 0 {
		return nil
	}

	l.logger.Info("received clip", "bytes", len(clip), "mime", mime)

	text, err := l.stt.Transcribe(ctx, clip, mime)
	if err != nil {
		return fmt.Errorf("transcribing: %w", err)
	}
	l.logger.Info("transcribed", "text", text)

	res, err := l.pipeline.Process(ctx, text)
	if err != nil {
		if notifyErr := l.notifier.Notify(ctx, fmt.Sprintf("Error: %s", err.Error())); notifyErr != nil {
			l.logger.Error("notifying error", "error", notifyErr)
		}
		return err
	}

	if err := l.notifier.Notify(ctx, outcomeMessage(res)); err != nil {
		l.logger.Error("notifying result", "error", err)
	}
	return nil
}

func outcomeMessage(res *Result) string {
	if res.Final == nil {
		return fmt.Sprintf("No command recognized in %q", res.Advisory.OriginalText)
	}
	if !res.Sent {
		return fmt.Sprintf("Command '%s' not sent, fan link is down", res.Final)
	}
	return fmt.Sprintf("Command '%s' sent", res.Final)
}
