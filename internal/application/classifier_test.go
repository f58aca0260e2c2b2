package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"fanbridge/internal/application"
	"fanbridge/internal/domain"
)

type fakeGenerator struct {
	reply string
	err   error
	block bool // wait for ctx cancellation instead of answering
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseConstrainedReply_Vocabulary(t *testing.T) {
	on := application.ParseConstrainedReply("fan on")
	if on == nil || on.Action != domain.ActionOn || on.Device != domain.DeviceFan {
		t.Errorf("fan on: got %+v", on)
	}

	off := application.ParseConstrainedReply("fan off")
	if off == nil || off.Action != domain.ActionOff {
		t.Errorf("fan off: got %+v", off)
	}

	for n := 1; n <= 5; n++ {
		got := application.ParseConstrainedReply("fan speed " + string(rune('0'+n)))
		if got == nil || got.Action != domain.ActionSpeed || got.Value != n {
			t.Errorf("fan speed %d: got %+v", n, got)
		}
	}
}

func TestParseConstrainedReply_Normalization(t *testing.T) {
	for _, reply := range []string{"FAN ON", "  fan on\n", "\tFan On  "} {
		got := application.ParseConstrainedReply(reply)
		if got == nil || got.Action != domain.ActionOn {
			t.Errorf("%q: got %+v, want fan on", reply, got)
		}
	}
}

func TestParseConstrainedReply_RejectsEverythingElse(t *testing.T) {
	rejects := []string{
		"",
		"fan",
		"fan speed",
		"fan speed 0",
		"fan speed 6",
		"fan speed 10",
		"fan speed three",
		"the fan is now on",
		"fan on please",
		"lights on",
		"fan speed 3 now",
	}

	for _, reply := range rejects {
		if got := application.ParseConstrainedReply(reply); got != nil {
			t.Errorf("%q: got %+v, want nil", reply, got)
		}
	}
}

func TestBuildPrompt_ContainsVocabularyAndDefault(t *testing.T) {
	prompt := application.BuildPrompt("what's the weather", "no rule matched this request")

	for _, want := range []string{"fan on", "fan off", "fan speed 5", "what's the weather", "no rule matched"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestClassifier_PropagatesGeneratorError(t *testing.T) {
	genErr := errors.New("quota exceeded")
	c := application.NewClassifier(&fakeGenerator{err: genErr}, time.Second, discardLogger())

	_, err := c.Classify(context.Background(), "fan on", "")
	if !errors.Is(err, genErr) {
		t.Errorf("got %v, want wrapped generator error", err)
	}
}

func TestClassifier_TimesOut(t *testing.T) {
	c := application.NewClassifier(&fakeGenerator{block: true}, 20*time.Millisecond, discardLogger())

	start := time.Now()
	_, err := c.Classify(context.Background(), "fan on", "")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("timeout took too long: %v", elapsed)
	}
}
