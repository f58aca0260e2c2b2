package application

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"fanbridge/internal/domain"
)

// TextGenerator is the external constrained text-generation collaborator.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// SpeechToText converts an audio clip to plain text.
type SpeechToText interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// NoopSTT is used when no transcription backend is configured; text-only
// deployments never call it.
type NoopSTT struct{}

func (n *NoopSTT) Transcribe(_ context.Context, _ []byte, _ string) (string, error) {
	return "", fmt.Errorf("speech-to-text not configured: set gemini.api_key or openai.api_key")
}

// Classifier asks the generator to map arbitrary text onto the fixed command
// vocabulary. The generator's reply is authoritative; the prompt is the first
// safety gate, the reply parser the second.
type Classifier struct {
	gen     TextGenerator
	timeout time.Duration
	logger  *slog.Logger
}

func NewClassifier(gen TextGenerator, timeout time.Duration, logger *slog.Logger) *Classifier {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Classifier{gen: gen, timeout: timeout, logger: logger}
}

// Classify returns the generator's raw reply line. Transport, quota, and
// timeout failures surface as errors; they are never turned into commands.
func (c *Classifier) Classify(ctx context.Context, text, contextNote string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reply, err := c.gen.Generate(ctx, BuildPrompt(text, contextNote))
	if err != nil {
		return "", fmt.Errorf("classifying %q: %w", text, err)
	}

	c.logger.Debug("classifier reply", "text", text, "reply", reply)
	return reply, nil
}

// BuildPrompt constrains the generator to the exact output vocabulary.
// Everything that is not a fan command maps to "fan off"; that default is a
// preserved product decision, enforced here and nowhere else.
func BuildPrompt(text, contextNote string) string {
	prompt := `You control a single fan. Map the user's request to EXACTLY ONE of these lines and reply with that line only, nothing else:

fan on
fan off
fan speed 1
fan speed 2
fan speed 3
fan speed 4
fan speed 5

Rules:
- Reply with one line from the list above, no punctuation, no explanation.
- Requests about anything else (lights, weather, chat) must reply "fan off".
- A speed outside 1 to 5 must reply "fan off".`

	if contextNote != "" {
		prompt += fmt.Sprintf("\n\nHint from the rule matcher: %s", contextNote)
	}

	return prompt + fmt.Sprintf("\n\nUser request: %s", text)
}

var speedReply = regexp.MustCompile(`^fan speed (\d+)$`)

// ParseConstrainedReply maps a generator reply back onto the command
// vocabulary. Comparison is case-insensitive and whitespace-trimmed; anything
// outside the grammar yields nil, never a partial command.
func ParseConstrainedReply(line string) *domain.FinalCommand {
	normalized := strings.ToLower(strings.TrimSpace(line))

	switch normalized {
	case "fan on":
		return &domain.FinalCommand{Device: domain.DeviceFan, Action: domain.ActionOn}
	case "fan off":
		return &domain.FinalCommand{Device: domain.DeviceFan, Action: domain.ActionOff}
	}

	groups := speedReply.FindStringSubmatch(normalized)
	if groups == nil {
		return nil
	}
	value, err := strconv.Atoi(groups[1])
	if err != nil || value < domain.SpeedMin || value > domain.SpeedMax {
		return nil
	}
	return &domain.FinalCommand{Device: domain.DeviceFan, Action: domain.ActionSpeed, Value: value}
}
