package application

import (
	"regexp"
	"strconv"
	"strings"

	"fanbridge/internal/domain"
)

// rule is one declarative matcher entry: a phrase pattern and the command it
// implies. Rules are evaluated in order; the first hit wins.
type rule struct {
	pattern    *regexp.Regexp
	device     domain.Device
	action     domain.Action
	confidence domain.Confidence
	captures   bool // pattern captures a speed value
}

// Matcher is the deterministic, rule-driven intent classifier. Its output is
// advisory only: it never reaches the device, it enriches logs and the
// classifier prompt.
type Matcher struct {
	rules []rule
}

func NewMatcher() *Matcher {
	return &Matcher{rules: []rule{
		{
			pattern: regexp.MustCompile(
				`\bfan on\b|\bturn (?:the )?fan on\b|\bturn on (?:the )?fan\b|\bstart (?:the )?fan\b|\bswitch on (?:the )?fan\b`),
			device:     domain.DeviceFan,
			action:     domain.ActionOn,
			confidence: domain.ConfidenceHigh,
		},
		{
			pattern: regexp.MustCompile(
				`\bfan off\b|\bturn (?:the )?fan off\b|\bturn off (?:the )?fan\b|\bstop (?:the )?fan\b|\bswitch off (?:the )?fan\b`),
			device:     domain.DeviceFan,
			action:     domain.ActionOff,
			confidence: domain.ConfidenceHigh,
		},
		{
			// Either an optional "set" lead-in around "fan", or the literal
			// prefix "speed N". A bare "speed" elsewhere ("wind speed 120")
			// is not a fan command.
			pattern: regexp.MustCompile(
				`\b(?:set (?:the )?)?fan(?: speed)?(?: to)? (\d+)\b|^speed (\d+)\b`),
			device:     domain.DeviceFan,
			action:     domain.ActionSpeed,
			confidence: domain.ConfidenceHigh,
			captures:   true,
		},
		// Lights are recognized but not wired to hardware yet, hence medium.
		{
			pattern: regexp.MustCompile(
				`\blights? on\b|\bturn (?:the )?lights? on\b|\bturn on (?:the )?lights?\b|\bswitch on (?:the )?lights?\b`),
			device:     domain.DeviceLights,
			action:     domain.ActionOn,
			confidence: domain.ConfidenceMedium,
		},
		{
			pattern: regexp.MustCompile(
				`\blights? off\b|\bturn (?:the )?lights? off\b|\bturn off (?:the )?lights?\b|\bswitch off (?:the )?lights?\b`),
			device:     domain.DeviceLights,
			action:     domain.ActionOff,
			confidence: domain.ConfidenceMedium,
		},
	}}
}

// Match classifies text. It is total: input that matches nothing yields
// {unknown, general, low} rather than an error.
func (m *Matcher) Match(text string) domain.ParsedCommand {
	normalized := strings.ToLower(strings.TrimSpace(text))

	for _, r := range m.rules {
		groups := r.pattern.FindStringSubmatch(normalized)
		if groups == nil {
			continue
		}

		if !r.captures {
			return domain.ParsedCommand{
				Device:       r.device,
				Action:       r.action,
				Confidence:   r.confidence,
				OriginalText: text,
			}
		}

		value, ok := firstCapturedInt(groups)
		if !ok || value < domain.SpeedMin || value > domain.SpeedMax {
			// Out-of-range speed is "no match" for this rule, not an error.
			continue
		}
		return domain.ParsedCommand{
			Device:       r.device,
			Action:       r.action,
			Value:        value,
			Confidence:   r.confidence,
			OriginalText: text,
		}
	}

	return domain.ParsedCommand{
		Device:       domain.DeviceUnknown,
		Action:       domain.ActionGeneral,
		Confidence:   domain.ConfidenceLow,
		OriginalText: text,
	}
}

func firstCapturedInt(groups []string) (int, bool) {
	for _, g := range groups[1:] {
		if g == "" {
			continue
		}
		value, err := strconv.Atoi(g)
		if err != nil {
			return 0, false
		}
		return value, true
	}
	return 0, false
}
