// Package conversation turns typed commands into intents and prints
// alarm notifications to the terminal.
package conversation

import (
	"context"
	"regexp"
	"strings"

	"github.com/hammamikhairi/napflow/internal/domain"
	"github.com/hammamikhairi/napflow/internal/logger"
)

// Compile-time interface check.
var _ domain.IntentParser = (*KeywordParser)(nil)

// KeywordParser matches user input to intents using keywords and simple patterns.
type KeywordParser struct {
	log      *logger.Logger
	patterns []patternRule
}

type patternRule struct {
	regex  *regexp.Regexp
	intent domain.IntentType
	// payload is the capture group carried as payload, 0 for none.
	payload int
}

// NewKeywordParser creates a keyword-based intent parser.
func NewKeywordParser(log *logger.Logger) *KeywordParser {
	p := &KeywordParser{log: log}
	p.patterns = []patternRule{
		{regex: regexp.MustCompile(`(?i)^(start|go|nap|begin|sleep)$`), intent: domain.IntentStart},
		{regex: regexp.MustCompile(`(?i)^(?:start|nap|sleep)\s+(?:for\s+)?(.+?)(?:\s*(?:m|min|mins|minutes?))?$`), intent: domain.IntentStart, payload: 1},
		{regex: regexp.MustCompile(`(?i)^(\d{1,3})\s*(?:m|min|mins|minutes?)?$`), intent: domain.IntentSelect, payload: 1},
		{regex: regexp.MustCompile(`(?i)^custom\s+(\d{1,3})\s*(?:m|min|mins|minutes?)?$`), intent: domain.IntentSelect, payload: 1},
		{regex: regexp.MustCompile(`(?i)^(?:select|pick|use|preset)\s+(.+)$`), intent: domain.IntentSelect, payload: 1},
		{regex: regexp.MustCompile(`(?i)^(focus|refresh|recharge|power focus|quick refresh|deep recharge)$`), intent: domain.IntentSelect, payload: 1},
		{regex: regexp.MustCompile(`(?i)^(stop|cancel|abort|x)$`), intent: domain.IntentCancel},
		{regex: regexp.MustCompile(`(?i)^(ok|okay|wake|awake|i'?m awake|i'?m up|up|done|dismiss|a)$`), intent: domain.IntentAcknowledge},
		{regex: regexp.MustCompile(`(?i)^(presets|list|p)$`), intent: domain.IntentPresets},
		{regex: regexp.MustCompile(`(?i)^(status|s|where|time|left)$`), intent: domain.IntentStatus},
		{regex: regexp.MustCompile(`(?i)^(stats|progress|level|xp|week)$`), intent: domain.IntentStats},
		{regex: regexp.MustCompile(`(?i)^(?:name|call me|i am|i'm)\s+(.+)$`), intent: domain.IntentName, payload: 1},
		{regex: regexp.MustCompile(`(?i)^(help|h|\?)$`), intent: domain.IntentHelp},
		{regex: regexp.MustCompile(`(?i)^(quit|exit|q|bye)$`), intent: domain.IntentQuit},
	}
	return p
}

// Parse converts user input into an intent.
func (p *KeywordParser) Parse(ctx context.Context, input string) (*domain.Intent, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return &domain.Intent{Type: domain.IntentUnknown}, nil
	}

	p.log.Debug("parsing input: %q", trimmed)

	for _, rule := range p.patterns {
		m := rule.regex.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		p.log.Debug("matched intent: %s", rule.intent)
		intent := &domain.Intent{Type: rule.intent}
		if rule.payload > 0 {
			intent.Payload = strings.TrimSpace(m[rule.payload])
		}
		return intent, nil
	}

	p.log.Debug("no match, returning unknown intent")
	return &domain.Intent{Type: domain.IntentUnknown, Payload: trimmed}, nil
}
