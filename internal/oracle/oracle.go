// Package oracle wraps the language-model providers with the bot's personas:
// matching, narration, small talk and greeting.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/bmatch/matchbot/internal/ai"
	"github.com/bmatch/matchbot/internal/matching"
	"github.com/bmatch/matchbot/internal/roster"
	"github.com/bmatch/matchbot/internal/session"
	"github.com/bmatch/matchbot/internal/utils"
)

const (
	defaultMaxLogLength = 200
	// maxHistoryTurns bounds the conversation context sent with small talk.
	maxHistoryTurns = 10
)

var ErrNoGenerator = errors.New("no generator configured")

// Config controls prompt construction.
type Config struct {
	SampleSize      int  `mapstructure:"sample-size"`
	MaxLogLength    int  `mapstructure:"max-log-length"`
	DynamicGreeting bool `mapstructure:"dynamic-greeting"`
}

// Oracle answers match requests. Match is served by the primary generator and
// falls back to the secondary one on error. The other personas use the primary
// generator only and degrade to static text.
type Oracle struct {
	primary  ai.Generator
	fallback ai.Generator
	roster   *roster.Roster
	cfg      Config
	logger   *zap.Logger

	matchSystem    string
	matchRequest   string
	narrateSystem  string
	narrateRequest string
	converseSystem string
	greetSystem    string
}

// New creates an Oracle. fallback may be nil.
func New(primary, fallback ai.Generator, people *roster.Roster, cfg Config, log *zap.Logger) *Oracle {
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = roster.DefaultSampleSize
	}
	if cfg.MaxLogLength <= 0 {
		cfg.MaxLogLength = defaultMaxLogLength
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Oracle{
		primary:        primary,
		fallback:       fallback,
		roster:         people,
		cfg:            cfg,
		logger:         log.Named("oracle"),
		matchSystem:    mustPrompt(promptMatch),
		matchRequest:   mustPrompt(promptMatchRequest),
		narrateSystem:  mustPrompt(promptNarrate),
		narrateRequest: mustPrompt(promptNarrateRequest),
		converseSystem: mustPrompt(promptConverse),
		greetSystem:    mustPrompt(promptGreet),
	}
}

// Match asks the oracle for the best professional for query and returns its
// reply text unparsed.
func (o *Oracle) Match(ctx context.Context, query string) (string, error) {
	message := fill(o.matchRequest, map[string]string{
		"ROSTER": o.roster.Context(o.cfg.SampleSize),
		"QUERY":  strings.TrimSpace(query),
	})

	raw, err := o.generate(ctx, o.primary, o.matchSystem, message)
	if err == nil {
		return raw, nil
	}
	if o.fallback == nil || ctx.Err() != nil {
		return "", err
	}

	o.logger.Warn("primary generator failed, using fallback",
		zap.String("fallback_model", o.fallback.Model()),
		zap.Error(err),
	)

	raw, fallbackErr := o.generate(ctx, o.fallback, o.matchSystem, message)
	if fallbackErr != nil {
		return "", errors.Join(err, fallbackErr)
	}
	return raw, nil
}

// Narrate turns a match into a short spoken recommendation. It never fails.
func (o *Oracle) Narrate(ctx context.Context, result matching.Result, query string) string {
	values := map[string]string{
		"QUERY":       strings.TrimSpace(query),
		"NAME":        "",
		"PERCENTAGE":  matching.DefaultPercentage + "%",
		"DESCRIPTION": result.Raw,
		"REASON":      "",
	}
	if result.Kind == matching.KindStructured && result.Match != nil {
		values["NAME"] = result.Match.Name
		values["DESCRIPTION"] = result.Match.Description
		values["REASON"] = result.Match.Reason
		if result.Match.Percentage != "" {
			values["PERCENTAGE"] = result.Match.Percentage + "%"
		}
	}

	text, err := o.generate(ctx, o.primary, o.narrateSystem, fill(o.narrateRequest, values))
	if err != nil {
		o.logger.Warn("narration failed, using summary template", zap.Error(err))
		return matching.Summary(result)
	}
	return text
}

// Converse answers a non-search message given prior turns. It never fails.
func (o *Oracle) Converse(ctx context.Context, message string, history []session.Turn) string {
	text, err := o.generate(ctx, o.primary, o.converseSystem, conversation(message, history))
	if err != nil {
		o.logger.Warn("conversation reply failed, using static reply", zap.Error(err))
		return ConverseFallback
	}
	return text
}

// Greet returns the welcome message. It never fails.
func (o *Oracle) Greet(ctx context.Context) string {
	if !o.cfg.DynamicGreeting {
		return WelcomeText
	}

	text, err := o.generate(ctx, o.primary, o.greetSystem, greetRequest)
	if err != nil {
		o.logger.Warn("greeting failed, using static welcome", zap.Error(err))
		return WelcomeText
	}
	return text
}

func (o *Oracle) generate(ctx context.Context, gen ai.Generator, system, message string) (string, error) {
	if gen == nil {
		return "", ErrNoGenerator
	}

	o.logger.Debug("generate content request",
		zap.String("model", gen.Model()),
		zap.Int("message_length", utf8.RuneCountInString(message)),
		zap.String("message_preview", utils.TruncateForLog(message, o.cfg.MaxLogLength)),
	)

	text, err := gen.GenerateContent(ctx, system, message)
	if err != nil {
		return "", fmt.Errorf("%s: %w", gen.Model(), err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%s: empty response", gen.Model())
	}

	o.logger.Debug("generate content response",
		zap.String("model", gen.Model()),
		zap.Int("response_length", utf8.RuneCountInString(text)),
		zap.String("response_preview", utils.TruncateForLog(text, o.cfg.MaxLogLength)),
	)

	return text, nil
}

// conversation flattens recent history and the new message into one prompt.
// The current message is the last user turn in history when the caller
// already appended it.
func conversation(message string, history []session.Turn) string {
	message = strings.TrimSpace(message)
	if n := len(history); n > 0 && history[n-1].Role == session.RoleUser && strings.TrimSpace(history[n-1].Text) == message {
		history = history[:n-1]
	}
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	if len(history) == 0 {
		return message
	}

	var b strings.Builder
	b.WriteString("Попередня розмова:\n")
	for _, turn := range history {
		fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Text)
	}
	b.WriteString("\nНове повідомлення: ")
	b.WriteString(message)
	return b.String()
}
