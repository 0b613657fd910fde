// Package classifier decides whether a chat message is an actionable search
// request and whether such a request is clear enough to dispatch. It is pure
// keyword matching: case-insensitive substring containment over configurable
// lists.
package classifier

import (
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMinSearchLength is the length below which a message without any
	// indicator is treated as small talk.
	DefaultMinSearchLength = 10
	// DefaultMinLength is the length below which a search is always unclear.
	DefaultMinLength = 5
	// DefaultMinClearLength is the length below which a keyword-less search
	// is unclear.
	DefaultMinClearLength = 15
)

// Config holds the keyword lists and length thresholds. Zero values fall back
// to the defaults.
type Config struct {
	Conversational []string `mapstructure:"conversational"`
	Business       []string `mapstructure:"business"`
	Unclear        []string `mapstructure:"unclear"`

	MinSearchLength int `mapstructure:"min-search-length"`
	MinLength       int `mapstructure:"min-length"`
	MinClearLength  int `mapstructure:"min-clear-length"`
}

// Classifier answers the two classification questions for a message.
type Classifier struct {
	conversational []string
	business       []string
	unclear        []string

	minSearchLength int
	minLength       int
	minClearLength  int
}

// New builds a classifier. A nil config yields the built-in defaults.
func New(cfg *Config) *Classifier {
	if cfg == nil {
		cfg = &Config{}
	}

	c := &Classifier{
		conversational:  normalize(cfg.Conversational, DefaultConversational),
		business:        normalize(cfg.Business, DefaultBusiness),
		unclear:         normalize(cfg.Unclear, DefaultUnclear),
		minSearchLength: cfg.MinSearchLength,
		minLength:       cfg.MinLength,
		minClearLength:  cfg.MinClearLength,
	}

	if c.minSearchLength <= 0 {
		c.minSearchLength = DefaultMinSearchLength
	}
	if c.minLength <= 0 {
		c.minLength = DefaultMinLength
	}
	if c.minClearLength <= 0 {
		c.minClearLength = DefaultMinClearLength
	}

	return c
}

// IsSearch reports whether text asks for a professional. Conversational
// indicators win over business keywords; without either, only long messages
// count as searches.
func (c *Classifier) IsSearch(text string) bool {
	text = prepare(text)

	if containsAny(text, c.conversational) {
		return false
	}

	if containsAny(text, c.business) {
		return true
	}

	return utf8.RuneCountInString(text) >= c.minSearchLength
}

// IsUnclear reports whether a search request is too vague to dispatch. A
// business keyword always makes the request clear, even next to a filler
// phrase.
func (c *Classifier) IsUnclear(text string) bool {
	text = prepare(text)
	length := utf8.RuneCountInString(text)

	if length < c.minLength {
		return true
	}

	if containsAny(text, c.business) {
		return false
	}

	if containsAny(text, c.unclear) {
		return true
	}

	return length < c.minClearLength
}

func prepare(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

func normalize(keywords, fallback []string) []string {
	if len(keywords) == 0 {
		keywords = fallback
	}

	result := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		keyword = prepare(keyword)
		if keyword == "" {
			continue
		}
		result = append(result, keyword)
	}

	return result
}
