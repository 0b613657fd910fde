package matching

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

var errMissingField = errors.New("required field is empty")

// unspecifiedContacts are the sentinels the oracle uses for "no contacts".
var unspecifiedContacts = []string{"не вказано", "not specified"}

// Normalize never fails: anything that is not a complete JSON match object is
// returned as a raw result carrying the original text.
func Normalize(raw string) Result {
	match, err := Parse(raw)
	if err != nil {
		return Raw(raw)
	}
	return Structured(match)
}

// Parse strictly decodes a single JSON match object out of the oracle reply.
func Parse(raw string) (*Match, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse oracle response: %w", err)
	}

	var match Match
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &match,
	})
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}

	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("decode oracle response: %w", err)
	}

	match.Name = strings.TrimSpace(match.Name)
	match.Percentage = strings.TrimSuffix(strings.TrimSpace(match.Percentage), "%")
	match.Description = strings.TrimSpace(match.Description)
	match.Reason = strings.TrimSpace(match.Reason)
	match.ContactInfo = normalizeContact(match.ContactInfo)

	for field, value := range map[string]string{
		"name":        match.Name,
		"description": match.Description,
		"reason":      match.Reason,
	} {
		if value == "" {
			return nil, fmt.Errorf("%s: %w", field, errMissingField)
		}
	}

	return &match, nil
}

func normalizeContact(contact string) string {
	contact = strings.TrimSpace(contact)
	for _, sentinel := range unspecifiedContacts {
		if strings.EqualFold(contact, sentinel) {
			return ""
		}
	}
	return contact
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
