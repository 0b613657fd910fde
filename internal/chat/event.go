// Package chat holds the transport-neutral shapes exchanged between the bot
// controller and the messaging platform.
package chat

import "strings"

// Event is a single inbound text message.
type Event struct {
	ID        int
	ChatID    int64
	UserID    int64
	Username  string
	FirstName string
	LastName  string
	Text      string
}

// Command returns the bot command carried by the message ("/start",
// "/help@matchbot" -> "start", "help"), or "" for ordinary text.
func (e Event) Command() string {
	text := strings.TrimSpace(e.Text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd := strings.Fields(text)[0][1:]
	if idx := strings.Index(cmd, "@"); idx != -1 {
		cmd = cmd[:idx]
	}
	return strings.ToLower(cmd)
}

// User describes the sender for persistence.
type User struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

// Sender extracts the user that sent the event.
func (e Event) Sender() User {
	return User{
		ID:        e.UserID,
		Username:  e.Username,
		FirstName: e.FirstName,
		LastName:  e.LastName,
	}
}
