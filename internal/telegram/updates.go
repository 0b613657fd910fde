package telegram

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"

	"github.com/bmatch/matchbot/internal/chat"
)

// maxPollTimeout is the longest long-poll timeout Telegram accepts.
const maxPollTimeout = 50

var allowedUpdates = []string{"message"}

// GetUpdates long-polls for updates after offset. Every update is returned so
// the caller can advance its offset; updates without a text message carry an
// empty Text.
func (c *Client) GetUpdates(ctx context.Context, offset, timeoutSeconds int) ([]chat.Event, error) {
	if timeoutSeconds < 0 {
		timeoutSeconds = 0
	}
	if timeoutSeconds > maxPollTimeout {
		timeoutSeconds = maxPollTimeout
	}

	updates, err := c.api.GetUpdates(ctx, &telego.GetUpdatesParams{
		Offset:         offset,
		Timeout:        timeoutSeconds,
		AllowedUpdates: allowedUpdates,
	})
	if err != nil {
		return nil, fmt.Errorf("get updates: %w", err)
	}

	events := make([]chat.Event, 0, len(updates))
	for _, update := range updates {
		events = append(events, toEvent(update))
	}
	return events, nil
}

func toEvent(update telego.Update) chat.Event {
	event := chat.Event{ID: update.UpdateID}

	msg := update.Message
	if msg == nil {
		return event
	}

	event.ChatID = msg.Chat.ID
	event.Text = msg.Text
	if msg.From != nil {
		event.UserID = msg.From.ID
		event.Username = msg.From.Username
		event.FirstName = msg.From.FirstName
		event.LastName = msg.From.LastName
	} else {
		event.UserID = msg.Chat.ID
	}
	return event
}
