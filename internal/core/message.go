package core

import (
	"strings"
	"time"
)

// Message is a chat line posted to a room. It only lives inside the events that carry it.
type Message struct {
	Room      string
	From      string
	Text      string
	CreatedAt time.Time
}

// NewMessage stamps a message, rejecting text that is blank once trimmed.
// The text itself is kept as sent.
func NewMessage(room, from, text string, at time.Time) (Message, error) {
	if strings.TrimSpace(text) == "" {
		return Message{}, ErrEmptyMessage
	}
	return Message{Room: room, From: from, Text: text, CreatedAt: at}, nil
}
