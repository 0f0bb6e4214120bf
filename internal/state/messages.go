package state

import "github.com/five82/visionmon/internal/monitor"

// MaxMessages bounds the message log.
const MaxMessages = 50

// MessageLog holds narrative messages newest-first, bounded in length.
type MessageLog struct {
	max     int
	entries []monitor.LLMMessage
}

// NewMessageLog returns an empty log bounded to max entries. A non-positive
// max uses MaxMessages.
func NewMessageLog(max int) *MessageLog {
	if max <= 0 {
		max = MaxMessages
	}
	return &MessageLog{max: max, entries: make([]monitor.LLMMessage, 0, max+1)}
}

// Prepend inserts msg at the head, dropping the tail entry on overflow.
func (l *MessageLog) Prepend(msg monitor.LLMMessage) {
	l.entries = append(l.entries, monitor.LLMMessage{})
	copy(l.entries[1:], l.entries)
	l.entries[0] = msg
	if len(l.entries) > l.max {
		l.entries = l.entries[:l.max]
	}
}

// Seed appends msgs in the given order, then enforces the bound once.
func (l *MessageLog) Seed(msgs []monitor.LLMMessage) {
	l.entries = append(l.entries, msgs...)
	if len(l.entries) > l.max {
		l.entries = l.entries[:l.max]
	}
}

// All returns a copy of the log, newest first.
func (l *MessageLog) All() []monitor.LLMMessage {
	if len(l.entries) == 0 {
		return nil
	}
	dup := make([]monitor.LLMMessage, len(l.entries))
	copy(dup, l.entries)
	return dup
}

// Len returns the number of messages held.
func (l *MessageLog) Len() int {
	return len(l.entries)
}
