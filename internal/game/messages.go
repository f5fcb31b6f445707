package game

import "strings"

// MsgPriority controls the color of a line in the ship log.
type MsgPriority uint8

const (
	MsgInfo     MsgPriority = iota // cyan
	MsgWarning                     // yellow
	MsgCritical                    // red
	MsgSuccess                     // green
	MsgCreditor                    // magenta, creditor speech
)

// Message is a single line in the ship log.
type Message struct {
	Text     string
	Priority MsgPriority
	Turn     int
}

// LogWidth is the column width of the ship log panel.
const LogWidth = 58

// MessageLog is a bounded FIFO of log lines.
type MessageLog struct {
	messages []Message
	maxSize  int
}

// NewMessageLog creates a log that keeps the most recent maxSize lines.
func NewMessageLog(maxSize int) *MessageLog {
	return &MessageLog{
		messages: make([]Message, 0, maxSize),
		maxSize:  maxSize,
	}
}

// Add appends text, wrapped to LogWidth, evicting the oldest lines if full.
func (l *MessageLog) Add(text string, priority MsgPriority, turn int) {
	for _, line := range wrapText(text, LogWidth) {
		msg := Message{Text: line, Priority: priority, Turn: turn}
		if len(l.messages) >= l.maxSize {
			copy(l.messages, l.messages[1:])
			l.messages[len(l.messages)-1] = msg
		} else {
			l.messages = append(l.messages, msg)
		}
	}
}

// Recent returns the last n lines (or fewer if the log is shorter).
func (l *MessageLog) Recent(n int) []Message {
	n = min(n, len(l.messages))
	return append([]Message(nil), l.messages[len(l.messages)-n:]...)
}

// Len returns the number of stored lines.
func (l *MessageLog) Len() int { return len(l.messages) }

// Clear empties the log.
func (l *MessageLog) Clear() { l.messages = l.messages[:0] }

// wrapText splits s into lines no longer than width, breaking on spaces.
// A single word longer than width gets a line of its own.
func wrapText(s string, width int) []string {
	if len(s) <= width {
		return []string{s}
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > width {
			lines = append(lines, line)
			line = w
			continue
		}
		line += " " + w
	}
	return append(lines, line)
}
