package models

import (
	"encoding/json"
	"fmt"
)

type Role string

const (
	User      Role = "user"
	Assistant Role = "assistant"
)

// legacyAssistant is how older transcripts and the reference backend name
// the assistant side.
const legacyAssistant = "ai"

// ParseRole maps a stored role name to a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case string(User):
		return User, nil
	case string(Assistant), legacyAssistant:
		return Assistant, nil
	}
	return "", fmt.Errorf("unknown message role %q", s)
}

// Message is a single transcript entry. Messages are never modified after
// they are appended to a Log.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func NewUserMessage(content string) Message {
	return Message{Role: User, Content: content}
}

func NewAssistantMessage(content string) Message {
	return Message{Role: Assistant, Content: content}
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	role, err := ParseRole(raw.Role)
	if err != nil {
		return err
	}
	m.Role = role
	m.Content = raw.Content
	return nil
}

// Log is the ordered conversation transcript, oldest first.
type Log []Message

// Append returns a new Log with msg at the end. The receiver is left as is.
func (l Log) Append(msg Message) Log {
	next := make(Log, len(l), len(l)+1)
	copy(next, l)
	return append(next, msg)
}

// Clone returns a copy that does not share backing storage with l.
func (l Log) Clone() Log {
	if l == nil {
		return Log{}
	}
	next := make(Log, len(l))
	copy(next, l)
	return next
}

func (l Log) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Message(l))
}

// DecodeLog parses a serialized transcript. A JSON null decodes to an
// empty Log.
func DecodeLog(data []byte) (Log, error) {
	var msgs []Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, err
	}
	return Log(msgs).Clone(), nil
}
