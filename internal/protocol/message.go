// Package protocol defines the [name, ...args] messages exchanged with
// admins, views and producers.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/nestrischamps-rooms/internal/domain"
)

// Message is a tagged tuple encoded as a JSON array. Args decoded from the
// wire are json.RawMessage values and re-encode verbatim.
type Message struct {
	Name string
	Args []any
}

func New(name string, args ...any) Message {
	return Message{Name: name, Args: args}
}

func (m Message) MarshalJSON() ([]byte, error) {
	out := make([]any, 0, len(m.Args)+1)
	out = append(out, m.Name)
	out = append(out, m.Args...)
	return json.Marshal(out)
}

func (m *Message) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("%w: not an array: %v", domain.ErrBadPayload, err)
	}
	if len(raw) == 0 {
		return fmt.Errorf("%w: empty message", domain.ErrBadPayload)
	}
	var name string
	if err := json.Unmarshal(raw[0], &name); err != nil {
		return fmt.Errorf("%w: message name is not a string", domain.ErrBadPayload)
	}
	m.Name = name
	m.Args = make([]any, 0, len(raw)-1)
	for _, a := range raw[1:] {
		m.Args = append(m.Args, a)
	}
	return nil
}

// Decode parses a text frame into a Message.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		if errors.Is(err, domain.ErrBadPayload) {
			return Message{}, err
		}
		return Message{}, fmt.Errorf("%w: %v", domain.ErrBadPayload, err)
	}
	return m, nil
}

// WithSlot returns a copy of m with the slot index spliced in as the first
// argument, which is the second element on the wire.
func (m Message) WithSlot(slot int) Message {
	args := make([]any, 0, len(m.Args)+1)
	args = append(args, slot)
	args = append(args, m.Args...)
	return Message{Name: m.Name, Args: args}
}

func (m Message) String() string {
	b, err := m.MarshalJSON()
	if err != nil {
		return m.Name
	}
	return string(b)
}
