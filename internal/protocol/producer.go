package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dkeye/nestrischamps-rooms/internal/domain"
)

// PayloadKind classifies what a producer sent.
type PayloadKind int

const (
	// PayloadBinary is a fixed-layout frame whose header byte carries the
	// player number in its low 3 bits.
	PayloadBinary PayloadKind = iota
	// PayloadList is a [name, ...args] message.
	PayloadList
	// PayloadOther is any other JSON value, forwarded wrapped in a frame.
	PayloadOther
)

// SlotMask covers the header bits that carry the player number.
const SlotMask = 0b00000111

// ProducerPayload is one decoded producer message.
type ProducerPayload struct {
	Kind   PayloadKind
	Binary []byte
	List   Message
	Other  json.RawMessage
}

func BinaryPayload(b []byte) ProducerPayload {
	return ProducerPayload{Kind: PayloadBinary, Binary: b}
}

func ListPayload(m Message) ProducerPayload {
	return ProducerPayload{Kind: PayloadList, List: m}
}

// DecodeProducerText classifies a text frame. Arrays whose first element is
// a string are list messages; every other valid JSON value is opaque.
func DecodeProducerText(data []byte) (ProducerPayload, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if m, err := Decode(trimmed); err == nil {
			return ListPayload(m), nil
		}
	}
	if !json.Valid(trimmed) {
		return ProducerPayload{}, fmt.Errorf("%w: producer sent invalid json", domain.ErrBadPayload)
	}
	return ProducerPayload{Kind: PayloadOther, Other: json.RawMessage(trimmed)}, nil
}

// StampSlot writes slot into the header byte of a binary frame in place.
func StampSlot(frame []byte, slot int) {
	frame[0] = (frame[0] &^ SlotMask) | byte(slot&SlotMask)
}

// IsVdoNinjaURL reports whether p is the producer side-channel carrying its
// video URL.
func (p ProducerPayload) IsVdoNinjaURL() (string, bool) {
	if p.Kind != PayloadList || p.List.Name != MsgSetVdoNinjaURL {
		return "", false
	}
	url, err := stringArg(p.List, 0)
	if err != nil {
		return "", false
	}
	return url, true
}
