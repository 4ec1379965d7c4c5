package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/nestrischamps-rooms/internal/domain"
)

func TestDecodeProducerText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		kind PayloadKind
	}{
		{"list", `["score",1]`, PayloadList},
		{"padded list", "  [\"lines\"]\n", PayloadList},
		{"object", `{"a":1}`, PayloadOther},
		{"array without name", `[1,2,3]`, PayloadOther},
		{"empty array", `[]`, PayloadOther},
		{"number", `42`, PayloadOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := DecodeProducerText([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.kind, p.Kind)
		})
	}

	_, err := DecodeProducerText([]byte(`{nope`))
	assert.ErrorIs(t, err, domain.ErrBadPayload)
}

func TestStampSlot(t *testing.T) {
	frame := []byte{0xFF, 0x01}
	StampSlot(frame, 2)
	assert.Equal(t, byte(0xFA), frame[0])
	assert.Equal(t, byte(0x01), frame[1])

	StampSlot(frame, 7)
	assert.Equal(t, byte(0xFF), frame[0])
}

func TestIsVdoNinjaURL(t *testing.T) {
	p, err := DecodeProducerText([]byte(`["setVdoNinjaURL","https://vdo.ninja/x"]`))
	require.NoError(t, err)
	url, ok := p.IsVdoNinjaURL()
	assert.True(t, ok)
	assert.Equal(t, "https://vdo.ninja/x", url)

	p, err = DecodeProducerText([]byte(`["score",1]`))
	require.NoError(t, err)
	_, ok = p.IsVdoNinjaURL()
	assert.False(t, ok)

	_, ok = BinaryPayload([]byte{1}).IsVdoNinjaURL()
	assert.False(t, ok)
}
