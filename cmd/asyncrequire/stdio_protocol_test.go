package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacketRoundTrip(t *testing.T) {
	value := map[string]interface{}{
		"command": "transform",
		"tree":    []byte(`{"type":"Program"}`),
		"flags":   []interface{}{"--format=js", "--per-specifier"},
		"count":   -3,
		"ok":      true,
		"missing": nil,
	}

	bytes := encodePacket(packet{id: 7, isRequest: true, value: value})
	body, rest, ok := readLengthPrefixedSlice(bytes)
	require.True(t, ok)
	require.Empty(t, rest)

	decoded, ok := decodePacket(body)
	require.True(t, ok)
	assert.Equal(t, uint32(7), decoded.id)
	assert.True(t, decoded.isRequest)
	assert.Equal(t, value, decoded.value)

	// Responses set the low bit of the id
	bytes = encodePacket(packet{id: 7, value: "done"})
	decoded, ok = decodePacket(bytes[4:])
	require.True(t, ok)
	assert.Equal(t, uint32(7), decoded.id)
	assert.False(t, decoded.isRequest)
	assert.Equal(t, "done", decoded.value)
}

func TestPacketEncodingIsDeterministic(t *testing.T) {
	value := map[string]interface{}{"b": 1, "a": 2, "c": 3}
	first := encodePacket(packet{id: 1, value: value})
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, encodePacket(packet{id: 1, value: value}))
	}
}

func TestMalformedPackets(t *testing.T) {
	bytes := encodePacket(packet{id: 1, isRequest: true, value: map[string]interface{}{
		"command": "ping",
		"flags":   []interface{}{"a", "b"},
	}})
	body := bytes[4:]

	// Every truncation of a valid packet is rejected without panicking
	for i := 0; i < len(body); i++ {
		_, ok := decodePacket(body[:i])
		assert.False(t, ok, "truncated to %d bytes", i)
	}

	// So are trailing bytes and unknown value kinds
	_, ok := decodePacket(append(append([]byte{}, body...), 0))
	assert.False(t, ok)
	_, ok = decodePacket([]byte{0, 0, 0, 0, 99})
	assert.False(t, ok)
}
