package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// import foo from "bar";
const importTree = `{"type": "Program", "start": 0, "sourceType": "module", "body": [{
	"type": "ImportDeclaration", "start": 0,
	"specifiers": [{"type": "ImportDefaultSpecifier", "start": 7, "local": {"type": "Identifier", "start": 7, "name": "foo"}}],
	"source": {"type": "Literal", "start": 16, "value": "bar"}
}]}`

// export * from "x";
const exportStarTree = `{"type": "Program", "start": 0, "sourceType": "module", "body": [{
	"type": "ExportAllDeclaration", "start": 0, "exported": null,
	"source": {"type": "Literal", "start": 14, "value": "x"}
}]}`

// Runs the service over the given requests and returns the responses by id
func runRequests(t *testing.T, requests ...interface{}) map[uint32]interface{} {
	t.Helper()
	var in bytes.Buffer
	for i, request := range requests {
		in.Write(encodePacket(packet{id: uint32(i), isRequest: true, value: request}))
	}

	var out bytes.Buffer
	require.NoError(t, runService(&in, &out, zap.NewNop()))

	responses := make(map[uint32]interface{})
	stream := out.Bytes()
	for len(stream) > 0 {
		body, rest, ok := readLengthPrefixedSlice(stream)
		require.True(t, ok)
		response, ok := decodePacket(body)
		require.True(t, ok)
		require.False(t, response.isRequest)
		responses[response.id] = response.value
		stream = rest
	}
	require.Len(t, responses, len(requests))
	return responses
}

func TestServicePing(t *testing.T) {
	responses := runRequests(t, map[string]interface{}{"command": "ping"})
	assert.Equal(t, map[string]interface{}{}, responses[0])
}

func TestServiceTransform(t *testing.T) {
	responses := runRequests(t,
		map[string]interface{}{
			"command": "transform",
			"tree":    []byte(importTree),
			"flags":   []interface{}{"--format=js", "--require-name=load"},
		},
		map[string]interface{}{
			"command": "transform",
			"tree":    []byte(exportStarTree),
			"source":  "export * from \"x\";",
		},
		map[string]interface{}{"command": "ping"},
	)

	assert.Equal(t, map[string]interface{}{
		"errors":   []interface{}{},
		"warnings": []interface{}{},
		"js":       []byte("const foo = await load(\"bar\");\n"),
	}, responses[0])

	assert.Equal(t, map[string]interface{}{
		"errors": []interface{}{
			map[string]interface{}{
				"id":   "",
				"text": "Cannot rewrite \"export *\" from \"x\" because the names it re-exports are not known until that module is loaded",
				"location": map[string]interface{}{
					"file":     "<stdin>",
					"line":     1,
					"column":   0,
					"length":   0,
					"lineText": "export * from \"x\";",
				},
			},
		},
		"warnings": []interface{}{},
	}, responses[1])

	assert.Equal(t, map[string]interface{}{}, responses[2])
}

func TestServiceInvalidRequests(t *testing.T) {
	responses := runRequests(t,
		map[string]interface{}{"command": "build"},
		"ping",
		map[string]interface{}{"command": "transform"},
		map[string]interface{}{"command": "transform", "tree": []byte(importTree), "flags": []interface{}{1}},
		map[string]interface{}{"command": "transform", "tree": []byte(importTree), "flags": []interface{}{"--bundle"}},
	)

	assert.Equal(t, map[string]interface{}{"error": "Invalid command: \"build\""}, responses[0])
	assert.Equal(t, map[string]interface{}{"error": "Invalid request"}, responses[1])
	assert.Equal(t, map[string]interface{}{"error": "Invalid transform request: missing \"tree\""}, responses[2])
	assert.Equal(t, map[string]interface{}{"error": "Invalid transform request: every flag must be a string"}, responses[3])
	assert.Equal(t, map[string]interface{}{"error": "Invalid transform flag: \"--bundle\""}, responses[4])
}

func TestServiceIgnoresPartialPackets(t *testing.T) {
	in := bytes.NewBuffer(encodePacket(packet{id: 1, isRequest: true, value: map[string]interface{}{"command": "ping"}}))
	in.Write([]byte{100, 0, 0, 0, 1, 2})

	var out bytes.Buffer
	require.NoError(t, runService(in, &out, zap.NewNop()))

	body, rest, ok := readLengthPrefixedSlice(out.Bytes())
	require.True(t, ok)
	assert.Empty(t, rest)
	response, ok := decodePacket(body)
	require.True(t, ok)
	assert.Equal(t, uint32(1), response.id)
}
