// The host compiler talks to the service over stdin/stdout using this
// protocol. Every packet is a 32-bit length followed by a 32-bit id and one
// value. The low bit of the id says whether the packet is a request (0) or a
// response (1). Values are null, booleans, integers, strings, byte slices,
// arrays, and maps with string keys. Integers and lengths are little endian.

package main

import (
	"encoding/binary"
	"sort"
)

const (
	kindNull uint8 = iota
	kindBool
	kindInt
	kindString
	kindBytes
	kindArray
	kindMap
)

type packet struct {
	id        uint32
	isRequest bool
	value     interface{}
}

func readUint32(bytes []byte) (value uint32, leftOver []byte, ok bool) {
	if len(bytes) >= 4 {
		return binary.LittleEndian.Uint32(bytes), bytes[4:], true
	}

	return 0, bytes, false
}

func writeUint32(bytes []byte, value uint32) []byte {
	bytes = append(bytes, 0, 0, 0, 0)
	binary.LittleEndian.PutUint32(bytes[len(bytes)-4:], value)
	return bytes
}

func readLengthPrefixedSlice(bytes []byte) (slice []byte, leftOver []byte, ok bool) {
	if length, afterLength, ok := readUint32(bytes); ok && uint(len(afterLength)) >= uint(length) {
		return afterLength[:length], afterLength[length:], true
	}

	return []byte{}, bytes, false
}

func writeLengthPrefixedSlice(bytes []byte, slice []byte) []byte {
	bytes = writeUint32(bytes, uint32(len(slice)))
	return append(bytes, slice...)
}

func encodeValue(bytes []byte, value interface{}) []byte {
	switch v := value.(type) {
	case nil:
		return append(bytes, kindNull)

	case bool:
		if v {
			return append(bytes, kindBool, 1)
		}
		return append(bytes, kindBool, 0)

	case int:
		bytes = append(bytes, kindInt)
		return writeUint32(bytes, uint32(v))

	case string:
		bytes = append(bytes, kindString)
		return writeLengthPrefixedSlice(bytes, []byte(v))

	case []byte:
		bytes = append(bytes, kindBytes)
		return writeLengthPrefixedSlice(bytes, v)

	case []interface{}:
		bytes = append(bytes, kindArray)
		bytes = writeUint32(bytes, uint32(len(v)))
		for _, item := range v {
			bytes = encodeValue(bytes, item)
		}
		return bytes

	case map[string]interface{}:
		// Sort keys for determinism
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		bytes = append(bytes, kindMap)
		bytes = writeUint32(bytes, uint32(len(keys)))
		for _, k := range keys {
			bytes = writeLengthPrefixedSlice(bytes, []byte(k))
			bytes = encodeValue(bytes, v[k])
		}
		return bytes

	default:
		panic("Invalid packet")
	}
}

// The result includes the leading length
func encodePacket(p packet) []byte {
	bytes := writeUint32(nil, 0)
	if p.isRequest {
		bytes = writeUint32(bytes, p.id<<1)
	} else {
		bytes = writeUint32(bytes, (p.id<<1)|1)
	}
	bytes = encodeValue(bytes, p.value)
	binary.LittleEndian.PutUint32(bytes, uint32(len(bytes)-4))
	return bytes
}

// Malformed values are reported with "ok" set to false instead of panicking
// since they come from another process
func decodeValue(bytes []byte) (value interface{}, leftOver []byte, ok bool) {
	if len(bytes) == 0 {
		return nil, bytes, false
	}
	kind, bytes := bytes[0], bytes[1:]

	switch kind {
	case kindNull:
		return nil, bytes, true

	case kindBool:
		if len(bytes) == 0 {
			return nil, bytes, false
		}
		return bytes[0] != 0, bytes[1:], true

	case kindInt:
		n, next, ok := readUint32(bytes)
		if !ok {
			return nil, bytes, false
		}
		return int(int32(n)), next, true

	case kindString:
		slice, next, ok := readLengthPrefixedSlice(bytes)
		if !ok {
			return nil, bytes, false
		}
		return string(slice), next, true

	case kindBytes:
		slice, next, ok := readLengthPrefixedSlice(bytes)
		if !ok {
			return nil, bytes, false
		}
		return slice, next, true

	case kindArray:
		count, next, ok := readUint32(bytes)
		if !ok {
			return nil, bytes, false
		}
		bytes = next
		items := []interface{}{}
		for i := uint32(0); i < count; i++ {
			var item interface{}
			if item, bytes, ok = decodeValue(bytes); !ok {
				return nil, bytes, false
			}
			items = append(items, item)
		}
		return items, bytes, true

	case kindMap:
		count, next, ok := readUint32(bytes)
		if !ok {
			return nil, bytes, false
		}
		bytes = next
		entries := make(map[string]interface{})
		for i := uint32(0); i < count; i++ {
			var key []byte
			if key, bytes, ok = readLengthPrefixedSlice(bytes); !ok {
				return nil, bytes, false
			}
			var item interface{}
			if item, bytes, ok = decodeValue(bytes); !ok {
				return nil, bytes, false
			}
			entries[string(key)] = item
		}
		return entries, bytes, true
	}

	return nil, bytes, false
}

// This takes the packet without its leading length
func decodePacket(bytes []byte) (packet, bool) {
	id, bytes, ok := readUint32(bytes)
	if !ok {
		return packet{}, false
	}
	value, bytes, ok := decodeValue(bytes)
	if !ok || len(bytes) != 0 {
		return packet{}, false
	}
	return packet{id: id >> 1, isRequest: (id & 1) == 0, value: value}, true
}
