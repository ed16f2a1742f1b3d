package cache

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Codec converts values of type T to and from the text payloads persisted
// in the remote tier. Each cache namespace fixes exactly one codec at
// construction; payloads that violate the namespace contract are rejected
// on decode and treated as cache misses by the Service.
type Codec[T any] interface {
	Encode(value T) (string, error)
	Decode(payload string) (T, error)
}

// StringCodec fixes a namespace contract of plain strings, used for the
// destinations namespace where each value is a destination URL.
type StringCodec struct{}

func (StringCodec) Encode(value string) (string, error) {
	return value, nil
}

// Decode rejects structured payloads found where a plain string is
// expected, which indicates a writer violated the namespace contract.
func (StringCodec) Decode(payload string) (string, error) {
	trimmed := strings.TrimSpace(payload)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return "", fmt.Errorf("expected plain string, found structured payload")
	}
	return payload, nil
}

// JSONCodec fixes a namespace contract of JSON-encoded values of type T,
// used for structured namespaces such as links and reports.
type JSONCodec[T any] struct{}

func (JSONCodec[T]) Encode(value T) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (JSONCodec[T]) Decode(payload string) (T, error) {
	var value T
	if err := json.Unmarshal([]byte(payload), &value); err != nil {
		return value, err
	}
	return value, nil
}
