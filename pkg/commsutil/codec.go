package commsutil

import (
	"encoding/json"
	"fmt"
)

// EncodePayload serializes a relay message body.
func EncodePayload(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("commsutil:codec - encode: %w", err)
	}
	return data, nil
}

// DecodePayload deserializes a relay message body into v.
func DecodePayload(data []byte, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("commsutil:codec - decode: empty payload")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("commsutil:codec - decode: %w", err)
	}
	return nil
}

// DecodeAs decodes data into a new T.
func DecodeAs[T any](data []byte) (T, error) {
	var v T
	err := DecodePayload(data, &v)
	return v, err
}
