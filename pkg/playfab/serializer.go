package playfab

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

var errTrailingData = errors.New("unexpected data after the JSON value")

// Serializer encodes request payloads and decodes response envelopes.
// Unmarshal must fail on malformed input rather than leave a partial value.
type Serializer interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSONSerializer is the default Serializer.
type JSONSerializer struct {
	// DisallowUnknownFields rejects envelopes carrying fields the target type does not declare.
	DisallowUnknownFields bool
}

// Marshal implements Serializer.
func (s JSONSerializer) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal implements Serializer. data must hold exactly one JSON value.
func (s JSONSerializer) Unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if s.DisallowUnknownFields {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errTrailingData
	}
	return nil
}
