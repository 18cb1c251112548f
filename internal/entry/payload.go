package entry

import (
	"bytes"
	"encoding/json"
	"errors"
)

var errInvalidJSON = errors.New("invalid JSON")

// EncodePayload serializes v for storage under key.
//
// json.RawMessage and []byte values are taken as already-encoded JSON and
// only validated. Everything else goes through json.Marshal with HTML
// escaping disabled, so payloads match what the server sends back.
func EncodePayload(key string, v any) (json.RawMessage, error) {
	switch raw := v.(type) {
	case json.RawMessage:
		return validRaw(key, raw)
	case []byte:
		return validRaw(key, raw)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, NewSerializationError(key, err)
	}
	// Encoder adds a trailing newline, remove it
	return json.RawMessage(bytes.TrimSpace(buf.Bytes())), nil
}

func validRaw(key string, raw []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return nil, NewSerializationError(key, errInvalidJSON)
	}
	out := make(json.RawMessage, len(trimmed))
	copy(out, trimmed)
	return out, nil
}

// DecodePayload decodes the payload of e into v.
func DecodePayload(e Entry, v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return NewDeserializeError(e.Key, e.WriteTs, err)
	}
	return nil
}

// ValidPayload reports whether raw parses as structured JSON data.
// Bare scalars are rejected: the server expects an object or an array.
func ValidPayload(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return false
	}
	return trimmed[0] == '{' || trimmed[0] == '['
}
