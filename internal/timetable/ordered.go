package timetable

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type member struct {
	Key   string
	Value any
}

// orderedObject marshals as a JSON object whose keys keep slice order.
type orderedObject []member

func (o orderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(m.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := marshalNoEscape(m.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalNoEscape is json.Marshal without HTML escaping.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// decodeObject walks a JSON object in document order, calling fn for each
// member with the member's field path. Duplicate keys are rejected.
func decodeObject(raw json.RawMessage, path string, fn func(key string, val json.RawMessage, keyPath string) error) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return &ParseError{Path: path, Msg: err.Error()}
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return &ParseError{Path: path, Msg: fmt.Sprintf("expected object, got %v", tok)}
	}

	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return &ParseError{Path: path, Msg: err.Error()}
		}
		key, ok := tok.(string)
		if !ok {
			return &ParseError{Path: path, Msg: fmt.Sprintf("unexpected token %v", tok)}
		}
		keyPath := path + "." + key
		if seen[key] {
			return &ParseError{Path: keyPath, Msg: "duplicate key"}
		}
		seen[key] = true

		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return &ParseError{Path: keyPath, Msg: err.Error()}
		}
		if err := fn(key, val, keyPath); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return &ParseError{Path: path, Msg: err.Error()}
	}
	return nil
}
