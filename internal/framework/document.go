package framework

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// Decode parses a framework document. Numbers are kept as json.Number so
// integers of any size survive a round trip unchanged.
func Decode(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if err := dec.Decode(new(interface{})); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("invalid character after top-level value")
		}
		return nil, err
	}
	return doc, nil
}

// Indent renders v as two-space indented JSON. Unlike json.MarshalIndent it
// leaves &, < and > as written.
func Indent(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}
