package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/xfersynth/internal/ir"
)

// marshalParams converts run parameters to canonical JSON TEXT for
// storage.
func marshalParams(params map[string]string) (string, error) {
	obj := make(map[string]any, len(params))
	for k, v := range params {
		obj[k] = v
	}
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}
	return string(data), nil
}

// unmarshalParams parses run parameters.
func unmarshalParams(data string) (map[string]string, error) {
	params := map[string]string{}
	if data == "" || data == "{}" {
		return params, nil
	}
	if err := json.Unmarshal([]byte(data), &params); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}
	return params, nil
}

// MarshalProgram serializes the attached program of f as JSON TEXT. The
// result is valid input for ir.DecodeFunction.
func MarshalProgram(f *ir.Function) (string, error) {
	spec := ir.Spec(f)
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(&spec); err != nil {
		return "", fmt.Errorf("marshal program: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}
