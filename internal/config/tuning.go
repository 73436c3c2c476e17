package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/freeeve/squad-tactics/internal/ai"
)

// LoadTuning reads a YAML tuning file and overlays it on the built-in
// weights. An empty path returns the defaults.
func LoadTuning(path string) (*ai.Tuning, error) {
	if path == "" {
		return ai.DefaultTuning(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tuning: %w", err)
	}
	return ParseTuning(b)
}

// ParseTuning decodes YAML over ai.DefaultTuning and compiles the result.
// Unknown keys are rejected.
func ParseTuning(b []byte) (*ai.Tuning, error) {
	t := ai.DefaultTuning()
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(t); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode tuning: %w", err)
	}
	if err := t.Compile(); err != nil {
		return nil, fmt.Errorf("compile tuning: %w", err)
	}
	return t, nil
}
