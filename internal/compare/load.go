package compare

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"tracelens/internal/model"
)

// ErrEmptyTrace is returned when a predicted trace has no steps.
var ErrEmptyTrace = errors.New("trace has no steps")

// Format is the encoding of a predicted trace file.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFor picks the encoding from a file extension.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// LoadTrace reads a predicted trace from a JSON or YAML file.
func LoadTrace(path string) (model.Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading trace: %w", err)
	}
	t, err := ParseTrace(data, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ParseTrace decodes a trace. The document is either a list of steps or an
// object with a "trace" list, as written by the simulator's JSON output.
func ParseTrace(data []byte, format Format) (model.Trace, error) {
	var wrapped struct {
		Trace model.Trace `json:"trace" yaml:"trace"`
	}
	var t model.Trace

	unmarshal := json.Unmarshal
	if format == FormatYAML {
		unmarshal = yaml.Unmarshal
	}
	if err := unmarshal(data, &t); err != nil {
		if werr := unmarshal(data, &wrapped); werr != nil {
			return nil, fmt.Errorf("decoding trace: %w", err)
		}
		t = wrapped.Trace
	}
	if len(t) == 0 {
		return nil, ErrEmptyTrace
	}
	for i := range t {
		if t[i].Index == 0 {
			t[i].Index = i + 1
		}
		if t[i].Variables == nil {
			t[i].Variables = map[string]model.Value{}
		}
	}
	return t, nil
}
