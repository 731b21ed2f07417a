// Package degradefile reads the degrade list from a YAML file, for nodes
// whose configuration is distributed as files rather than through Redis.
package degradefile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrNoList is returned when the file holds no degrade list at all: empty,
// comments only, or a mapping without a `degrades` key. An explicit
// `degrades: []` or `[]` is a valid empty list.
var ErrNoList = errors.New("degrade file has no degrades list")

// document accepts `degrades: [...]`. The pointer tells a missing key from
// an empty list.
type document struct {
	Degrades *[]string `yaml:"degrades"`
}

// Source re-reads the file on every Fetch.
type Source struct {
	filePath string
}

func NewSource(filePath string) *Source {
	return &Source{filePath: filePath}
}

// Fetch parses either a `degrades:` mapping or a bare YAML sequence.
func (s *Source) Fetch(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read degrade file: %w", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse degrade file: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, fmt.Errorf("%s: %w", s.filePath, ErrNoList)
	}

	switch body := root.Content[0]; body.Kind {
	case yaml.SequenceNode:
		list := []string{}
		if err := body.Decode(&list); err != nil {
			return nil, fmt.Errorf("failed to parse degrade file: %w", err)
		}
		return list, nil

	case yaml.MappingNode:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)

		var doc document
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to parse degrade file: %w", err)
		}
		if doc.Degrades == nil {
			return nil, fmt.Errorf("%s: %w", s.filePath, ErrNoList)
		}
		return *doc.Degrades, nil

	default:
		return nil, fmt.Errorf("%s: %w", s.filePath, ErrNoList)
	}
}
