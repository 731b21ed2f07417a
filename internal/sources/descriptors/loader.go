package descriptors

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader reads the descriptor file.
type Loader struct {
	filePath string
}

// NewLoader creates a loader for the given path
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the descriptor file. ${VAR} references are
// expanded from the environment before parsing.
func (l *Loader) Load() (*File, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var file File
	if err := yaml.Unmarshal([]byte(expanded), &file); err != nil {
		return nil, fmt.Errorf("failed to parse descriptor yaml: %w", err)
	}

	return &file, nil
}
