package seed

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/tinylink/internal/domain"
)

// ErrInvalidEntry marks a seed entry that can never be applied.
var ErrInvalidEntry = errors.New("invalid seed entry")

// Loader reads and validates a seed file.
type Loader struct {
	filePath string
}

func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

func (l *Loader) Path() string { return l.filePath }

// Load reads the file, expands ${VAR} references from the environment and
// validates every entry. A single bad entry rejects the whole file.
func (l *Loader) Load() (*File, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes seed YAML already in memory.
func Parse(data []byte) (*File, error) {
	expanded := os.ExpandEnv(string(data))

	var f File
	if err := yaml.Unmarshal([]byte(expanded), &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed yaml: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) Validate() error {
	seen := make(map[string]int, len(f.Links))
	for i, e := range f.Links {
		switch {
		case e.Code == "":
			return fmt.Errorf("%w: links[%d]: code is required", ErrInvalidEntry, i)
		case !domain.ValidCode(e.Code):
			return fmt.Errorf("%w: links[%d]: %q: %w", ErrInvalidEntry, i, e.Code, domain.ErrInvalidCodeFormat)
		}
		if err := domain.ValidateTargetURL(e.TargetURL); err != nil {
			return fmt.Errorf("%w: links[%d]: %w", ErrInvalidEntry, i, err)
		}
		if prev, dup := seen[e.Code]; dup {
			return fmt.Errorf("%w: links[%d]: code %q already declared at links[%d]", ErrInvalidEntry, i, e.Code, prev)
		}
		seen[e.Code] = i
	}
	return nil
}
