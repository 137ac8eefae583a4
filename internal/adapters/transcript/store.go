package transcript

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bnema/agent-council/internal/ports"
)

// Store reads and writes transcripts in one format.
type Store interface {
	ports.TranscriptWriter
	ports.TranscriptReader
}

// New picks the format from the file extension.
func New(path string) (Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("transcript path is empty")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return NewJSONStore(path), nil
	case ".toml":
		return NewTOMLStore(path), nil
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLiteStore(path), nil
	default:
		return nil, fmt.Errorf("unsupported transcript format %q (use .json, .toml, .db or .sqlite)", filepath.Ext(path))
	}
}
