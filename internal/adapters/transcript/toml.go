package transcript

import (
	"context"
	"fmt"
	"os"

	"github.com/bnema/agent-council/internal/domain"
	"github.com/bnema/agent-council/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
)

type TOMLStore struct {
	path string
}

var (
	_ ports.TranscriptWriter = (*TOMLStore)(nil)
	_ ports.TranscriptReader = (*TOMLStore)(nil)
)

func NewTOMLStore(path string) *TOMLStore {
	return &TOMLStore{path: path}
}

func (s *TOMLStore) Write(ctx context.Context, transcript domain.Transcript) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := toml.Marshal(toRecord(transcript))
	if err != nil {
		return fmt.Errorf("encode toml transcript: %w", err)
	}

	return writeFileAtomic(s.path, data)
}

func (s *TOMLStore) Read(ctx context.Context) (domain.Transcript, error) {
	if err := ctx.Err(); err != nil {
		return domain.Transcript{}, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return domain.Transcript{}, fmt.Errorf("read toml transcript: %w", err)
	}

	var record transcriptRecord
	if err := toml.Unmarshal(data, &record); err != nil {
		return domain.Transcript{}, fmt.Errorf("decode toml transcript: %w", err)
	}
	if record.Version > currentFormatVersion {
		return domain.Transcript{}, fmt.Errorf("unsupported transcript version %d (current %d)", record.Version, currentFormatVersion)
	}

	return fromRecord(record), nil
}
