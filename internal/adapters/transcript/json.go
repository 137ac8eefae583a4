package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bnema/agent-council/internal/domain"
	"github.com/bnema/agent-council/internal/ports"
)

type JSONStore struct {
	path string
}

var (
	_ ports.TranscriptWriter = (*JSONStore)(nil)
	_ ports.TranscriptReader = (*JSONStore)(nil)
)

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) Write(ctx context.Context, transcript domain.Transcript) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(toRecord(transcript), "", "  ")
	if err != nil {
		return fmt.Errorf("encode json transcript: %w", err)
	}

	return writeFileAtomic(s.path, append(data, '\n'))
}

const legacyStopMarker = "\u23f9\ufe0f"

// legacyEntry is the bare-array export of earlier versions: one object per
// log entry and no session metadata.
type legacyEntry struct {
	Agent     string `json:"agent"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func (s *JSONStore) Read(ctx context.Context) (domain.Transcript, error) {
	if err := ctx.Err(); err != nil {
		return domain.Transcript{}, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return domain.Transcript{}, fmt.Errorf("read json transcript: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return decodeLegacy(trimmed)
	}

	var record transcriptRecord
	if err := json.Unmarshal(trimmed, &record); err != nil {
		return domain.Transcript{}, fmt.Errorf("decode json transcript: %w", err)
	}
	if record.Version > currentFormatVersion {
		return domain.Transcript{}, fmt.Errorf("unsupported transcript version %d (current %d)", record.Version, currentFormatVersion)
	}

	return fromRecord(record), nil
}

func decodeLegacy(data []byte) (domain.Transcript, error) {
	var legacy []legacyEntry
	if err := json.Unmarshal(data, &legacy); err != nil {
		return domain.Transcript{}, fmt.Errorf("decode legacy json transcript: %w", err)
	}

	record := transcriptRecord{Entries: make([]entryRecord, 0, len(legacy))}
	for _, entry := range legacy {
		timestamp, err := parseLegacyTimestamp(entry.Timestamp)
		if err != nil {
			return domain.Transcript{}, err
		}
		record.Entries = append(record.Entries, entryRecord{
			Author:    entry.Agent,
			Kind:      string(legacyKind(entry.Message)),
			Content:   entry.Message,
			Timestamp: timestamp,
		})
	}

	transcript := fromRecord(record)
	transcript.Summary.MessageCount = len(transcript.Entries)
	for _, entry := range transcript.Entries {
		if entry.IsMessage() {
			transcript.Summary.ContentCount++
		}
	}
	if n := len(transcript.Entries); n > 0 {
		transcript.StartedAt = transcript.Entries[0].Timestamp
		transcript.FinishedAt = transcript.Entries[n-1].Timestamp
	}

	return transcript, nil
}

// legacyKind recognises the stop notices earlier exports stored as plain
// messages, with or without the leading emoji.
func legacyKind(message string) domain.EntryKind {
	trimmed := strings.TrimSpace(message)
	trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, legacyStopMarker))
	if strings.HasPrefix(trimmed, "Stopping:") {
		return domain.EntryStop
	}
	return domain.EntryMessage
}

func parseLegacyTimestamp(value string) (time.Time, error) {
	layouts := []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse legacy timestamp %q", value)
}
