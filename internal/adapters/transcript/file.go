package transcript

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	transcriptFileMode = 0o600
	transcriptDirMode  = 0o700
)

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), transcriptDirMode); err != nil {
		return fmt.Errorf("create transcript directory: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp transcript file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp transcript file: %w", err)
	}

	if err := tempFile.Chmod(transcriptFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp transcript file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp transcript file: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace transcript file: %w", err)
	}

	cleanup = false
	return nil
}
