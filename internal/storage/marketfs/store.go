// Package marketfs implements file-based persistence for the market data
// snapshot: one JSON file, replaced atomically on every save.
package marketfs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/niveshapp/nivesh/internal/common"
	"github.com/niveshapp/nivesh/internal/interfaces"
	"github.com/niveshapp/nivesh/internal/models"
)

const snapshotFileName = "market-data.json"

// Store persists the market snapshot under a cache directory.
type Store struct {
	dir    string
	logger *common.Logger
}

// NewStore creates the cache directory if needed and returns a store.
func NewStore(logger *common.Logger, dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir %s: %w", dir, err)
	}
	logger.Info().Str("path", dir).Msg("Market snapshot store opened")
	return &Store{dir: dir, logger: logger}, nil
}

// Path returns the snapshot file path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, snapshotFileName)
}

// Load reads the persisted snapshot. A missing file is not an error: the
// cache simply starts empty on first run.
func (s *Store) Load(_ context.Context) (*models.MarketSnapshot, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var snapshot models.MarketSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	snapshot.Normalize()
	return &snapshot, nil
}

// Save atomically replaces the persisted snapshot. The write goes to a
// temp file in the same directory first so the rename can never expose a
// half-written file to readers.
func (s *Store) Save(_ context.Context, snapshot *models.MarketSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tmpFile, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	s.logger.Debug().Str("path", s.Path()).Msg("Market snapshot saved")
	return nil
}

// Ensure Store implements SnapshotStore.
var _ interfaces.SnapshotStore = (*Store)(nil)
