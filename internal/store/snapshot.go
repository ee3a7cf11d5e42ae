package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/voxtodo/voxtodo/internal/logger"
	"github.com/voxtodo/voxtodo/internal/models"
	"go.uber.org/zap"
)

// snapshot is the on-disk format: everything the store owns in one file.
type snapshot struct {
	Lists   []*models.List        `json:"lists"`
	History []models.ChatMessage  `json:"chat_history,omitempty"`
	Usage   *models.UsageSnapshot `json:"usage,omitempty"`
}

// load reads the snapshot file. A missing file starts the store empty.
func (s *Store) load() error {
	if s.path == "" {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read store snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("unmarshal store snapshot: %w", err)
	}

	s.lists = snap.Lists
	s.history = snap.History
	s.usage = snap.Usage
	return nil
}

// persist writes the snapshot via a temp file and rename, so a crash
// mid-write never truncates the previous snapshot. Best-effort: failures
// are logged, mutations never roll back. Caller holds the lock.
func (s *Store) persist() {
	if s.path == "" {
		return
	}

	snap := snapshot{
		Lists:   s.lists,
		History: s.history,
		Usage:   s.usage,
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		s.logger.Error("store_snapshot_marshal_failed", zap.String("error", logger.SanitizeError(err)))
		return
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logger.Error("store_snapshot_dir_failed", zap.String("error", logger.SanitizeError(err)))
		return
	}

	tmp, err := os.CreateTemp(dir, ".voxtodo-*.json")
	if err != nil {
		s.logger.Error("store_snapshot_temp_failed", zap.String("error", logger.SanitizeError(err)))
		return
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		s.logger.Error("store_snapshot_write_failed", zap.String("error", logger.SanitizeError(err)))
		return
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		s.logger.Error("store_snapshot_close_failed", zap.String("error", logger.SanitizeError(err)))
		return
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		s.logger.Error("store_snapshot_rename_failed", zap.String("error", logger.SanitizeError(err)))
	}
}
