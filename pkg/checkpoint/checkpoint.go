package checkpoint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrInvalidID is returned when a checkpoint ID contains invalid characters
var ErrInvalidID = errors.New("invalid checkpoint ID: contains path traversal or invalid characters")

// IngestCheckpoint records how far an ingestion run got through a source
// file. Rows before NextRow have been attempted; merge-by-name writes make
// re-attempting them harmless.
type IngestCheckpoint struct {
	ID     string `json:"id"`
	RunID  string `json:"run_id"`
	Source string `json:"source"`

	TotalRows int `json:"total_rows"`
	NextRow   int `json:"next_row"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`

	CreatedAt     time.Time `json:"created_at"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
	AttemptCount  int       `json:"attempt_count"`
	LastError     string    `json:"last_error,omitempty"`
}

// IDForSource derives a stable checkpoint ID from a source path.
func IDForSource(source string) string {
	if abs, err := filepath.Abs(source); err == nil {
		source = abs
	}
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:8])
}

// Manager stores checkpoints as JSON files in one directory.
type Manager struct {
	checkpointDir string
}

// NewManager creates a new checkpoint manager.
// If checkpointDir is empty, uses os.TempDir()/footballkg-checkpoints
func NewManager(checkpointDir string) (*Manager, error) {
	if checkpointDir == "" {
		checkpointDir = filepath.Join(os.TempDir(), "footballkg-checkpoints")
	}

	if err := os.MkdirAll(checkpointDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	return &Manager{checkpointDir: checkpointDir}, nil
}

// validateID rejects IDs containing path separators, traversal sequences
// or null bytes.
func validateID(id string) error {
	if id == "" {
		return ErrInvalidID
	}
	if strings.Contains(id, "..") {
		return ErrInvalidID
	}
	if strings.ContainsAny(id, `/\`) {
		return ErrInvalidID
	}
	if strings.ContainsRune(id, '\x00') {
		return ErrInvalidID
	}
	return nil
}

// isPathWithinDirectory checks that the resolved path is within directory.
func isPathWithinDirectory(path, directory string) bool {
	cleanPath := filepath.Clean(path)
	cleanDir := filepath.Clean(directory)

	if !strings.HasSuffix(cleanDir, string(filepath.Separator)) {
		cleanDir += string(filepath.Separator)
	}

	return strings.HasPrefix(cleanPath, cleanDir) || cleanPath == filepath.Clean(directory)
}

// Path returns the file path for a checkpoint.
func (m *Manager) Path(id string) (string, error) {
	if err := validateID(id); err != nil {
		return "", err
	}

	fullPath := filepath.Join(m.checkpointDir, fmt.Sprintf("ingest_%s.json", id))
	if !isPathWithinDirectory(fullPath, m.checkpointDir) {
		return "", ErrInvalidID
	}
	return fullPath, nil
}

// Dir returns the checkpoint directory path
func (m *Manager) Dir() string {
	return m.checkpointDir
}

// Save persists the checkpoint to disk
func (m *Manager) Save(ctx context.Context, checkpoint *IngestCheckpoint) error {
	checkpoint.LastUpdatedAt = time.Now()

	data, err := json.MarshalIndent(checkpoint, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	checkpointPath, err := m.Path(checkpoint.ID)
	if err != nil {
		return fmt.Errorf("invalid checkpoint ID: %w", err)
	}

	// Write to a temporary file first, then rename for atomic write
	tmpPath := checkpointPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write checkpoint file: %w", err)
	}
	if err := os.Rename(tmpPath, checkpointPath); err != nil {
		return fmt.Errorf("failed to rename checkpoint file: %w", err)
	}
	return nil
}

// Load retrieves a checkpoint from disk. A missing checkpoint is (nil, nil).
func (m *Manager) Load(ctx context.Context, id string) (*IngestCheckpoint, error) {
	checkpointPath, err := m.Path(id)
	if err != nil {
		return nil, fmt.Errorf("invalid checkpoint ID: %w", err)
	}

	data, err := os.ReadFile(checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read checkpoint file: %w", err)
	}

	var checkpoint IngestCheckpoint
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return &checkpoint, nil
}

// Delete removes a checkpoint from disk
func (m *Manager) Delete(ctx context.Context, id string) error {
	checkpointPath, err := m.Path(id)
	if err != nil {
		return fmt.Errorf("invalid checkpoint ID: %w", err)
	}

	if err := os.Remove(checkpointPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint file: %w", err)
	}
	return nil
}

// Exists checks if a checkpoint exists
func (m *Manager) Exists(ctx context.Context, id string) (bool, error) {
	checkpointPath, err := m.Path(id)
	if err != nil {
		return false, fmt.Errorf("invalid checkpoint ID: %w", err)
	}

	if _, err := os.Stat(checkpointPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check checkpoint existence: %w", err)
	}
	return true, nil
}

// List returns all checkpoints in the checkpoint directory. Unreadable
// files are skipped.
func (m *Manager) List(ctx context.Context) ([]*IngestCheckpoint, error) {
	entries, err := os.ReadDir(m.checkpointDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint directory: %w", err)
	}

	var checkpoints []*IngestCheckpoint
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(m.checkpointDir, entry.Name()))
		if err != nil {
			continue
		}
		var checkpoint IngestCheckpoint
		if err := json.Unmarshal(data, &checkpoint); err != nil {
			continue
		}
		checkpoints = append(checkpoints, &checkpoint)
	}
	return checkpoints, nil
}

// CleanOld removes checkpoints not updated within maxAge.
func (m *Manager) CleanOld(ctx context.Context, maxAge time.Duration) (int, error) {
	checkpoints, err := m.List(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, checkpoint := range checkpoints {
		if checkpoint.LastUpdatedAt.Before(cutoff) {
			if err := m.Delete(ctx, checkpoint.ID); err != nil {
				continue
			}
			removed++
		}
	}
	return removed, nil
}
