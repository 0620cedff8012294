package checkpoint

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// New creates a checkpoint at row zero of source.
func New(source, runID string, totalRows int) *IngestCheckpoint {
	now := time.Now()
	return &IngestCheckpoint{
		ID:            IDForSource(source),
		RunID:         runID,
		Source:        source,
		TotalRows:     totalRows,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
}

// Done reports whether every row has been attempted.
func (c *IngestCheckpoint) Done() bool {
	return c.NextRow >= c.TotalRows
}

// Progress returns e.g. "120/500 rows (24%)".
func (c *IngestCheckpoint) Progress() string {
	if c.TotalRows == 0 {
		return "0/0 rows"
	}
	pct := float64(c.NextRow) / float64(c.TotalRows) * 100
	return fmt.Sprintf("%d/%d rows (%.0f%%)", c.NextRow, c.TotalRows, pct)
}

// Advance records the outcome of row idx.
func (c *IngestCheckpoint) Advance(idx int, ok bool) {
	c.NextRow = idx + 1
	if ok {
		c.Succeeded++
	} else {
		c.Failed++
	}
}

// Summary provides a human-readable summary of the checkpoint
func (c *IngestCheckpoint) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Source: %s\n", c.Source)
	fmt.Fprintf(&b, "Run: %s\n", c.RunID)
	fmt.Fprintf(&b, "Progress: %s\n", c.Progress())
	fmt.Fprintf(&b, "Succeeded: %d, Failed: %d\n", c.Succeeded, c.Failed)
	fmt.Fprintf(&b, "Created: %s\n", c.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Last Updated: %s\n", c.LastUpdatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Attempts: %d\n", c.AttemptCount)
	if c.LastError != "" {
		fmt.Fprintf(&b, "Last Error: %s\n", c.LastError)
	}
	return b.String()
}

// SaveWithError records err on the checkpoint and saves it.
func (m *Manager) SaveWithError(ctx context.Context, checkpoint *IngestCheckpoint, err error) error {
	checkpoint.AttemptCount++
	checkpoint.LastError = err.Error()
	return m.Save(ctx, checkpoint)
}

// LoadOrCreate returns the saved checkpoint for source, or a new one when
// none exists or the saved one was taken over a different row count. The
// boolean reports whether an existing checkpoint was resumed.
func (m *Manager) LoadOrCreate(ctx context.Context, source, runID string, totalRows int) (*IngestCheckpoint, bool, error) {
	existing, err := m.Load(ctx, IDForSource(source))
	if err != nil {
		return nil, false, err
	}
	if existing != nil && existing.TotalRows == totalRows && !existing.Done() {
		return existing, true, nil
	}

	checkpoint := New(source, runID, totalRows)
	if err := m.Save(ctx, checkpoint); err != nil {
		return nil, false, err
	}
	return checkpoint, false, nil
}

// FindStalled returns unfinished checkpoints not updated within stalledDuration.
func (m *Manager) FindStalled(ctx context.Context, stalledDuration time.Duration) ([]*IngestCheckpoint, error) {
	checkpoints, err := m.List(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-stalledDuration)
	var stalled []*IngestCheckpoint
	for _, checkpoint := range checkpoints {
		if !checkpoint.Done() && checkpoint.LastUpdatedAt.Before(cutoff) {
			stalled = append(stalled, checkpoint)
		}
	}
	return stalled, nil
}
