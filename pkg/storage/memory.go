package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/solarsim/solarsim/pkg/types"
)

// Memory keeps exports for the lifetime of the process.
type Memory struct {
	mu      sync.Mutex
	exports map[string]types.ExportRecord
}

// NewMemory returns an empty Memory database.
func NewMemory() *Memory {
	return &Memory{
		exports: make(map[string]types.ExportRecord),
	}
}

// SaveExport stores a copy of rec.
func (m *Memory) SaveExport(ctx context.Context, rec types.ExportRecord) error {
	if err := validateRecord(rec); err != nil {
		return err
	}
	rec.Data = append([]byte(nil), rec.Data...)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.exports[rec.ID] = rec
	return nil
}

// GetExport returns a copy of the stored record.
func (m *Memory) GetExport(ctx context.Context, id string) (types.ExportRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.exports[id]
	if !ok {
		return types.ExportRecord{}, fmt.Errorf("%w: %s", ErrExportNotFound, id)
	}
	rec.Data = append([]byte(nil), rec.Data...)
	return rec, nil
}

// ListExports returns records newest first.
func (m *Memory) ListExports(ctx context.Context, limit int) ([]types.ExportRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	m.mu.Lock()
	out := make([]types.ExportRecord, 0, len(m.exports))
	for _, rec := range m.exports {
		rec.Data = nil
		out = append(out, rec)
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close does nothing.
func (m *Memory) Close() error {
	return nil
}
