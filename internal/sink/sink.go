// Package sink provides the storage backends that consume normalized
// code records.
package sink

import (
	"context"
	"sync"

	"github.com/gyeh/mrfscan/internal/model"
)

// Sink accepts batches of normalized records. Batches are always
// complete; a cancelled hospital's partial batch is never appended.
// Implementations must be safe for concurrent Append calls.
type Sink interface {
	Append(ctx context.Context, records []model.CodeRecord) error
	Close() error
}

// Memory buffers records in-process. Used by tests and --dry-run.
type Memory struct {
	mu      sync.Mutex
	records []model.CodeRecord
}

// NewMemory returns an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Append(_ context.Context, records []model.CodeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, records...)
	return nil
}

func (m *Memory) Close() error { return nil }

// Records returns a copy of everything appended so far.
func (m *Memory) Records() []model.CodeRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.CodeRecord, len(m.records))
	copy(out, m.records)
	return out
}

// Len returns the number of records appended so far.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
