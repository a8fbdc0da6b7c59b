package db

import (
	"github.com/jackc/pgx/v5"

	"github.com/gyeh/mrfscan/internal/model"
)

// RowSource implements pgx.CopyFromSource over a slice of ChargeRows.
type RowSource struct {
	rows []*model.ChargeRow
	idx  int
}

// NewRowSource creates a CopyFromSource over the given rows.
func NewRowSource(rows []*model.ChargeRow) *RowSource {
	return &RowSource{rows: rows, idx: -1}
}

// Next advances to the next row.
func (s *RowSource) Next() bool {
	s.idx++
	return s.idx < len(s.rows)
}

// Values returns the current row's values in COPY column order.
func (s *RowSource) Values() ([]any, error) {
	return s.rows[s.idx].CopyValues(), nil
}

// Err returns any error encountered during iteration.
func (s *RowSource) Err() error {
	return nil
}

// Compile-time check that RowSource satisfies the interface.
var _ pgx.CopyFromSource = (*RowSource)(nil)
