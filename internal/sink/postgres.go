package sink

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/mrfscan/internal/db"
	"github.com/gyeh/mrfscan/internal/model"
	"github.com/gyeh/mrfscan/internal/normalize"
)

// Postgres COPY-loads records into mrf.charge_records, stamped with
// the run's batch UUID. Row numbering is global across the run so row
// hashes stay unique within one load.
type Postgres struct {
	pool  *pgxpool.Pool
	log   zerolog.Logger
	runID uuid.UUID

	mu     sync.Mutex
	rowNum int64
}

// NewPostgres wraps an existing pool. The caller owns the pool's
// lifecycle; Close here does not close it.
func NewPostgres(pool *pgxpool.Pool, runID uuid.UUID, log zerolog.Logger) *Postgres {
	return &Postgres{pool: pool, log: log, runID: runID}
}

func (p *Postgres) Append(ctx context.Context, records []model.CodeRecord) error {
	if len(records) == 0 {
		return nil
	}

	p.mu.Lock()
	rows := make([]*model.ChargeRow, len(records))
	for i := range records {
		p.rowNum++
		rows[i] = normalize.ToChargeRow(&records[i], p.runID, p.rowNum)
	}
	p.mu.Unlock()

	copied, err := p.pool.CopyFrom(ctx,
		pgx.Identifier{"mrf", "charge_records"},
		model.ChargeColumns(),
		db.NewRowSource(rows),
	)
	if err != nil {
		return fmt.Errorf("copy charge records: %w", err)
	}

	p.log.Info().Int64("rows", copied).Str("run_id", p.runID.String()).Msg("batch loaded")
	return nil
}

func (p *Postgres) Close() error { return nil }
