package sink

import (
	"context"
	"fmt"
	"os"
	"sync"

	goparquet "github.com/parquet-go/parquet-go"

	"github.com/gyeh/mrfscan/internal/model"
)

const parquetFlushInterval = 100_000

// Parquet writes records to a single Parquet file. Row groups are
// flushed periodically to bound writer memory.
type Parquet struct {
	mu     sync.Mutex
	file   *os.File
	writer *goparquet.GenericWriter[model.ParquetRow]
	count  int
}

// NewParquet creates (or truncates) the output file.
func NewParquet(path string) (*Parquet, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create parquet file: %w", err)
	}
	w := goparquet.NewGenericWriter[model.ParquetRow](f,
		goparquet.Compression(&goparquet.Snappy),
	)
	return &Parquet{file: f, writer: w}, nil
}

func (p *Parquet) Append(ctx context.Context, records []model.CodeRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		row := model.ToParquetRow(&records[i])
		if _, err := p.writer.Write([]model.ParquetRow{row}); err != nil {
			return fmt.Errorf("write parquet record: %w", err)
		}
		p.count++
		if p.count%parquetFlushInterval == 0 {
			if err := p.writer.Flush(); err != nil {
				return fmt.Errorf("flush parquet row group: %w", err)
			}
		}
	}
	return nil
}

func (p *Parquet) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.writer.Close(); err != nil {
		p.file.Close()
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return p.file.Close()
}
