package warehouse

import (
	"fmt"
	"math/big"
	"os"
	"sync"
	"time"

	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/galacticcouncil/warehouse/core/events"
)

// settlementRow is the Parquet schema for one closed-out global farm: its
// final reward-currency balance sheet at the moment it was destroyed.
type settlementRow struct {
	GlobalFarmID  int64  `parquet:"name=global_farm_id, type=INT64"`
	Owner         string `parquet:"name=owner, type=BYTE_ARRAY, convertedtype=UTF8"`
	Undistributed string `parquet:"name=undistributed, type=BYTE_ARRAY, convertedtype=UTF8"`
	Flushed       bool   `parquet:"name=flushed, type=BOOLEAN"`
	ClosedAt      string `parquet:"name=closed_at, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// Exporter accumulates GlobalFarmDestroyed events and periodically snapshots
// them to a Parquet file. It implements events.Emitter so it can be chained
// with farming.WithEmitter alongside (or instead of) other sinks — see
// NewTee.
type Exporter struct {
	mu       sync.Mutex
	path     string
	pending  []settlementRow
	now      func() time.Time
}

// NewExporter returns an exporter that writes snapshots to path.
func NewExporter(path string) *Exporter {
	return &Exporter{path: path, now: time.Now}
}

// Emit implements events.Emitter, buffering GlobalFarmDestroyed records for
// the next Flush. All other event types are ignored.
func (e *Exporter) Emit(ev events.Event) {
	destroyed, ok := ev.(events.GlobalFarmDestroyed)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = append(e.pending, settlementRow{
		GlobalFarmID:  int64(destroyed.GlobalFarmID),
		Owner:         destroyed.Owner,
		Undistributed: formatAmount(destroyed.Undistributed),
		Flushed:       destroyed.Flushed,
		ClosedAt:      e.now().UTC().Format(time.RFC3339),
	})
}

// Run flushes accumulated settlements to disk every interval until stop is
// closed. Call this in its own goroutine.
func (e *Exporter) Run(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			_ = e.Flush()
			return
		case <-ticker.C:
			_ = e.Flush()
		}
	}
}

// Flush writes every buffered settlement to the configured Parquet file and
// clears the buffer. A no-op if nothing has accumulated since the last call.
func (e *Exporter) Flush() error {
	e.mu.Lock()
	rows := e.pending
	e.pending = nil
	e.mu.Unlock()

	if len(rows) == 0 {
		return nil
	}

	file, err := os.Create(e.path)
	if err != nil {
		return fmt.Errorf("warehouse: create export file: %w", err)
	}
	fw := writerfile.NewWriterFile(file)
	pw, err := writer.NewParquetWriter(fw, new(settlementRow), 1)
	if err != nil {
		file.Close()
		return fmt.Errorf("warehouse: parquet schema: %w", err)
	}
	pw.RowGroupSize = 128 * 1024 * 1024
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := range rows {
		if err := pw.Write(&rows[i]); err != nil {
			pw.WriteStop()
			file.Close()
			return fmt.Errorf("warehouse: parquet write: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		file.Close()
		return fmt.Errorf("warehouse: parquet flush: %w", err)
	}
	return file.Close()
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
