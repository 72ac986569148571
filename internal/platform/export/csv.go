// Package export mirrors the clinical tables to CSV files so the front desk
// can open the data in a spreadsheet. The mirror is best-effort: export
// failures are logged and never surfaced to the workflow that triggered them.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Refresher re-exports the mirror after a committed mutation.
type Refresher interface {
	Refresh(ctx context.Context)
}

// mirroredTables is the allowlist of tables the mirror may read. Table names
// are interpolated into SQL, so nothing outside this list is ever queried.
var mirroredTables = []string{"patients", "appointments", "diagnoses", "billing"}

// CSVMirror snapshots whole tables into <dir>/<table>.csv.
type CSVMirror struct {
	pool   *pgxpool.Pool
	dir    string
	logger zerolog.Logger
}

func NewCSVMirror(pool *pgxpool.Pool, dir string, logger zerolog.Logger) *CSVMirror {
	return &CSVMirror{pool: pool, dir: dir, logger: logger}
}

// Refresh rewrites every mirrored table. Errors are logged per table and the
// remaining tables are still attempted.
func (m *CSVMirror) Refresh(ctx context.Context) {
	for _, table := range mirroredTables {
		if err := m.Snapshot(ctx, table); err != nil {
			m.logger.Error().Err(err).Str("table", table).Msg("csv mirror refresh failed")
		}
	}
}

// Snapshot reads one table in full and overwrites its CSV file.
func (m *CSVMirror) Snapshot(ctx context.Context, table string) error {
	allowed := false
	for _, t := range mirroredTables {
		if t == table {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("table %s is not mirrored", table)
	}

	rows, err := m.pool.Query(ctx, "SELECT * FROM "+table)
	if err != nil {
		return fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = f.Name
	}

	var records [][]string
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return fmt.Errorf("read %s row: %w", table, err)
		}
		record := make([]string, len(values))
		for i, v := range values {
			record[i] = formatValue(v)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate %s: %w", table, err)
	}

	return m.WriteTable(table, header, records)
}

// WriteTable writes one CSV file atomically (temp file then rename).
func (m *CSVMirror) WriteTable(table string, header []string, records [][]string) error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	tmp, err := os.CreateTemp(m.dir, table+"-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, record := range records {
		if err := w.Write(record); err != nil {
			tmp.Close()
			return fmt.Errorf("write record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	final := filepath.Join(m.dir, table+".csv")
	if err := os.Rename(tmp.Name(), final); err != nil {
		return fmt.Errorf("replace %s: %w", final, err)
	}
	return nil
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case []byte:
		return string(t)
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// Noop is a Refresher that does nothing, for tests and tooling.
type Noop struct{}

func (Noop) Refresh(context.Context) {}
