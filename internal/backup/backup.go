// Package backup exports every business table as one JSON snapshot.
package backup

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Tables lists the exported tables in dependency order.
var Tables = []string{"customers", "customer_branches", "items", "invoices", "invoice_details"}

// Row is one exported record keyed by column name.
type Row map[string]any

// Snapshot is the full export.
type Snapshot struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Tables      map[string][]Row `json:"tables"`
}

// Counts returns the number of rows per table.
func (s Snapshot) Counts() map[string]int {
	out := make(map[string]int, len(s.Tables))
	for name, rows := range s.Tables {
		out[name] = len(rows)
	}
	return out
}

// Source reads a whole table.
type Source interface {
	Dump(ctx context.Context, table string) ([]Row, error)
}

// ConsistentSource can pin every Dump inside fn to one point in time.
type ConsistentSource interface {
	Source
	Consistent(ctx context.Context, fn func(Source) error) error
}

// Service builds and stores snapshots.
type Service struct {
	source Source
	now    func() time.Time
}

// NewService constructs the backup service.
func NewService(source Source) *Service {
	return &Service{source: source, now: func() time.Time { return time.Now().UTC() }}
}

// Snapshot reads all tables. When the source is a ConsistentSource the
// tables are read from the same committed state.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{GeneratedAt: s.now(), Tables: make(map[string][]Row, len(Tables))}
	read := func(src Source) error {
		for _, table := range Tables {
			rows, err := src.Dump(ctx, table)
			if err != nil {
				return fmt.Errorf("dump %s: %w", table, err)
			}
			if rows == nil {
				rows = []Row{}
			}
			snap.Tables[table] = rows
		}
		return nil
	}

	var err error
	if cs, ok := s.source.(ConsistentSource); ok {
		err = cs.Consistent(ctx, read)
	} else {
		err = read(s.source)
	}
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Filename names a download, e.g. backup-2024-10-17-09-30-00.json.
func Filename(at time.Time, ext string) string {
	return "backup-" + at.Format("2006-01-02-15-04-05") + "." + ext
}

// WriteJSON encodes the snapshot with indentation.
func WriteJSON(w io.Writer, snap Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// WriteArchive writes a zip holding the JSON snapshot and one CSV per table.
func WriteArchive(w io.Writer, snap Snapshot) error {
	zw := zip.NewWriter(w)
	f, err := zw.Create(Filename(snap.GeneratedAt, "json"))
	if err != nil {
		return err
	}
	if err := WriteJSON(f, snap); err != nil {
		return err
	}
	for _, table := range Tables {
		f, err := zw.Create(table + ".csv")
		if err != nil {
			return err
		}
		if err := writeCSV(f, snap.Tables[table]); err != nil {
			return fmt.Errorf("csv %s: %w", table, err)
		}
	}
	return zw.Close()
}

func writeCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if len(rows) == 0 {
		cw.Flush()
		return cw.Error()
	}
	columns := make([]string, 0, len(rows[0]))
	for col := range rows[0] {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	if err := cw.Write(columns); err != nil {
		return err
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = cell(row[col])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		return x.Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	case json.Marshaler:
		b, err := x.MarshalJSON()
		if err != nil {
			return ""
		}
		var s string
		if json.Unmarshal(b, &s) == nil {
			return s
		}
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}

// WriteFile stores the snapshot under dir and returns the file path.
func (s *Service) WriteFile(ctx context.Context, dir string) (string, Snapshot, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return "", Snapshot{}, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", Snapshot{}, err
	}
	name := fmt.Sprintf("backup-%s-%s.json", snap.GeneratedAt.Format("2006-01-02-15-04-05"), uuid.NewString())
	path := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, ".backup-*")
	if err != nil {
		return "", Snapshot{}, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if err := WriteJSON(tmp, snap); err != nil {
		_ = tmp.Close()
		return "", Snapshot{}, err
	}
	if err := tmp.Close(); err != nil {
		return "", Snapshot{}, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", Snapshot{}, err
	}
	return path, snap, nil
}
