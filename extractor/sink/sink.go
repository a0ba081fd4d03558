// Package sink persists uniformly-shaped rows as a CSV file, a Parquet file
// or a SQL table. Every write replaces whatever the destination held.
package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/borges12matheus/pipeline-aws-price/extractor/provider"
)

// Format selects how rows are persisted.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatParquet  Format = "parquet"
	FormatSQLite   Format = "sqlite"
	FormatPostgres Format = "postgres"
)

// Formats lists the accepted format names.
var Formats = []Format{FormatCSV, FormatParquet, FormatSQLite, FormatPostgres}

// Destination is where a pipeline run writes its table.
// Path is a file path, or a connection string for FormatPostgres.
type Destination struct {
	Format Format
	Path   string
}

func (d Destination) String() string {
	if d.Format == FormatPostgres {
		return "postgres:" + redactDSN(d.Path)
	}
	return fmt.Sprintf("%s:%s", d.Format, d.Path)
}

// ParseFormat validates a format name, case-insensitively.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("output format '%s' is not recognized. Available formats: csv, parquet, sqlite, postgres", name)
}

// InferFormat guesses the format from a path's scheme or extension and
// falls back to CSV.
func InferFormat(path string) Format {
	lower := strings.ToLower(path)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return FormatPostgres
	}
	switch filepath.Ext(lower) {
	case ".parquet", ".pq":
		return FormatParquet
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	default:
		return FormatCSV
	}
}

// Write replaces the destination's content with rows. table names the SQL
// table and is ignored by the file formats. An empty rows slice still
// produces an empty table.
func Write[T provider.Record](ctx context.Context, dst Destination, table string, rows []T) error {
	var err error
	switch dst.Format {
	case FormatCSV:
		err = writeCSV(dst.Path, rows)
	case FormatParquet:
		err = writeParquet(dst.Path, rows)
	case FormatSQLite, FormatPostgres:
		err = writeSQL(ctx, dst.Format, dst.Path, table, rows)
	default:
		return fmt.Errorf("unsupported output format %q", dst.Format)
	}
	if err != nil {
		return fmt.Errorf("failed to write %d rows [destination=%s]: %w", len(rows), dst, err)
	}
	return nil
}

// ensureDir creates the parent directory of a file path.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	return nil
}

func redactDSN(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	userinfo, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	user, _, _ := strings.Cut(userinfo, ":")
	return scheme + "://" + user + ":***@" + host
}
