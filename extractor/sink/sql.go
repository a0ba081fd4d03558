package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/borges12matheus/pipeline-aws-price/extractor/provider"
)

type dialect struct {
	driver     string
	textType   string
	floatType  string
	bindVarFor func(i int) string
}

var dialects = map[Format]dialect{
	FormatSQLite: {
		driver:     "sqlite",
		textType:   "TEXT",
		floatType:  "REAL",
		bindVarFor: func(int) string { return "?" },
	},
	FormatPostgres: {
		driver:     "postgres",
		textType:   "TEXT",
		floatType:  "DOUBLE PRECISION",
		bindVarFor: func(i int) string { return "$" + strconv.Itoa(i) },
	},
}

// writeSQL drops and recreates table, then inserts rows, all in one
// transaction so readers never see a half-written table.
func writeSQL[T provider.Record](ctx context.Context, format Format, dsn, table string, rows []T) (err error) {
	d, ok := dialects[format]
	if !ok {
		return fmt.Errorf("no SQL dialect for format %q", format)
	}
	if table == "" {
		return fmt.Errorf("a table name is required for format %q", format)
	}
	if format == FormatSQLite {
		if err := ensureDir(dsn); err != nil {
			return err
		}
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return fmt.Errorf("failed to open %s database: %w", format, err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var zero T
	cols := zero.Columns()
	if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(table)); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", table, err)
	}
	if _, err = tx.ExecContext(ctx, createTableSQL(d, table, cols)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL(d, table, cols))
	if err != nil {
		return fmt.Errorf("failed to prepare insert into %s: %w", table, err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if _, err = stmt.ExecContext(ctx, sqlArgs(row.Values())...); err != nil {
			return fmt.Errorf("failed to insert row %d into %s: %w", i, table, err)
		}
	}
	return tx.Commit()
}

func createTableSQL(d dialect, table string, cols []provider.Column) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		typ := d.textType
		if c.Kind == provider.KindFloat {
			typ = d.floatType
		}
		def := quoteIdent(c.Name) + " " + typ
		if !c.Nullable && c.Kind == provider.KindFloat {
			def += " NOT NULL"
		}
		defs[i] = def
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(defs, ", "))
}

func insertSQL(d dialect, table string, cols []provider.Column) string {
	names := make([]string, len(cols))
	vars := make([]string, len(cols))
	for i, c := range cols {
		names[i] = quoteIdent(c.Name)
		vars[i] = d.bindVarFor(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(table), strings.Join(names, ", "), strings.Join(vars, ", "))
}

// sqlArgs turns absent optional values into NULL.
func sqlArgs(values []any) []any {
	args := make([]any, len(values))
	for i, v := range values {
		if p, ok := v.(*float64); ok {
			if p == nil {
				args[i] = nil
			} else {
				args[i] = *p
			}
			continue
		}
		args[i] = v
	}
	return args
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
