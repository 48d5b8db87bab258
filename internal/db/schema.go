package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Table declares the columns a table must provide. Extra columns are allowed.
type Table struct {
	Name    string
	Columns []string
}

// ErrSchemaMismatch is returned by ValidateSchema when a declared table or
// column is missing from the database.
var ErrSchemaMismatch = errors.New("schema mismatch")

// ValidateSchema checks every declared table against PRAGMA table_info and
// reports all missing tables and columns at once.
func ValidateSchema(ctx context.Context, db *sql.DB, tables ...Table) error {
	var problems []string
	for _, t := range tables {
		cols, err := tableColumns(ctx, db, t.Name)
		if err != nil {
			return fmt.Errorf("inspect table %s: %w", t.Name, err)
		}
		if len(cols) == 0 {
			problems = append(problems, fmt.Sprintf("table %q not found", t.Name))
			continue
		}
		var missing []string
		for _, c := range t.Columns {
			if !cols[strings.ToLower(c)] {
				missing = append(missing, c)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			problems = append(problems, fmt.Sprintf("table %q missing columns %s", t.Name, strings.Join(missing, ", ")))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrSchemaMismatch, strings.Join(problems, "; "))
	}
	return nil
}

func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	// table_info is a table-valued function so the name can be bound.
	rows, err := db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close table_info rows", "table", table, "error", err)
		}
	}()

	out := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out[strings.ToLower(name)] = true
	}
	return out, rows.Err()
}
