package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
)

func memDB(t *testing.T, ddl ...string) *sql.DB {
	t.Helper()
	conn, err := sql.Open(driverName, ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })
	for _, stmt := range ddl {
		if _, err := conn.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
	return conn
}

var climateTables = []Table{
	{Name: "station", Columns: []string{"station", "name"}},
	{Name: "measurement", Columns: []string{"station", "date", "prcp", "tobs"}},
}

func TestValidateSchema_OK(t *testing.T) {
	conn := memDB(t,
		`CREATE TABLE station (id INTEGER PRIMARY KEY, Station TEXT, name TEXT, elevation REAL)`,
		`CREATE TABLE measurement (id INTEGER PRIMARY KEY, station TEXT, date TEXT, prcp REAL, tobs REAL)`,
	)

	if err := ValidateSchema(context.Background(), conn, climateTables...); err != nil {
		t.Fatalf("ValidateSchema: %v", err)
	}
}

func TestValidateSchema_ReportsEveryProblem(t *testing.T) {
	conn := memDB(t, `CREATE TABLE measurement (station TEXT, date TEXT)`)

	err := ValidateSchema(context.Background(), conn, climateTables...)
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("err = %v; want ErrSchemaMismatch", err)
	}
	msg := err.Error()
	for _, want := range []string{`table "station" not found`, `table "measurement" missing columns prcp, tobs`} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q does not contain %q", msg, want)
		}
	}
}

func TestValidateSchema_ClosedDB(t *testing.T) {
	conn := memDB(t)
	_ = conn.Close()

	err := ValidateSchema(context.Background(), conn, climateTables...)
	if err == nil || errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("err = %v; want a query error", err)
	}
}
