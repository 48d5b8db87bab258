package main

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "app.db", want: "file:app.db?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"},
		{in: "file:app.db", want: "file:app.db?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"},
		{in: "file:app.db?cache=shared", want: "file:app.db?cache=shared&_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"},
	}
	for _, tt := range tests {
		if got := buildDSN(tt.in); got != tt.want {
			t.Errorf("buildDSN(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func openTemp(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := open(context.Background(), filepath.Join(t.TempDir(), "hawaii.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestRunCommand_Seed(t *testing.T) {
	dir := t.TempDir()
	stations := "station,name,latitude,longitude,elevation\nUSC00519397,\"WAIKIKI 717.2, HI US\",21.2716,-157.8168,3\n"
	measurements := "station,date,prcp,tobs\nUSC00519397,2010-01-01,0.08,65\nUSC00519397,2010-01-02,,63\n"
	if err := os.WriteFile(filepath.Join(dir, "hawaii_stations.csv"), []byte(stations), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "hawaii_measurements.csv"), []byte(measurements), 0o600); err != nil {
		t.Fatal(err)
	}
	conn := openTemp(t)

	if err := runCommand(context.Background(), conn, []string{"seed", dir}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM measurement WHERE prcp IS NULL`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("null prcp rows = %d; want 1", n)
	}
}

func TestRunCommand_Errors(t *testing.T) {
	conn := openTemp(t)

	if err := runCommand(context.Background(), conn, []string{"seed"}); err == nil {
		t.Error("seed without a directory should fail")
	}
	if err := runCommand(context.Background(), conn, []string{"drop"}); err == nil {
		t.Error("unknown command should fail")
	}
	if err := runCommand(context.Background(), conn, []string{"migrate"}); err != nil {
		t.Errorf("migrate: %v", err)
	}
}
