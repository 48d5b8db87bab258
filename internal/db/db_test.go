package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"surfsup/internal/config"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{
			name: "plain path",
			cfg:  config.Config{Path: "Resources/hawaii.sqlite"},
			want: "file:Resources/hawaii.sqlite?mode=ro&_query_only=true&_busy_timeout=5000",
		},
		{
			name: "file uri with params",
			cfg:  config.Config{Path: "file:hawaii.sqlite?cache=shared"},
			want: "file:hawaii.sqlite?cache=shared&mode=ro&_query_only=true&_busy_timeout=5000",
		},
		{
			name: "dsn override wins",
			cfg:  config.Config{Path: "ignored.sqlite", DSN: "file:other.sqlite?mode=ro"},
			want: "file:other.sqlite?mode=ro",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildDSN(tt.cfg); got != tt.want {
				t.Errorf("buildDSN() = %q; want %q", got, tt.want)
			}
		})
	}
}

func createFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hawaii.sqlite")
	conn, err := sql.Open(driverName, "file:"+path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = conn.Close() }()
	if _, err := conn.Exec(`CREATE TABLE station (station TEXT)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	return path
}

func TestOpen_ReadOnly(t *testing.T) {
	for _, logSQL := range []bool{false, true} {
		cfg := config.Config{Path: createFile(t), MaxOpenConns: 2, MaxIdleConns: 2, LogSQL: logSQL}

		conn, err := Open(context.Background(), cfg, nil)
		if err != nil {
			t.Fatalf("Open(logSQL=%v): %v", logSQL, err)
		}

		var n int
		if err := conn.QueryRow(`SELECT COUNT(*) FROM station`).Scan(&n); err != nil {
			t.Errorf("read (logSQL=%v): %v", logSQL, err)
		}
		if _, err := conn.Exec(`INSERT INTO station VALUES ('X')`); err == nil {
			t.Errorf("write succeeded on a read-only connection (logSQL=%v)", logSQL)
		}
		if err := Close(conn); err != nil {
			t.Errorf("Close: %v", err)
		}
	}
}

func TestOpen_MissingFile(t *testing.T) {
	cfg := config.Config{Path: filepath.Join(t.TempDir(), "missing.sqlite")}

	if _, err := Open(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error opening a missing database read-only")
	}
}

func TestClose_Nil(t *testing.T) {
	if err := Close(nil); err != nil {
		t.Errorf("Close(nil) = %v; want nil", err)
	}
}
