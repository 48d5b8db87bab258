package db

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// captureHandler keeps the "sql" records a logging connector emits.
type captureHandler struct {
	mu      sync.Mutex
	level   slog.Level
	records []map[string]slog.Value
}

func (h *captureHandler) Enabled(_ context.Context, l slog.Level) bool { return l >= h.level }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	if r.Message != "sql" {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	m := make(map[string]slog.Value)
	r.Attrs(func(a slog.Attr) bool {
		m[a.Key] = a.Value
		return true
	})
	h.records = append(h.records, m)
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *captureHandler) WithGroup(string) slog.Handler { return h }

func (h *captureHandler) last(t *testing.T) map[string]slog.Value {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.records) == 0 {
		t.Fatal("no sql records logged")
	}
	return h.records[len(h.records)-1]
}

func (h *captureHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

func openLogged(t *testing.T, level slog.Level) (*sql.DB, *captureHandler) {
	t.Helper()
	handler := &captureHandler{level: level}
	connector, err := NewLoggingConnector(":memory:", slog.New(handler))
	if err != nil {
		t.Fatalf("NewLoggingConnector: %v", err)
	}
	conn := sql.OpenDB(connector)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })

	if _, err := conn.Exec(`CREATE TABLE measurement (station TEXT, date TEXT, prcp REAL, tobs REAL)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return conn, handler
}

func TestNewLoggingConnector(t *testing.T) {
	if _, err := NewLoggingConnector("", nil); err == nil {
		t.Error("empty dsn: expected error")
	}

	connector, err := NewLoggingConnector(":memory:", nil)
	if err != nil {
		t.Fatalf("NewLoggingConnector: %v", err)
	}
	if got := connector.(*loggingConnector).logger; got != slog.Default() {
		t.Error("nil logger should fall back to slog.Default()")
	}

	conn := sql.OpenDB(connector)
	defer func() { _ = conn.Close() }()
	if err := conn.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestLoggingConnector_LogsStatements(t *testing.T) {
	conn, handler := openLogged(t, slog.LevelDebug)

	if _, err := conn.Exec(`INSERT INTO measurement VALUES (?, ?, ?, ?)`, "USC00519281", "2017-08-23", nil, 81.0); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got := handler.last(t)
	if got["op"].String() != "exec" {
		t.Errorf("op = %q; want exec", got["op"].String())
	}
	args, ok := got["args"].Any().([]string)
	if !ok {
		t.Fatalf("args = %#v; want []string", got["args"].Any())
	}
	if strings.Join(args, ",") != "USC00519281,2017-08-23,NULL,81" {
		t.Errorf("args = %v", args)
	}

	var total sql.NullFloat64
	if err := conn.QueryRow(`SELECT SUM(prcp) FROM measurement WHERE date >= ?`, "2016-08-23").Scan(&total); err != nil {
		t.Fatalf("query: %v", err)
	}
	got = handler.last(t)
	if got["op"].String() != "query" {
		t.Errorf("op = %q; want query", got["op"].String())
	}
	if got["sql"].String() != `SELECT SUM(prcp) FROM measurement WHERE date >= ?` {
		t.Errorf("sql = %q", got["sql"].String())
	}
	if _, ok := got["elapsed_ms"]; !ok {
		t.Error("missing elapsed_ms attribute")
	}
}

func TestLoggingConnector_PreparedStatement(t *testing.T) {
	conn, handler := openLogged(t, slog.LevelDebug)

	stmt, err := conn.Prepare(`SELECT COUNT(*) FROM measurement WHERE station = ?`)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	defer func() { _ = stmt.Close() }()

	var n int
	if err := stmt.QueryRow("USC00519281").Scan(&n); err != nil {
		t.Fatalf("query: %v", err)
	}
	got := handler.last(t)
	if got["sql"].String() != `SELECT COUNT(*) FROM measurement WHERE station = ?` {
		t.Errorf("sql = %q", got["sql"].String())
	}
}

func TestLoggingConnector_LogsErrors(t *testing.T) {
	conn, handler := openLogged(t, slog.LevelDebug)

	if _, err := conn.Query(`SELECT nope FROM measurement`); err == nil {
		t.Fatal("expected query error")
	}
	if _, ok := handler.last(t)["error"]; !ok {
		t.Error("missing error attribute on failed query")
	}
}

func TestLoggingConnector_SilentAboveDebug(t *testing.T) {
	conn, handler := openLogged(t, slog.LevelInfo)

	if _, err := conn.Exec(`DELETE FROM measurement`); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n := handler.count(); n != 0 {
		t.Errorf("logged %d records at info level; want 0", n)
	}
}
