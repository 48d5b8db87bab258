package app

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"

	"surfsup/internal/config"
	"surfsup/internal/migrate"
)

func createDB(t *testing.T, withSchema bool) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hawaii.sqlite")
	conn, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer conn.Close()
	if err := conn.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if withSchema {
		if err := migrate.Run(context.Background(), conn); err != nil {
			t.Fatalf("migrate: %v", err)
		}
		if _, err := conn.Exec(`INSERT INTO station (station, name) VALUES ('USC00519281', 'WAIHEE 837.5, HI US')`); err != nil {
			t.Fatalf("insert station: %v", err)
		}
		if _, err := conn.Exec(`INSERT INTO measurement (station, date, prcp, tobs) VALUES ('USC00519281', '2017-08-23', 0.45, 81)`); err != nil {
			t.Fatalf("insert measurement: %v", err)
		}
	}
	return path
}

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	return ln.Addr().String()
}

func testConfig(path, addr string) config.Config {
	return config.Config{
		AppEnv:             "dev",
		HTTPAddr:           addr,
		Path:               path,
		MaxOpenConns:       2,
		MaxIdleConns:       2,
		QueryTimeout:       time.Second,
		ReferenceDate:      config.ReferenceLatest,
		WindowDays:         365,
		ActiveStation:      "USC00519281",
		CORSAllowedOrigins: []string{"*"},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_ServesAndShutsDown(t *testing.T) {
	addr := freeAddr(t)
	cfg := testConfig(createDB(t, true), addr)
	reg := prometheus.NewRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg, discardLogger(), reg, reg) }()

	client := &http.Client{Timeout: time.Second}
	var resp *http.Response
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		r, err := client.Get("http://" + addr + "/api/v1.0/stations")
		if err == nil {
			resp = r
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if resp == nil {
		t.Fatal("server did not start")
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d want=%d body=%s", resp.StatusCode, http.StatusOK, body)
	}
	if !strings.Contains(string(body), `"station":"USC00519281"`) {
		t.Errorf("unexpected body %s", body)
	}

	ready, err := client.Get("http://" + addr + "/readyz")
	if err != nil {
		t.Fatalf("GET /readyz: %v", err)
	}
	_ = ready.Body.Close()
	if ready.StatusCode != http.StatusOK {
		t.Errorf("readyz status=%d want=%d", ready.StatusCode, http.StatusOK)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("run returned %v; want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestRun_MissingDatabase(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "absent.sqlite"), freeAddr(t))
	reg := prometheus.NewRegistry()

	err := run(context.Background(), cfg, discardLogger(), reg, reg)
	if err == nil {
		t.Fatal("expected error for a missing database file")
	}
}

func TestRun_SchemaMismatch(t *testing.T) {
	cfg := testConfig(createDB(t, false), freeAddr(t))
	reg := prometheus.NewRegistry()

	err := run(context.Background(), cfg, discardLogger(), reg, reg)
	if err == nil {
		t.Fatal("expected error for a database without climate tables")
	}
	if !strings.Contains(err.Error(), "measurement") {
		t.Errorf("error %q does not name the missing table", err)
	}
}
