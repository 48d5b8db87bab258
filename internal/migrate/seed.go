package migrate

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Default export file names of the Hawaii climate dataset.
const (
	StationsCSV     = "hawaii_stations.csv"
	MeasurementsCSV = "hawaii_measurements.csv"
)

// SeedDir loads StationsCSV and MeasurementsCSV from dir.
func SeedDir(ctx context.Context, db *sql.DB, dir string) error {
	sf, err := os.Open(filepath.Join(dir, StationsCSV))
	if err != nil {
		return err
	}
	defer func() { _ = sf.Close() }()

	mf, err := os.Open(filepath.Join(dir, MeasurementsCSV))
	if err != nil {
		return err
	}
	defer func() { _ = mf.Close() }()

	return Seed(ctx, db, sf, mf)
}

// Seed inserts station rows (station,name,latitude,longitude,elevation) and
// measurement rows (station,date,prcp,tobs) in a single transaction. Both
// inputs start with a header row; columns are matched by header name.
// An empty prcp cell is stored as NULL.
func Seed(ctx context.Context, db *sql.DB, stations io.Reader, measurements io.Reader) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	ns, err := seedStations(ctx, tx, stations)
	if err != nil {
		return fmt.Errorf("seed stations: %w", err)
	}
	nm, err := seedMeasurements(ctx, tx, measurements)
	if err != nil {
		return fmt.Errorf("seed measurements: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("dataset seeded", "stations", ns, "measurements", nm)
	return nil
}

func seedStations(ctx context.Context, tx *sql.Tx, r io.Reader) (int, error) {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO station (station, name, latitude, longitude, elevation) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	return eachRecord(r, []string{"station", "name", "latitude", "longitude", "elevation"}, func(line int, rec map[string]string) error {
		lat, err := parseOptionalFloat(rec["latitude"])
		if err != nil {
			return fmt.Errorf("line %d latitude: %w", line, err)
		}
		lon, err := parseOptionalFloat(rec["longitude"])
		if err != nil {
			return fmt.Errorf("line %d longitude: %w", line, err)
		}
		elev, err := parseOptionalFloat(rec["elevation"])
		if err != nil {
			return fmt.Errorf("line %d elevation: %w", line, err)
		}
		_, err = stmt.ExecContext(ctx, rec["station"], rec["name"], lat, lon, elev)
		return err
	})
}

func seedMeasurements(ctx context.Context, tx *sql.Tx, r io.Reader) (int, error) {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO measurement (station, date, prcp, tobs) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	return eachRecord(r, []string{"station", "date", "prcp", "tobs"}, func(line int, rec map[string]string) error {
		if _, err := time.Parse(time.DateOnly, rec["date"]); err != nil {
			return fmt.Errorf("line %d date %q: expected YYYY-MM-DD", line, rec["date"])
		}
		prcp, err := parseOptionalFloat(rec["prcp"])
		if err != nil {
			return fmt.Errorf("line %d prcp: %w", line, err)
		}
		tobs, err := strconv.ParseFloat(rec["tobs"], 64)
		if err != nil {
			return fmt.Errorf("line %d tobs: %w", line, err)
		}
		_, err = stmt.ExecContext(ctx, rec["station"], rec["date"], prcp, tobs)
		return err
	})
}

// eachRecord reads a headed CSV and calls fn with the required columns of
// every data row. It returns the number of rows processed.
func eachRecord(r io.Reader, required []string, fn func(line int, rec map[string]string) error) (int, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, errors.New("missing header row")
		}
		return 0, err
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return 0, fmt.Errorf("missing column %q", col)
		}
	}

	n := 0
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		line, _ := cr.FieldPos(0)
		rec := make(map[string]string, len(required))
		for _, col := range required {
			rec[col] = strings.TrimSpace(row[index[col]])
		}
		if err := fn(line, rec); err != nil {
			return n, err
		}
		n++
	}
}

func parseOptionalFloat(s string) (any, error) {
	if s == "" {
		return nil, nil
	}
	return strconv.ParseFloat(s, 64)
}
