// Package store persists completed runs: a SQLite index of run
// metadata next to one CSV data file per run.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/san-kum/cosim/internal/results"
)

// RunMeta is the configuration snapshot and shape of one stored run.
type RunMeta struct {
	ID              string
	CreatedAt       time.Time
	StopTime        float64
	StepSize        float64
	LoggingStepSize float64
	Systems         []string
	Columns         []results.ColumnMeta
	Config          string // scenario config snapshot, YAML
	Rows            int
}

type Store struct {
	baseDir string
	db      *sql.DB
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Init creates the data directory and the run index.
func (s *Store) Init(ctx context.Context) error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return err
	}
	db, err := sql.Open("sqlite", filepath.Join(s.baseDir, "runs.db"))
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id                TEXT PRIMARY KEY,
			created_at        TIMESTAMP NOT NULL,
			stop_time         REAL NOT NULL,
			step_size         REAL NOT NULL,
			logging_step_size REAL NOT NULL,
			systems           TEXT NOT NULL,
			columns           TEXT NOT NULL,
			config            TEXT NOT NULL,
			rows              INTEGER NOT NULL
		)
	`)
	if err != nil {
		_ = db.Close()
		return err
	}
	s.db = db
	return nil
}

// Close releases the index handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) dataPath(id string) string {
	return filepath.Join(s.baseDir, id+".csv")
}

// Save stores the table and its metadata and returns the run id.
func (s *Store) Save(ctx context.Context, meta RunMeta, table *results.Table) (string, error) {
	if s.db == nil {
		return "", fmt.Errorf("store: not initialized")
	}
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now()
	}
	meta.Columns = table.Meta()
	meta.Rows = table.NumRows()

	f, err := os.Create(s.dataPath(meta.ID))
	if err != nil {
		return "", err
	}
	if err := table.WriteCSV(f); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	systems, err := json.Marshal(meta.Systems)
	if err != nil {
		return "", err
	}
	columns, err := json.Marshal(meta.Columns)
	if err != nil {
		return "", err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, stop_time, step_size, logging_step_size, systems, columns, config, rows)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, meta.ID, meta.CreatedAt, meta.StopTime, meta.StepSize, meta.LoggingStepSize,
		string(systems), string(columns), meta.Config, meta.Rows)
	if err != nil {
		return "", err
	}
	return meta.ID, nil
}

func scanMeta(scan func(dest ...any) error) (RunMeta, error) {
	var meta RunMeta
	var systems, columns string
	err := scan(&meta.ID, &meta.CreatedAt, &meta.StopTime, &meta.StepSize,
		&meta.LoggingStepSize, &systems, &columns, &meta.Config, &meta.Rows)
	if err != nil {
		return RunMeta{}, err
	}
	if err := json.Unmarshal([]byte(systems), &meta.Systems); err != nil {
		return RunMeta{}, fmt.Errorf("store: decode systems for %s: %w", meta.ID, err)
	}
	if err := json.Unmarshal([]byte(columns), &meta.Columns); err != nil {
		return RunMeta{}, fmt.Errorf("store: decode columns for %s: %w", meta.ID, err)
	}
	return meta, nil
}

const metaColumns = "id, created_at, stop_time, step_size, logging_step_size, systems, columns, config, rows"

// List returns all runs, newest first.
func (s *Store) List(ctx context.Context) ([]RunMeta, error) {
	if s.db == nil {
		return nil, fmt.Errorf("store: not initialized")
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+metaColumns+" FROM runs ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metas []RunMeta
	for rows.Next() {
		meta, err := scanMeta(rows.Scan)
		if err != nil {
			return nil, err
		}
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

// Get returns one run's metadata.
func (s *Store) Get(ctx context.Context, id string) (RunMeta, error) {
	if s.db == nil {
		return RunMeta{}, fmt.Errorf("store: not initialized")
	}
	row := s.db.QueryRowContext(ctx,
		"SELECT "+metaColumns+" FROM runs WHERE id = ?", id)
	meta, err := scanMeta(row.Scan)
	if err == sql.ErrNoRows {
		return RunMeta{}, fmt.Errorf("store: no run %q", id)
	}
	return meta, err
}

// LoadTable reads a run's data back as a fully typed table.
func (s *Store) LoadTable(ctx context.Context, id string) (*results.Table, error) {
	meta, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(s.dataPath(id))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return results.ReadCSV(f, meta.Columns)
}
