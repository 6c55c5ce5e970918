// Package store persists evaluation runs in SQLite so past runs can be
// listed, inspected, and compared.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stellarlinkco/model-eval/internal/config"
	"github.com/stellarlinkco/model-eval/internal/sample"
)

const defaultHistoryLimit = 50

// RunSummary is a run's header row, without its per-sample results.
type RunSummary struct {
	RunID        string    `json:"run_id"`
	EvalName     string    `json:"eval_name"`
	Model        string    `json:"model"`
	TotalSamples int       `json:"total_samples"`
	Correct      int       `json:"correct"`
	Incorrect    int       `json:"incorrect"`
	Score        float64   `json:"score"`
	CreatedAt    time.Time `json:"created_at"`
	DurationMs   int64     `json:"duration_ms"`
}

// RunFilter narrows ListRuns.
type RunFilter struct {
	EvalName string
	Model    string
	Since    time.Time
	Until    time.Time
	Limit    int
}

// SQLiteStore implements run history on SQLite.
type SQLiteStore struct {
	db *sql.DB

	insertRunStmt  *sql.Stmt
	getRunStmt     *sql.Stmt
	getResultsStmt *sql.Stmt
}

// Open creates a store from storage configuration. Type "memory" keeps runs
// in an in-process database, everything else opens the configured path.
func Open(cfg config.StorageConfig) (*SQLiteStore, error) {
	switch strings.TrimSpace(cfg.Type) {
	case "memory":
		return NewSQLiteStore(":memory:")
	case "", "sqlite":
		path := strings.TrimSpace(cfg.Path)
		if path == "" {
			path = filepath.Join("data", "model-eval.db")
		}
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("store: unknown storage type %q", cfg.Type)
	}
}

// NewSQLiteStore opens or creates a SQLite store at the given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store: empty sqlite path")
	}
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("store: create sqlite dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping sqlite: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	st := &SQLiteStore{db: db}
	if err := st.prepareStatements(); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			eval_name TEXT NOT NULL,
			model TEXT NOT NULL,
			total_samples INTEGER NOT NULL,
			correct INTEGER NOT NULL,
			incorrect INTEGER NOT NULL,
			score REAL NOT NULL,
			created_at INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			metadata_json TEXT,
			results BLOB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_eval_name ON runs(eval_name)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_model ON runs(model)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("store: init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) prepareStatements() error {
	if s == nil || s.db == nil {
		return errors.New("store: nil sqlite store")
	}

	ctx := context.Background()
	type stmtSpec struct {
		dst    **sql.Stmt
		query  string
		errFmt string
	}

	specs := []stmtSpec{
		{
			dst: &s.insertRunStmt,
			query: `
				INSERT INTO runs (
					id, eval_name, model, total_samples, correct, incorrect, score,
					created_at, duration_ms, metadata_json, results
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
			errFmt: "store: prepare insert run: %w",
		},
		{
			dst: &s.getRunStmt,
			query: `
				SELECT id, eval_name, model, total_samples, correct, incorrect, score,
					created_at, duration_ms, metadata_json
				FROM runs WHERE id = ?
			`,
			errFmt: "store: prepare get run: %w",
		},
		{
			dst: &s.getResultsStmt,
			query: `
				SELECT results FROM runs WHERE id = ?
			`,
			errFmt: "store: prepare get results: %w",
		},
	}

	for _, spec := range specs {
		stmt, err := s.db.PrepareContext(ctx, spec.query)
		if err != nil {
			return fmt.Errorf(spec.errFmt, err)
		}
		*spec.dst = stmt
	}

	return nil
}

// Close releases database resources.
func (s *SQLiteStore) Close() error {
	if s == nil {
		return nil
	}
	for _, stmt := range []*sql.Stmt{s.insertRunStmt, s.getRunStmt, s.getResultsStmt} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRun persists a completed report, results included.
func (s *SQLiteStore) SaveRun(ctx context.Context, report *sample.EvalReport) error {
	if s == nil {
		return errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return errors.New("store: nil context")
	}
	if report == nil {
		return errors.New("store: nil report")
	}

	id := strings.TrimSpace(report.RunID)
	if id == "" {
		return errors.New("store: empty run id")
	}
	if strings.TrimSpace(report.EvalName) == "" {
		return errors.New("store: empty eval name")
	}

	createdAt := report.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	metaJSON := []byte("null")
	if report.Metadata != nil {
		var err error
		metaJSON, err = json.Marshal(report.Metadata)
		if err != nil {
			return fmt.Errorf("store: marshal run metadata: %w", err)
		}
	}
	resultsJSON, err := json.Marshal(report.Results)
	if err != nil {
		return fmt.Errorf("store: marshal results: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin run tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt := tx.StmtContext(ctx, s.insertRunStmt)
	defer stmt.Close()

	_, err = stmt.ExecContext(
		ctx,
		id,
		report.EvalName,
		report.Model,
		report.TotalSamples,
		report.Correct,
		report.Incorrect,
		report.Score,
		createdAt.UTC().UnixMilli(),
		report.DurationMs,
		string(metaJSON),
		resultsJSON,
	)
	if err != nil {
		return fmt.Errorf("store: insert run: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit run: %w", err)
	}
	return nil
}

// GetRun loads a run's report by id, results included.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*sample.EvalReport, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("store: empty run id")
	}

	row := s.getRunStmt.QueryRowContext(ctx, id)
	var (
		report      sample.EvalReport
		createdAtMS int64
		metaJSON    sql.NullString
	)
	if err := row.Scan(
		&report.RunID,
		&report.EvalName,
		&report.Model,
		&report.TotalSamples,
		&report.Correct,
		&report.Incorrect,
		&report.Score,
		&createdAtMS,
		&report.DurationMs,
		&metaJSON,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("store: get run: %w", err)
	}
	report.CreatedAt = time.UnixMilli(createdAtMS).UTC()

	meta, err := decodeMetadata(metaJSON)
	if err != nil {
		return nil, fmt.Errorf("store: decode run metadata: %w", err)
	}
	report.Metadata = meta

	results, err := s.GetResults(ctx, id)
	if err != nil {
		return nil, err
	}
	report.Results = results
	return &report, nil
}

// GetResults loads the per-sample results for a run.
func (s *SQLiteStore) GetResults(ctx context.Context, id string) ([]sample.EvalResult, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("store: empty run id")
	}

	row := s.getResultsStmt.QueryRowContext(ctx, id)
	var resultsJSON []byte
	if err := row.Scan(&resultsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("store: get results: %w", err)
	}

	var out []sample.EvalResult
	if err := json.Unmarshal(resultsJSON, &out); err != nil {
		return nil, fmt.Errorf("store: decode results: %w", err)
	}
	return out, nil
}

// ListRuns returns run summaries matching the filter, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]*RunSummary, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	var sb strings.Builder
	sb.WriteString(`SELECT id, eval_name, model, total_samples, correct, incorrect, score, created_at, duration_ms FROM runs WHERE 1=1`)

	var args []any
	if name := strings.TrimSpace(filter.EvalName); name != "" {
		sb.WriteString(` AND eval_name = ?`)
		args = append(args, name)
	}
	if model := strings.TrimSpace(filter.Model); model != "" {
		sb.WriteString(` AND model = ?`)
		args = append(args, model)
	}
	if !filter.Since.IsZero() {
		sb.WriteString(` AND created_at >= ?`)
		args = append(args, filter.Since.UTC().UnixMilli())
	}
	if !filter.Until.IsZero() {
		sb.WriteString(` AND created_at <= ?`)
		args = append(args, filter.Until.UTC().UnixMilli())
	}
	sb.WriteString(` ORDER BY created_at DESC LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var out []*RunSummary
	for rows.Next() {
		var (
			r           RunSummary
			createdAtMS int64
		)
		if err := rows.Scan(
			&r.RunID,
			&r.EvalName,
			&r.Model,
			&r.TotalSamples,
			&r.Correct,
			&r.Incorrect,
			&r.Score,
			&createdAtMS,
			&r.DurationMs,
		); err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		r.CreatedAt = time.UnixMilli(createdAtMS).UTC()
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	return out, nil
}

func decodeMetadata(metaJSON sql.NullString) (map[string]any, error) {
	if !metaJSON.Valid {
		return nil, nil
	}
	raw := strings.TrimSpace(metaJSON.String)
	if raw == "" || raw == "null" {
		return nil, nil
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, err
	}
	return meta, nil
}
