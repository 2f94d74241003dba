// Package history persists per-run score summaries to sqlite so runs of
// different models can be compared after the fact.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const defaultLimit = 50

type Store struct {
	db *sql.DB
}

// Run is one finished benchmark run.
type Run struct {
	ID               int64     `json:"id"`
	Model            string    `json:"model"`
	Safety           float64   `json:"safety"`
	Quality          float64   `json:"quality"`
	Professional     float64   `json:"professional"`
	General          float64   `json:"general"`
	Special          float64   `json:"special"`
	Total            float64   `json:"total"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	JudgeTokens      int       `json:"judge_tokens"`
	CreatedAt        time.Time `json:"created_at"`
}

func NewStore(dbPath string) (*Store, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, errors.New("history: empty db path")
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("history: create db dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: ping db: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("history: nil db")
	}

	stmts := []string{
		`PRAGMA foreign_keys = ON`,
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			model TEXT NOT NULL,
			safety REAL NOT NULL,
			quality REAL NOT NULL,
			professional REAL NOT NULL,
			general REAL NOT NULL,
			special REAL NOT NULL,
			total REAL NOT NULL,
			prompt_tokens INTEGER NOT NULL,
			completion_tokens INTEGER NOT NULL,
			judge_tokens INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_model ON runs(model)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("history: init schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Save(ctx context.Context, run *Run) error {
	if s == nil || s.db == nil {
		return errors.New("history: nil store")
	}
	if ctx == nil {
		return errors.New("history: nil context")
	}
	if run == nil {
		return errors.New("history: nil run")
	}

	model := strings.TrimSpace(run.Model)
	if model == "" {
		return errors.New("history: missing model")
	}

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (
			model, safety, quality, professional, general, special, total,
			prompt_tokens, completion_tokens, judge_tokens, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, model, run.Safety, run.Quality, run.Professional, run.General, run.Special, run.Total,
		run.PromptTokens, run.CompletionTokens, run.JudgeTokens, createdAt.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("history: insert run: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		run.ID = id
	}
	run.Model = model
	run.CreatedAt = createdAt
	return nil
}

// List returns the most recent runs, newest first. An empty model matches
// every run.
func (s *Store) List(ctx context.Context, model string, limit int) ([]Run, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("history: nil store")
	}
	if ctx == nil {
		return nil, errors.New("history: nil context")
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	query := `
		SELECT id, model, safety, quality, professional, general, special, total,
			prompt_tokens, completion_tokens, judge_tokens, created_at
		FROM runs
	`
	args := []any{}
	if model = strings.TrimSpace(model); model != "" {
		query += ` WHERE model = ?`
		args = append(args, model)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("history: query runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

func (s *Store) Get(ctx context.Context, id int64) (*Run, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("history: nil store")
	}
	if ctx == nil {
		return nil, errors.New("history: nil context")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, model, safety, quality, professional, general, special, total,
			prompt_tokens, completion_tokens, judge_tokens, created_at
		FROM runs
		WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("history: query run: %w", err)
	}
	defer rows.Close()

	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, sql.ErrNoRows
	}
	return &runs[0], nil
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var out []Run
	for rows.Next() {
		var r Run
		var createdMS int64
		if err := rows.Scan(
			&r.ID,
			&r.Model,
			&r.Safety,
			&r.Quality,
			&r.Professional,
			&r.General,
			&r.Special,
			&r.Total,
			&r.PromptTokens,
			&r.CompletionTokens,
			&r.JudgeTokens,
			&createdMS,
		); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		r.CreatedAt = time.UnixMilli(createdMS).UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: scan rows: %w", err)
	}
	return out, nil
}
