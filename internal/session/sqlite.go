package session

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps session state in an in-memory sqlite database. Nothing
// outlives the process: closing the app wipes progress and history, which
// is the intended behavior.
type SQLiteStore struct {
	db *sql.DB
}

func NewMemory() (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// An in-memory database exists per connection. Pin the pool to one so
	// every query sees the same database.
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analysis_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			language TEXT NOT NULL,
			code_chars INTEGER NOT NULL DEFAULT 0,
			rules_run INTEGER NOT NULL DEFAULT 0,
			finding_count INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			stale INTEGER NOT NULL DEFAULT 0,
			requested_ts TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS suggestion_requests (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			description TEXT NOT NULL,
			code_chars INTEGER NOT NULL DEFAULT 0,
			result_count INTEGER NOT NULL DEFAULT 0,
			fallback INTEGER NOT NULL DEFAULT 0,
			requested_ts TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS completions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL,
			parent_id TEXT NOT NULL DEFAULT '',
			item_id TEXT NOT NULL,
			points INTEGER NOT NULL DEFAULT 0,
			completed_ts TEXT NOT NULL DEFAULT (datetime('now')),
			UNIQUE(kind, parent_id, item_id)
		);`,
		`CREATE TABLE IF NOT EXISTS app_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) RecordAnalysisRun(ctx context.Context, run AnalysisRun) (int64, error) {
	ts := run.RequestedTS
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO analysis_runs(session_id, language, code_chars, rules_run, finding_count, duration_ms, requested_ts)
		 VALUES(?,?,?,?,?,?,?)`,
		run.SessionID,
		run.Language,
		run.CodeChars,
		run.RulesRun,
		run.FindingCount,
		run.DurationMS,
		ts.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) MarkAnalysisStale(ctx context.Context, runID int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE analysis_runs SET stale = 1 WHERE id = ?`, runID)
	return err
}

func (s *SQLiteStore) RecordSuggestionRequest(ctx context.Context, req SuggestionRequest) (int64, error) {
	ts := req.RequestedTS
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	fallbackInt := 0
	if req.Fallback {
		fallbackInt = 1
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO suggestion_requests(session_id, description, code_chars, result_count, fallback, requested_ts)
		 VALUES(?,?,?,?,?,?)`,
		req.SessionID,
		req.Description,
		req.CodeChars,
		req.ResultCount,
		fallbackInt,
		ts.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RecordCompletion is idempotent: repeating a completion leaves a single row.
func (s *SQLiteStore) RecordCompletion(ctx context.Context, c Completion) error {
	itemID := strings.TrimSpace(c.ItemID)
	if itemID == "" {
		return nil
	}
	ts := c.TS
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO completions(kind, parent_id, item_id, points, completed_ts) VALUES(?,?,?,?,?)`,
		c.Kind,
		c.ParentID,
		itemID,
		c.Points,
		ts.UTC().Format(timeLayout),
	)
	return err
}

func (s *SQLiteStore) ListCompletions(ctx context.Context, kind, parentID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT item_id FROM completions WHERE kind = ? AND parent_id = ? ORDER BY id`,
		kind, parentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) SaveSettings(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for key, value := range values {
		k := strings.TrimSpace(key)
		if k == "" {
			continue
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO app_settings(key, value) VALUES(?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, k, value); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteStore) LoadSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM app_settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) GetSummary(ctx context.Context) (Summary, error) {
	var out Summary
	row := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) as runs,
			COALESCE(SUM(stale),0) as stale,
			COALESCE(SUM(finding_count),0) as findings
		FROM analysis_runs
	`)
	if err := row.Scan(&out.AnalysisRuns, &out.StaleDrops, &out.TotalFindings); err != nil {
		return Summary{}, err
	}
	row = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(fallback),0)
		FROM suggestion_requests
	`)
	if err := row.Scan(&out.SuggestionRequests, &out.Fallbacks); err != nil {
		return Summary{}, err
	}
	row = s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN kind = ? THEN 1 ELSE 0 END),0),
			COALESCE(SUM(CASE WHEN kind = ? THEN 1 ELSE 0 END),0),
			COALESCE(SUM(CASE WHEN kind = ? THEN points ELSE 0 END),0)
		FROM completions
	`, CompletionTutorialStep, CompletionExercise, CompletionExercise)
	if err := row.Scan(&out.TutorialStepsDone, &out.ExercisesDone, &out.PointsEarned); err != nil {
		return Summary{}, err
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

const timeLayout = "2006-01-02T15:04:05Z07:00"
