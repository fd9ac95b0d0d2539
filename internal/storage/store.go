package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ityard/stocklens/internal/models"
)

// Store persists analysis runs in sqlite. The full report is kept as JSON
// next to the queryable columns so past runs can be reloaded in full.
type Store struct {
	db *sql.DB
}

// RunRecord is the queryable row for one persisted run.
type RunRecord struct {
	ID          string
	Symbol      string
	Label       string
	Score       float64
	Backend     string
	GeneratedAt string
}

func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=3000;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", p, err)
		}
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    symbol TEXT NOT NULL,
    label TEXT NOT NULL,
    score REAL NOT NULL,
    backend TEXT NOT NULL,
    generated_at DATETIME NOT NULL,
    report_json TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_runs_symbol_generated ON runs(symbol, generated_at);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// SaveReport persists a sealed report and returns the run id.
func (s *Store) SaveReport(ctx context.Context, report *models.AnalysisReport) (string, error) {
	if report == nil || report.Recommendation == nil {
		return "", fmt.Errorf("report and recommendation are required")
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	id := fmt.Sprintf("%s-%d", report.Symbol, report.GeneratedAt.UnixNano())
	_, err = s.db.ExecContext(ctx, `
INSERT INTO runs (id, symbol, label, score, backend, generated_at, report_json)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING
`, id, report.Symbol, string(report.Recommendation.Label), report.Recommendation.Score,
		report.Recommendation.Backend, report.GeneratedAt.Format("2006-01-02 15:04:05"), string(payload))
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// ListRuns returns the most recent runs, newest first. An empty symbol
// lists runs across all symbols.
func (s *Store) ListRuns(ctx context.Context, symbol string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
SELECT id, symbol, label, score, backend, generated_at
FROM runs
`
	args := []interface{}{}
	if symbol != "" {
		query += "WHERE symbol = ?\n"
		args = append(args, symbol)
	}
	query += "ORDER BY generated_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.ID, &r.Symbol, &r.Label, &r.Score, &r.Backend, &r.GeneratedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetReport reloads a full persisted report by run id.
func (s *Store) GetReport(ctx context.Context, id string) (*models.AnalysisReport, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT report_json FROM runs WHERE id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}

	var report models.AnalysisReport
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return nil, fmt.Errorf("unmarshal run %s: %w", id, err)
	}
	return &report, nil
}
