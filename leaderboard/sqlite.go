package leaderboard

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // 纯 Go SQLite 驱动

	"tagarena/game"
)

// SQLiteStore 基于 SQLite 的持久化排行榜
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite 打开（必要时创建）数据库并建表
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// 单连接串行写入，避免 database is locked
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func createSchema(db *sql.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS leaderboard (
			name TEXT PRIMARY KEY,
			games_played INTEGER NOT NULL DEFAULT 0,
			total_score INTEGER NOT NULL DEFAULT 0,
			best_score INTEGER NOT NULL DEFAULT 0,
			wins INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_leaderboard_total ON leaderboard(total_score DESC);`,
	}
	for _, query := range schemas {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Record(ctx context.Context, results []game.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO leaderboard (name, games_played, total_score, best_score, wins, updated_at)
		VALUES (?, 1, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			games_played = games_played + 1,
			total_score = total_score + excluded.total_score,
			best_score = MAX(best_score, excluded.best_score),
			wins = wins + excluded.wins,
			updated_at = excluded.updated_at
	`
	now := time.Now()
	for _, r := range humans(results) {
		win := 0
		if r.Rank == 1 {
			win = 1
		}
		if _, err := tx.ExecContext(ctx, query, r.Name, r.Score, r.Score, win, now); err != nil {
			return fmt.Errorf("failed to record %q: %w", r.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit leaderboard: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Top(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = -1 // SQLite: LIMIT -1 表示不限
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, games_played, total_score, best_score, wins
		FROM leaderboard
		ORDER BY total_score DESC, best_score DESC, name ASC
		LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Name, &e.GamesPlayed, &e.TotalScore, &e.BestScore, &e.Wins); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
