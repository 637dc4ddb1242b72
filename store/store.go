// Package store persists articles to an embedded SQLite database.
//
// The exact-URL dedup contract lives here: SaveArticle performs a single
// atomic insert-or-get keyed by a unique scope_key column, so two
// near-simultaneous saves of the same URL cannot both create records.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/kri-ruj/linksaver/config"
)

// DedupScope controls whether one URL dedups per owner or across all owners.
type DedupScope string

const (
	ScopeOwner  DedupScope = "owner"
	ScopeGlobal DedupScope = "global"
)

// Store wraps the database handle. Safe for concurrent use; the sql.DB
// pool serializes access and individual statements are atomic.
type Store struct {
	db    *sql.DB
	scope DedupScope
}

// Open creates (or opens) the database at cfg.Path, enables WAL mode and
// applies migrations.
func Open(cfg config.StoreConfig) (*Store, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	scope := DedupScope(cfg.DedupScope)
	if scope != ScopeOwner && scope != ScopeGlobal {
		slog.Warn("unknown dedup scope, defaulting to owner", "scope", cfg.DedupScope)
		scope = ScopeOwner
	}

	s := &Store{db: db, scope: scope}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	slog.Info("database initialized", "path", cfg.Path, "dedup_scope", scope)
	return s, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		url TEXT NOT NULL,
		url_fingerprint TEXT NOT NULL,
		scope_key TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		raw_text TEXT NOT NULL DEFAULT '',
		body_markdown TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT 'General',
		subcategory TEXT NOT NULL DEFAULT '',
		topics TEXT NOT NULL DEFAULT '[]',
		tags TEXT NOT NULL DEFAULT '[]',
		sentiment_label TEXT,
		sentiment_score REAL,
		complexity_level TEXT NOT NULL DEFAULT '',
		people TEXT NOT NULL DEFAULT '[]',
		organizations TEXT NOT NULL DEFAULT '[]',
		locations TEXT NOT NULL DEFAULT '[]',
		technologies TEXT NOT NULL DEFAULT '[]',
		key_points TEXT NOT NULL DEFAULT '[]',
		action_items TEXT NOT NULL DEFAULT '[]',
		word_count INTEGER NOT NULL DEFAULT 0,
		reading_time_minutes INTEGER NOT NULL DEFAULT 1,
		priority_score REAL NOT NULL DEFAULT 0,
		simhash INTEGER NOT NULL DEFAULT 0,
		author TEXT NOT NULL DEFAULT '',
		published_at DATETIME,
		saved_at DATETIME NOT NULL,
		stage TEXT NOT NULL DEFAULT 'inbox',
		stage_updated_at DATETIME NOT NULL,
		completed_at DATETIME,
		priority TEXT NOT NULL DEFAULT 'medium',
		study_notes TEXT NOT NULL DEFAULT '',
		is_archived INTEGER NOT NULL DEFAULT 0,
		analysis_source TEXT NOT NULL DEFAULT 'fallback'
	);

	CREATE INDEX IF NOT EXISTS idx_articles_owner ON articles(owner_id);
	CREATE INDEX IF NOT EXISTS idx_articles_stage ON articles(stage);
	CREATE INDEX IF NOT EXISTS idx_articles_fingerprint ON articles(url_fingerprint);
	CREATE INDEX IF NOT EXISTS idx_articles_saved ON articles(saved_at DESC);

	CREATE TABLE IF NOT EXISTS ingest_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id TEXT NOT NULL,
		url TEXT NOT NULL,
		outcome TEXT NOT NULL,
		degraded INTEGER NOT NULL DEFAULT 0,
		analysis_source TEXT NOT NULL DEFAULT '',
		duration_ms INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_ingest_log_owner ON ingest_log(owner_id);
	CREATE INDEX IF NOT EXISTS idx_ingest_log_created ON ingest_log(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// scopeKey builds the value backing the UNIQUE dedup constraint.
func (s *Store) scopeKey(ownerID, fingerprint string) string {
	if s.scope == ScopeGlobal {
		return fingerprint
	}
	return ownerID + ":" + fingerprint
}

// builder returns a squirrel statement builder bound to the store's DB.
func (s *Store) builder() sq.StatementBuilderType {
	return sq.StatementBuilder.RunWith(s.db)
}
