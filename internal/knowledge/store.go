// Package knowledge is the reference knowledge base consulted while drafting
// replies: company FAQs, policies and product facts kept in SQLite.
package knowledge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hal9000y/gmail-reply-mcp/internal/reply"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ErrIncompleteEntry is returned by Add for entries missing a required field.
var ErrIncompleteEntry = errors.New("knowledge: entry needs category, question and answer")

// Entry is one knowledge base record.
type Entry struct {
	ID       string
	Category string
	Question string
	Answer   string
	Keywords []string
}

// Store keeps knowledge entries in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (and creates when missing) the database at path. With seed set,
// an empty database is filled with the default company entries.
func Open(ctx context.Context, path string, seed bool) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("os.MkdirAll failed: %w", err)
		}
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sql.Open failed: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma %q failed: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("s.migrate failed: %w", err)
	}

	if seed {
		n, err := s.Count(ctx)
		if err != nil {
			db.Close()
			return nil, err
		}
		if n == 0 {
			for _, e := range DefaultEntries() {
				if _, err := s.Add(ctx, e); err != nil {
					db.Close()
					return nil, fmt.Errorf("seeding knowledge base failed: %w", err)
				}
			}
		}
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS entries (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			id         TEXT NOT NULL UNIQUE,
			category   TEXT NOT NULL,
			question   TEXT NOT NULL,
			answer     TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS entry_keywords (
			entry_id TEXT NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
			keyword  TEXT NOT NULL,
			PRIMARY KEY (entry_id, keyword)
		);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("db.Exec failed: %w", err)
	}
	return nil
}

// Count returns the number of entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries failed: %w", err)
	}
	return n, nil
}

// Add inserts e and returns its id. A new id is generated when e.ID is empty.
func (s *Store) Add(ctx context.Context, e Entry) (string, error) {
	if strings.TrimSpace(e.Category) == "" || strings.TrimSpace(e.Question) == "" || strings.TrimSpace(e.Answer) == "" {
		return "", ErrIncompleteEntry
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("db.BeginTx failed: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO entries (id, category, question, answer, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Category, e.Question, e.Answer, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return "", fmt.Errorf("insert entry failed: %w", err)
	}

	for _, kw := range e.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO entry_keywords (entry_id, keyword) VALUES (?, ?)`, e.ID, kw,
		); err != nil {
			return "", fmt.Errorf("insert keyword failed: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("tx.Commit failed: %w", err)
	}

	return e.ID, nil
}

// Search returns the entries relevant to topic in insertion order. An entry
// matches when the topic occurs in its category, question or answer, or when
// one of its keywords contains the topic or is contained in it.
func (s *Store) Search(ctx context.Context, topic string) ([]reply.KnowledgeSnippet, error) {
	term := strings.ToLower(strings.TrimSpace(topic))
	if term == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT e.category, e.question, e.answer
		FROM entries e
		WHERE instr(lower(e.category), ?) > 0
		   OR instr(lower(e.question), ?) > 0
		   OR instr(lower(e.answer), ?) > 0
		   OR EXISTS (
				SELECT 1 FROM entry_keywords k
				WHERE k.entry_id = e.id
				  AND (instr(k.keyword, ?) > 0 OR instr(?, k.keyword) > 0)
		   )
		ORDER BY e.seq`,
		term, term, term, term, term,
	)
	if err != nil {
		return nil, fmt.Errorf("search entries failed: %w", err)
	}
	defer rows.Close()

	var out []reply.KnowledgeSnippet
	for rows.Next() {
		snippet := reply.KnowledgeSnippet{Topic: topic}
		if err := rows.Scan(&snippet.Category, &snippet.Question, &snippet.Answer); err != nil {
			return nil, fmt.Errorf("rows.Scan failed: %w", err)
		}
		out = append(out, snippet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err failed: %w", err)
	}

	return out, nil
}
