// Package library persists generated designs in a SQLite database so they
// survive restarts and can be listed, fetched by id, or reused for a
// repeated generation request.
package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ironsheep/tattoo-studio/internal/generate"
)

// ErrNotFound is returned by Get when no design has the requested id.
var ErrNotFound = errors.New("design not found")

const schema = `
CREATE TABLE IF NOT EXISTS designs (
    id TEXT PRIMARY KEY,
    request_key TEXT NOT NULL,
    prompt TEXT NOT NULL,
    style TEXT NOT NULL,
    enhanced_prompt TEXT NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    seed INTEGER NOT NULL,
    created_at INTEGER NOT NULL,      -- UnixNano
    mime_type TEXT NOT NULL,
    image BLOB NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_designs_key ON designs(request_key);
CREATE INDEX IF NOT EXISTS idx_designs_created ON designs(created_at);
`

const metaColumns = `id, prompt, style, enhanced_prompt, width, height, seed, created_at, mime_type`

// Library is a SQLite-backed design store. It implements generate.Store.
type Library struct {
	db *sql.DB
}

var _ generate.Store = (*Library)(nil)

// Open opens or creates the database at path.
func Open(path string) (*Library, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Library{db: db}, nil
}

// Close closes the database.
func (l *Library) Close() error {
	return l.db.Close()
}

// Put stores d under the request key. A later design for the same key
// replaces the earlier one.
func (l *Library) Put(ctx context.Context, key string, d *generate.Design) error {
	if d == nil || d.ID == "" {
		return errors.New("design has no id")
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO designs
		    (id, request_key, prompt, style, enhanced_prompt, width, height, seed, created_at, mime_type, image)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, key, d.Prompt, d.Style, d.EnhancedPrompt, d.Width, d.Height, d.Seed,
		d.CreatedAt.UnixNano(), d.MimeType, d.Image)
	if err != nil {
		return fmt.Errorf("failed to store design: %w", err)
	}
	return nil
}

// Get returns the design with the given id, including its image bytes.
func (l *Library) Get(ctx context.Context, id string) (*generate.Design, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT `+metaColumns+`, image FROM designs WHERE id = ?`, id)
	d, err := scanDesign(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read design: %w", err)
	}
	return d, nil
}

// Lookup returns the design stored for a request key.
func (l *Library) Lookup(ctx context.Context, key string) (*generate.Design, bool, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT `+metaColumns+`, image FROM designs WHERE request_key = ?`, key)
	d, err := scanDesign(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read design: %w", err)
	}
	return d, true, nil
}

// Recent lists up to limit designs, newest first. Image bytes are not loaded.
func (l *Library) Recent(ctx context.Context, limit int) ([]*generate.Design, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT `+metaColumns+` FROM designs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list designs: %w", err)
	}
	defer rows.Close()

	var designs []*generate.Design
	for rows.Next() {
		d, err := scanDesign(rows, false)
		if err != nil {
			return nil, fmt.Errorf("failed to read design: %w", err)
		}
		designs = append(designs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list designs: %w", err)
	}
	return designs, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDesign(s scanner, withImage bool) (*generate.Design, error) {
	var (
		d       generate.Design
		created int64
	)
	dest := []interface{}{&d.ID, &d.Prompt, &d.Style, &d.EnhancedPrompt, &d.Width, &d.Height, &d.Seed, &created, &d.MimeType}
	if withImage {
		dest = append(dest, &d.Image)
	}
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	d.CreatedAt = time.Unix(0, created).UTC()
	return &d, nil
}
