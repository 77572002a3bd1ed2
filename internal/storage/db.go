// Package storage persists extracted and manually entered recipes in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	_ "github.com/mattn/go-sqlite3"

	"recipe-extraction-api/internal/taxonomy"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNotFound is returned when a recipe id does not exist.
var ErrNotFound = errors.New("storage: recipe not found")

const schema = `
CREATE TABLE IF NOT EXISTS recipes (
	id                    TEXT PRIMARY KEY,
	title                 TEXT NOT NULL,
	description           TEXT,
	instructions          TEXT,
	prep_time_mins        INTEGER,
	cook_time_mins        INTEGER,
	total_time_mins       INTEGER,
	servings              TEXT,
	difficulty            TEXT,
	video_url             TEXT,
	video_platform        TEXT,
	recipe_page_url       TEXT,
	recipe_site_name      TEXT,
	original_caption      TEXT,
	thumbnail_url         TEXT,
	author_name           TEXT,
	extraction_method     TEXT,
	extraction_confidence REAL,
	raw_extraction        TEXT,
	created_at            TIMESTAMP NOT NULL,
	updated_at            TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS ingredients (
	id          TEXT PRIMARY KEY,
	recipe_id   TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
	name        TEXT NOT NULL,
	quantity    TEXT,
	unit        TEXT,
	preparation TEXT,
	raw_text    TEXT,
	sort_order  INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_ingredients_recipe ON ingredients(recipe_id);

CREATE TABLE IF NOT EXISTS categories (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	UNIQUE (type, name)
);

CREATE TABLE IF NOT EXISTS recipe_categories (
	recipe_id   TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
	category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
	confidence  REAL NOT NULL DEFAULT 1.0,
	PRIMARY KEY (recipe_id, category_id)
);

CREATE TABLE IF NOT EXISTS tags (
	id        TEXT PRIMARY KEY,
	recipe_id TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
	tag       TEXT NOT NULL,
	source    TEXT
);
CREATE INDEX IF NOT EXISTS idx_tags_recipe ON tags(recipe_id);
`

// Open opens (creating if needed) the SQLite database at path and applies
// the schema.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Never hold rows open while issuing another query on this handle.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma journal_mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// Repo is the recipe store.
type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// OpenRepo opens the database and seeds the category table from tax.
func OpenRepo(ctx context.Context, path string, tax *taxonomy.Taxonomy) (*Repo, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	repo := NewRepo(db)
	if err := repo.SeedCategories(ctx, tax); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *Repo) Close() error {
	return r.DB.Close()
}
