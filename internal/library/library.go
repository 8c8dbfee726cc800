// Package library keeps actor and scene documents in a local SQLite file so
// they can be looked up by name.
package library

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

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivlev/sprite2video/internal/document"
	"github.com/ivlev/sprite2video/internal/logging"
	"github.com/ivlev/sprite2video/internal/model"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("document not found")

// Entry describes a stored document.
type Entry struct {
	ID          string
	Name        string
	Kind        document.Kind
	Fingerprint string
	Updated     time.Time
	// Changed is false when Put found identical content already stored.
	Changed bool
}

type Library struct {
	db  *sql.DB
	log *zap.Logger
}

// Open opens or creates the library database at path.
func Open(path string, logger *zap.Logger) (*Library, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := logging.Component(logger, "library").With(zap.String("path", path))
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("library path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS documents (
		id          TEXT PRIMARY KEY,
		kind        TEXT NOT NULL,
		name        TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		data        BLOB NOT NULL,
		updated_at  TEXT NOT NULL,
		UNIQUE(kind, name)
	);`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	l.Debug("library ready")
	return &Library{db: db, log: l}, nil
}

func (lib *Library) Close() error {
	return lib.db.Close()
}

// Put stores a validated document under its own name, replacing an older
// document of the same kind and name.
func (lib *Library) Put(ctx context.Context, data []byte) (Entry, error) {
	kind, err := document.DetectKind(data)
	if err != nil {
		return Entry{}, err
	}
	if err := document.Validate(kind, data); err != nil {
		return Entry{}, err
	}
	var head struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return Entry{}, fmt.Errorf("%v: %w", err, document.ErrInvalidDocument)
	}
	fp, err := document.Fingerprint(data)
	if err != nil {
		return Entry{}, err
	}
	sum := fmt.Sprintf("%016x", fp)

	existing, err := lib.entry(ctx, kind, head.Name)
	switch {
	case errors.Is(err, ErrNotFound):
		existing = Entry{ID: uuid.NewString(), Kind: kind, Name: head.Name}
	case err != nil:
		return Entry{}, err
	case existing.Fingerprint == sum:
		return existing, nil
	}

	now := time.Now().UTC()
	_, err = lib.db.ExecContext(ctx, `INSERT INTO documents (id, kind, name, fingerprint, data, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind, name) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		existing.ID, string(kind), head.Name, sum, data, now.Format(time.RFC3339Nano))
	if err != nil {
		return Entry{}, fmt.Errorf("store %s %q: %w", kind, head.Name, err)
	}

	lib.log.Info("stored document", zap.String("kind", string(kind)), zap.String("name", head.Name), zap.String("id", existing.ID))
	existing.Fingerprint = sum
	existing.Updated = now
	existing.Changed = true
	return existing, nil
}

func (lib *Library) PutActor(ctx context.Context, a model.Actor) (Entry, error) {
	data, err := document.MarshalActor(a)
	if err != nil {
		return Entry{}, err
	}
	return lib.Put(ctx, data)
}

func (lib *Library) PutScene(ctx context.Context, s *model.Scene) (Entry, error) {
	data, err := document.MarshalScene(s)
	if err != nil {
		return Entry{}, err
	}
	return lib.Put(ctx, data)
}

// Get returns the raw document of kind called name.
func (lib *Library) Get(ctx context.Context, kind document.Kind, name string) ([]byte, error) {
	var data []byte
	err := lib.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE kind = ? AND name = ?`, string(kind), name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %q: %w", kind, name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s %q: %w", kind, name, err)
	}
	return data, nil
}

func (lib *Library) Actor(ctx context.Context, name string) (model.Actor, error) {
	data, err := lib.Get(ctx, document.KindActor, name)
	if err != nil {
		return model.Actor{}, err
	}
	return document.UnmarshalActor(data)
}

func (lib *Library) Scene(ctx context.Context, name string) (*model.Scene, error) {
	data, err := lib.Get(ctx, document.KindScene, name)
	if err != nil {
		return nil, err
	}
	return document.UnmarshalScene(data)
}

// List returns the entries of kind ordered by name. An empty kind lists
// every document.
func (lib *Library) List(ctx context.Context, kind document.Kind) ([]Entry, error) {
	q := `SELECT id, kind, name, fingerprint, updated_at FROM documents`
	var args []any
	if kind != "" {
		q += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	q += ` ORDER BY kind, name`

	rows, err := lib.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete removes the document of kind called name.
func (lib *Library) Delete(ctx context.Context, kind document.Kind, name string) error {
	res, err := lib.db.ExecContext(ctx, `DELETE FROM documents WHERE kind = ? AND name = ?`, string(kind), name)
	if err != nil {
		return fmt.Errorf("delete %s %q: %w", kind, name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s %q: %w", kind, name, ErrNotFound)
	}
	lib.log.Info("deleted document", zap.String("kind", string(kind)), zap.String("name", name))
	return nil
}

func (lib *Library) entry(ctx context.Context, kind document.Kind, name string) (Entry, error) {
	row := lib.db.QueryRowContext(ctx,
		`SELECT id, kind, name, fingerprint, updated_at FROM documents WHERE kind = ? AND name = ?`, string(kind), name)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var e Entry
	var kind, updated string
	if err := s.Scan(&e.ID, &kind, &e.Name, &e.Fingerprint, &updated); err != nil {
		return Entry{}, err
	}
	e.Kind = document.Kind(kind)
	t, err := time.Parse(time.RFC3339Nano, updated)
	if err != nil {
		return Entry{}, fmt.Errorf("document %s updated_at %q: %w", e.ID, updated, err)
	}
	e.Updated = t
	return e, nil
}
