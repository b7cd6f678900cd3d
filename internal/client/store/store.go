package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/dmitrijs2005/fieldsync/internal/client/migrations"
	"github.com/dmitrijs2005/fieldsync/internal/client/repositories/answers"
	"github.com/dmitrijs2005/fieldsync/internal/client/repositories/cases"
	"github.com/dmitrijs2005/fieldsync/internal/client/repositories/media"
	"github.com/dmitrijs2005/fieldsync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/fieldsync/internal/client/repositories/opqueue"
	"github.com/dmitrijs2005/fieldsync/internal/dbx"
	"github.com/dmitrijs2005/fieldsync/internal/filex"

	_ "modernc.org/sqlite"
)

// Repos groups the per-collection repositories bound to one DBTX.
type Repos struct {
	Cases    cases.Repository
	Answers  answers.Repository
	Media    media.Repository
	Queue    opqueue.Repository
	Metadata metadata.Repository
}

func newRepos(db dbx.DBTX) Repos {
	return Repos{
		Cases:    cases.NewSQLiteRepository(db),
		Answers:  answers.NewSQLiteRepository(db),
		Media:    media.NewSQLiteRepository(db),
		Queue:    opqueue.NewSQLiteRepository(db),
		Metadata: metadata.NewSQLiteRepository(db),
	}
}

type Store struct {
	db   *sql.DB
	hub  *Hub
	read Repos
}

// DSN builds the modernc sqlite data source for path with WAL, a busy
// timeout and foreign keys enabled.
func DSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	return path + "?" + q.Encode()
}

// Open opens (creating if needed) the database at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if _, err := filex.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", DSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	if err := migrations.Up(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, hub: NewHub(), read: newRepos(db)}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Hub exposes the change notification registry.
func (s *Store) Hub() *Hub {
	return s.hub
}

// Read returns repositories bound to the database, for queries.
func (s *Store) Read() Repos {
	return s.read
}

// Write runs fn in a transaction. On commit, subscribers of collections are
// notified. Storage errors are returned as is; the store never retries.
func (s *Store) Write(ctx context.Context, collections []string, fn func(ctx context.Context, r Repos) error) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, newRepos(tx))
	})
	if err != nil {
		return err
	}
	s.hub.Publish(collections...)
	return nil
}
