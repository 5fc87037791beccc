// Package session keeps the CLI's login state (user name and token pair) in
// a local SQLite database so consecutive commands share one session.
package session

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fabrica-p6f5/backoffice/internal/client/migrations"
	"github.com/fabrica-p6f5/backoffice/internal/client/repositories/metadata"
	"github.com/fabrica-p6f5/backoffice/internal/dbx"
	"github.com/fabrica-p6f5/backoffice/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

const (
	keyUserName     = "username"
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
)

// Store is the persisted CLI session.
type Store struct {
	db *sql.DB
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the session database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := filex.EnsureParentDir(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate session db: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) meta(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Tokens returns the stored token pair; empty strings when logged out.
func (s *Store) Tokens(ctx context.Context) (access, refresh string, err error) {
	m := s.meta(s.db)
	a, err := m.Get(ctx, keyAccessToken)
	if err != nil {
		return "", "", err
	}
	r, err := m.Get(ctx, keyRefreshToken)
	if err != nil {
		return "", "", err
	}
	return string(a), string(r), nil
}

// SaveTokens replaces both tokens atomically.
func (s *Store) SaveTokens(ctx context.Context, access, refresh string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		m := s.meta(tx)
		if err := m.Set(ctx, keyAccessToken, []byte(access)); err != nil {
			return err
		}
		return m.Set(ctx, keyRefreshToken, []byte(refresh))
	})
}

func (s *Store) UserName(ctx context.Context) (string, error) {
	v, err := s.meta(s.db).Get(ctx, keyUserName)
	return string(v), err
}

// Login records a fresh session for username.
func (s *Store) Login(ctx context.Context, username, access, refresh string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		m := s.meta(tx)
		if err := m.Clear(ctx); err != nil {
			return err
		}
		if err := m.Set(ctx, keyUserName, []byte(username)); err != nil {
			return err
		}
		if err := m.Set(ctx, keyAccessToken, []byte(access)); err != nil {
			return err
		}
		return m.Set(ctx, keyRefreshToken, []byte(refresh))
	})
}

// Logout forgets everything about the current session.
func (s *Store) Logout(ctx context.Context) error {
	return s.meta(s.db).Clear(ctx)
}
