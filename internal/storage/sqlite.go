package storage

import (
	"context"
	"database/sql"
	"sort"

	"github.com/jask/releasetour/internal/database"
	"github.com/jask/releasetour/internal/database/repository"
)

// SQLite stores entries in the local kv table.
type SQLite struct {
	db   *sql.DB
	repo *repository.KVRepo
}

// OpenSQLite migrates and opens the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if err := database.RunMigrations(path); err != nil {
		return nil, err
	}
	db, err := database.Open(path)
	if err != nil {
		return nil, err
	}
	return &SQLite{db: db, repo: repository.NewKVRepo(db)}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) (string, error) {
	e, err := s.repo.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if e == nil {
		return "", ErrNotFound
	}
	return e.Value, nil
}

func (s *SQLite) Set(ctx context.Context, key, value string) error {
	return s.repo.Upsert(ctx, repository.Entry{Key: key, Value: value})
}

func (s *SQLite) SetMany(ctx context.Context, values map[string]string) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	entries := make([]repository.Entry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, repository.Entry{Key: k, Value: values[k]})
	}
	return s.repo.UpsertMany(ctx, entries)
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	return s.repo.Delete(ctx, key)
}

func (s *SQLite) Keys(ctx context.Context, prefix string) ([]string, error) {
	list, err := s.repo.ListByPrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, e.Key)
	}
	return out, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
