package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/prn-tf/tradehub/internal/config"
	"github.com/prn-tf/tradehub/internal/domain"
	"github.com/prn-tf/tradehub/internal/repository"
)

// DocumentStore implements repository.DocumentStore on a single SQLite table.
type DocumentStore struct {
	db     *DB
	feed   *repository.Feed
	logger zerolog.Logger
}

// NewDocumentStore creates a new SQLite document store.
func NewDocumentStore(db *DB, logger zerolog.Logger) *DocumentStore {
	return &DocumentStore{
		db:     db,
		feed:   repository.NewFeed(logger),
		logger: logger.With().Str("component", "sqlite_store").Logger(),
	}
}

// Open connects, applies migrations and returns the store.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (repository.DocumentStore, repository.DatabaseHealth, error) {
	sc := DefaultConfig(cfg.Path)
	if cfg.JournalMode != "" {
		sc.JournalMode = cfg.JournalMode
	}
	if cfg.BusyTimeout > 0 {
		sc.BusyTimeout = cfg.BusyTimeout
	}
	if cfg.CacheSize != 0 {
		sc.CacheSize = cfg.CacheSize
	}
	if cfg.SynchronousMode != "" {
		sc.SynchronousMode = cfg.SynchronousMode
	}

	db, err := NewDB(ctx, sc, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return NewDocumentStore(db, logger), db, nil
}

// Get returns the document.
func (s *DocumentStore) Get(ctx context.Context, collection, id string) (repository.Document, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id,
	).Scan(&data)
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return decode(data)
}

// Create inserts a new document.
func (s *DocumentStore) Create(ctx context.Context, collection, id string, doc repository.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data) VALUES (?, ?, ?)`,
		collection, id, string(data),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s/%s", repository.ErrDuplicate, collection, id)
		}
		return fmt.Errorf("failed to create document: %w", err)
	}

	s.feed.Publish(ctx, repository.Change{Collection: collection, ID: id, Op: repository.OpPut, Document: doc})
	return nil
}

// Put inserts or replaces the document.
func (s *DocumentStore) Put(ctx context.Context, collection, id string, doc repository.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data) VALUES (?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET
			data = excluded.data,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`,
		collection, id, string(data),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s/%s", repository.ErrDuplicate, collection, id)
		}
		return fmt.Errorf("failed to put document: %w", err)
	}

	s.feed.Publish(ctx, repository.Change{Collection: collection, ID: id, Op: repository.OpPut, Document: doc})
	return nil
}

// Update merges partial into the stored document inside a transaction.
func (s *DocumentStore) Update(ctx context.Context, collection, id string, partial repository.Document) (repository.Document, error) {
	var merged repository.Document

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var data string
		err := tx.QueryRowContext(ctx,
			`SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id,
		).Scan(&data)
		if err != nil {
			if isNoRows(err) {
				return repository.ErrNotFound
			}
			return fmt.Errorf("failed to load document: %w", err)
		}

		current, err := decode(data)
		if err != nil {
			return err
		}
		merged = domain.MergeDocuments(current, partial)

		encoded, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("failed to encode document: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE documents
			SET data = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
			WHERE collection = ? AND id = ?`,
			string(encoded), collection, id,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s/%s", repository.ErrDuplicate, collection, id)
			}
			return fmt.Errorf("failed to update document: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.feed.Publish(ctx, repository.Change{Collection: collection, ID: id, Op: repository.OpUpdate, Document: merged})
	return merged, nil
}

// Delete removes the document.
func (s *DocumentStore) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}

	s.feed.Publish(ctx, repository.Change{Collection: collection, ID: id, Op: repository.OpDelete})
	return nil
}

// Query pushes equality filters down to json_extract and applies ordering
// and pagination on the decoded documents.
func (s *DocumentStore) Query(ctx context.Context, collection string, q repository.Query) ([]repository.Document, error) {
	where, args := whereClause(collection, q.Filters)

	rows, err := s.db.QueryContext(ctx, `SELECT data FROM documents WHERE `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []repository.Document
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc, err := decode(data)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}

	return repository.ApplyQuery(docs, q), nil
}

// Count returns the number of matching documents.
func (s *DocumentStore) Count(ctx context.Context, collection string, filters ...repository.Filter) (int, error) {
	if !allPushable(filters) {
		docs, err := s.Query(ctx, collection, repository.Query{Filters: filters})
		if err != nil {
			return 0, err
		}
		return len(docs), nil
	}

	where, args := whereClause(collection, filters)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

// Subscribe registers a change handler.
func (s *DocumentStore) Subscribe(collection, id string, handler repository.ChangeHandler) func() {
	return s.feed.Subscribe(collection, id, handler)
}

// whereClause builds the SQL predicate for the filters that have a scalar
// value. The remaining filters are applied in Go by repository.ApplyQuery.
func whereClause(collection string, filters []repository.Filter) (string, []any) {
	clauses := []string{"collection = ?"}
	args := []any{collection}

	for _, f := range filters {
		path := "$." + f.Field
		switch v := repository.NormalizeValue(f.Value).(type) {
		case nil:
			clauses = append(clauses, "json_extract(data, ?) IS NULL")
			args = append(args, path)
		case bool:
			b := 0
			if v {
				b = 1
			}
			clauses = append(clauses, "json_extract(data, ?) = ?")
			args = append(args, path, b)
		case string, float64:
			clauses = append(clauses, "json_extract(data, ?) = ?")
			args = append(args, path, v)
		}
	}
	return strings.Join(clauses, " AND "), args
}

func allPushable(filters []repository.Filter) bool {
	for _, f := range filters {
		switch repository.NormalizeValue(f.Value).(type) {
		case nil, bool, string, float64:
		default:
			return false
		}
	}
	return true
}

func decode(data string) (repository.Document, error) {
	var doc repository.Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return doc, nil
}

var _ repository.DocumentStore = (*DocumentStore)(nil)
