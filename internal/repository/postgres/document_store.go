package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/prn-tf/tradehub/internal/config"
	"github.com/prn-tf/tradehub/internal/domain"
	"github.com/prn-tf/tradehub/internal/repository"
)

const uniqueViolation = "23505"

// DocumentStore implements repository.DocumentStore on a jsonb table.
type DocumentStore struct {
	db     *DB
	feed   *repository.Feed
	logger zerolog.Logger
}

// NewDocumentStore creates a new PostgreSQL document store.
func NewDocumentStore(db *DB, logger zerolog.Logger) *DocumentStore {
	return &DocumentStore{
		db:     db,
		feed:   repository.NewFeed(logger),
		logger: logger.With().Str("component", "postgres_store").Logger(),
	}
}

// Open applies schema migrations, connects and returns the store.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (repository.DocumentStore, repository.DatabaseHealth, error) {
	if err := Migrate(cfg, logger); err != nil {
		return nil, nil, err
	}
	db, err := NewDB(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return NewDocumentStore(db, logger), db, nil
}

// Get returns the document.
func (s *DocumentStore) Get(ctx context.Context, collection, id string) (repository.Document, error) {
	return s.get(ctx, s.db.Pool, collection, id, false)
}

func (s *DocumentStore) get(ctx context.Context, q Querier, collection, id string, forUpdate bool) (repository.Document, error) {
	query := `SELECT data FROM documents WHERE collection = $1 AND id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var data []byte
	if err := q.QueryRow(ctx, query, collection, id).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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

	_, err = s.db.Pool.Exec(ctx,
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)`,
		collection, id, string(data),
	)
	if err != nil {
		return s.writeError("create", collection, id, err)
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

	_, err = s.db.Pool.Exec(ctx, `
		INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = NOW()`,
		collection, id, string(data),
	)
	if err != nil {
		return s.writeError("put", collection, id, err)
	}

	s.feed.Publish(ctx, repository.Change{Collection: collection, ID: id, Op: repository.OpPut, Document: doc})
	return nil
}

// Update merges partial into the row locked with SELECT ... FOR UPDATE.
func (s *DocumentStore) Update(ctx context.Context, collection, id string, partial repository.Document) (repository.Document, error) {
	var merged repository.Document

	err := s.db.WithTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		current, err := s.get(ctx, tx, collection, id, true)
		if err != nil {
			return err
		}
		merged = domain.MergeDocuments(current, partial)

		data, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("failed to encode document: %w", err)
		}
		_, err = tx.Exec(ctx, `
			UPDATE documents SET data = $3::jsonb, updated_at = NOW()
			WHERE collection = $1 AND id = $2`,
			collection, id, string(data),
		)
		if err != nil {
			return s.writeError("update", collection, id, err)
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
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	s.feed.Publish(ctx, repository.Change{Collection: collection, ID: id, Op: repository.OpDelete})
	return nil
}

// Query pushes scalar filters down as jsonb containment and applies
// ordering and pagination on the decoded documents.
func (s *DocumentStore) Query(ctx context.Context, collection string, q repository.Query) ([]repository.Document, error) {
	where, args, err := whereClause(collection, q.Filters)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Pool.Query(ctx, `SELECT data FROM documents WHERE `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []repository.Document
	for rows.Next() {
		var data []byte
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

	where, args, err := whereClause(collection, filters)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := s.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM documents WHERE `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return int(n), nil
}

// Subscribe registers a change handler.
func (s *DocumentStore) Subscribe(collection, id string, handler repository.ChangeHandler) func() {
	return s.feed.Subscribe(collection, id, handler)
}

func (s *DocumentStore) writeError(op, collection, id string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s/%s", repository.ErrDuplicate, collection, id)
	}
	return fmt.Errorf("failed to %s document: %w", op, err)
}

// whereClause builds the SQL predicate for the filters with a scalar value.
// A missing field and a JSON null both match a nil filter.
func whereClause(collection string, filters []repository.Filter) (string, []any, error) {
	clauses := []string{"collection = $1"}
	args := []any{collection}

	for _, f := range filters {
		value := repository.NormalizeValue(f.Value)
		switch value.(type) {
		case nil:
			args = append(args, strings.Split(f.Field, "."))
			clauses = append(clauses, fmt.Sprintf("COALESCE(data #> $%d::text[], 'null'::jsonb) = 'null'::jsonb", len(args)))
		case bool, string, float64:
			doc, err := json.Marshal(containment(f.Field, value))
			if err != nil {
				return "", nil, fmt.Errorf("failed to encode filter %s: %w", f.Field, err)
			}
			args = append(args, string(doc))
			clauses = append(clauses, fmt.Sprintf("data @> $%d::jsonb", len(args)))
		}
	}
	return strings.Join(clauses, " AND "), args, nil
}

// containment nests value under the dot path: "a.b" becomes {"a":{"b":value}}.
func containment(field string, value any) map[string]any {
	parts := strings.Split(field, ".")
	out := map[string]any{parts[len(parts)-1]: value}
	for i := len(parts) - 2; i >= 0; i-- {
		out = map[string]any{parts[i]: out}
	}
	return out
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

func decode(data []byte) (repository.Document, error) {
	var doc repository.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return doc, nil
}

var _ repository.DocumentStore = (*DocumentStore)(nil)
