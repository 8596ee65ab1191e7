package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/tradehub/internal/repository"
)

func newTestStore() *Store {
	return NewStore(zerolog.Nop())
}

func TestStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_, err := s.Get(ctx, "orders", "o1")
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, s.Create(ctx, "orders", "o1", repository.Document{"id": "o1", "status": "pending", "quantity": 2.0}))
	require.ErrorIs(t, s.Create(ctx, "orders", "o1", repository.Document{"id": "o1"}), repository.ErrDuplicate)

	doc, err := s.Get(ctx, "orders", "o1")
	require.NoError(t, err)
	require.Equal(t, "pending", doc["status"])

	// Returned documents are copies.
	doc["status"] = "mutated"
	doc, err = s.Get(ctx, "orders", "o1")
	require.NoError(t, err)
	require.Equal(t, "pending", doc["status"])

	updated, err := s.Update(ctx, "orders", "o1", repository.Document{"status": "filled"})
	require.NoError(t, err)
	require.Equal(t, "filled", updated["status"])
	require.Equal(t, 2.0, updated["quantity"])

	_, err = s.Update(ctx, "orders", "missing", repository.Document{"status": "filled"})
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, s.Delete(ctx, "orders", "o1"))
	require.ErrorIs(t, s.Delete(ctx, "orders", "o1"), repository.ErrNotFound)
}

func TestStore_UniqueEmail(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	require.NoError(t, s.Put(ctx, repository.CollectionUsers, "u1", repository.Document{"id": "u1", "email": "a@example.com"}))
	err := s.Put(ctx, repository.CollectionUsers, "u2", repository.Document{"id": "u2", "email": "a@example.com"})
	require.ErrorIs(t, err, repository.ErrDuplicate)

	// Rewriting the same record keeps its email.
	require.NoError(t, s.Put(ctx, repository.CollectionUsers, "u1", repository.Document{"id": "u1", "email": "a@example.com", "x": 1.0}))
}

func TestStore_Query(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	docs := []repository.Document{
		{"id": "1", "userId": "u1", "status": "pending", "createdAt": "2024-01-01T10:00:00Z"},
		{"id": "2", "userId": "u1", "status": "filled", "createdAt": "2024-01-01T10:00:00.5Z"},
		{"id": "3", "userId": "u1", "status": "pending", "createdAt": "2024-01-03T10:00:00Z"},
		{"id": "4", "userId": "u2", "status": "pending", "createdAt": "2024-01-04T10:00:00Z"},
	}
	for _, d := range docs {
		require.NoError(t, s.Put(ctx, "orders", d["id"].(string), d))
	}

	tests := []struct {
		name    string
		query   repository.Query
		wantIDs []string
	}{
		{
			name:    "filter by user newest first",
			query:   repository.Query{Filters: []repository.Filter{repository.Eq("userId", "u1")}, OrderBy: "createdAt", Desc: true},
			wantIDs: []string{"3", "2", "1"},
		},
		{
			name: "two filters",
			query: repository.Query{Filters: []repository.Filter{
				repository.Eq("userId", "u1"),
				repository.Eq("status", "pending"),
			}, OrderBy: "createdAt"},
			wantIDs: []string{"1", "3"},
		},
		{
			name:    "limit and offset",
			query:   repository.Query{OrderBy: "createdAt", Limit: 2, Offset: 1},
			wantIDs: []string{"2", "3"},
		},
		{
			name:    "offset past end",
			query:   repository.Query{Offset: 10},
			wantIDs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Query(ctx, "orders", tt.query)
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, d := range got {
				ids = append(ids, d["id"].(string))
			}
			require.Equal(t, tt.wantIDs, ids)
		})
	}

	n, err := s.Count(ctx, "orders", repository.Eq("status", "pending"))
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestStore_SubscribeKeepsRunningAfterHandlerError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	var seen []repository.Change
	cancel := s.Subscribe("users", "", func(_ context.Context, c repository.Change) error {
		seen = append(seen, c)
		return errors.New("handler failed")
	})

	var docSeen int
	s.Subscribe("users", "u2", func(_ context.Context, c repository.Change) error {
		docSeen++
		return nil
	})

	require.NoError(t, s.Put(ctx, "users", "u1", repository.Document{"id": "u1", "email": "a@example.com"}))
	require.NoError(t, s.Put(ctx, "users", "u2", repository.Document{"id": "u2", "email": "b@example.com"}))
	require.NoError(t, s.Delete(ctx, "users", "u1"))
	require.NoError(t, s.Put(ctx, "orders", "o1", repository.Document{"id": "o1"}))

	require.Len(t, seen, 3)
	require.Equal(t, repository.OpPut, seen[0].Op)
	require.Equal(t, "u2", seen[1].ID)
	require.Equal(t, repository.OpDelete, seen[2].Op)
	require.Nil(t, seen[2].Document)
	require.Equal(t, 1, docSeen)

	cancel()
	require.NoError(t, s.Put(ctx, "users", "u3", repository.Document{"id": "u3", "email": "c@example.com"}))
	require.Len(t, seen, 3)
}
