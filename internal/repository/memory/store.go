// Package memory provides an in-process DocumentStore.
// It is used by tests and by the "memory" database driver for demos.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/prn-tf/tradehub/internal/domain"
	"github.com/prn-tf/tradehub/internal/repository"
)

// uniqueFields mirrors the unique indexes of the SQL backends.
var uniqueFields = map[string][]string{
	repository.CollectionUsers:  {"email"},
	repository.CollectionAdmins: {"email"},
}

// Store holds documents in maps guarded by a mutex.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]repository.Document
	feed        *repository.Feed
}

// NewStore creates an empty store.
func NewStore(logger zerolog.Logger) *Store {
	return &Store{
		collections: make(map[string]map[string]repository.Document),
		feed:        repository.NewFeed(logger),
	}
}

// Get returns a copy of the document.
func (s *Store) Get(_ context.Context, collection, id string) (repository.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return repository.CloneDocument(doc), nil
}

// Create stores a new document.
func (s *Store) Create(ctx context.Context, collection, id string, doc repository.Document) error {
	s.mu.Lock()
	if _, exists := s.collections[collection][id]; exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s/%s", repository.ErrDuplicate, collection, id)
	}
	if err := s.checkUnique(collection, id, doc); err != nil {
		s.mu.Unlock()
		return err
	}
	stored := s.write(collection, id, doc)
	s.mu.Unlock()

	s.feed.Publish(ctx, repository.Change{Collection: collection, ID: id, Op: repository.OpPut, Document: stored})
	return nil
}

// Put stores the whole document.
func (s *Store) Put(ctx context.Context, collection, id string, doc repository.Document) error {
	s.mu.Lock()
	if err := s.checkUnique(collection, id, doc); err != nil {
		s.mu.Unlock()
		return err
	}
	stored := s.write(collection, id, doc)
	s.mu.Unlock()

	s.feed.Publish(ctx, repository.Change{Collection: collection, ID: id, Op: repository.OpPut, Document: stored})
	return nil
}

// Update merges partial into the stored document.
func (s *Store) Update(ctx context.Context, collection, id string, partial repository.Document) (repository.Document, error) {
	s.mu.Lock()
	current, ok := s.collections[collection][id]
	if !ok {
		s.mu.Unlock()
		return nil, repository.ErrNotFound
	}
	merged := domain.MergeDocuments(current, partial)
	if err := s.checkUnique(collection, id, merged); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	stored := s.write(collection, id, merged)
	s.mu.Unlock()

	s.feed.Publish(ctx, repository.Change{Collection: collection, ID: id, Op: repository.OpUpdate, Document: stored})
	return repository.CloneDocument(stored), nil
}

// Delete removes the document.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	if _, ok := s.collections[collection][id]; !ok {
		s.mu.Unlock()
		return repository.ErrNotFound
	}
	delete(s.collections[collection], id)
	s.mu.Unlock()

	s.feed.Publish(ctx, repository.Change{Collection: collection, ID: id, Op: repository.OpDelete})
	return nil
}

// Query returns copies of the matching documents.
func (s *Store) Query(_ context.Context, collection string, q repository.Query) ([]repository.Document, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.collections[collection]))
	for id := range s.collections[collection] {
		ids = append(ids, id)
	}
	// Map iteration order is random; start from id order for stable results.
	sort.Strings(ids)
	docs := make([]repository.Document, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, s.collections[collection][id])
	}
	s.mu.RUnlock()

	matched := repository.ApplyQuery(docs, q)

	out := make([]repository.Document, len(matched))
	for i, doc := range matched {
		out[i] = repository.CloneDocument(doc)
	}
	return out, nil
}

// Count returns the number of matching documents.
func (s *Store) Count(_ context.Context, collection string, filters ...repository.Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, doc := range s.collections[collection] {
		if repository.Matches(doc, filters) {
			n++
		}
	}
	return n, nil
}

// Subscribe registers a change handler.
func (s *Store) Subscribe(collection, id string, handler repository.ChangeHandler) func() {
	return s.feed.Subscribe(collection, id, handler)
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Health always succeeds.
func (s *Store) Health(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// write must be called with mu held.
func (s *Store) write(collection, id string, doc repository.Document) repository.Document {
	c, ok := s.collections[collection]
	if !ok {
		c = make(map[string]repository.Document)
		s.collections[collection] = c
	}
	stored := repository.CloneDocument(doc)
	c[id] = stored
	return stored
}

// checkUnique must be called with mu held.
func (s *Store) checkUnique(collection, id string, doc repository.Document) error {
	for _, field := range uniqueFields[collection] {
		want, ok := domain.Lookup(doc, field)
		if !ok || want == nil {
			continue
		}
		for otherID, other := range s.collections[collection] {
			if otherID == id {
				continue
			}
			if repository.Matches(other, []repository.Filter{{Field: field, Value: want}}) {
				return fmt.Errorf("%w: %s.%s", repository.ErrDuplicate, collection, field)
			}
		}
	}
	return nil
}

var (
	_ repository.DocumentStore  = (*Store)(nil)
	_ repository.DatabaseHealth = (*Store)(nil)
)
