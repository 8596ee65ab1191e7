package repository

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// ChangeOp is the kind of write that produced a change.
type ChangeOp string

const (
	OpPut    ChangeOp = "put"
	OpUpdate ChangeOp = "update"
	OpDelete ChangeOp = "delete"
)

// Change describes a committed write.
type Change struct {
	Collection string
	ID         string
	Op         ChangeOp
	// Document is the stored document after the write. Nil for deletes.
	Document Document
}

// ChangeHandler receives committed changes. A returned error is logged and
// the subscription stays active.
type ChangeHandler func(ctx context.Context, change Change) error

type subscription struct {
	collection string
	id         string
	handler    ChangeHandler
}

// Feed fans committed changes out to subscribers. Backends embed one and
// call Publish after each successful write.
type Feed struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]subscription
	logger zerolog.Logger
}

// NewFeed creates an empty change feed.
func NewFeed(logger zerolog.Logger) *Feed {
	return &Feed{
		subs:   make(map[int]subscription),
		logger: logger.With().Str("component", "change_feed").Logger(),
	}
}

// Subscribe registers handler for a collection, or one document when id is set.
func (f *Feed) Subscribe(collection, id string, handler ChangeHandler) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := f.nextID
	f.nextID++
	f.subs[key] = subscription{collection: collection, id: id, handler: handler}

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, key)
			f.mu.Unlock()
		})
	}
}

// Publish delivers change to every matching subscriber, in registration order.
func (f *Feed) Publish(ctx context.Context, change Change) {
	f.mu.RLock()
	matched := make([]subscription, 0, len(f.subs))
	for key := 0; key < f.nextID; key++ {
		sub, ok := f.subs[key]
		if !ok {
			continue
		}
		if sub.collection != "" && sub.collection != change.Collection {
			continue
		}
		if sub.id != "" && sub.id != change.ID {
			continue
		}
		matched = append(matched, sub)
	}
	f.mu.RUnlock()

	for _, sub := range matched {
		var doc Document
		if change.Document != nil {
			doc = CloneDocument(change.Document)
		}
		c := change
		c.Document = doc
		if err := sub.handler(ctx, c); err != nil {
			f.logger.Error().
				Err(err).
				Str("collection", change.Collection).
				Str("id", change.ID).
				Str("op", string(change.Op)).
				Msg("change handler failed")
		}
	}
}

// Len returns the number of active subscriptions.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}
