package events

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/tradehub/internal/metrics"
	"github.com/prn-tf/tradehub/internal/repository"
)

// Event is the message published for one committed change. Documents are
// not included so credentials never leave the store.
type Event struct {
	Collection string    `json:"collection"`
	ID         string    `json:"id"`
	Op         string    `json:"op"`
	OccurredAt time.Time `json:"occurredAt"`
}

// RoutingKey returns "<prefix>.<collection>.<op>".
func (e Event) RoutingKey(prefix string) string {
	return prefix + "." + e.Collection + "." + e.Op
}

// Bridge forwards store changes to a Publisher.
type Bridge struct {
	store     repository.DocumentStore
	publisher Publisher
	metrics   *metrics.Metrics
	prefix    string
	now       func() time.Time
	logger    zerolog.Logger
	cancels   []func()
}

// NewBridge creates a Bridge. It does nothing until Start.
func NewBridge(store repository.DocumentStore, publisher Publisher, m *metrics.Metrics, logger zerolog.Logger) *Bridge {
	return &Bridge{
		store:     store,
		publisher: publisher,
		metrics:   m,
		prefix:    "tradehub",
		now:       time.Now,
		logger:    logger.With().Str("component", "event_bridge").Logger(),
	}
}

// Start subscribes to the given collections, or every collection when none
// are given.
func (b *Bridge) Start(collections ...string) {
	if len(collections) == 0 {
		collections = repository.Collections
	}
	for _, c := range collections {
		b.cancels = append(b.cancels, b.store.Subscribe(c, "", b.handle))
	}
	b.logger.Info().Strs("collections", collections).Msg("publishing change events")
}

// Stop cancels every subscription.
func (b *Bridge) Stop() {
	for _, cancel := range b.cancels {
		cancel()
	}
	b.cancels = nil
}

func (b *Bridge) handle(ctx context.Context, change repository.Change) error {
	evt := Event{
		Collection: change.Collection,
		ID:         change.ID,
		Op:         string(change.Op),
		OccurredAt: b.now().UTC(),
	}
	if err := b.publisher.Publish(ctx, evt.RoutingKey(b.prefix), evt); err != nil {
		return err
	}
	b.metrics.ObservePublished(evt.Collection, evt.Op)
	return nil
}
