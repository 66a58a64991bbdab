package checkout

import (
	"context"
	"sync"

	"github.com/example/worldpeas/pkg/localcache"
	"github.com/example/worldpeas/pkg/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// pendingOrder wraps an assembled order with a local id so a journal entry
// can be removed once the gateway accepts it.
type pendingOrder struct {
	LocalID string       `json:"localId"`
	Order   models.Order `json:"order"`
}

// Journal is the durable client-side record of orders that have not been
// acknowledged by the gateway. Submission stays fire-and-forget for the user;
// the journal is what makes a swallowed failure recoverable.
type Journal struct {
	mu     sync.Mutex
	cache  *localcache.Cache
	logger *zap.Logger
}

func NewJournal(cache *localcache.Cache, logger *zap.Logger) *Journal {
	return &Journal{cache: cache, logger: logger}
}

func (j *Journal) load() []pendingOrder {
	var pending []pendingOrder
	j.cache.Get(localcache.KeyPendingOrders, &pending)
	return pending
}

func (j *Journal) save(pending []pendingOrder) {
	if err := j.cache.Set(localcache.KeyPendingOrders, pending); err != nil {
		j.logger.Warn("Failed to persist order journal", zap.Error(err))
	}
}

// Add records an order before submission and returns its local id.
func (j *Journal) Add(order models.Order) string {
	j.mu.Lock()
	defer j.mu.Unlock()
	localID := uuid.NewString()
	j.save(append(j.load(), pendingOrder{LocalID: localID, Order: order}))
	return localID
}

// Remove drops the entry once the gateway has acknowledged the order.
func (j *Journal) Remove(localID string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	pending := j.load()
	kept := pending[:0]
	for _, p := range pending {
		if p.LocalID != localID {
			kept = append(kept, p)
		}
	}
	j.save(kept)
}

// Len reports how many orders are awaiting acknowledgement.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.load())
}

// Flush retries every journaled order and returns how many were accepted.
// Entries that fail again stay journaled for the next flush.
func (j *Journal) Flush(ctx context.Context, submitter OrderSubmitter) int {
	j.mu.Lock()
	pending := j.load()
	j.mu.Unlock()

	var synced int
	for _, p := range pending {
		if _, err := submitter.CreateOrder(ctx, &p.Order); err != nil {
			j.logger.Warn("Order resubmission failed",
				zap.String("local_id", p.LocalID),
				zap.Error(err))
			continue
		}
		j.Remove(p.LocalID)
		synced++
	}
	if synced > 0 {
		j.logger.Info("Unsynced orders flushed", zap.Int("count", synced))
	}
	return synced
}
