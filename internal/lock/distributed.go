package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/aeroclub/internal/domain"
	"github.com/google/uuid"
)

// Store is a lease store such as Redis: Acquire is SET NX with expiry, Release
// deletes the key only while it still holds token.
type Store interface {
	AcquireResourceLock(ctx context.Context, resourceID, token string, ttl time.Duration) (bool, error)
	ReleaseResourceLock(ctx context.Context, resourceID, token string) error
}

// Distributed polls a lease Store until every key is held or the wait budget
// runs out, which reports domain.ErrConcurrencyConflict.
type Distributed struct {
	store    Store
	ttl      time.Duration
	wait     time.Duration
	interval time.Duration
}

func NewDistributed(store Store, ttl, wait time.Duration) *Distributed {
	return &Distributed{store: store, ttl: ttl, wait: wait, interval: 25 * time.Millisecond}
}

func (d *Distributed) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = Normalize(keys)
	token := uuid.NewString()
	held := make([]string, 0, len(keys))

	release := func() {
		// a cancelled request must still hand its leases back
		releaseCtx := context.WithoutCancel(ctx)
		for i := len(held) - 1; i >= 0; i-- {
			_ = d.store.ReleaseResourceLock(releaseCtx, held[i], token)
		}
	}

	deadline := time.Now().Add(d.wait)
	for _, key := range keys {
		for {
			ok, err := d.store.AcquireResourceLock(ctx, key, token, d.ttl)
			if err != nil {
				release()
				return nil, fmt.Errorf("acquire lock %s: %w", key, err)
			}
			if ok {
				held = append(held, key)
				break
			}
			if !time.Now().Before(deadline) {
				release()
				return nil, fmt.Errorf("%w: resource %s is locked", domain.ErrConcurrencyConflict, key)
			}
			select {
			case <-ctx.Done():
				release()
				return nil, ctx.Err()
			case <-time.After(d.interval):
			}
		}
	}
	return release, nil
}
