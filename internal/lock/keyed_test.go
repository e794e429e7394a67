package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Domenick1991/aeroclub/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, Normalize([]string{"c", "", "a", "b", "a"}))
	assert.Empty(t, Normalize(nil))
}

func TestKeyed_SerialisesSameKey(t *testing.T) {
	k := NewKeyed()
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := k.Lock(context.Background(), "D-EABC")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Empty(t, k.entries)
}

func TestKeyed_DifferentKeysDoNotBlock(t *testing.T) {
	k := NewKeyed()
	unlockA, err := k.Lock(context.Background(), "A")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := k.Lock(ctx, "B")
	require.NoError(t, err)
	unlockB()
}

func TestKeyed_ContextCancelledWhileWaiting(t *testing.T) {
	k := NewKeyed()
	unlock, err := k.Lock(context.Background(), "A")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = k.Lock(ctx, "B", "A")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// B must have been released on failure
	unlockB, err := k.Lock(context.Background(), "B")
	require.NoError(t, err)
	unlockB()
	unlock()
}

func TestKeyed_UnlockIsIdempotent(t *testing.T) {
	k := NewKeyed()
	unlock, err := k.Lock(context.Background(), "A")
	require.NoError(t, err)
	unlock()
	unlock()

	unlock, err = k.Lock(context.Background(), "A")
	require.NoError(t, err)
	unlock()
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) AcquireResourceLock(ctx context.Context, resourceID, token string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, resourceID, token, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) ReleaseResourceLock(ctx context.Context, resourceID, token string) error {
	args := m.Called(ctx, resourceID, token)
	return args.Error(0)
}

func TestDistributed_AcquireAndRelease(t *testing.T) {
	store := &MockStore{}
	d := NewDistributed(store, 10*time.Second, time.Second)

	store.On("AcquireResourceLock", mock.Anything, "A", mock.AnythingOfType("string"), 10*time.Second).Return(true, nil).Once()
	store.On("AcquireResourceLock", mock.Anything, "B", mock.AnythingOfType("string"), 10*time.Second).Return(true, nil).Once()
	store.On("ReleaseResourceLock", mock.Anything, "B", mock.AnythingOfType("string")).Return(nil).Once()
	store.On("ReleaseResourceLock", mock.Anything, "A", mock.AnythingOfType("string")).Return(nil).Once()

	unlock, err := d.Lock(context.Background(), "B", "A")
	require.NoError(t, err)
	unlock()

	store.AssertExpectations(t)
}

func TestDistributed_ContentionTimesOut(t *testing.T) {
	store := &MockStore{}
	d := NewDistributed(store, time.Second, 30*time.Millisecond)

	store.On("AcquireResourceLock", mock.Anything, "A", mock.Anything, time.Second).Return(false, nil)

	_, err := d.Lock(context.Background(), "A")
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
	store.AssertNotCalled(t, "ReleaseResourceLock", mock.Anything, mock.Anything, mock.Anything)
}

func TestDistributed_StoreError(t *testing.T) {
	store := &MockStore{}
	d := NewDistributed(store, time.Second, time.Second)
	boom := errors.New("redis down")

	store.On("AcquireResourceLock", mock.Anything, "A", mock.Anything, time.Second).Return(true, nil).Once()
	store.On("AcquireResourceLock", mock.Anything, "B", mock.Anything, time.Second).Return(false, boom).Once()
	store.On("ReleaseResourceLock", mock.Anything, "A", mock.Anything).Return(nil).Once()

	_, err := d.Lock(context.Background(), "A", "B")
	assert.ErrorIs(t, err, boom)
	store.AssertExpectations(t)
}

func TestChain_ReleasesEarlierOnFailure(t *testing.T) {
	first := NewKeyed()
	store := &MockStore{}
	store.On("AcquireResourceLock", mock.Anything, "A", mock.Anything, time.Second).Return(false, errors.New("down"))

	_, err := Chain{first, NewDistributed(store, time.Second, time.Second)}.Lock(context.Background(), "A")
	require.Error(t, err)

	unlock, err := first.Lock(context.Background(), "A")
	require.NoError(t, err)
	unlock()
}
