package locks

import (
	"context"
	"time"
)

const (
	sessionLockTTL   = 30 * time.Second
	sessionLockRetry = 50 * time.Millisecond
)

// SessionLocker serializes fulfillment of a single payment session.
type SessionLocker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// SessionLock layers an in-process keyed mutex with an optional distributed
// redis lock. The keyed mutex serializes calls within this instance; the
// redis lock serializes instances. The database unique index remains the
// final arbiter either way.
type SessionLock struct {
	local  *KeyedMutex
	shared *Locker
}

func NewSessionLock(shared *Locker) *SessionLock {
	return &SessionLock{
		local:  NewKeyedMutex(),
		shared: shared,
	}
}

func (s *SessionLock) Lock(ctx context.Context, key string) (func(), error) {
	releaseLocal, err := s.local.Lock(ctx, key)
	if err != nil {
		return nil, err
	}
	if s.shared == nil {
		return releaseLocal, nil
	}

	token, err := s.acquireShared(ctx, key)
	if err != nil {
		releaseLocal()
		return nil, err
	}

	return func() {
		_ = s.shared.Release(context.WithoutCancel(ctx), "fulfillment:session:"+key, token)
		releaseLocal()
	}, nil
}

func (s *SessionLock) acquireShared(ctx context.Context, key string) (string, error) {
	lockKey := "fulfillment:session:" + key
	for {
		token, ok, err := s.shared.TryLock(ctx, lockKey, sessionLockTTL)
		if err != nil {
			return "", err
		}
		if ok {
			return token, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(sessionLockRetry):
		}
	}
}
