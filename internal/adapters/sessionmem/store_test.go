package sessionmem

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/Sundsvallskommun/web-app-student-account-admin/internal/domain/auth"
	"github.com/Sundsvallskommun/web-app-student-account-admin/internal/ports"
)

func newTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	s := NewWithSweepInterval(ttl, 10*time.Millisecond)
	t.Cleanup(s.Stop)
	return s
}

func TestStore_SaveGetDelete(t *testing.T) {
	s := newTestStore(t, time.Minute)
	ctx := context.Background()

	sess := domainauth.Session{ID: "s1", ReturnTo: "https://portal.example.com/start"}
	require.NoError(t, s.Save(ctx, sess))

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, sess.ReturnTo, got.ReturnTo)

	require.NoError(t, s.Delete(ctx, "s1"))
	_, err = s.Get(ctx, "s1")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)

	// Idempotent delete.
	require.NoError(t, s.Delete(ctx, "s1"))
}

func TestStore_EmptyID(t *testing.T) {
	s := newTestStore(t, time.Minute)
	ctx := context.Background()

	require.Error(t, s.Save(ctx, domainauth.Session{}))
	_, err := s.Get(ctx, "")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
	require.NoError(t, s.Delete(ctx, ""))
	require.NoError(t, s.Touch(ctx, ""))
}

func TestStore_SaveReplaces(t *testing.T) {
	s := newTestStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, domainauth.Session{ID: "s1", ReturnTo: "a"}))
	require.NoError(t, s.Save(ctx, domainauth.Session{ID: "s1", ReturnTo: "b"}))

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "b", got.ReturnTo)
	assert.Equal(t, 1, s.Len())
}

func TestStore_ExpiredBehavesLikeAbsent(t *testing.T) {
	s := newTestStore(t, 20*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, domainauth.Session{ID: "s1"}))
	time.Sleep(40 * time.Millisecond)

	_, err := s.Get(ctx, "s1")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestStore_JanitorReclaimsExpired(t *testing.T) {
	s := newTestStore(t, 20*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, domainauth.Session{ID: "s1"}))
	require.NoError(t, s.Save(ctx, domainauth.Session{ID: "s2"}))

	assert.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestStore_TouchExtendsTTL(t *testing.T) {
	s := newTestStore(t, 60*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, domainauth.Session{ID: "s1"}))

	// Keep touching past the original deadline.
	for i := 0; i < 4; i++ {
		time.Sleep(30 * time.Millisecond)
		require.NoError(t, s.Touch(ctx, "s1"))
	}

	_, err := s.Get(ctx, "s1")
	require.NoError(t, err)

	// Touching something expired or missing is a no-op.
	require.NoError(t, s.Touch(ctx, "missing"))
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := newTestStore(t, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = s.Save(ctx, domainauth.Session{ID: id})
				_, _ = s.Get(ctx, id)
				_ = s.Touch(ctx, id)
			}
		}(string(rune('a' + i)))
	}
	wg.Wait()

	assert.Equal(t, 8, s.Len())
}
