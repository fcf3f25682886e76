package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pensezy/EduTrack-CM-sub003/core/onboarding"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2020, 9, 1, 8, 0, 0, 0, time.UTC)
	store := NewMemoryStore(30 * time.Minute)
	store.now = func() time.Time { return now }

	sess := onboarding.Session{ID: "s1", SchoolID: "sch", State: onboarding.StateIdle}
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	_, err = store.Get(ctx, "unknown")
	assert.ErrorIs(t, err, onboarding.ErrSessionNotFound)

	t.Run("saving extends the ttl", func(t *testing.T) {
		now = now.Add(20 * time.Minute)
		sess.State = onboarding.StateReviewing
		require.NoError(t, store.Save(ctx, sess))

		now = now.Add(20 * time.Minute)
		got, err := store.Get(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, onboarding.StateReviewing, got.State)
	})

	t.Run("expired", func(t *testing.T) {
		now = now.Add(10 * time.Minute)
		_, err := store.Get(ctx, "s1")
		assert.ErrorIs(t, err, onboarding.ErrSessionNotFound)
		assert.ErrorIs(t, store.Delete(ctx, "s1"), onboarding.ErrSessionNotFound)
		assert.NotContains(t, store.entries, "s1")
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, onboarding.Session{ID: "s2"}))
		require.NoError(t, store.Delete(ctx, "s2"))
		_, err := store.Get(ctx, "s2")
		assert.ErrorIs(t, err, onboarding.ErrSessionNotFound)
	})
}

func TestMemoryStore_evictsExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2020, 9, 1, 8, 0, 0, 0, time.UTC)
	store := NewMemoryStore(time.Minute)
	store.now = func() time.Time { return now }

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Save(ctx, onboarding.Session{ID: id}))
	}
	require.Len(t, store.entries, 3)

	now = now.Add(2 * time.Minute)
	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, onboarding.ErrSessionNotFound)
	assert.Len(t, store.entries, 2)

	// abandoned sessions go on the next save
	require.NoError(t, store.Save(ctx, onboarding.Session{ID: "d"}))
	assert.Len(t, store.entries, 1)
	assert.Contains(t, store.entries, "d")
}

func TestMemoryStore_noTTL(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	require.NoError(t, store.Save(ctx, onboarding.Session{ID: "s1"}))

	store.now = func() time.Time { return time.Now().AddDate(10, 0, 0) }
	_, err := store.Get(ctx, "s1")
	assert.NoError(t, err)
}
