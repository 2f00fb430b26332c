package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convosuite/mcpcore/core"
)

var _ core.SessionStore = (*Store)(nil)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client), mr
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	sess := core.NewSession("u1", core.SessionTypeChat)
	sess.Context.Messages = append(sess.Context.Messages, core.NewMessage(core.RoleUser, "hola"))
	require.NoError(t, s.Set(ctx, sess, 0))

	got, err := s.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	require.Len(t, got.Context.Messages, 1)
	assert.Equal(t, "hola", got.Context.Messages[0].Content)
}

func TestStore_UnknownIsNotFound(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStore_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	sess := core.NewSession("u1", core.SessionTypeChat)
	require.NoError(t, s.Set(ctx, sess, time.Minute))

	mr.FastForward(2 * time.Minute)
	_, err := s.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	sess := core.NewSession("u1", core.SessionTypeChat)
	require.NoError(t, s.Set(ctx, sess, 0))
	require.NoError(t, s.Delete(ctx, sess.ID))
	_, err := s.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
