package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/exam-session-engine/internal/models"
)

func newTestCache(t *testing.T) (CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client, slog.New(slog.NewTextHandler(io.Discard, nil))), mr
}

func TestRedisCache_SetGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	state := models.SessionState{
		SessionID: "s-1",
		PaperID:   "p-1",
		Mode:      models.ModeTimed,
		Status:    models.StatusRunning,
		Answers: map[string]models.UserAnswer{
			"q1": {Key: "q1", QuestionID: "q1", Value: models.TextValue("B"), IsCorrect: true, Score: 1, MarksAwarded: 2},
		},
		Visited: []string{"q1"},
	}
	require.NoError(t, c.Set(ctx, SessionKey("s-1"), state, time.Minute))
	assert.True(t, mr.Exists("session:s-1"))

	var got models.SessionState
	require.NoError(t, c.Get(ctx, SessionKey("s-1"), &got))
	assert.Equal(t, "p-1", got.PaperID)
	assert.Equal(t, models.StatusRunning, got.Status)
	assert.True(t, got.Answers["q1"].IsCorrect)
	assert.Equal(t, "B", got.Answers["q1"].Value.Text)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, c.Get(ctx, SessionKey("s-1"), &got), ErrCacheMiss)
}

func TestRedisCache_Miss(t *testing.T) {
	c, _ := newTestCache(t)
	var dest map[string]any
	assert.ErrorIs(t, c.Get(context.Background(), "nope", &dest), ErrCacheMiss)
}

func TestRedisCache_DeleteAndPattern(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	for _, k := range []string{"session:a", "session:b", "other:c"} {
		require.NoError(t, c.Set(ctx, k, map[string]string{"k": k}, 0))
	}

	require.NoError(t, c.Delete(ctx, "session:a"))
	assert.False(t, mr.Exists("session:a"))

	require.NoError(t, c.DeletePattern(ctx, "session:*"))
	assert.False(t, mr.Exists("session:b"))
	assert.True(t, mr.Exists("other:c"))
}

func TestRedisCache_ServerDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	c := NewRedisCache(client, slog.New(slog.NewTextHandler(io.Discard, nil)))
	mr.Close()

	err = c.Set(context.Background(), "k", 1, time.Minute)
	assert.Error(t, err)
}
