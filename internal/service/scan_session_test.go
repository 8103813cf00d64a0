package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"attendance_tracker/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// evalCmdable mimics the transition script against a map.
type evalCmdable struct {
	data    map[string]string
	lastTTL int64
}

func newEvalCmdable() *evalCmdable {
	return &evalCmdable{data: make(map[string]string)}
}

func (m *evalCmdable) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *evalCmdable) Eval(_ context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	cur, ok := m.data[keys[0]]
	state := string(model.ScanIdle)
	if ok {
		var s model.ScanSession
		if err := json.Unmarshal([]byte(cur), &s); err != nil {
			return redis.NewCmdResult(nil, err)
		}
		state = string(s.State)
	}
	for _, a := range args[2:] {
		if a.(string) == state {
			m.data[keys[0]] = args[0].(string)
			m.lastTTL = args[1].(int64)
			return redis.NewCmdResult([]interface{}{int64(1), args[0]}, nil)
		}
	}
	return redis.NewCmdResult([]interface{}{int64(0), cur}, nil)
}

func TestRedisSessionStore_Transition(t *testing.T) {
	ctx := context.Background()
	mock := newEvalCmdable()
	store := &RedisSessionStore{client: mock, ttl: 10 * time.Minute}

	s, err := store.Get(ctx, "emp")
	require.NoError(t, err)
	assert.Equal(t, model.ScanIdle, s.State)

	next := model.ScanSession{State: model.ScanAwaitingResult, UpdatedAt: time.Now().UTC()}
	s, ok, err := store.Transition(ctx, "emp", []model.ScanState{model.ScanIdle}, next)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, model.ScanAwaitingResult, s.State)
	assert.Equal(t, "emp", s.UserID)
	assert.Equal(t, int64(1800000), mock.lastTTL)
	assert.Contains(t, mock.data, "attendance:scan_session:emp")

	s, ok, err = store.Transition(ctx, "emp", []model.ScanState{model.ScanIdle}, next)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, model.ScanAwaitingResult, s.State)

	s, err = store.Get(ctx, "emp")
	require.NoError(t, err)
	assert.Equal(t, model.ScanAwaitingResult, s.State)

	_, ok, err = store.Transition(ctx, "emp", []model.ScanState{model.ScanAwaitingResult}, model.ScanSession{State: model.ScanDialogShown})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(600000), mock.lastTTL)
}

func TestMemorySessionStore_SweepKeepsAwaitingUntilLongCutoff(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()
	now := time.Now()
	ttl := 10 * time.Minute

	put := func(userID string, state model.ScanState, age time.Duration) {
		_, ok, err := store.Transition(ctx, userID, []model.ScanState{model.ScanIdle},
			model.ScanSession{State: state, UpdatedAt: now.Add(-age)})
		require.NoError(t, err)
		require.True(t, ok)
	}
	put("slow", model.ScanAwaitingResult, 2*ttl)
	put("stuck", model.ScanAwaitingResult, 4*ttl)
	put("shown", model.ScanDialogShown, 2*ttl)

	n, err := store.Sweep(ctx, now.Add(-ttl), now.Add(-3*ttl))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	s, err := store.Get(ctx, "slow")
	require.NoError(t, err)
	assert.Equal(t, model.ScanAwaitingResult, s.State)
	for _, id := range []string{"stuck", "shown"} {
		s, err = store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.ScanIdle, s.State, id)
	}
}

func TestMemorySessionStore_MissingIsIdle(t *testing.T) {
	store := NewMemorySessionStore()
	s, err := store.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, model.ScanIdle, s.State)

	_, ok, err := store.Transition(context.Background(), "nobody", []model.ScanState{model.ScanDialogShown}, model.ScanSession{State: model.ScanIdle})
	require.NoError(t, err)
	assert.False(t, ok)
}
