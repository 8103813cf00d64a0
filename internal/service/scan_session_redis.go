package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"attendance_tracker/internal/model"

	"github.com/redis/go-redis/v9"
)

const scanSessionKeyPrefix = "attendance:scan_session:"

// transitionScript swaps the stored session when its state is one of
// ARGV[3..]. A missing key counts as idle.
const transitionScript = `
local cur = redis.call('GET', KEYS[1])
local state = 'idle'
if cur then
	state = cjson.decode(cur)['state']
end
for i = 3, #ARGV do
	if ARGV[i] == state then
		redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
		return {1, ARGV[1]}
	end
end
return {0, cur or ''}
`

type sessionCmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisSessionStore shares scan sessions between instances. Entries expire
// after ttl (three times that while awaiting a result), so Sweep has nothing
// to do.
type RedisSessionStore struct {
	client sessionCmdable
	ttl    time.Duration
}

func NewRedisSessionStore(client redis.UniversalClient, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func scanSessionKey(userID string) string {
	return scanSessionKeyPrefix + userID
}

func (r *RedisSessionStore) Get(ctx context.Context, userID string) (model.ScanSession, error) {
	raw, err := r.client.Get(ctx, scanSessionKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return idleSession(userID), nil
		}
		return model.ScanSession{}, fmt.Errorf("failed to read scan session: %w", err)
	}
	return decodeSession(userID, raw)
}

func (r *RedisSessionStore) Transition(ctx context.Context, userID string, from []model.ScanState, next model.ScanSession) (model.ScanSession, bool, error) {
	next.UserID = userID
	payload, err := json.Marshal(next)
	if err != nil {
		return model.ScanSession{}, false, fmt.Errorf("failed to encode scan session: %w", err)
	}

	args := make([]interface{}, 0, len(from)+2)
	args = append(args, string(payload), sessionTTL(next.State, r.ttl).Milliseconds())
	for _, s := range from {
		args = append(args, string(s))
	}

	res, err := r.client.Eval(ctx, transitionScript, []string{scanSessionKey(userID)}, args...).Slice()
	if err != nil {
		return model.ScanSession{}, false, fmt.Errorf("failed to transition scan session: %w", err)
	}
	if len(res) != 2 {
		return model.ScanSession{}, false, fmt.Errorf("unexpected transition reply %v", res)
	}
	swapped, _ := res[0].(int64)
	raw, _ := res[1].(string)
	if raw == "" {
		return idleSession(userID), swapped == 1, nil
	}
	cur, err := decodeSession(userID, raw)
	if err != nil {
		return model.ScanSession{}, false, err
	}
	return cur, swapped == 1, nil
}

func (r *RedisSessionStore) Sweep(context.Context, time.Time, time.Time) (int, error) {
	return 0, nil
}

func decodeSession(userID, raw string) (model.ScanSession, error) {
	var s model.ScanSession
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return model.ScanSession{}, fmt.Errorf("failed to decode scan session: %w", err)
	}
	s.UserID = userID
	return s, nil
}
