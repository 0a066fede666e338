package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/shpitdev/leadfinder/internal/lead"
)

const (
	defaultKeyPrefix = "leadfinder:"
	// flightTTL bounds how long a crashed process can keep an action locked.
	flightTTL = 10 * time.Minute
)

// RedisStore keeps sessions as JSON documents in Redis so several server
// instances can share them. Keys expire after the TTL without writes.
type RedisStore struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	prefix string
	now    func() time.Time
}

func NewRedisStore(rdb redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{
		rdb:    rdb,
		ttl:    ttl,
		prefix: defaultKeyPrefix,
		now:    time.Now,
	}
}

func (r *RedisStore) sessionKey(id string) string { return r.prefix + "session:" + id }
func (r *RedisStore) flightKey(id string, a Action) string {
	return r.prefix + "inflight:" + flightKey(id, a)
}

func (r *RedisStore) Create(ctx context.Context) (State, error) {
	st := New(uuid.NewString(), r.now())
	b, err := json.Marshal(st)
	if err != nil {
		return State{}, err
	}
	ok, err := r.rdb.SetNX(ctx, r.sessionKey(st.ID), b, r.ttl).Result()
	if err != nil {
		return State{}, fmt.Errorf("create session: %w", err)
	}
	if !ok {
		return State{}, fmt.Errorf("create session: id collision for %s", st.ID)
	}
	return st, nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (State, error) {
	b, err := r.rdb.Get(ctx, r.sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, ErrNotFound
	}
	if err != nil {
		return State{}, fmt.Errorf("get session: %w", err)
	}
	return decodeState(b)
}

func (r *RedisStore) Replace(ctx context.Context, next State) error {
	key := r.sessionKey(next.ID)
	b, err := json.Marshal(next)
	if err != nil {
		return err
	}

	err = r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		cur, err := decodeState(raw)
		if err != nil {
			return err
		}
		if cur.Version != next.Version-1 {
			return ErrVersionConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, r.ttl)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrVersionConflict
	}
	return err
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, r.sessionKey(id)).Err()
}

func (r *RedisStore) Acquire(ctx context.Context, id string, action Action) (func(), error) {
	key := r.flightKey(id, action)
	token := uuid.NewString()
	ok, err := r.rdb.SetNX(ctx, key, token, flightTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", action, err)
	}
	if !ok {
		return nil, ErrInFlight
	}
	return func() {
		// Release with a fresh context: the request context may already be done.
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = releaseScript.Run(rctx, r.rdb, []string{key}, token).Err()
	}, nil
}

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func decodeState(b []byte) (State, error) {
	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return State{}, fmt.Errorf("decode session: %w", err)
	}
	if st.Leads == nil {
		st.Leads = []lead.Lead{}
	}
	if st.Selected == nil {
		st.Selected = map[string]bool{}
	}
	return st, nil
}
