package notify

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// SessionStore persists the set of displayed notification ids for a session.
type SessionStore interface {
	Load(ctx context.Context) ([]string, error)
	Record(ctx context.Context, id string) error
	Reset(ctx context.Context) error
}

// MemoryStore keeps the displayed set in process memory.
type MemoryStore struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ids: map[string]struct{}{}}
}

func (s *MemoryStore) Load(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	return out, nil
}

func (s *MemoryStore) Record(_ context.Context, id string) error {
	s.mu.Lock()
	s.ids[id] = struct{}{}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Reset(context.Context) error {
	s.mu.Lock()
	s.ids = map[string]struct{}{}
	s.mu.Unlock()
	return nil
}

// RedisStore keeps the displayed set and the sound preference of one session
// in Redis. Both keys expire after ttl of inactivity.
type RedisStore struct {
	rdb     redis.UniversalClient
	session string
	ttl     time.Duration
}

func NewRedisStore(rdb redis.UniversalClient, session string, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, session: session, ttl: ttl}
}

func (s *RedisStore) displayedKey() string { return "notify:displayed:" + s.session }
func (s *RedisStore) prefsKey() string     { return "notify:prefs:" + s.session }

func (s *RedisStore) Load(ctx context.Context) ([]string, error) {
	return s.rdb.SMembers(ctx, s.displayedKey()).Result()
}

func (s *RedisStore) Record(ctx context.Context, id string) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, s.displayedKey(), id)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.displayedKey(), s.ttl)
		}
		return nil
	})
	return err
}

func (s *RedisStore) Reset(ctx context.Context) error {
	return s.rdb.Del(ctx, s.displayedKey()).Err()
}

// SoundEnabled reads the persisted preference. Missing means enabled.
func (s *RedisStore) SoundEnabled(ctx context.Context) bool {
	val, err := s.rdb.HGet(ctx, s.prefsKey(), "sound_enabled").Result()
	if err != nil {
		return true
	}
	return val != "0"
}

func (s *RedisStore) SetSoundEnabled(ctx context.Context, enabled bool) error {
	val := "0"
	if enabled {
		val = "1"
	}
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.prefsKey(), "sound_enabled", val)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.prefsKey(), s.ttl)
		}
		return nil
	})
	return err
}
