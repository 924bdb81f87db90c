package keyValue

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type value struct {
	value   string
	expires time.Time
}

// Store keeps short lived values either in a local hashmap (self contained mode) or in redis.
// Missing keys read as "".
type Store struct {
	mutex   sync.RWMutex
	hashmap map[string]value

	sugar       *zap.SugaredLogger
	redisClient *redis.Client
	now         func() time.Time
	stop        chan struct{}
	stopOnce    sync.Once
}

func NewLocal(sugar *zap.SugaredLogger) *Store {
	return newLocal(sugar, time.Now)
}

func newLocal(sugar *zap.SugaredLogger, now func() time.Time) *Store {
	s := &Store{
		hashmap: make(map[string]value),
		sugar:   sugar,
		now:     now,
		stop:    make(chan struct{}),
	}
	go s.checkForLocalExpiredKeys(time.Minute)
	return s
}

func NewRedis(sugar *zap.SugaredLogger, redisClient *redis.Client) *Store {
	return &Store{
		sugar:       sugar,
		redisClient: redisClient,
		now:         time.Now,
		stop:        make(chan struct{}),
	}
}

func (s *Store) selfContained() bool {
	return s.redisClient == nil
}

func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Store) checkForLocalExpiredKeys(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.deleteExpired()
		}
	}
}

func (s *Store) deleteExpired() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	for key, v := range s.hashmap {
		if v.expires.Before(now) {
			delete(s.hashmap, key)
		}
	}
}

// getLocal must be called with the mutex held.
func (s *Store) getLocal(key string) (value, bool) {
	v, exists := s.hashmap[key]
	if !exists || !v.expires.After(s.now()) {
		return value{}, false
	}
	return v, true
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if s.selfContained() {
		s.sugar.Debugf("Getting value of key [%s] from hashmap", key)

		s.mutex.RLock()
		defer s.mutex.RUnlock()

		v, _ := s.getLocal(key)
		return v.value, nil
	}

	s.sugar.Debugf("Getting value of key [%s] from redis", key)

	result, err := s.redisClient.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	} else if err != nil {
		return "", err
	}
	return result, nil
}

func (s *Store) Del(ctx context.Context, key string) error {
	if s.selfContained() {
		s.mutex.Lock()
		defer s.mutex.Unlock()

		delete(s.hashmap, key)
		return nil
	}

	return s.redisClient.Del(ctx, key).Err()
}

// Incr adds one to the counter under key and returns the new count. The expiry is set
// when the counter is created and is not extended by later increments.
func (s *Store) Incr(ctx context.Context, key string, expires time.Duration) (int64, error) {
	if s.selfContained() {
		s.mutex.Lock()
		defer s.mutex.Unlock()

		v, exists := s.getLocal(key)
		if !exists {
			v = value{"0", s.now().Add(expires)}
		}

		count, err := strconv.ParseInt(v.value, 10, 64)
		if err != nil {
			return 0, err
		}
		count++

		v.value = strconv.FormatInt(count, 10)
		s.hashmap[key] = v
		return count, nil
	}

	var incr *redis.IntCmd
	_, err := s.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, expires)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
