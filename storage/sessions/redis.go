package sessions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/Pensezy/EduTrack-CM-sub003/core"
	"github.com/Pensezy/EduTrack-CM-sub003/core/onboarding"
)

// redis key prefix of onboarding sessions
const sessionKeyPrefix = "onboarding:session:"

// NewRedisClient connects to the Redis server at conf.URL.
func NewRedisClient(ctx context.Context, conf core.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(conf.URL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing redis URL")
	}
	client := redis.NewClient(opts)
	if err = client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}

// RedisStore keeps sessions in Redis; they expire ttl after their last save.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ onboarding.SessionStore = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Save(ctx context.Context, sess onboarding.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	if err = s.client.Set(ctx, sessionKeyPrefix+sess.ID, data, s.ttl).Err(); err != nil {
		return core.NewBackendUnavailableError(errors.Wrap(err, "saving session"))
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (onboarding.Session, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return onboarding.Session{}, onboarding.ErrSessionNotFound
	}
	if err != nil {
		return onboarding.Session{}, core.NewBackendUnavailableError(errors.Wrap(err, "getting session"))
	}

	var sess onboarding.Session
	if err = json.Unmarshal(data, &sess); err != nil {
		return onboarding.Session{}, errors.Wrap(err, "decoding session")
	}
	return sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, sessionKeyPrefix+id).Result()
	if err != nil {
		return core.NewBackendUnavailableError(errors.Wrap(err, "deleting session"))
	}
	if n == 0 {
		return onboarding.ErrSessionNotFound
	}
	return nil
}
