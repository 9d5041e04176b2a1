package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"StudySpace/internal/model"
)

// RedisStore 把三片状态放到 Redis，供无盘终端（前台自助机）共享一个状态服务。
// Key: {prefix}:state:{slice}
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// RedisOptions Redis 连接参数。
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

func NewRedisStore(ctx context.Context, opts RedisOptions, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MinIdleConns: 2,
		MaxRetries:   3,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, err
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "stsp"
	}

	return &RedisStore{client: client, prefix: prefix, logger: logger}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(parts ...string) string {
	var sb strings.Builder
	sb.WriteString(s.prefix)
	for _, part := range parts {
		if part != "" {
			sb.WriteString(":")
			sb.WriteString(part)
		}
	}
	return sb.String()
}

func (s *RedisStore) Restore(ctx context.Context) (State, error) {
	state := State{}

	if raw, err := s.client.Get(ctx, s.key("state", sliceToken)).Result(); err == nil {
		var token string
		if jsonErr := json.Unmarshal([]byte(raw), &token); jsonErr != nil {
			s.discardCorrupt(ctx, sliceToken, jsonErr)
		} else {
			state.Token = token
		}
	} else if err != redis.Nil {
		return state, err
	}

	if raw, err := s.client.Get(ctx, s.key("state", sliceUser)).Result(); err == nil {
		var user model.Identity
		if jsonErr := json.Unmarshal([]byte(raw), &user); jsonErr != nil {
			s.discardCorrupt(ctx, sliceUser, jsonErr)
		} else {
			state.User = &user
		}
	} else if err != redis.Nil {
		return state, err
	}

	if raw, err := s.client.Get(ctx, s.key("state", sliceSession)).Result(); err == nil {
		var session model.OnboardingSession
		if jsonErr := json.Unmarshal([]byte(raw), &session); jsonErr != nil {
			s.discardCorrupt(ctx, sliceSession, jsonErr)
		} else {
			state.Session = &session
		}
	} else if err != redis.Nil {
		return state, err
	}

	return state, nil
}

func (s *RedisStore) Commit(ctx context.Context, m Mutation) error {
	if m.Token != nil {
		if err := s.setSlice(ctx, sliceToken, *m.Token); err != nil {
			return err
		}
	}

	if m.User != nil {
		if err := s.setSlice(ctx, sliceUser, m.User); err != nil {
			return err
		}
	}

	if m.Session != nil {
		if err := s.setSlice(ctx, sliceSession, m.Session); err != nil {
			return err
		}
	}

	if m.replacesSession() {
		if err := s.client.Del(ctx, s.key("state", sliceSession)).Err(); err != nil {
			return err
		}
	}

	if m.replacesUser() {
		if err := s.client.Del(ctx, s.key("state", sliceUser)).Err(); err != nil {
			return err
		}
	}

	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx,
		s.key("state", sliceToken),
		s.key("state", sliceUser),
		s.key("state", sliceSession),
	).Err()
}

func (s *RedisStore) setSlice(ctx context.Context, slice string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key("state", slice), raw, 0).Err()
}

func (s *RedisStore) discardCorrupt(ctx context.Context, slice string, err error) {
	s.logger.Warn("Discarding corrupt state slice",
		zap.String("slice", slice),
		zap.Error(err),
	)
	if delErr := s.client.Del(ctx, s.key("state", slice)).Err(); delErr != nil {
		s.logger.Warn("Failed to remove corrupt state slice",
			zap.String("slice", slice),
			zap.Error(delErr),
		)
	}
}
