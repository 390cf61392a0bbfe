package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"

	"github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/assistant/model"
	errx "github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/internal/core/error"
	logx "github.com/codebyshivareddiee/RAG-based-admission-bot-VNR/pkg/logger"
)

// RedisTranscript mirrors each exchange to a Redis list per session. The
// in-memory Session history remains the working copy; this is the durable
// conversation log.
type RedisTranscript struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisTranscript(rdb redis.Cmdable, ttl time.Duration) *RedisTranscript {
	return &RedisTranscript{rdb: rdb, ttl: ttl}
}

func (r *RedisTranscript) key(sessionID string) string {
	return fmt.Sprintf("assistant:session:%s:transcript", sessionID)
}

func (r *RedisTranscript) Append(ctx context.Context, sessionID string, msg *schema.Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		logx.Error().Err(err).Str("session_id", sessionID).Msg("failed to marshal transcript message")
		return fmt.Errorf("marshal transcript message: %w", err)
	}
	key := r.key(sessionID)

	if err := r.rdb.RPush(ctx, key, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push transcript message to redis")
		return errx.WrapRedis(err)
	}
	// extend TTL on touch
	if r.ttl > 0 {
		if ok, err := r.rdb.Expire(ctx, key, r.ttl).Result(); err != nil {
			logx.Error().Err(err).Str("key", key).Msg("failed to set expire")
			return errx.WrapRedis(err)
		} else if !ok {
			logx.Warn().Str("key", key).Dur("ttl", r.ttl).Msg("failed to set TTL on transcript key")
		}
	}
	return nil
}

func (r *RedisTranscript) Load(ctx context.Context, sessionID string) ([]*schema.Message, error) {
	key := r.key(sessionID)

	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return []*schema.Message{}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load transcript from redis")
		return nil, errx.WrapRedis(err)
	}

	msgs := make([]*schema.Message, 0, len(rows))
	for i, s := range rows {
		var m schema.Message
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			logx.Error().Err(err).Str("session_id", sessionID).Int("index", i).Msg("failed to unmarshal transcript message")
			return nil, fmt.Errorf("unmarshal transcript message at index %d: %w", i, err)
		}
		msgs = append(msgs, &m)
	}
	return msgs, nil
}

var _ model.TranscriptRepository = (*RedisTranscript)(nil)
