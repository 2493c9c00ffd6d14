package ratelimit

import (
	"context"
	"errors"
	"time"

	"veridoc/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis is the durable sliding-window limiter: one sorted set per
// (identity, action), trimmed, counted, and appended inside a single Lua
// script so the trim+count+insert is atomic at the backend.
type Redis struct {
	client *redis.Client
	now    func() time.Time
}

var slidingWindowScript = redis.NewScript(`
local cutoff = tonumber(ARGV[1]) - tonumber(ARGV[2])
redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", cutoff)
local count = redis.call("ZCARD", KEYS[1])
if count >= tonumber(ARGV[3]) then
  local oldest = redis.call("ZRANGE", KEYS[1], 0, 0, "WITHSCORES")
  local reset = 0
  if oldest[2] then
    reset = tonumber(oldest[2]) + tonumber(ARGV[2]) - tonumber(ARGV[1])
  end
  return {0, count, reset}
end
redis.call("ZADD", KEYS[1], ARGV[1], ARGV[4])
redis.call("PEXPIRE", KEYS[1], ARGV[2])
local oldest = redis.call("ZRANGE", KEYS[1], 0, 0, "WITHSCORES")
local reset = 0
if oldest[2] then
  reset = tonumber(oldest[2]) + tonumber(ARGV[2]) - tonumber(ARGV[1])
end
return {1, count + 1, reset}
`)

func NewRedis(addr, password string, db int, now func() time.Time) (*Redis, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	if now == nil {
		now = time.Now
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Redis{client: client, now: now}, nil
}

func (r *Redis) CheckAndConsume(ctx context.Context, identity, action string, limit int, window time.Duration) (domain.RateLimitDecision, error) {
	if limit <= 0 {
		return domain.RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	windowMillis := window.Milliseconds()
	if windowMillis <= 0 {
		windowMillis = 1000
	}
	nowMillis := r.now().UnixMilli()
	member := uuid.NewString()

	result, err := slidingWindowScript.Run(ctx, r.client,
		[]string{"ratelimit:" + windowKey(identity, action)},
		nowMillis, windowMillis, limit, member,
	).Result()
	if err != nil {
		return domain.RateLimitDecision{}, err
	}
	values, ok := result.([]any)
	if !ok || len(values) < 3 {
		return domain.RateLimitDecision{}, errors.New("unexpected redis rate limit response")
	}
	allowed, ok := values[0].(int64)
	if !ok {
		return domain.RateLimitDecision{}, errors.New("invalid redis rate limit response")
	}
	count, _ := values[1].(int64)
	resetMillis, _ := values[2].(int64)

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	resetIn := time.Duration(resetMillis) * time.Millisecond
	if resetIn < 0 {
		resetIn = 0
	}
	return domain.RateLimitDecision{
		Allowed:   allowed == 1,
		Limit:     limit,
		Remaining: remaining,
		ResetIn:   resetIn,
	}, nil
}

var _ domain.RateLimiter = (*Redis)(nil)
