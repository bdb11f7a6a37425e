package notify

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// SendLimiter is a fixed-window per-chat limiter backed by Redis. It
// keeps the bot inside Telegram's per-chat message budget when a
// reconciliation cycle produces a burst of notifications.
type SendLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
}

var sendWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

func NewSendLimiter(rdb *redis.Client, limit int, window time.Duration) *SendLimiter {
	if limit <= 0 {
		limit = 20
	}
	if window <= 0 {
		window = time.Minute
	}
	return &SendLimiter{rdb: rdb, limit: limit, window: window}
}

// Allow reports whether one more message may be sent to chatID within
// the current window.
func (l *SendLimiter) Allow(ctx context.Context, chatID int64) (bool, error) {
	key := fmt.Sprintf("notify:send:%d", chatID)
	res, err := sendWindowScript.Run(ctx, l.rdb, []string{key}, l.window.Milliseconds()).Result()
	if err != nil {
		return false, err
	}
	count, err := scriptInt(res)
	if err != nil {
		return false, err
	}
	return count <= int64(l.limit), nil
}

func scriptInt(res any) (int64, error) {
	switch v := res.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case string:
		// Lua sometimes returns strings depending on Redis config/driver conversions.
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected redis script result type %T", res)
	}
}
