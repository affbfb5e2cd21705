package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/aegis/internal/db"
)

// admitScript implements one fixed-window admission step atomically.
// KEYS[1] counter key, ARGV[1] limit, ARGV[2] window in milliseconds.
// A denied call leaves the counter untouched.
var admitScript = rueidis.NewLuaScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current >= tonumber(ARGV[1]) then
  return 0
end
current = redis.call('INCR', KEYS[1])
if current == 1 or redis.call('PTTL', KEYS[1]) < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return 1
`)

// AdmitWindow implements db.WindowCounter.
func (s *Store) AdmitWindow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	res, err := admitScript.Exec(ctx, s.client,
		[]string{key},
		[]string{strconv.Itoa(limit), strconv.FormatInt(window.Milliseconds(), 10)},
	).AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpEval, Err: err}
	}
	return res == 1, nil
}
