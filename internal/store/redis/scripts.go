package redis

import "github.com/redis/go-redis/v9"

// Each script runs atomically on the server, which gives insert-if-absent and
// the relative click update without client-side transactions.

// KEYS: link hash, id sequence, created index. ARGV: code, target, created micros.
// Returns the new id, or 0 when the code is taken.
var insertScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
local id = redis.call('INCR', KEYS[2])
redis.call('HSET', KEYS[1],
  'id', id,
  'code', ARGV[1],
  'target_url', ARGV[2],
  'total_clicks', 0,
  'created_at', ARGV[3])
redis.call('ZADD', KEYS[3], ARGV[3], ARGV[1])
return id
`)

// KEYS: link hash. ARGV: now micros. Returns affected links (0 or 1).
// last_clicked_at never goes below created_at or its previous value.
var touchScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
redis.call('HINCRBY', KEYS[1], 'total_clicks', 1)
local stamp = ARGV[1]
for _, field in ipairs({'created_at', 'last_clicked_at'}) do
  local v = redis.call('HGET', KEYS[1], field)
  if v and tonumber(v) and tonumber(v) > tonumber(stamp) then
    stamp = v
  end
end
redis.call('HSET', KEYS[1], 'last_clicked_at', stamp)
return 1
`)

// KEYS: link hash, created index. ARGV: code. Returns deleted hashes.
var deleteScript = redis.NewScript(`
local n = redis.call('DEL', KEYS[1])
redis.call('ZREM', KEYS[2], ARGV[1])
return n
`)
