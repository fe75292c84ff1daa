package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"
)

// releaseScript deletes the lock only if the caller still owns it, so a
// holder whose TTL already expired cannot free a lock re-acquired by
// someone else.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// Lock is a held distributed lock. The TTL bounds the blast radius of a
// crashed holder; Release frees it early.
type Lock struct {
	client *Client
	key    string
	token  string
}

// AcquireLock attempts to take the lock for key. It returns (nil, nil)
// when another holder has it; callers must treat that as retry-later,
// never as permission to skip the guarded operation.
func (c *Client) AcquireLock(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	token := hex.EncodeToString(buf)

	ok, err := c.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &Lock{client: c, key: key, token: token}, nil
}

// Release frees the lock if this holder still owns it. Returns false when
// the lock had already expired or changed hands.
func (l *Lock) Release(ctx context.Context) (bool, error) {
	res, err := l.client.rdb.Eval(ctx, releaseScript, []string{l.key}, l.token).Result()
	if err != nil {
		return false, err
	}
	n, _ := res.(int64)
	return n == 1, nil
}
