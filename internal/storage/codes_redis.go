package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Ananth-NQI/greenway-backend/internal/models"
)

const codeNamespace = "otp"

// Redis keeps an expired record for this long past its expiry so a late
// attempt is reported as expired rather than unknown.
const expiredGrace = time.Hour

// consumeScript deletes KEYS[1] only if its code part equals ARGV[1].
var consumeScript = redis.NewScript(`
local v = redis.call("GET", KEYS[1])
if not v then
  return false
end
local sep = string.find(v, "|", 1, true)
if not sep or string.sub(v, 1, sep - 1) ~= ARGV[1] then
  return false
end
redis.call("DEL", KEYS[1])
return v
`)

// RedisCodeStore keeps codes in Redis so they survive restarts of a single
// instance and can be shared between instances.
type RedisCodeStore struct {
	client redis.UniversalClient
}

// NewRedisCodeStore connects to a single Redis node.
func NewRedisCodeStore(addr, password string) *RedisCodeStore {
	return &RedisCodeStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       0,
		}),
	}
}

// Ping checks connectivity.
func (s *RedisCodeStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (s *RedisCodeStore) Close() error {
	return s.client.Close()
}

func (s *RedisCodeStore) Put(ctx context.Context, code models.VerificationCode) error {
	ttl := time.Until(code.ExpiresAt) + expiredGrace
	if ttl <= 0 {
		ttl = expiredGrace
	}
	return s.client.Set(ctx, codeKey(code.Owner), encodeCode(code), ttl).Err()
}

func (s *RedisCodeStore) Consume(ctx context.Context, owner, code string) (*models.VerificationCode, error) {
	raw, err := consumeScript.Run(ctx, s.client, []string{codeKey(owner)}, code).Text()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("consume code: %w", err)
	}
	vc, err := decodeCode(owner, raw)
	if err != nil {
		return nil, err
	}
	return vc, nil
}

func (s *RedisCodeStore) Len(ctx context.Context) (int, error) {
	var n int
	iter := s.client.Scan(ctx, 0, codeNamespace+":*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	return n, iter.Err()
}

func codeKey(owner string) string {
	return codeNamespace + ":" + owner
}

// encodeCode stores "code|expiryUnixMilli".
func encodeCode(code models.VerificationCode) string {
	return code.Code + "|" + strconv.FormatInt(code.ExpiresAt.UnixMilli(), 10)
}

func decodeCode(owner, raw string) (*models.VerificationCode, error) {
	code, expiry, ok := strings.Cut(raw, "|")
	if !ok {
		return nil, fmt.Errorf("malformed code record for %s", owner)
	}
	ms, err := strconv.ParseInt(expiry, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed code expiry for %s: %w", owner, err)
	}
	return &models.VerificationCode{
		Owner:     owner,
		Code:      code,
		ExpiresAt: time.UnixMilli(ms),
	}, nil
}
