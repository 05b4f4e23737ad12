package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/greenway-backend/internal/models"
)

func TestMemoryCodeStore_ConsumeRequiresExactCode(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCodeStore()
	require.NoError(t, s.Put(ctx, models.VerificationCode{Owner: "alice@x.com", Code: "482913", ExpiresAt: time.Now().Add(time.Minute)}))

	_, err := s.Consume(ctx, "alice@x.com", "000000")
	assert.ErrorIs(t, err, ErrNotFound)

	n, _ := s.Len(ctx)
	assert.Equal(t, 1, n, "wrong code leaves the record in place")

	vc, err := s.Consume(ctx, "alice@x.com", "482913")
	require.NoError(t, err)
	assert.Equal(t, "482913", vc.Code)

	_, err = s.Consume(ctx, "alice@x.com", "482913")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCodeStore_PutOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCodeStore()
	exp := time.Now().Add(time.Minute)
	require.NoError(t, s.Put(ctx, models.VerificationCode{Owner: "o", Code: "111111", ExpiresAt: exp}))
	require.NoError(t, s.Put(ctx, models.VerificationCode{Owner: "o", Code: "222222", ExpiresAt: exp}))

	_, err := s.Consume(ctx, "o", "111111")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Consume(ctx, "o", "222222")
	assert.NoError(t, err)
}

func TestMemoryCodeStore_ConcurrentConsumeSucceedsOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCodeStore()
	require.NoError(t, s.Put(ctx, models.VerificationCode{Owner: "o", Code: "123456", ExpiresAt: time.Now().Add(time.Minute)}))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Consume(ctx, "o", "123456"); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestRedisCodeEncoding(t *testing.T) {
	exp := time.UnixMilli(1767225600123)
	raw := encodeCode(models.VerificationCode{Owner: "alice@x.com", Code: "004213", ExpiresAt: exp})
	assert.Equal(t, "004213|1767225600123", raw)

	vc, err := decodeCode("alice@x.com", raw)
	require.NoError(t, err)
	assert.Equal(t, "004213", vc.Code)
	assert.True(t, vc.ExpiresAt.Equal(exp))
	assert.Equal(t, "otp:alice@x.com", codeKey("alice@x.com"))

	_, err = decodeCode("o", "no-separator")
	assert.Error(t, err)
	_, err = decodeCode("o", "123|soon")
	assert.Error(t, err)
}
