package storetest

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"

	"github.com/talentum-plus/talentum/internal/store/cache"
)

// NewCache returns a redis cache backed by an in-process miniredis server
// that is stopped when the test ends.
func NewCache(t testing.TB) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()

	s := miniredis.RunT(t)
	pool := &redis.Pool{
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", s.Addr())
		},
	}
	c := cache.NewWithPool(pool, zap.NewNop())
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c, s
}
