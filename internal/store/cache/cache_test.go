package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"

	"github.com/talentum-plus/talentum/internal/store"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	s := miniredis.RunT(t)
	pool := &redis.Pool{
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", s.Addr())
		},
	}
	c := NewWithPool(pool, zap.NewNop())
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c, s
}

func TestGetSetDelete(t *testing.T) {
	ctx := context.Background()
	c, s := newTestCache(t)

	if _, err := c.Get(ctx, "perfil:ada@talentum.plus"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected miss, got %v", err)
	}

	if err := c.Set(ctx, "perfil:ada@talentum.plus", []byte(`{"nombre":"Ada"}`), time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := c.Get(ctx, "perfil:ada@talentum.plus")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"nombre":"Ada"}` {
		t.Fatalf("unexpected value: %s", got)
	}

	if ttl := s.TTL("perfil:ada@talentum.plus"); ttl != time.Hour {
		t.Fatalf("expected ttl of 1h, got %v", ttl)
	}

	s.FastForward(time.Hour + time.Second)
	if _, err := c.Get(ctx, "perfil:ada@talentum.plus"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected expired key, got %v", err)
	}

	if err := c.Set(ctx, "a", []byte("1"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := c.Delete(ctx, "a", "missing"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s.Exists("a") {
		t.Fatalf("expected key to be deleted")
	}

	if err := c.Set(ctx, "a", []byte("1"), 0); err == nil {
		t.Fatalf("expected error for zero ttl")
	}
}

func TestDeletePattern(t *testing.T) {
	ctx := context.Background()
	c, s := newTestCache(t)

	for _, key := range []string{"cursos:cat=all:nivel=all", "cursos:cat=Backend:nivel=all", "curso:PY101"} {
		if err := s.Set(key, "x"); err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
	}

	deleted, err := c.DeletePattern(ctx, CourseListPattern)
	if err != nil {
		t.Fatalf("delete pattern: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted keys, got %d", deleted)
	}
	if !s.Exists("curso:PY101") {
		t.Fatalf("course key must survive")
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	var out map[string]any
	found, err := store.GetJSON(ctx, c, "recomendaciones:x", &out)
	if err != nil || found {
		t.Fatalf("expected clean miss, got %v %v", found, err)
	}

	if err := store.SetJSON(ctx, c, "recomendaciones:x", map[string]int{"match": 2}, RecommendationTTL); err != nil {
		t.Fatalf("set json: %v", err)
	}

	found, err = store.GetJSON(ctx, c, "recomendaciones:x", &out)
	if err != nil || !found {
		t.Fatalf("expected hit, got %v %v", found, err)
	}
	if out["match"] != float64(2) {
		t.Fatalf("unexpected decoded value: %v", out)
	}
}

func TestPing(t *testing.T) {
	c, s := newTestCache(t)
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}

	s.Close()
	if err := c.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping to fail once redis is down")
	}
}

func TestKeys(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		ProfileKey("a@b.co"):                              "perfil:a@b.co",
		RecommendationKey("a@b.co"):                       "recomendaciones:a@b.co",
		MatchingKey("Backend", []string{"python", "go"}):  "matching:Backend:go-python",
		CourseKey("PY101"):                                "curso:PY101",
		CourseListKey("", ""):                             "cursos:cat=all:nivel=all",
		CourseListKey("Backend", "Intermedio"):            "cursos:cat=Backend:nivel=Intermedio",
		AssessmentKey("64f0", "a@b.co"):                   "evaluacion_ia:64f0:a@b.co",
	}

	for got, want := range tests {
		if got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
}
