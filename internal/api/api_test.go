package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/talentum-plus/talentum/internal/auth"
	"github.com/talentum-plus/talentum/internal/fanout"
	"github.com/talentum-plus/talentum/internal/metrics"
	"github.com/talentum-plus/talentum/internal/models"
	"github.com/talentum-plus/talentum/internal/store/storetest"
)

type fixture struct {
	server  *Server
	handler http.Handler
	tokens  *auth.Tokens
	docs    *storetest.Documents
	rel     *storetest.Relational
	graph   *storetest.Graph
	redis   *miniredis.Miniredis
	logs    *observer.ObservedLogs
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)
	c, s := storetest.NewCache(t)
	tokens, err := auth.NewTokens("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("building tokens: %v", err)
	}

	f := &fixture{
		tokens: tokens,
		docs:   storetest.NewDocuments(),
		rel:    storetest.NewRelational(),
		graph:  storetest.NewGraph(),
		redis:  s,
		logs:   logs,
	}
	f.server = New(cfg, Deps{
		Documents:  f.docs,
		Relational: f.rel,
		Graph:      f.graph,
		Cache:      c,
		Syncer:     fanout.New(f.docs, f.rel, f.graph, c, nil, log),
		Tokens:     tokens,
		Metrics:    metrics.New(log),
		Logger:     log,
	})
	f.server.now = storetest.Clock
	f.server.grade = func(lo, hi int) int { return 8 }
	f.handler = f.server.Handler()
	return f
}

// token issues a bearer token for email with role.
func (f *fixture) token(t *testing.T, email, role string) string {
	t.Helper()
	tok, err := f.tokens.Issue(email, role)
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}
	return tok
}

// user creates an account directly in the relational fake.
func (f *fixture) user(t *testing.T, email, name, role string) {
	t.Helper()
	hash, err := auth.HashPassword("secret123")
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	u := &models.User{Email: email, Name: name, Role: role, PasswordHash: hash}
	if err := f.rel.CreateUser(t.Context(), u); err != nil {
		t.Fatalf("creating user: %v", err)
	}
}

// do sends a request and decodes the JSON response into a generic object.
func (f *fixture) do(t *testing.T, method, path string, body any, token string) (int, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("encoding body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
		}
	}
	return rec.Code, out
}

// expect fails the test unless the response has status want.
func expect(t *testing.T, got, want int, body map[string]any) {
	t.Helper()
	if got != want {
		t.Fatalf("expected status %d, got %d: %v", want, got, body)
	}
}

func items(t *testing.T, body map[string]any, key string) []map[string]any {
	t.Helper()
	raw, ok := body[key].([]any)
	if !ok {
		t.Fatalf("%s is not a list: %v", key, body[key])
	}
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			t.Fatalf("%s holds a non object: %v", key, item)
		}
		out = append(out, m)
	}
	return out
}

func TestUnknownRouteAnswersJSON(t *testing.T) {
	f := newFixture(t, Config{})

	code, body := f.do(t, http.MethodGet, "/nada", nil, "")
	expect(t, code, http.StatusNotFound, body)
	if diff := cmp.Diff(map[string]any{"detail": "Not Found"}, body); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	f := newFixture(t, Config{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if got := rec.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("expected echoed request id, got %q", got)
	}
	if f.logs.FilterMessage("http request").Len() == 0 {
		t.Fatalf("expected an access log entry")
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t, Config{})

	code, body := f.do(t, http.MethodGet, "/healthz", nil, "")
	expect(t, code, http.StatusOK, body)
	want := map[string]any{
		"status": "ok",
		"stores": map[string]any{"mongodb": "ok", "postgres": "ok", "neo4j": "ok", "redis": "ok"},
	}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Fatalf("health mismatch (-want +got):\n%s", diff)
	}

	f.graph.Fail("Ping", errors.New("bolt unreachable"))
	code, body = f.do(t, http.MethodGet, "/healthz", nil, "")
	expect(t, code, http.StatusServiceUnavailable, body)
	stores := body["stores"].(map[string]any)
	if stores["neo4j"] != "bolt unreachable" || stores["mongodb"] != "ok" {
		t.Fatalf("unexpected store states: %v", stores)
	}
}

func TestDashboardServesHTML(t *testing.T) {
	f := newFixture(t, Config{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestRecruiterGuard(t *testing.T) {
	f := newFixture(t, Config{RequireRecruiter: true})
	process := map[string]any{"candidato_id": "ana@example.com", "puesto": "Backend", "estado": "Iniciado"}

	tests := []struct {
		name   string
		token  string
		status int
		detail string
	}{
		{name: "no token", status: http.StatusUnauthorized, detail: "Not authenticated"},
		{name: "garbage token", token: "not-a-jwt", status: http.StatusUnauthorized, detail: "Token expirado o inválido"},
		{name: "candidate", token: f.token(t, "ana@example.com", models.RoleCandidate), status: http.StatusForbidden, detail: "Se requiere rol de reclutador o administrador"},
		{name: "recruiter", token: f.token(t, "rh@example.com", models.RoleRecruiter), status: http.StatusCreated},
		{name: "admin", token: f.token(t, "root@example.com", models.RoleAdmin), status: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := f.do(t, http.MethodPost, "/procesos", process, tt.token)
			expect(t, code, tt.status, body)
			if tt.detail != "" && body["detail"] != tt.detail {
				t.Fatalf("expected detail %q, got %v", tt.detail, body["detail"])
			}
		})
	}
}

func TestRecruiterGuardDisabled(t *testing.T) {
	f := newFixture(t, Config{})

	code, body := f.do(t, http.MethodPost, "/procesos",
		map[string]any{"candidato_id": "ana@example.com", "puesto": "Backend", "estado": "Iniciado"}, "")
	expect(t, code, http.StatusCreated, body)
}

func TestValidationErrorsAre422(t *testing.T) {
	f := newFixture(t, Config{})

	tests := []struct {
		name string
		path string
		body any
	}{
		{name: "empty body", path: "/candidatos", body: nil},
		{name: "malformed json", path: "/candidatos", body: "{"},
		{name: "missing email", path: "/candidatos", body: map[string]any{"nombre": "Ana"}},
		{name: "invalid email", path: "/candidatos", body: map[string]any{"nombre": "Ana", "email": "no-es-mail"}},
		{name: "missing puesto", path: "/matching", body: map[string]any{"skills": []string{"Go"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := f.do(t, http.MethodPost, tt.path, tt.body, "")
			expect(t, code, http.StatusUnprocessableEntity, body)
			if _, ok := body["detail"].(string); !ok {
				t.Fatalf("expected a detail message, got %v", body)
			}
		})
	}
}

func TestInternalErrorsAreLogged(t *testing.T) {
	f := newFixture(t, Config{})
	f.docs.Fail("ListCourses", errors.New("mongo down"))

	code, body := f.do(t, http.MethodGet, "/cursos", nil, "")
	expect(t, code, http.StatusInternalServerError, body)
	if body["detail"] != "Error interno: mongo down" {
		t.Fatalf("unexpected detail %v", body["detail"])
	}
	if f.logs.FilterMessage("request failed").Len() != 1 {
		t.Fatalf("expected the failure to be logged")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, Config{})
	f.do(t, http.MethodGet, "/healthz", nil, "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`route="/healthz"`)) {
		t.Fatalf("expected the health request to be counted:\n%s", rec.Body.String())
	}
}

func TestCacheEndpoints(t *testing.T) {
	f := newFixture(t, Config{})

	code, body := f.do(t, http.MethodGet, "/cache/saludo", nil, "")
	expect(t, code, http.StatusNotFound, body)

	code, body = f.do(t, http.MethodPost, "/cache/saludo?value=hola&ttl=60", nil, "")
	expect(t, code, http.StatusOK, body)
	if ttl := f.redis.TTL("saludo"); ttl != time.Minute {
		t.Fatalf("expected ttl of a minute, got %v", ttl)
	}

	code, body = f.do(t, http.MethodGet, "/cache/saludo", nil, "")
	expect(t, code, http.StatusOK, body)
	if body["value"] != "hola" {
		t.Fatalf("unexpected cached value %v", body["value"])
	}

	code, body = f.do(t, http.MethodPost, "/cache/saludo?value=x&ttl=abc", nil, "")
	expect(t, code, http.StatusUnprocessableEntity, body)
	code, body = f.do(t, http.MethodPost, "/cache/saludo", nil, "")
	expect(t, code, http.StatusUnprocessableEntity, body)
}
