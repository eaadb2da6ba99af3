package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/talentum-plus/talentum/internal/ai"
	"github.com/talentum-plus/talentum/internal/filtering"
	"github.com/talentum-plus/talentum/internal/models"
)

// stubMatcher answers fits per candidate e-mail.
type stubMatcher struct {
	mu    sync.Mutex
	fits  map[string]bool
	err   error
	calls int
}

func (m *stubMatcher) Evaluate(_ context.Context, p *models.Profile, _ *models.Offer) (*ai.FitAssessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.fits[p.Email] {
		return &ai.FitAssessment{Fit: true, Score: 0.9, Reason: "perfil alineado"}, nil
	}
	return &ai.FitAssessment{Fit: false, Score: 0.2, Reason: "sin experiencia"}, nil
}

func publishOffer(t *testing.T, f *fixture, offer map[string]any) string {
	t.Helper()
	code, body := f.do(t, http.MethodPost, "/ofertas", offer, "")
	expect(t, code, http.StatusCreated, body)
	return body["id"].(string)
}

func backendOffer() map[string]any {
	return map[string]any{
		"titulo":      "Backend Go",
		"empresa":     "acme@example.com",
		"descripcion": "Servicios de alta disponibilidad",
		"requisitos":  "go, SQL , Docker",
		"ubicacion":   "Córdoba",
	}
}

func TestCompanies(t *testing.T) {
	f := newFixture(t, Config{})
	company := map[string]any{
		"nombre":      "Acme",
		"cuit":        "30-12345678-9",
		"sector":      "Software",
		"tamaño":      "Mediana",
		"descripcion": "Fábrica de software",
	}

	code, body := f.do(t, http.MethodPost, "/empresas", company, "")
	expect(t, code, http.StatusCreated, body)
	if _, ok := f.graph.Company("30-12345678-9"); !ok {
		t.Fatalf("company not merged into the graph")
	}

	code, body = f.do(t, http.MethodPost, "/empresas", company, "")
	expect(t, code, http.StatusBadRequest, body)
	if body["detail"] != "CUIT ya registrado" {
		t.Fatalf("unexpected detail %v", body["detail"])
	}

	code, body = f.do(t, http.MethodGet, "/empresas", nil, "")
	expect(t, code, http.StatusOK, body)
	if body["total"] != float64(1) {
		t.Fatalf("expected one company, got %v", body)
	}
}

func TestPublishAndListOffers(t *testing.T) {
	f := newFixture(t, Config{})
	id := publishOffer(t, f, backendOffer())

	code, body := f.do(t, http.MethodGet, "/ofertas/"+id, nil, "")
	expect(t, code, http.StatusOK, body)
	if diff := cmp.Diff([]any{"go", "SQL", "Docker"}, body["skills_requeridos"]); diff != "" {
		t.Fatalf("skills mismatch (-want +got):\n%s", diff)
	}
	if body["modalidad"] != models.DefaultModality || body["estado"] != models.OfferOpen {
		t.Fatalf("defaults not applied: %v", body)
	}
	if _, ok := f.graph.Offer(id); !ok {
		t.Fatalf("offer not created in the graph")
	}

	closed := backendOffer()
	closed["estado"] = "cerrada"
	publishOffer(t, f, closed)

	code, body = f.do(t, http.MethodGet, "/ofertas", nil, "")
	expect(t, code, http.StatusOK, body)
	if body["total"] != float64(1) {
		t.Fatalf("only open offers are listed by default, got %v", body["total"])
	}
	code, body = f.do(t, http.MethodGet, "/ofertas?estado=cerrada", nil, "")
	expect(t, code, http.StatusOK, body)
	if body["total"] != float64(1) {
		t.Fatalf("expected the closed offer, got %v", body["total"])
	}

	for _, path := range []string{"/ofertas/no-es-id", "/ofertas/665f1c2a9b1e8a3d4c5b6a79"} {
		code, body = f.do(t, http.MethodGet, path, nil, "")
		expect(t, code, http.StatusNotFound, body)
	}
}

func TestUpdateOfferPermissions(t *testing.T) {
	f := newFixture(t, Config{})
	id := publishOffer(t, f, backendOffer())
	change := map[string]any{"requisitos": "Rust, Kafka", "empresa": "otra@example.com"}

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{name: "anonymous", status: http.StatusUnauthorized},
		{name: "candidate", token: f.token(t, "ana@example.com", models.RoleCandidate), status: http.StatusForbidden},
		{name: "other company", token: f.token(t, "globex@example.com", models.RoleCompany), status: http.StatusForbidden},
		{name: "owner", token: f.token(t, "acme@example.com", models.RoleCompany), status: http.StatusOK},
		{name: "admin", token: f.token(t, "root@example.com", models.RoleAdmin), status: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := f.do(t, http.MethodPut, "/ofertas/"+id, change, tt.token)
			expect(t, code, tt.status, body)
		})
	}

	code, body := f.do(t, http.MethodGet, "/ofertas/"+id, nil, "")
	expect(t, code, http.StatusOK, body)
	if diff := cmp.Diff([]any{"Rust", "Kafka"}, body["skills_requeridos"]); diff != "" {
		t.Fatalf("skills not recomputed (-want +got):\n%s", diff)
	}
	if body["empresa"] != "acme@example.com" {
		t.Fatalf("owner is not editable, got %v", body["empresa"])
	}

	owner := f.token(t, "acme@example.com", models.RoleCompany)
	code, body = f.do(t, http.MethodPut, "/ofertas/"+id, map[string]any{"empresa": "x"}, owner)
	expect(t, code, http.StatusBadRequest, body)
	code, body = f.do(t, http.MethodPut, "/ofertas/"+id, map[string]any{"salario": "mucho"}, owner)
	expect(t, code, http.StatusUnprocessableEntity, body)
	code, body = f.do(t, http.MethodPut, "/ofertas/665f1c2a9b1e8a3d4c5b6a79", change, owner)
	expect(t, code, http.StatusNotFound, body)
}

func TestApplyToOffer(t *testing.T) {
	f := newFixture(t, Config{})
	createCandidate(t, f, "ana@example.com", "Ana", "Go")
	id := publishOffer(t, f, backendOffer())

	code, body := f.do(t, http.MethodPost, "/ofertas/"+id+"/aplicar", map[string]any{"candidato_email": "ana@example.com"}, "")
	expect(t, code, http.StatusOK, body)
	if body["estado"] != models.ApplicationPending {
		t.Fatalf("unexpected application %v", body)
	}
	if !f.graph.Applied("ana@example.com", id) {
		t.Fatalf("application not linked in the graph")
	}
	events := f.docs.ChangeEvents()
	if len(events) != 1 || events[0].Type != models.EventApplication || events[0].OfferID != id {
		t.Fatalf("unexpected change events %+v", events)
	}

	code, body = f.do(t, http.MethodPost, "/ofertas/"+id+"/aplicar", map[string]any{"candidato_email": "ana@example.com"}, "")
	expect(t, code, http.StatusBadRequest, body)
	if body["detail"] != "Ya aplicaste a esta oferta" {
		t.Fatalf("unexpected detail %v", body["detail"])
	}

	code, body = f.do(t, http.MethodPost, "/ofertas/"+id+"/aplicar", map[string]any{}, "")
	expect(t, code, http.StatusBadRequest, body)
	code, body = f.do(t, http.MethodPost, "/ofertas/no-es-id/aplicar", map[string]any{"candidato_email": "ana@example.com"}, "")
	expect(t, code, http.StatusBadRequest, body)
	code, body = f.do(t, http.MethodPost, "/ofertas/665f1c2a9b1e8a3d4c5b6a79/aplicar", map[string]any{"candidato_email": "ana@example.com"}, "")
	expect(t, code, http.StatusNotFound, body)

	code, body = f.do(t, http.MethodGet, "/candidatos/ana@example.com/aplicaciones", nil, "")
	expect(t, code, http.StatusOK, body)
	apps := items(t, body, "aplicaciones")
	want := map[string]any{"titulo": "Backend Go", "empresa": "acme@example.com", "ubicacion": "Córdoba", "modalidad": models.DefaultModality}
	if len(apps) != 1 {
		t.Fatalf("expected one application, got %v", apps)
	}
	if diff := cmp.Diff(want, apps[0]["oferta"]); diff != "" {
		t.Fatalf("offer summary mismatch (-want +got):\n%s", diff)
	}
}

func TestOfferMatches(t *testing.T) {
	f := newFixture(t, Config{})
	createCandidate(t, f, "ana@example.com", "Ana", "Go", "SQL", "Docker")
	createCandidate(t, f, "bruno@example.com", "Bruno", "Go")
	createCandidate(t, f, "carla@example.com", "Carla", "Python")
	offer := backendOffer()
	offer["seniority_minimo"] = "Junior"
	id := publishOffer(t, f, offer)
	f.do(t, http.MethodPost, "/ofertas/"+id+"/aplicar", map[string]any{"candidato_email": "ana@example.com"}, "")

	code, body := f.do(t, http.MethodGet, "/ofertas/"+id+"/matches", nil, "")
	expect(t, code, http.StatusOK, body)
	found := items(t, body, "candidatos")
	if len(found) != 2 {
		t.Fatalf("expected two matches, got %v", found)
	}
	if found[0]["email"] != "ana@example.com" || found[0]["match_percentage"] != float64(100) || found[0]["seniority"] != "N/A" {
		t.Fatalf("unexpected best match %v", found[0])
	}
	if found[1]["match_percentage"] != 33.3 {
		t.Fatalf("unexpected second match %v", found[1])
	}
	filters := items(t, body, "filtros")
	if len(filters) != 3 || filters[1]["habilitado"] != false || filters[2]["motivo"] != "ia no solicitada" {
		t.Fatalf("unexpected filter states %v", filters)
	}

	code, body = f.do(t, http.MethodGet, "/ofertas/"+id+"/matches?excluir_aplicados=true", nil, "")
	expect(t, code, http.StatusOK, body)
	found = items(t, body, "candidatos")
	if len(found) != 1 || found[0]["email"] != "bruno@example.com" {
		t.Fatalf("applicants should be excluded, got %v", found)
	}

	code, body = f.do(t, http.MethodGet, "/ofertas/"+id+"/matches?ia=true", nil, "")
	expect(t, code, http.StatusOK, body)
	filters = items(t, body, "filtros")
	if filters[2]["motivo"] != "IA deshabilitada" {
		t.Fatalf("AI filter should report it is disabled, got %v", filters[2])
	}

	code, body = f.do(t, http.MethodGet, "/ofertas/"+id+"/matches?excluir_aplicados=quizas", nil, "")
	expect(t, code, http.StatusUnprocessableEntity, body)
}

func TestOfferMatchesGraphFailure(t *testing.T) {
	f := newFixture(t, Config{})
	id := publishOffer(t, f, backendOffer())
	f.graph.Fail("MatchCandidates", errors.New("neo4j down"))

	code, body := f.do(t, http.MethodGet, "/ofertas/"+id+"/matches", nil, "")
	expect(t, code, http.StatusOK, body)
	if body["candidatos_encontrados"] != float64(0) {
		t.Fatalf("graph failures yield no candidates, got %v", body)
	}
}

func newAIFixture(t *testing.T, m *stubMatcher) *fixture {
	t.Helper()
	f := newFixture(t, Config{AI: &filtering.AIConfig{
		Enabled:  true,
		Provider: "gemini",
		Gemini:   &filtering.GeminiConfig{Model: "gemini-test", MaxRetries: 1},
	}})
	f.server.matcher = m
	return f
}

func TestOfferMatchesWithAI(t *testing.T) {
	m := &stubMatcher{fits: map[string]bool{"bruno@example.com": true}}
	f := newAIFixture(t, m)
	createCandidate(t, f, "ana@example.com", "Ana", "Go", "SQL")
	createCandidate(t, f, "bruno@example.com", "Bruno", "Go")
	id := publishOffer(t, f, backendOffer())

	code, body := f.do(t, http.MethodGet, "/ofertas/"+id+"/matches?ia=true", nil, "")
	expect(t, code, http.StatusOK, body)
	found := items(t, body, "candidatos")
	if len(found) != 1 || found[0]["email"] != "bruno@example.com" {
		t.Fatalf("only AI fits should remain, got %v", found)
	}
	want := map[string]any{"fit": true, "score": 0.9, "reason": "perfil alineado"}
	if diff := cmp.Diff(want, found[0]["ia"]); diff != "" {
		t.Fatalf("AI annotation mismatch (-want +got):\n%s", diff)
	}
	if m.calls != 2 {
		t.Fatalf("expected one evaluation per candidate, got %d", m.calls)
	}
}

func TestEvaluateCandidate(t *testing.T) {
	m := &stubMatcher{fits: map[string]bool{"ana@example.com": true}}
	f := newAIFixture(t, m)
	createCandidate(t, f, "ana@example.com", "Ana", "Go")
	id := publishOffer(t, f, backendOffer())
	req := map[string]any{"candidato_email": "ana@example.com"}

	code, body := f.do(t, http.MethodPost, "/ofertas/"+id+"/evaluar", req, "")
	expect(t, code, http.StatusOK, body)
	if body["source"] != "ia" {
		t.Fatalf("expected a fresh evaluation, got %v", body)
	}
	code, body = f.do(t, http.MethodPost, "/ofertas/"+id+"/evaluar", req, "")
	expect(t, code, http.StatusOK, body)
	if body["source"] != "cache" || m.calls != 1 {
		t.Fatalf("expected a cached evaluation, got %v after %d calls", body, m.calls)
	}

	code, body = f.do(t, http.MethodPost, "/ofertas/"+id+"/evaluar", map[string]any{"candidato_email": "nadie@example.com"}, "")
	expect(t, code, http.StatusNotFound, body)

	m.err = errors.New("quota exhausted")
	createCandidate(t, f, "bruno@example.com", "Bruno", "Go")
	code, body = f.do(t, http.MethodPost, "/ofertas/"+id+"/evaluar", map[string]any{"candidato_email": "bruno@example.com"}, "")
	expect(t, code, http.StatusBadGateway, body)
}

func TestEvaluateCandidateWithoutAI(t *testing.T) {
	f := newFixture(t, Config{})
	id := publishOffer(t, f, backendOffer())

	code, body := f.do(t, http.MethodPost, "/ofertas/"+id+"/evaluar", map[string]any{"candidato_email": "ana@example.com"}, "")
	expect(t, code, http.StatusServiceUnavailable, body)
}
