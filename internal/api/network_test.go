package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/talentum-plus/talentum/internal/models"
)

func TestMatching(t *testing.T) {
	f := newFixture(t, Config{})
	createCandidate(t, f, "ana@example.com", "Ana", "Go", "SQL", "Docker")
	createCandidate(t, f, "bruno@example.com", "Bruno", "Go")
	code, body := f.do(t, http.MethodPut, "/candidatos/ana@example.com", map[string]any{"seniority": "Senior"}, "")
	expect(t, code, http.StatusOK, body)

	req := map[string]any{"puesto": "Backend", "skills": []string{"Go", "SQL", "Docker", "Kafka"}}
	code, body = f.do(t, http.MethodPost, "/matching", req, "")
	expect(t, code, http.StatusOK, body)
	found := items(t, body, "candidatos")
	if len(found) != 1 || found[0]["email"] != "ana@example.com" || found[0]["match_percentage"] != float64(75) {
		t.Fatalf("expected ana with 75%%, got %v", found)
	}
	if !f.redis.Exists("matching:Backend:Docker-Go-Kafka-SQL") {
		t.Fatalf("expected the result to be cached, keys: %v", f.redis.Keys())
	}

	req = map[string]any{"puesto": "Backend", "skills": []string{"Go"}, "seniority_minimo": "Semi-Senior"}
	code, body = f.do(t, http.MethodPost, "/matching", req, "")
	expect(t, code, http.StatusOK, body)
	found = items(t, body, "candidatos")
	if len(found) != 1 || found[0]["email"] != "ana@example.com" {
		t.Fatalf("juniors should be filtered out, got %v", found)
	}

	req["seniority_minimo"] = "Guru"
	code, body = f.do(t, http.MethodPost, "/matching", req, "")
	expect(t, code, http.StatusBadRequest, body)

	f.graph.Fail("MatchCandidates", errors.New("neo4j down"))
	req["seniority_minimo"] = ""
	code, body = f.do(t, http.MethodPost, "/matching", req, "")
	expect(t, code, http.StatusInternalServerError, body)
}

func TestRecommendationsAreCached(t *testing.T) {
	f := newFixture(t, Config{})
	createCandidate(t, f, "ana@example.com", "Ana", "Go", "SQL")
	f.graph.AddRole("Backend", "Go", "SQL", "Docker")
	f.graph.AddRole("Data", "SQL", "Python")

	code, body := f.do(t, http.MethodGet, "/recomendaciones/ana@example.com", nil, "")
	expect(t, code, http.StatusOK, body)
	want := []any{
		map[string]any{"rol": "Backend", "match": float64(2)},
		map[string]any{"rol": "Data", "match": float64(1)},
	}
	if body["source"] != "neo4j" {
		t.Fatalf("expected graph source, got %v", body["source"])
	}
	if diff := cmp.Diff(want, body["recomendaciones"]); diff != "" {
		t.Fatalf("recommendations mismatch (-want +got):\n%s", diff)
	}

	f.graph.Fail("Recommendations", errors.New("neo4j down"))
	code, body = f.do(t, http.MethodGet, "/recomendaciones/ana@example.com", nil, "")
	expect(t, code, http.StatusOK, body)
	if body["source"] != "cache" {
		t.Fatalf("expected cached answer, got %v", body)
	}
	if diff := cmp.Diff(want, body["recomendaciones"]); diff != "" {
		t.Fatalf("cached recommendations mismatch (-want +got):\n%s", diff)
	}
}

func TestMentoring(t *testing.T) {
	f := newFixture(t, Config{})
	createCandidate(t, f, "ana@example.com", "Ana")

	code, body := f.do(t, http.MethodPost, "/mentoring/ana@example.com/carla@example.com", nil, "")
	expect(t, code, http.StatusOK, body)
	if body["success"] != true {
		t.Fatalf("unexpected body %v", body)
	}
	if kind, ok := f.graph.Mentor("ana@example.com", "carla@example.com"); !ok || kind != "técnico" {
		t.Fatalf("expected default mentoring kind, got %q %v", kind, ok)
	}

	f.graph.Fail("LinkMentor", errors.New("neo4j down"))
	code, body = f.do(t, http.MethodPost, "/mentoring/ana@example.com/dario@example.com?tipo=carrera", nil, "")
	expect(t, code, http.StatusOK, body)
	if body["success"] != false {
		t.Fatalf("expected failure to be reported, got %v", body)
	}
}

func sendRequest(t *testing.T, f *fixture, from, to string) string {
	t.Helper()
	code, body := f.do(t, http.MethodPost, "/solicitudes", map[string]any{
		"remitente_email":    from,
		"destinatario_email": to,
		"mensaje":            "Hola!",
	}, "")
	expect(t, code, http.StatusCreated, body)
	return body["id"].(string)
}

func TestConnectionRequests(t *testing.T) {
	f := newFixture(t, Config{})
	f.user(t, "ana@example.com", "Ana", models.RoleCandidate)
	f.user(t, "bruno@example.com", "Bruno", models.RoleCandidate)
	f.user(t, "acme@example.com", "Acme", models.RoleCompany)

	id := sendRequest(t, f, "ana@example.com", "bruno@example.com")

	code, body := f.do(t, http.MethodPost, "/solicitudes", map[string]any{
		"remitente_email":    "bruno@example.com",
		"destinatario_email": "ana@example.com",
	}, "")
	expect(t, code, http.StatusBadRequest, body)
	if body["detail"] != "Ya existe una solicitud pendiente con este usuario" {
		t.Fatalf("unexpected detail %v", body["detail"])
	}

	code, body = f.do(t, http.MethodPost, "/solicitudes", map[string]any{
		"remitente_email":    "ana@example.com",
		"destinatario_email": "ana@example.com",
	}, "")
	expect(t, code, http.StatusBadRequest, body)

	code, body = f.do(t, http.MethodGet, "/solicitudes/recibidas/bruno@example.com", nil, "")
	expect(t, code, http.StatusOK, body)
	received := items(t, body, "solicitudes")
	if len(received) != 1 || received[0]["remitente_email"] != "ana@example.com" || received[0]["remitente_nombre"] != "Ana" {
		t.Fatalf("unexpected received requests %v", received)
	}

	code, body = f.do(t, http.MethodGet, "/solicitudes/enviadas/ana@example.com", nil, "")
	expect(t, code, http.StatusOK, body)
	sent := items(t, body, "solicitudes")
	if len(sent) != 1 || sent[0]["destinatario_nombre"] != "Bruno" || sent[0]["destinatario_rol"] != models.RoleCandidate {
		t.Fatalf("unexpected sent requests %v", sent)
	}

	code, body = f.do(t, http.MethodPut, "/solicitudes/"+id+"/aceptar", nil, "")
	expect(t, code, http.StatusOK, body)
	if !f.graph.Connected("ana@example.com", "bruno@example.com") {
		t.Fatalf("expected a graph connection")
	}

	code, body = f.do(t, http.MethodPut, "/solicitudes/"+id+"/rechazar", nil, "")
	expect(t, code, http.StatusBadRequest, body)
	if body["detail"] != "Esta solicitud ya fue procesada" {
		t.Fatalf("unexpected detail %v", body["detail"])
	}

	code, body = f.do(t, http.MethodPost, "/solicitudes", map[string]any{
		"remitente_email":    "ana@example.com",
		"destinatario_email": "bruno@example.com",
	}, "")
	expect(t, code, http.StatusBadRequest, body)
	if body["detail"] != "Ya estás conectado con este usuario" {
		t.Fatalf("unexpected detail %v", body["detail"])
	}

	code, body = f.do(t, http.MethodGet, "/red/bruno@example.com", nil, "")
	expect(t, code, http.StatusOK, body)
	contacts := items(t, body, "red")
	if len(contacts) != 1 || contacts[0]["email"] != "ana@example.com" || contacts[0]["relacion"] != "CONECTADO_CON" {
		t.Fatalf("unexpected network %v", contacts)
	}

	for _, path := range []string{"/solicitudes/no-es-id/aceptar", "/solicitudes/665f1c2a9b1e8a3d4c5b6a79/rechazar"} {
		code, body = f.do(t, http.MethodPut, path, nil, "")
		expect(t, code, http.StatusNotFound, body)
	}
}

func TestRejectRequest(t *testing.T) {
	f := newFixture(t, Config{})
	id := sendRequest(t, f, "ana@example.com", "bruno@example.com")

	code, body := f.do(t, http.MethodPut, "/solicitudes/"+id+"/rechazar", nil, "")
	expect(t, code, http.StatusOK, body)
	if f.graph.Connected("ana@example.com", "bruno@example.com") {
		t.Fatalf("rejected requests must not connect")
	}

	code, body = f.do(t, http.MethodGet, "/solicitudes/recibidas/bruno@example.com", nil, "")
	expect(t, code, http.StatusOK, body)
	if got := items(t, body, "solicitudes"); len(got) != 0 {
		t.Fatalf("rejected request still pending: %v", got)
	}

	// a rejected request does not block a new one
	sendRequest(t, f, "bruno@example.com", "ana@example.com")
}

func TestPendingRequestsUnknownUser(t *testing.T) {
	f := newFixture(t, Config{})
	sendRequest(t, f, "fantasma@example.com", "bruno@example.com")

	code, body := f.do(t, http.MethodGet, "/solicitudes/recibidas/bruno@example.com", nil, "")
	expect(t, code, http.StatusOK, body)
	got := items(t, body, "solicitudes")
	if len(got) != 1 || got[0]["remitente_nombre"] != "Usuario" || got[0]["remitente_rol"] != models.RoleCandidate {
		t.Fatalf("expected defaults for unknown sender, got %v", got)
	}
}

func TestSearchUsers(t *testing.T) {
	f := newFixture(t, Config{})
	f.user(t, "ana@example.com", "Ana", models.RoleCandidate)
	f.user(t, "anabel@example.com", "Anabel", models.RoleCandidate)
	f.user(t, "mariana@example.com", "Mariana", models.RoleCompany)
	f.user(t, "bruno@example.com", "Bruno", models.RoleCandidate)
	sendRequest(t, f, "bruno@example.com", "anabel@example.com")

	code, body := f.do(t, http.MethodGet, "/usuarios/buscar?q=ana&email_actual=bruno@example.com", nil, "")
	expect(t, code, http.StatusOK, body)
	want := []any{
		map[string]any{"email": "ana@example.com", "nombre": "Ana", "rol": "candidato"},
		map[string]any{"email": "mariana@example.com", "nombre": "Mariana", "rol": "empresa"},
	}
	if diff := cmp.Diff(want, body["usuarios"]); diff != "" {
		t.Fatalf("search mismatch (-want +got):\n%s", diff)
	}

	code, body = f.do(t, http.MethodGet, "/usuarios/buscar?q=a&email_actual=bruno@example.com", nil, "")
	expect(t, code, http.StatusOK, body)
	if got := items(t, body, "usuarios"); len(got) != 0 {
		t.Fatalf("short queries should return nothing, got %v", got)
	}

	code, body = f.do(t, http.MethodGet, "/usuarios/buscar?q=ana", nil, "")
	expect(t, code, http.StatusUnprocessableEntity, body)
}
