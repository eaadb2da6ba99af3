package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/talentum-plus/talentum/internal/filtering"
	"github.com/talentum-plus/talentum/internal/models"
	"github.com/talentum-plus/talentum/internal/store"
	"github.com/talentum-plus/talentum/internal/store/cache"
)

const (
	recommendationLimit = 5
	userSearchLimit     = 20
	userSearchMinLength = 2
	defaultMentorKind   = "técnico"
	defaultCacheTTL     = 300
	connectedRelation   = "CONECTADO_CON"
	unknownUserName     = "Usuario"
)

type matchingRequest struct {
	Position     string   `json:"puesto"`
	Skills       []string `json:"skills"`
	MinSeniority string   `json:"seniority_minimo"`
}

func (m *matchingRequest) Validate() error {
	switch {
	case strings.TrimSpace(m.Position) == "":
		return &models.ValidationError{Field: "puesto", Reason: "field required"}
	case m.Skills == nil:
		return &models.ValidationError{Field: "skills", Reason: "field required"}
	}
	return nil
}

func (s *Server) matching(w http.ResponseWriter, r *http.Request) error {
	var req matchingRequest
	if err := decodeValid(r, &req); err != nil {
		return err
	}
	if req.MinSeniority != "" && !models.ParseSeniority(req.MinSeniority).Known() {
		return badRequest("Seniority inválido. Valores permitidos: %s", strings.Join(models.SeniorityLevels(), ", "))
	}

	candidates, err := s.syncer.Matching(r.Context(), req.Position, req.Skills)
	if err != nil {
		return err
	}

	if req.MinSeniority != "" {
		pipeline := filtering.New([]filtering.Filter{filtering.NewSeniority()}, s.logger)
		candidates, err = pipeline.RunFilters(r.Context(), &filtering.Config{MinSeniority: req.MinSeniority}, filtering.Deps{}, candidates)
		if err != nil {
			return err
		}
	}

	writeJSON(w, http.StatusOK, object{
		"puesto":                 req.Position,
		"skills_requeridos":      req.Skills,
		"candidatos_encontrados": candidates.Len(),
		"candidatos":             candidates.Items,
	})
	return nil
}

func (s *Server) recommendations(w http.ResponseWriter, r *http.Request) error {
	candidateID := pathVar(r, "candidato_id")
	key := cache.RecommendationKey(candidateID)

	var cached []models.Recommendation
	hit, err := store.GetJSON(r.Context(), s.cache, key, &cached)
	if err != nil {
		s.logger.Warn("recommendation cache read failed", zap.String("email", candidateID), zap.Error(err))
	}
	if hit {
		writeJSON(w, http.StatusOK, object{"source": "cache", "recomendaciones": cached})
		return nil
	}

	recs, err := s.graph.Recommendations(r.Context(), candidateID, recommendationLimit)
	if err != nil {
		return err
	}
	if recs == nil {
		recs = []models.Recommendation{}
	}
	if err := store.SetJSON(r.Context(), s.cache, key, recs, cache.RecommendationTTL); err != nil {
		s.logger.Warn("recommendation cache write failed", zap.String("email", candidateID), zap.Error(err))
	}

	writeJSON(w, http.StatusOK, object{"source": store.NameGraph, "recomendaciones": recs})
	return nil
}

func (s *Server) mentoring(w http.ResponseWriter, r *http.Request) error {
	candidateID := pathVar(r, "candidato_id")
	mentorID := pathVar(r, "mentor_id")
	kind := r.URL.Query().Get("tipo")
	if kind == "" {
		kind = defaultMentorKind
	}

	report := s.syncer.MentorInteraction(r.Context(), candidateID, mentorID, kind)
	writeJSON(w, http.StatusOK, object{"success": report.OK(), "candidato": candidateID, "mentor": mentorID})
	return nil
}

func (s *Server) network(w http.ResponseWriter, r *http.Request) error {
	email := pathVar(r, "email")

	accepted, err := s.docs.ListConnectionRequests(r.Context(), store.ConnectionFilter{
		Participant: email,
		Status:      models.RequestAccepted,
	})
	if err != nil {
		return err
	}

	contacts := make([]object, 0, len(accepted))
	for _, req := range accepted {
		other := req.Counterpart(email)
		u, err := s.rel.GetUser(r.Context(), other)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		contacts = append(contacts, object{
			"email":          other,
			"nombre":         u.Name,
			"rol":            u.Role,
			"relacion":       connectedRelation,
			"fecha_conexion": req.RequestedAt,
		})
	}

	writeJSON(w, http.StatusOK, object{"email": email, "red": contacts, "total": len(contacts)})
	return nil
}

func (s *Server) sendRequest(w http.ResponseWriter, r *http.Request) error {
	var req models.ConnectionRequest
	if err := decodeValid(r, &req); err != nil {
		return err
	}
	if req.Sender == req.Recipient {
		return badRequest("No puedes enviarte una solicitud a ti mismo")
	}

	checks := []struct {
		status string
		detail string
	}{
		{models.RequestPending, "Ya existe una solicitud pendiente con este usuario"},
		{models.RequestAccepted, "Ya estás conectado con este usuario"},
	}
	for _, check := range checks {
		_, err := s.docs.FindConnection(r.Context(), req.Sender, req.Recipient, check.status)
		if err == nil {
			return badRequest("%s", check.detail)
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}

	req.ID = ""
	req.Status = models.RequestPending
	req.RequestedAt = s.now()
	id, err := s.docs.InsertConnectionRequest(r.Context(), &req)
	if err != nil {
		return fmt.Errorf("sending connection request: %w", err)
	}

	writeJSON(w, http.StatusCreated, object{"id": id, "mensaje": "Solicitud enviada exitosamente"})
	return nil
}

// requestParty resolves the display name and role of email, with defaults for unknown users.
func (s *Server) requestParty(r *http.Request, email string) (string, string, error) {
	u, err := s.rel.GetUser(r.Context(), email)
	if errors.Is(err, store.ErrNotFound) {
		return unknownUserName, models.RoleCandidate, nil
	}
	if err != nil {
		return "", "", err
	}
	return u.Name, u.Role, nil
}

func (s *Server) receivedRequests(w http.ResponseWriter, r *http.Request) error {
	return s.pendingRequests(w, r, true)
}

func (s *Server) sentRequests(w http.ResponseWriter, r *http.Request) error {
	return s.pendingRequests(w, r, false)
}

// pendingRequests lists pending requests addressed to (received) or sent by the
// path user, each enriched with the other party.
func (s *Server) pendingRequests(w http.ResponseWriter, r *http.Request, received bool) error {
	email := pathVar(r, "email")
	filter := store.ConnectionFilter{Sender: email, Status: models.RequestPending}
	prefix := "destinatario"
	if received {
		filter = store.ConnectionFilter{Recipient: email, Status: models.RequestPending}
		prefix = "remitente"
	}

	requests, err := s.docs.ListConnectionRequests(r.Context(), filter)
	if err != nil {
		return err
	}

	out := make([]object, 0, len(requests))
	for _, req := range requests {
		other := req.Counterpart(email)
		name, role, err := s.requestParty(r, other)
		if err != nil {
			return err
		}
		out = append(out, object{
			"_id":              req.ID,
			prefix + "_email":  other,
			prefix + "_nombre": name,
			prefix + "_rol":    role,
			"mensaje":          req.Message,
			"fecha_solicitud":  req.RequestedAt,
		})
	}

	writeJSON(w, http.StatusOK, object{"solicitudes": out})
	return nil
}

// pendingRequest loads the request in the path and checks it was not processed yet.
func (s *Server) pendingRequest(r *http.Request) (*models.ConnectionRequest, error) {
	req, err := s.docs.GetConnectionRequest(r.Context(), pathVar(r, "id"))
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidID) {
		return nil, notFound("Solicitud no encontrada")
	}
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestPending {
		return nil, badRequest("Esta solicitud ya fue procesada")
	}
	return req, nil
}

func (s *Server) acceptRequest(w http.ResponseWriter, r *http.Request) error {
	req, err := s.pendingRequest(r)
	if err != nil {
		return err
	}
	if err := s.docs.SetConnectionStatus(r.Context(), req.ID, models.RequestAccepted); err != nil {
		return err
	}
	req.Status = models.RequestAccepted
	s.syncer.ConnectionAccepted(r.Context(), req)

	writeJSON(w, http.StatusOK, object{"mensaje": "Solicitud aceptada exitosamente"})
	return nil
}

func (s *Server) rejectRequest(w http.ResponseWriter, r *http.Request) error {
	req, err := s.pendingRequest(r)
	if err != nil {
		return err
	}
	if err := s.docs.SetConnectionStatus(r.Context(), req.ID, models.RequestRejected); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, object{"mensaje": "Solicitud rechazada"})
	return nil
}

func (s *Server) searchUsers(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	for _, name := range []string{"q", "email_actual"} {
		if !q.Has(name) {
			return newError(http.StatusUnprocessableEntity, "%s: field required", name)
		}
	}
	query, current := q.Get("q"), q.Get("email_actual")
	if len([]rune(query)) < userSearchMinLength {
		writeJSON(w, http.StatusOK, object{"usuarios": []object{}})
		return nil
	}

	users, err := s.rel.SearchUsers(r.Context(), query, current, userSearchLimit)
	if err != nil {
		return err
	}

	related, err := s.docs.ListConnectionRequests(r.Context(), store.ConnectionFilter{Participant: current})
	if err != nil {
		return err
	}
	skip := make(map[string]struct{}, len(related))
	for _, req := range related {
		if req.Status == models.RequestAccepted || req.Status == models.RequestPending {
			skip[req.Counterpart(current)] = struct{}{}
		}
	}

	out := make([]object, 0, len(users))
	for _, u := range users {
		if _, found := skip[u.Email]; found {
			continue
		}
		out = append(out, object{"email": u.Email, "nombre": u.Name, "rol": u.Role})
	}

	writeJSON(w, http.StatusOK, object{"usuarios": out})
	return nil
}

func (s *Server) getCache(w http.ResponseWriter, r *http.Request) error {
	raw, err := s.cache.Get(r.Context(), pathVar(r, "key"))
	if errors.Is(err, store.ErrNotFound) {
		return notFound("Cache miss")
	}
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, object{"value": string(raw)})
	return nil
}

func (s *Server) setCache(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	if !q.Has("value") {
		return newError(http.StatusUnprocessableEntity, "value: field required")
	}
	ttl := defaultCacheTTL
	if raw := q.Get("ttl"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return newError(http.StatusUnprocessableEntity, "ttl: value is not a valid integer")
		}
		ttl = v
	}

	if err := s.cache.Set(r.Context(), pathVar(r, "key"), []byte(q.Get("value")), time.Duration(ttl)*time.Second); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, object{"status": "cached"})
	return nil
}
