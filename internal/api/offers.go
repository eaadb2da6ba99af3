package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/talentum-plus/talentum/internal/ai"
	"github.com/talentum-plus/talentum/internal/auth"
	"github.com/talentum-plus/talentum/internal/filtering"
	"github.com/talentum-plus/talentum/internal/matching"
	"github.com/talentum-plus/talentum/internal/models"
	"github.com/talentum-plus/talentum/internal/store"
	"github.com/talentum-plus/talentum/internal/store/cache"
)

const (
	offerListLimit  = 50
	offerMatchLimit = 20
	unknownLevel    = "N/A"
)

func (s *Server) createCompany(w http.ResponseWriter, r *http.Request) error {
	var c models.Company
	if err := decodeValid(r, &c); err != nil {
		return err
	}

	id, err := s.docs.InsertCompany(r.Context(), &c)
	if errors.Is(err, store.ErrDuplicate) {
		return badRequest("CUIT ya registrado")
	}
	if err != nil {
		return fmt.Errorf("creating company: %w", err)
	}
	s.syncer.CompanyCreated(r.Context(), &c)

	writeJSON(w, http.StatusCreated, object{"id": id, "cuit": c.CUIT})
	return nil
}

func (s *Server) listCompanies(w http.ResponseWriter, r *http.Request) error {
	companies, err := s.docs.ListCompanies(r.Context())
	if err != nil {
		return err
	}
	if companies == nil {
		companies = []*models.Company{}
	}
	writeJSON(w, http.StatusOK, object{"total": len(companies), "empresas": companies})
	return nil
}

func (s *Server) publishOffer(w http.ResponseWriter, r *http.Request) error {
	var o models.Offer
	if err := decodeValid(r, &o); err != nil {
		return err
	}
	o.ID = ""
	o.ApplyDefaults(s.now())

	id, err := s.docs.InsertOffer(r.Context(), &o)
	if err != nil {
		return fmt.Errorf("publishing offer: %w", err)
	}
	o.ID = id
	s.syncer.OfferPublished(r.Context(), id, &o)

	writeJSON(w, http.StatusCreated, object{"id": id, "mensaje": "Oferta publicada exitosamente"})
	return nil
}

func (s *Server) listOffers(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	status := models.OfferOpen
	if q.Has("estado") {
		status = q.Get("estado")
	}

	offers, err := s.docs.ListOffers(r.Context(), store.OfferFilter{
		Modality: q.Get("modalidad"),
		Location: q.Get("ubicacion"),
		Status:   status,
		Limit:    offerListLimit,
	})
	if err != nil {
		return err
	}
	if offers == nil {
		offers = []*models.Offer{}
	}
	writeJSON(w, http.StatusOK, object{"total": len(offers), "ofertas": offers})
	return nil
}

// loadOffer fetches the offer in the path. Malformed ids answer invalidStatus.
func (s *Server) loadOffer(r *http.Request, invalidStatus int) (*models.Offer, error) {
	o, err := s.docs.GetOffer(r.Context(), pathVar(r, "id"))
	switch {
	case errors.Is(err, store.ErrInvalidID):
		return nil, newError(invalidStatus, "ID de oferta inválido")
	case errors.Is(err, store.ErrNotFound):
		return nil, notFound("Oferta no encontrada")
	case err != nil:
		return nil, err
	}
	return o, nil
}

func (s *Server) getOffer(w http.ResponseWriter, r *http.Request) error {
	o, err := s.loadOffer(r, http.StatusNotFound)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, o)
	return nil
}

func (s *Server) updateOffer(w http.ResponseWriter, r *http.Request) error {
	caller := auth.FromContext(r.Context())
	if !caller.HasRole(models.RoleCompany, models.RoleAdmin) {
		return forbidden("Solo las empresas pueden editar ofertas")
	}

	o, err := s.loadOffer(r, http.StatusNotFound)
	if err != nil {
		return err
	}
	if caller.Role != models.RoleAdmin && o.Company != caller.Email {
		return forbidden("No tienes permisos para editar esta oferta")
	}

	var body map[string]any
	if err := decode(r, &body); err != nil {
		return err
	}
	update := make(map[string]any)
	for _, field := range models.OfferEditableFields {
		if v, ok := body[field]; ok {
			update[field] = v
		}
	}
	if len(update) == 0 {
		return badRequest("No se especificaron campos para actualizar")
	}
	if err := checkChanges(update, &models.Offer{}); err != nil {
		return err
	}
	if v, ok := update["requisitos"]; ok {
		requirements, _ := v.(string)
		update["skills_requeridos"] = models.RequirementsToSkills(requirements)
	}

	updated, err := s.docs.UpdateOffer(r.Context(), o.ID, update)
	if err != nil {
		return fmt.Errorf("updating offer %s: %w", o.ID, err)
	}

	writeJSON(w, http.StatusOK, object{
		"success": true,
		"mensaje": "Oferta actualizada exitosamente",
		"oferta":  updated,
	})
	return nil
}

type candidateEmailRequest struct {
	CandidateEmail string `json:"candidato_email"`
}

func (s *Server) apply(w http.ResponseWriter, r *http.Request) error {
	var body candidateEmailRequest
	if err := decode(r, &body); err != nil {
		return err
	}
	if body.CandidateEmail == "" {
		return badRequest("Email del candidato es requerido")
	}

	o, err := s.loadOffer(r, http.StatusBadRequest)
	if err != nil {
		return err
	}

	_, err = s.rel.FindApplication(r.Context(), body.CandidateEmail, o.ID)
	if err == nil {
		return badRequest("Ya aplicaste a esta oferta")
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	a := &models.Application{
		CandidateEmail: body.CandidateEmail,
		OfferID:        o.ID,
		Status:         models.ApplicationPending,
		AppliedAt:      s.now(),
	}
	err = s.rel.CreateApplication(r.Context(), a)
	if errors.Is(err, store.ErrDuplicate) {
		return badRequest("Ya aplicaste a esta oferta")
	}
	if err != nil {
		return fmt.Errorf("Error al crear aplicación: %w", err)
	}
	s.syncer.ApplicationCreated(r.Context(), a)

	writeJSON(w, http.StatusOK, object{"aplicacion_id": a.ID, "estado": a.Status})
	return nil
}

func (s *Server) candidateApplications(w http.ResponseWriter, r *http.Request) error {
	email := pathVar(r, "email")
	applications, err := s.rel.ListApplications(r.Context(), email)
	if err != nil {
		return err
	}

	out := make([]object, 0, len(applications))
	for _, a := range applications {
		o, err := s.docs.GetOffer(r.Context(), a.OfferID)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) && !errors.Is(err, store.ErrInvalidID) {
				return err
			}
			o = nil
		}
		out = append(out, object{
			"id":               a.ID,
			"oferta_id":        a.OfferID,
			"estado":           a.Status,
			"fecha_aplicacion": a.AppliedAt,
			"oferta":           o.Summary(),
		})
	}

	writeJSON(w, http.StatusOK, object{"total": len(out), "aplicaciones": out})
	return nil
}

func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, newError(http.StatusUnprocessableEntity, "%s: value could not be parsed to a boolean", name)
	}
	return v, nil
}

func (s *Server) offerMatches(w http.ResponseWriter, r *http.Request) error {
	excludeApplied, err := queryBool(r, "excluir_aplicados")
	if err != nil {
		return err
	}
	useAI, err := queryBool(r, "ia")
	if err != nil {
		return err
	}

	o, err := s.loadOffer(r, http.StatusNotFound)
	if err != nil {
		return err
	}
	skills := o.RequiredSkills
	if skills == nil {
		skills = []string{}
	}

	candidates := &matching.Candidates{Items: []*matching.Candidate{}}
	if len(skills) > 0 {
		candidates = s.offerCandidates(r, o, skills)
	}

	steps := filtering.Default()
	if !excludeApplied {
		filtering.DisableByName(steps, "applied", "excluir_aplicados no solicitado")
	}
	switch {
	case !useAI:
		filtering.DisableByName(steps, "ai_fit", "ia no solicitada")
	case !s.cfg.AI.Enabled || s.matcher == nil:
		filtering.DisableByName(steps, "ai_fit", "IA deshabilitada")
	}

	pipeline := filtering.New(steps, s.logger)
	cfg := &filtering.Config{MinSeniority: o.MinSeniority, AI: s.cfg.AI}
	if cfg.MinSeniority != "" && !models.ParseSeniority(cfg.MinSeniority).Known() {
		cfg.MinSeniority = ""
	}
	candidates, err = pipeline.RunFilters(r.Context(), cfg, filtering.Deps{
		Logger:     s.logger,
		Offer:      o,
		Applicants: s.rel,
		Profiles:   s.docs,
		Matcher:    s.matcher,
	}, candidates)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, object{
		"oferta_id":              o.ID,
		"titulo":                 o.Title,
		"skills_requeridos":      skills,
		"candidatos_encontrados": candidates.Len(),
		"candidatos":             candidates.Items,
		"filtros":                pipeline.Describe(),
	})
	return nil
}

// offerCandidates matches candidates against skills case-insensitively and
// fills their seniority from the profile. Graph failures yield no candidates.
func (s *Server) offerCandidates(r *http.Request, o *models.Offer, skills []string) *matching.Candidates {
	matches, err := s.graph.MatchCandidates(r.Context(), store.MatchQuery{
		Skills:     skills,
		MinMatch:   1,
		Limit:      offerMatchLimit,
		IgnoreCase: true,
	})
	if err != nil {
		s.logger.Warn("offer matching failed", zap.String("offer_id", o.ID), zap.Error(err))
		return &matching.Candidates{Items: []*matching.Candidate{}}
	}

	candidates := matching.FromMatches(matches, len(skills), 1)
	for _, c := range candidates.Items {
		c.Seniority = unknownLevel
		p, err := s.docs.GetProfile(r.Context(), c.Email)
		if err == nil && p.Seniority != "" {
			c.Seniority = p.Seniority
		}
	}
	return candidates
}

func (s *Server) evaluateCandidate(w http.ResponseWriter, r *http.Request) error {
	if s.matcher == nil {
		return newError(http.StatusServiceUnavailable, "Evaluación con IA deshabilitada")
	}

	var body candidateEmailRequest
	if err := decode(r, &body); err != nil {
		return err
	}
	if body.CandidateEmail == "" {
		return badRequest("Email del candidato es requerido")
	}

	o, err := s.loadOffer(r, http.StatusNotFound)
	if err != nil {
		return err
	}

	key := cache.AssessmentKey(o.ID, body.CandidateEmail)
	var cached ai.FitAssessment
	hit, err := store.GetJSON(r.Context(), s.cache, key, &cached)
	if err != nil {
		s.logger.Warn("assessment cache read failed", zap.String("key", key), zap.Error(err))
	}
	if hit {
		writeJSON(w, http.StatusOK, assessmentBody(o.ID, body.CandidateEmail, "cache", &cached))
		return nil
	}

	p, err := s.docs.GetProfile(r.Context(), body.CandidateEmail)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("Candidato no encontrado")
	}
	if err != nil {
		return err
	}

	assessment, err := s.matcher.Evaluate(r.Context(), p, o)
	if err != nil {
		s.logger.Warn("AI evaluation failed",
			zap.String("offer_id", o.ID),
			zap.String("email", body.CandidateEmail),
			zap.Error(err),
		)
		return newError(http.StatusBadGateway, "Error al evaluar con IA: %v", err)
	}
	if err := store.SetJSON(r.Context(), s.cache, key, assessment, cache.AssessmentTTL); err != nil {
		s.logger.Warn("assessment cache write failed", zap.String("key", key), zap.Error(err))
	}

	writeJSON(w, http.StatusOK, assessmentBody(o.ID, body.CandidateEmail, "ia", assessment))
	return nil
}

func assessmentBody(offerID, email, source string, a *ai.FitAssessment) object {
	return object{
		"source":          source,
		"oferta_id":       offerID,
		"candidato_email": email,
		"evaluacion":      filtering.Annotate(a),
	}
}
