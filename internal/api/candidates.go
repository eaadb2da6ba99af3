package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/talentum-plus/talentum/internal/fanout"
	"github.com/talentum-plus/talentum/internal/matching"
	"github.com/talentum-plus/talentum/internal/models"
	"github.com/talentum-plus/talentum/internal/store"
	"github.com/talentum-plus/talentum/internal/store/cache"
	"github.com/talentum-plus/talentum/internal/utils"
)

const (
	candidateListLimit = 50
	skillSearchLimit   = 50
)

func (s *Server) createCandidate(w http.ResponseWriter, r *http.Request) error {
	var p models.Profile
	if err := decodeValid(r, &p); err != nil {
		return err
	}
	p.ID = ""
	if p.CreatedAt == nil {
		now := s.now()
		p.CreatedAt = &now
	}

	id, err := s.docs.InsertProfile(r.Context(), &p)
	if errors.Is(err, store.ErrDuplicate) {
		return badRequest("Ya existe un candidato con el email %s", p.Email)
	}
	if err != nil {
		return fmt.Errorf("creating candidate: %w", err)
	}

	report := s.syncer.CandidateCreated(r.Context(), &p)
	msg := "Candidato creado y sincronizado correctamente"
	if !report.OK() {
		msg = "Candidato creado pero con errores en sincronización"
	}

	writeJSON(w, http.StatusCreated, object{
		"id":           id,
		"sincronizado": report.OK(),
		"mensaje":      msg,
		"email":        p.Email,
		"nombre":       p.Name,
	})
	return nil
}

func (s *Server) getCandidate(w http.ResponseWriter, r *http.Request) error {
	email := pathVar(r, "email")

	var cached fanout.CachedProfile
	hit, err := store.GetJSON(r.Context(), s.cache, cache.ProfileKey(email), &cached)
	if err != nil {
		s.logger.Warn("profile cache read failed", zap.String("email", email), zap.Error(err))
	}
	if hit {
		body, err := flatten(cached, object{"source": store.NameCache, "email": email})
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, body)
		return nil
	}

	p, err := s.docs.GetProfile(r.Context(), email)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("Candidato no encontrado")
	}
	if err != nil {
		return err
	}

	body, err := flatten(p, object{"source": store.NameDocuments})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, body)
	return nil
}

func (s *Server) updateCandidate(w http.ResponseWriter, r *http.Request) error {
	email := pathVar(r, "email")

	var changes map[string]any
	if err := decode(r, &changes); err != nil {
		return err
	}
	delete(changes, "_id")
	delete(changes, "id")
	if err := checkChanges(changes, &models.Profile{}); err != nil {
		return err
	}

	err := s.docs.UpdateProfile(r.Context(), email, changes)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("Candidato no encontrado")
	}
	if err != nil {
		return err
	}

	report := s.syncer.CandidateUpdated(r.Context(), email, changes)
	writeJSON(w, http.StatusOK, object{"updated": true, "sincronizado": report.OK()})
	return nil
}

func (s *Server) candidateProfile(w http.ResponseWriter, r *http.Request) error {
	email := pathVar(r, "email")

	p, err := s.docs.GetProfile(r.Context(), email)
	if err == nil {
		p.ID = ""
		writeJSON(w, http.StatusOK, p)
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("Error al obtener perfil: %w", err)
	}

	u, err := s.rel.GetUser(r.Context(), email)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !u.IsCandidate()) {
		return notFound("Candidato no encontrado")
	}
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, object{
		"email":       email,
		"nombre":      u.Name,
		"seniority":   nil,
		"skills":      []string{},
		"experiencia": "",
		"educacion":   "",
	})
	return nil
}

func (s *Server) candidateSkills(w http.ResponseWriter, r *http.Request) error {
	email := pathVar(r, "email")

	skills, err := s.docs.ProfileSkills(r.Context(), email)
	if errors.Is(err, store.ErrNotFound) {
		skills, err = s.graph.CandidateSkills(r.Context(), email)
	}
	if err != nil {
		return fmt.Errorf("Error al obtener skills: %w", err)
	}
	if skills == nil {
		skills = []string{}
	}

	writeJSON(w, http.StatusOK, object{"email": email, "skills": skills, "total": len(skills)})
	return nil
}

// candidateUser loads the account behind email and checks it belongs to a candidate.
func (s *Server) candidateUser(ctx context.Context, email, action string) (*models.User, error) {
	u, err := s.rel.GetUser(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("Usuario no encontrado")
	}
	if err != nil {
		return nil, err
	}
	if !u.IsCandidate() {
		return nil, forbidden("Solo los candidatos pueden %s", action)
	}
	return u, nil
}

func (s *Server) addSkill(w http.ResponseWriter, r *http.Request) error {
	email := pathVar(r, "email")

	var body struct {
		Skill *string `json:"skill"`
	}
	if err := decode(r, &body); err != nil {
		return err
	}
	if body.Skill == nil {
		return newError(http.StatusUnprocessableEntity, "skill: field required")
	}
	skill := utils.TitleCase(*body.Skill)
	if skill == "" {
		return badRequest("La skill no puede estar vacía")
	}

	u, err := s.candidateUser(r.Context(), email, "gestionar skills")
	if err != nil {
		return err
	}

	created, err := s.docs.AddProfileSkills(r.Context(), email, u.Name, []string{skill})
	if err != nil {
		return fmt.Errorf("Error al agregar skill: %w", err)
	}
	s.syncer.SkillsAdded(r.Context(), email, u.Name, []string{skill})

	writeJSON(w, http.StatusOK, object{
		"success": true,
		"skill":   skill,
		"mensaje": fmt.Sprintf("Skill '%s' agregada exitosamente", skill),
		"created": created,
	})
	return nil
}

func (s *Server) removeSkill(w http.ResponseWriter, r *http.Request) error {
	email := pathVar(r, "email")
	skill := pathVar(r, "skill")
	if decoded, err := url.PathUnescape(skill); err == nil {
		skill = decoded
	}
	skill = strings.TrimSpace(skill)

	unlinked, err := s.graph.UnlinkSkill(r.Context(), email, skill)
	if err != nil {
		return fmt.Errorf("Error al eliminar skill: %w", err)
	}
	removed, err := s.docs.RemoveProfileSkill(r.Context(), email, skill)
	if err != nil {
		return fmt.Errorf("Error al eliminar skill: %w", err)
	}
	if unlinked == 0 && !removed {
		return notFound("Skill no encontrada en el perfil")
	}

	s.syncer.ProfileChanged(r.Context(), email)

	writeJSON(w, http.StatusOK, object{
		"success": true,
		"skill":   skill,
		"mensaje": fmt.Sprintf("Skill '%s' eliminada exitosamente", skill),
	})
	return nil
}

func (s *Server) setSeniority(w http.ResponseWriter, r *http.Request) error {
	email := pathVar(r, "email")

	var body struct {
		Seniority *string `json:"seniority"`
	}
	if err := decode(r, &body); err != nil {
		return err
	}
	if body.Seniority == nil {
		return newError(http.StatusUnprocessableEntity, "seniority: field required")
	}

	seniority := utils.TitleCase(*body.Seniority)
	levels := models.SeniorityLevels()
	valid := false
	for _, level := range levels {
		if level == seniority {
			valid = true
		}
	}
	if !valid {
		return badRequest("Seniority inválido. Valores permitidos: %s", strings.Join(levels, ", "))
	}

	u, err := s.candidateUser(r.Context(), email, "actualizar su seniority")
	if err != nil {
		return err
	}

	if _, err := s.docs.SetProfileSeniority(r.Context(), email, u.Name, seniority); err != nil {
		return fmt.Errorf("Error al actualizar seniority: %w", err)
	}
	s.syncer.CandidateUpdated(r.Context(), email, map[string]any{"seniority": seniority})

	writeJSON(w, http.StatusOK, object{
		"success":   true,
		"email":     email,
		"seniority": seniority,
		"mensaje":   fmt.Sprintf("Seniority actualizado a '%s' exitosamente", seniority),
	})
	return nil
}

func (s *Server) listCandidates(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	profiles, err := s.docs.ListProfiles(r.Context(), store.ProfileFilter{
		Skill:     q.Get("skill"),
		Seniority: q.Get("seniority"),
		Limit:     candidateListLimit,
	})
	if err != nil {
		return err
	}
	for _, p := range profiles {
		p.ID = ""
	}
	if profiles == nil {
		profiles = []*models.Profile{}
	}

	writeJSON(w, http.StatusOK, object{"total": len(profiles), "candidatos": profiles})
	return nil
}

// skillHit is one result of the skill search.
type skillHit struct {
	models.SkillMatch
	MatchPercentage float64 `json:"match_percentage"`
}

func (s *Server) searchBySkills(w http.ResponseWriter, r *http.Request) error {
	skills := utils.SplitCSV(r.URL.Query().Get("skills"))
	if len(skills) == 0 {
		return badRequest("Debes especificar al menos un skill")
	}

	matches, err := s.graph.MatchCandidates(r.Context(), store.MatchQuery{
		Skills:   skills,
		MinMatch: 1,
		Limit:    skillSearchLimit,
	})
	if err == nil {
		hits := make([]skillHit, 0, len(matches))
		for _, m := range matches {
			hits = append(hits, skillHit{SkillMatch: m, MatchPercentage: matching.Round(m.Percentage(len(skills)), 1)})
		}
		writeJSON(w, http.StatusOK, object{
			"skills_buscados":        skills,
			"candidatos_encontrados": len(hits),
			"candidatos":             hits,
		})
		return nil
	}

	s.logger.Warn("graph skill search failed, falling back to accounts", zap.Error(err))
	users, err := s.rel.ListUsersByRole(r.Context(), models.RoleCandidate, skillSearchLimit)
	if err != nil {
		return err
	}
	hits := make([]skillHit, 0, len(users))
	for _, u := range users {
		hits = append(hits, skillHit{SkillMatch: models.SkillMatch{Email: u.Email, Name: u.Name, SkillsMatched: []string{}}})
	}
	writeJSON(w, http.StatusOK, object{
		"skills_buscados":        skills,
		"candidatos_encontrados": len(hits),
		"candidatos":             hits,
		"nota":                   "Búsqueda básica (Neo4j no disponible)",
	})
	return nil
}
