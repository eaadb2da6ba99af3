package api

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/talentum-plus/talentum/internal/auth"
	"github.com/talentum-plus/talentum/internal/models"
	"github.com/talentum-plus/talentum/internal/store"
)

const tokenType = "bearer"

type registerRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Name     *string `json:"nombre"`
	Role     string  `json:"rol"`
}

func (r *registerRequest) Validate() error {
	switch {
	case r.Email == nil:
		return &models.ValidationError{Field: "email", Reason: "field required"}
	case r.Password == nil:
		return &models.ValidationError{Field: "password", Reason: "field required"}
	case r.Name == nil:
		return &models.ValidationError{Field: "nombre", Reason: "field required"}
	}
	return nil
}

type loginRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

func (r *loginRequest) Validate() error {
	switch {
	case r.Email == nil:
		return &models.ValidationError{Field: "email", Reason: "field required"}
	case r.Password == nil:
		return &models.ValidationError{Field: "password", Reason: "field required"}
	}
	return nil
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) error {
	var req registerRequest
	if err := decodeValid(r, &req); err != nil {
		return err
	}
	if req.Role == "" {
		req.Role = models.RoleCandidate
	}
	if req.Role != models.RoleCandidate && req.Role != models.RoleCompany {
		return badRequest("Rol inválido")
	}

	_, err := s.rel.GetUser(r.Context(), *req.Email)
	if err == nil {
		return badRequest("El email ya está registrado")
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(*req.Password)
	if err != nil {
		return err
	}
	u := &models.User{Email: *req.Email, PasswordHash: hash, Role: req.Role, Name: *req.Name}
	err = s.rel.CreateUser(r.Context(), u)
	if errors.Is(err, store.ErrDuplicate) {
		return badRequest("El email ya está registrado")
	}
	if err != nil {
		return fmt.Errorf("registering %s: %w", u.Email, err)
	}

	if u.IsCandidate() {
		s.createRegisteredProfile(r, u)
	}

	token, err := s.tokens.Issue(u.Email, u.Role)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, object{
		"id":           u.ID,
		"email":        u.Email,
		"rol":          u.Role,
		"nombre":       u.Name,
		"access_token": token,
		"token_type":   tokenType,
	})
	return nil
}

// createRegisteredProfile gives a new candidate account an empty profile and
// mirrors it to the other stores. Failures are logged only.
func (s *Server) createRegisteredProfile(r *http.Request, u *models.User) {
	now := s.now()
	p := &models.Profile{
		Email:     u.Email,
		Name:      u.Name,
		Skills:    models.SkillList{},
		CreatedAt: &now,
	}
	if _, err := s.docs.InsertProfile(r.Context(), p); err != nil {
		s.logger.Warn("profile creation during registration failed", zap.String("email", u.Email), zap.Error(err))
		return
	}
	if report := s.syncer.CandidateCreated(r.Context(), p); !report.OK() {
		s.logger.Warn("sync during registration failed", zap.String("email", u.Email), zap.Error(report.Err()))
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := decodeValid(r, &req); err != nil {
		return err
	}

	u, err := s.rel.GetUser(r.Context(), *req.Email)
	if errors.Is(err, store.ErrNotFound) {
		return unauthorized("Email o contraseña incorrectos")
	}
	if err != nil {
		return err
	}

	ok, err := auth.CheckPassword(*req.Password, u.PasswordHash)
	if err != nil {
		s.logger.Warn("stored password hash is unusable", zap.String("email", u.Email), zap.Error(err))
	}
	if !ok {
		return unauthorized("Email o contraseña incorrectos")
	}

	token, err := s.tokens.Issue(u.Email, u.Role)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, object{
		"email":        u.Email,
		"rol":          u.Role,
		"nombre":       u.Name,
		"access_token": token,
		"token_type":   tokenType,
	})
	return nil
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) error {
	caller := auth.FromContext(r.Context())
	u, err := s.rel.GetUser(r.Context(), caller.Email)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("Usuario no encontrado")
	}
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, object{
		"email":      u.Email,
		"rol":        u.Role,
		"nombre":     u.Name,
		"created_at": u.CreatedAt,
	})
	return nil
}
