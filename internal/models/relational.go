package models

import (
	"time"
)

// User roles.
const (
	RoleAdmin     = "admin"
	RoleRecruiter = "recruiter"
	RoleCompany   = "empresa"
	RoleCandidate = "candidato"
)

// Relational status values.
const (
	ApplicationPending = "Pendiente"
	InterviewScheduled = "Programada"
)

// User is an account able to log in.
type User struct {
	ID           ID        `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"rol"`
	Name         string    `json:"nombre"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsCandidate reports whether the account belongs to a candidate.
func (u *User) IsCandidate() bool {
	return u != nil && u.Role == RoleCandidate
}

// CandidateRecord mirrors a candidate profile for relational tracking.
type CandidateRecord struct {
	ID        ID     `json:"id"`
	Name      string `json:"nombre"`
	Email     string `json:"email"`
	Seniority string `json:"seniority"`
}

// Process is a selection process for one candidate and one role.
type Process struct {
	ID                ID        `json:"id"`
	CandidateID       string    `json:"candidato_id"`
	Position          string    `json:"puesto"`
	Status            string    `json:"estado"`
	Feedback          *string   `json:"feedback"`
	ConfidentialNotes *string   `json:"notas_confidenciales,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (p *Process) Validate() error {
	return firstError(
		requireString("candidato_id", p.CandidateID),
		requireString("puesto", p.Position),
		requireString("estado", p.Status),
	)
}

// Application records a candidate applying to an offer.
type Application struct {
	ID             ID        `json:"id"`
	CandidateEmail string    `json:"candidato_email"`
	OfferID        string    `json:"oferta_id"`
	Status         string    `json:"estado"`
	AppliedAt      time.Time `json:"fecha_aplicacion"`
}

// Interview is a scheduled interview within a process.
type Interview struct {
	ID              ID        `json:"id"`
	ProcessID       ID        `json:"proceso_id"`
	Type            string    `json:"tipo"`
	Date            time.Time `json:"fecha"`
	Interviewer     string    `json:"entrevistador"`
	DurationMinutes int       `json:"duracion_minutos"`
	Notes           string    `json:"notas"`
	Score           *int      `json:"puntaje"`
	Status          string    `json:"estado"`
	Position        string    `json:"puesto,omitempty"`
}

func (i *Interview) Validate() error {
	err := firstError(
		requireString("tipo", i.Type),
		requireString("entrevistador", i.Interviewer),
	)
	if err != nil {
		return err
	}
	if i.ProcessID <= 0 {
		return invalid("proceso_id", "field required")
	}
	if i.Date.IsZero() {
		return invalid("fecha", "field required")
	}
	if i.DurationMinutes < 0 {
		return invalid("duracion_minutos", "value must be positive")
	}
	return validScore(i.Score)
}

// InterviewUpdate carries the interview fields a recruiter may change.
// Nil fields are left untouched.
type InterviewUpdate struct {
	Status *string `json:"estado"`
	Score  *int    `json:"puntaje"`
	Notes  *string `json:"notas"`
}

func (u *InterviewUpdate) Validate() error {
	if u.Status == nil || *u.Status == "" {
		return invalid("estado", "field required")
	}
	return validScore(u.Score)
}

func validScore(score *int) error {
	if score == nil {
		return nil
	}
	return checkRange("puntaje", float64(*score), 1, 5)
}

// Evaluation is a technical assessment within a process.
type Evaluation struct {
	ID        ID      `json:"id"`
	ProcessID ID      `json:"proceso_id"`
	Type      string  `json:"tipo"`
	Platform  string  `json:"plataforma"`
	Result    string  `json:"resultado"`
	Score     float64 `json:"puntaje"`
	Feedback  string  `json:"feedback"`
	Position  string  `json:"puesto,omitempty"`
}

func (e *Evaluation) Validate() error {
	if e.ProcessID <= 0 {
		return invalid("proceso_id", "field required")
	}
	return firstError(
		requireString("tipo", e.Type),
		requireString("plataforma", e.Platform),
		requireString("resultado", e.Result),
	)
}

// EvaluationUpdate replaces the outcome of an evaluation. All fields are required.
type EvaluationUpdate struct {
	Result   *string  `json:"resultado"`
	Score    *float64 `json:"puntaje"`
	Feedback *string  `json:"feedback"`
}

func (u *EvaluationUpdate) Validate() error {
	switch {
	case u.Result == nil:
		return invalid("resultado", "field required")
	case u.Score == nil:
		return invalid("puntaje", "field required")
	case u.Feedback == nil:
		return invalid("feedback", "field required")
	}
	return nil
}
