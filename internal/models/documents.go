package models

import (
	"time"

	"github.com/talentum-plus/talentum/internal/utils"
)

// Wire values shared across document types.
const (
	OfferOpen         = "abierta"
	DefaultModality   = "presencial"
	DefaultContract   = "full-time"
	RequestPending    = "pendiente"
	RequestAccepted   = "aceptada"
	RequestRejected   = "rechazada"
	EventApplication  = "aplicacion_creada"
	ExamPassThreshold = 4
	ExamMaxGrade      = 10
)

// Profile is a candidate profile kept in the document store.
type Profile struct {
	ID         string          `json:"id,omitempty" bson:"_id,omitempty"`
	Email      string          `json:"email" bson:"email"`
	Name       string          `json:"nombre" bson:"nombre"`
	Seniority  string          `json:"seniority" bson:"seniority,omitempty"`
	Skills     SkillList       `json:"skills" bson:"skills"`
	Courses    []ProfileCourse `json:"cursos" bson:"cursos,omitempty"`
	Experience string          `json:"experiencia" bson:"experiencia"`
	Education  string          `json:"educacion" bson:"educacion"`
	CreatedAt  *time.Time      `json:"created_at,omitempty" bson:"created_at,omitempty"`
}

// ProfileCourse is the short course entry embedded in a profile.
type ProfileCourse struct {
	Code     string  `json:"codigo" bson:"codigo"`
	Progress float64 `json:"progreso" bson:"progreso"`
}

func (p *Profile) Validate() error {
	return firstError(
		requireString("nombre", p.Name),
		requireEmail("email", p.Email),
	)
}

// Course is a training course in the catalogue.
type Course struct {
	Code          string   `json:"codigo" bson:"codigo"`
	Name          string   `json:"nombre" bson:"nombre"`
	Description   string   `json:"descripcion" bson:"descripcion"`
	DurationHours int      `json:"duracion_horas" bson:"duracion_horas"`
	Category      string   `json:"categoria" bson:"categoria"`
	Level         string   `json:"nivel" bson:"nivel"`
	Resources     []string `json:"recursos" bson:"recursos"`
	Instructor    string   `json:"instructor" bson:"instructor"`
	Skills        []string `json:"skills" bson:"skills"`
}

func (c *Course) Validate() error {
	return firstError(
		requireString("codigo", c.Code),
		requireString("nombre", c.Name),
		requireString("descripcion", c.Description),
		requireString("categoria", c.Category),
		requireString("nivel", c.Level),
		requireString("instructor", c.Instructor),
		checkRange("duracion_horas", float64(c.DurationHours), 0, 1e6),
	)
}

// CourseSummary is the subset of a course attached to enrollment listings.
type CourseSummary struct {
	Name          string `json:"nombre" bson:"nombre"`
	DurationHours int    `json:"duracion_horas" bson:"duracion_horas"`
	Category      string `json:"categoria" bson:"categoria"`
	Level         string `json:"nivel" bson:"nivel"`
}

func (c *Course) Summary() CourseSummary {
	return CourseSummary{
		Name:          c.Name,
		DurationHours: c.DurationHours,
		Category:      c.Category,
		Level:         c.Level,
	}
}

// Enrollment links a candidate to a course and tracks progress and exams.
type Enrollment struct {
	ID             string     `json:"id,omitempty" bson:"_id,omitempty"`
	CandidateEmail string     `json:"candidato_email" bson:"candidato_email"`
	CourseCode     string     `json:"curso_codigo" bson:"curso_codigo"`
	EnrolledAt     time.Time  `json:"fecha_inscripcion" bson:"fecha_inscripcion"`
	Progress       float64    `json:"progreso" bson:"progreso"`
	Grade          *float64   `json:"calificacion" bson:"calificacion,omitempty"`
	Completed      bool       `json:"completado" bson:"completado"`
	ExamGrade      *int       `json:"nota_examen" bson:"nota_examen,omitempty"`
	ExamDate       *time.Time `json:"fecha_examen" bson:"fecha_examen,omitempty"`
	Passed         *bool      `json:"aprobado,omitempty" bson:"aprobado,omitempty"`
}

func (e *Enrollment) Validate() error {
	err := firstError(
		requireEmail("candidato_email", e.CandidateEmail),
		requireString("curso_codigo", e.CourseCode),
		checkRange("progreso", e.Progress, 0, 1),
	)
	if err != nil {
		return err
	}
	if e.Grade != nil {
		return checkRange("calificacion", *e.Grade, 0, 100)
	}
	return nil
}

// PreviousExamGrade returns the last exam grade clamped to [0, ExamMaxGrade],
// or zero when no exam was taken.
func (e *Enrollment) PreviousExamGrade() int {
	if e.ExamGrade == nil {
		return 0
	}
	return min(max(*e.ExamGrade, 0), ExamMaxGrade)
}

// Company is an employer registered on the platform.
type Company struct {
	Name        string `json:"nombre" bson:"nombre"`
	CUIT        string `json:"cuit" bson:"cuit"`
	Sector      string `json:"sector" bson:"sector"`
	Size        string `json:"tamaño" bson:"tamaño"`
	Description string `json:"descripcion" bson:"descripcion"`
	LogoURL     string `json:"logo_url,omitempty" bson:"logo_url,omitempty"`
}

func (c *Company) Validate() error {
	return firstError(
		requireString("nombre", c.Name),
		requireString("cuit", c.CUIT),
		requireString("sector", c.Sector),
		requireString("tamaño", c.Size),
		requireString("descripcion", c.Description),
	)
}

// Offer is a job posting published by a company user.
type Offer struct {
	ID             string    `json:"id,omitempty" bson:"_id,omitempty"`
	Title          string    `json:"titulo" bson:"titulo"`
	Company        string    `json:"empresa" bson:"empresa"`
	Description    string    `json:"descripcion" bson:"descripcion"`
	Requirements   string    `json:"requisitos,omitempty" bson:"requisitos,omitempty"`
	RequiredSkills []string  `json:"skills_requeridos" bson:"skills_requeridos"`
	Salary         *float64  `json:"salario,omitempty" bson:"salario,omitempty"`
	Location       string    `json:"ubicacion,omitempty" bson:"ubicacion,omitempty"`
	Modality       string    `json:"modalidad" bson:"modalidad"`
	ContractType   string    `json:"tipo_contrato" bson:"tipo_contrato"`
	Status         string    `json:"estado" bson:"estado"`
	PublishedAt    time.Time `json:"fecha_publicacion" bson:"fecha_publicacion"`
	MinSeniority   string    `json:"seniority_minimo,omitempty" bson:"seniority_minimo,omitempty"`
}

// OfferEditableFields lists the offer fields an owner may change.
var OfferEditableFields = []string{
	"titulo", "descripcion", "requisitos", "salario", "ubicacion",
	"modalidad", "tipo_contrato", "estado",
}

func (o *Offer) Validate() error {
	return firstError(
		requireString("titulo", o.Title),
		requireString("empresa", o.Company),
		requireString("descripcion", o.Description),
	)
}

// ApplyDefaults fills the optional fields the way a fresh posting expects.
func (o *Offer) ApplyDefaults(now time.Time) {
	if o.Modality == "" {
		o.Modality = DefaultModality
	}
	if o.ContractType == "" {
		o.ContractType = DefaultContract
	}
	if o.Status == "" {
		o.Status = OfferOpen
	}
	if o.PublishedAt.IsZero() {
		o.PublishedAt = now
	}
	o.RequiredSkills = RequirementsToSkills(o.Requirements)
}

// RequirementsToSkills turns the comma separated requirements into skills.
func RequirementsToSkills(requirements string) []string {
	return utils.SplitCSV(requirements)
}

// OfferSummary is the subset of an offer attached to application listings.
type OfferSummary struct {
	Title    string `json:"titulo"`
	Company  string `json:"empresa,omitempty"`
	Location string `json:"ubicacion,omitempty"`
	Modality string `json:"modalidad,omitempty"`
}

// OfferNotFoundTitle is shown when an application points at a missing offer.
const OfferNotFoundTitle = "Oferta no encontrada"

func (o *Offer) Summary() OfferSummary {
	if o == nil {
		return OfferSummary{Title: OfferNotFoundTitle}
	}
	return OfferSummary{
		Title:    o.Title,
		Company:  o.Company,
		Location: o.Location,
		Modality: o.Modality,
	}
}

// ConnectionRequest asks another user to join the sender's network.
type ConnectionRequest struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty"`
	Sender      string    `json:"remitente_email" bson:"remitente_email"`
	Recipient   string    `json:"destinatario_email" bson:"destinatario_email"`
	Message     string    `json:"mensaje,omitempty" bson:"mensaje,omitempty"`
	Status      string    `json:"estado" bson:"estado"`
	RequestedAt time.Time `json:"fecha_solicitud" bson:"fecha_solicitud"`
}

func (r *ConnectionRequest) Validate() error {
	return firstError(
		requireEmail("remitente_email", r.Sender),
		requireEmail("destinatario_email", r.Recipient),
	)
}

// Counterpart returns the other side of the request relative to email.
func (r *ConnectionRequest) Counterpart(email string) string {
	if r.Sender == email {
		return r.Recipient
	}
	return r.Sender
}

// ChangeEvent is an audit record written to the change history collection.
type ChangeEvent struct {
	Type           string    `json:"tipo" bson:"tipo"`
	CandidateEmail string    `json:"candidato_email" bson:"candidato_email"`
	OfferID        string    `json:"oferta_id" bson:"oferta_id"`
	ApplicationID  string    `json:"aplicacion_id" bson:"aplicacion_id"`
	Timestamp      time.Time `json:"timestamp" bson:"timestamp"`
}
