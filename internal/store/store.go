// Package store declares the persistence contracts of the service. Driver
// packages under it implement one contract each and never leak driver types.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/talentum-plus/talentum/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
	ErrInvalidID = errors.New("invalid id")
)

// Names of the backing stores, used in logs, metrics and health reports.
const (
	NameDocuments  = "mongodb"
	NameRelational = "postgres"
	NameGraph      = "neo4j"
	NameCache      = "redis"
)

// Pinger is implemented by every store.
type Pinger interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// ProfileFilter narrows profile listings. Skill matches case-insensitively.
type ProfileFilter struct {
	Skill     string
	Seniority string
	Limit     int
}

// CourseFilter narrows course listings.
type CourseFilter struct {
	Category string
	Level    string
}

// OfferFilter narrows offer listings. Empty fields are not filtered on.
type OfferFilter struct {
	Modality string
	Location string
	Status   string
	Limit    int
}

// ConnectionFilter narrows connection requests. Participant matches either side.
type ConnectionFilter struct {
	Sender      string
	Recipient   string
	Participant string
	Status      string
}

// Documents is the primary document store.
type Documents interface {
	Pinger

	InsertProfile(ctx context.Context, p *models.Profile) (string, error)
	GetProfile(ctx context.Context, email string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, email string, changes map[string]any) error
	ListProfiles(ctx context.Context, f ProfileFilter) ([]*models.Profile, error)
	// ProfileSkills returns the stored skills, rewriting a legacy comma
	// separated value as an array.
	ProfileSkills(ctx context.Context, email string) ([]string, error)
	// AddProfileSkills adds skills to a profile, creating a bare profile named
	// name when none exists. It reports whether the profile was created.
	AddProfileSkills(ctx context.Context, email, name string, skills []string) (bool, error)
	RemoveProfileSkill(ctx context.Context, email, skill string) (bool, error)
	// SetProfileSeniority sets the seniority, creating a bare profile named
	// name when none exists. It reports whether the profile was created.
	SetProfileSeniority(ctx context.Context, email, name, seniority string) (bool, error)

	InsertCourse(ctx context.Context, c *models.Course) (string, error)
	GetCourse(ctx context.Context, code string) (*models.Course, error)
	ListCourses(ctx context.Context, f CourseFilter) ([]*models.Course, error)

	InsertEnrollment(ctx context.Context, e *models.Enrollment) (string, error)
	GetEnrollment(ctx context.Context, id string) (*models.Enrollment, error)
	FindEnrollment(ctx context.Context, email, courseCode string) (*models.Enrollment, error)
	ListEnrollments(ctx context.Context, email string) ([]*models.Enrollment, error)
	// UpdateEnrollment applies set and returns the updated enrollment.
	UpdateEnrollment(ctx context.Context, id string, set map[string]any) (*models.Enrollment, error)
	// DeleteEnrollment removes the enrollment and returns what was removed.
	DeleteEnrollment(ctx context.Context, id string) (*models.Enrollment, error)

	InsertCompany(ctx context.Context, c *models.Company) (string, error)
	ListCompanies(ctx context.Context) ([]*models.Company, error)

	InsertOffer(ctx context.Context, o *models.Offer) (string, error)
	GetOffer(ctx context.Context, id string) (*models.Offer, error)
	ListOffers(ctx context.Context, f OfferFilter) ([]*models.Offer, error)
	UpdateOffer(ctx context.Context, id string, set map[string]any) (*models.Offer, error)

	InsertConnectionRequest(ctx context.Context, r *models.ConnectionRequest) (string, error)
	GetConnectionRequest(ctx context.Context, id string) (*models.ConnectionRequest, error)
	// FindConnection looks for a request between a and b in either direction.
	FindConnection(ctx context.Context, a, b, status string) (*models.ConnectionRequest, error)
	ListConnectionRequests(ctx context.Context, f ConnectionFilter) ([]*models.ConnectionRequest, error)
	SetConnectionStatus(ctx context.Context, id, status string) error

	InsertChangeEvent(ctx context.Context, e *models.ChangeEvent) error

	EnsureIndexes(ctx context.Context) error
}

// Relational is the relational store for accounts and selection processes.
type Relational interface {
	Pinger

	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, email string) (*models.User, error)
	SetPassword(ctx context.Context, email, hash string) error
	// SearchUsers matches name or e-mail case-insensitively, skipping exclude.
	SearchUsers(ctx context.Context, query, exclude string, limit int) ([]*models.User, error)
	ListUsersByRole(ctx context.Context, role string, limit int) ([]*models.User, error)

	UpsertCandidate(ctx context.Context, c *models.CandidateRecord) error
	GetCandidate(ctx context.Context, email string) (*models.CandidateRecord, error)

	CreateProcess(ctx context.Context, p *models.Process) error
	// ListProcesses returns processes newest first; an empty candidateID lists all.
	ListProcesses(ctx context.Context, candidateID string) ([]*models.Process, error)

	CreateApplication(ctx context.Context, a *models.Application) error
	FindApplication(ctx context.Context, email, offerID string) (*models.Application, error)
	ListApplications(ctx context.Context, email string) ([]*models.Application, error)
	ListApplicantEmails(ctx context.Context, offerID string) ([]string, error)

	CreateInterview(ctx context.Context, i *models.Interview) error
	GetInterview(ctx context.Context, id models.ID) (*models.Interview, error)
	ListInterviewsByProcess(ctx context.Context, processID models.ID) ([]*models.Interview, error)
	ListInterviewsByCandidate(ctx context.Context, c *models.CandidateRecord) ([]*models.Interview, error)
	UpdateInterview(ctx context.Context, id models.ID, u *models.InterviewUpdate) error

	CreateEvaluation(ctx context.Context, e *models.Evaluation) error
	GetEvaluation(ctx context.Context, id models.ID) (*models.Evaluation, error)
	ListEvaluationsByProcess(ctx context.Context, processID models.ID) ([]*models.Evaluation, error)
	ListEvaluationsByCandidate(ctx context.Context, c *models.CandidateRecord) ([]*models.Evaluation, error)
	UpdateEvaluation(ctx context.Context, id models.ID, u *models.EvaluationUpdate) error

	EnsureSchema(ctx context.Context) error
}

// MatchQuery describes a skill overlap search in the graph.
type MatchQuery struct {
	Skills []string
	// MinMatch is the minimum number of shared skills; values below one mean one.
	MinMatch int
	Limit    int
	// ActiveOnly keeps candidates flagged active.
	ActiveOnly bool
	// IgnoreCase compares skill names case-insensitively.
	IgnoreCase bool
}

// Graph is the skills and relationships graph.
type Graph interface {
	Pinger

	MergeCandidate(ctx context.Context, email, name, seniority string) error
	SetCandidateSeniority(ctx context.Context, email, seniority string) error
	// EnsureCandidate creates the candidate node when missing and names it
	// unless it already has a name.
	EnsureCandidate(ctx context.Context, email, name string) error
	LinkSkills(ctx context.Context, email string, skills []string) error
	ReplaceSkills(ctx context.Context, email string, skills []string) error
	UnlinkSkill(ctx context.Context, email, skill string) (int, error)
	CandidateSkills(ctx context.Context, email string) ([]string, error)

	MatchCandidates(ctx context.Context, q MatchQuery) ([]models.SkillMatch, error)
	Recommendations(ctx context.Context, email string, limit int) ([]models.Recommendation, error)

	LinkProcess(ctx context.Context, candidateID, position, status string) error
	LinkMentor(ctx context.Context, candidateID, mentorID, kind string) error

	EnrollCourse(ctx context.Context, email, courseCode, courseName string) error
	SetCourseProgress(ctx context.Context, email, courseCode string, progress float64, completed bool) error
	SetCourseGrade(ctx context.Context, email, courseCode string, grade float64) error
	UnenrollCourse(ctx context.Context, email, courseCode string) error

	MergeCompany(ctx context.Context, c *models.Company) error
	CreateOffer(ctx context.Context, id string, o *models.Offer) error
	LinkApplication(ctx context.Context, email, offerID string) error
	Connect(ctx context.Context, a, b string) error

	EnsureConstraints(ctx context.Context) error
}

// Cache is the key-value cache. Get returns ErrNotFound on a miss.
type Cache interface {
	Pinger

	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) (int, error)
}

// GetJSON decodes a cached JSON value into v. It reports false on a miss.
func GetJSON(ctx context.Context, c Cache, key string, v any) (bool, error) {
	raw, err := c.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decoding cached %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v as JSON under key for ttl.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return c.Set(ctx, key, raw, ttl)
}
