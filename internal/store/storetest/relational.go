package storetest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/talentum-plus/talentum/internal/models"
	"github.com/talentum-plus/talentum/internal/store"
)

// Relational is an in-memory store.Relational.
type Relational struct {
	Failures

	mu           sync.Mutex
	nextID       models.ID
	users        []*models.User
	candidates   []*models.CandidateRecord
	processes    []*models.Process
	applications []*models.Application
	interviews   []*models.Interview
	evaluations  []*models.Evaluation
}

var _ store.Relational = (*Relational)(nil)

func NewRelational() *Relational {
	return &Relational{}
}

func (r *Relational) id() models.ID {
	r.nextID++
	return r.nextID
}

func (r *Relational) CreateUser(_ context.Context, u *models.User) error {
	if err := r.call("CreateUser"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == u.Email {
			return fmt.Errorf("user %s: %w", u.Email, store.ErrDuplicate)
		}
	}
	u.ID = r.id()
	u.CreatedAt = Clock()
	cp := *u
	r.users = append(r.users, &cp)
	return nil
}

func (r *Relational) user(email string) *models.User {
	for _, u := range r.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (r *Relational) GetUser(_ context.Context, email string) (*models.User, error) {
	if err := r.call("GetUser"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.user(email)
	if u == nil {
		return nil, notFound("user", email)
	}
	cp := *u
	return &cp, nil
}

func (r *Relational) SetPassword(_ context.Context, email, hash string) error {
	if err := r.call("SetPassword"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.user(email)
	if u == nil {
		return notFound("user", email)
	}
	u.PasswordHash = hash
	return nil
}

func (r *Relational) SearchUsers(_ context.Context, query, exclude string, limit int) ([]*models.User, error) {
	if err := r.call("SearchUsers"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	query = strings.ToLower(query)
	out := []*models.User{}
	for _, u := range r.users {
		if u.Email == exclude {
			continue
		}
		if !strings.Contains(strings.ToLower(u.Name), query) && !strings.Contains(strings.ToLower(u.Email), query) {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *Relational) ListUsersByRole(_ context.Context, role string, limit int) ([]*models.User, error) {
	if err := r.call("ListUsersByRole"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []*models.User{}
	for _, u := range r.users {
		if u.Role != role {
			continue
		}
		cp := *u
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *Relational) UpsertCandidate(_ context.Context, c *models.CandidateRecord) error {
	if err := r.call("UpsertCandidate"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.candidates {
		if existing.Email == c.Email {
			existing.Name = c.Name
			existing.Seniority = c.Seniority
			c.ID = existing.ID
			return nil
		}
	}
	c.ID = r.id()
	cp := *c
	r.candidates = append(r.candidates, &cp)
	return nil
}

func (r *Relational) GetCandidate(_ context.Context, email string) (*models.CandidateRecord, error) {
	if err := r.call("GetCandidate"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.candidates {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, notFound("candidate", email)
}

func (r *Relational) CreateProcess(_ context.Context, p *models.Process) error {
	if err := r.call("CreateProcess"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	p.ID = r.id()
	p.UpdatedAt = Clock().Add(timeStep(len(r.processes)))
	cp := *p
	r.processes = append(r.processes, &cp)
	return nil
}

func (r *Relational) ListProcesses(_ context.Context, candidateID string) ([]*models.Process, error) {
	if err := r.call("ListProcesses"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []*models.Process{}
	for i := len(r.processes) - 1; i >= 0; i-- {
		p := r.processes[i]
		if candidateID != "" && p.CandidateID != candidateID {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *Relational) CreateApplication(_ context.Context, a *models.Application) error {
	if err := r.call("CreateApplication"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.applications {
		if existing.CandidateEmail == a.CandidateEmail && existing.OfferID == a.OfferID {
			return fmt.Errorf("application: %w", store.ErrDuplicate)
		}
	}
	if a.Status == "" {
		a.Status = models.ApplicationPending
	}
	a.ID = r.id()
	a.AppliedAt = Clock().Add(timeStep(len(r.applications)))
	cp := *a
	r.applications = append(r.applications, &cp)
	return nil
}

func (r *Relational) FindApplication(_ context.Context, email, offerID string) (*models.Application, error) {
	if err := r.call("FindApplication"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.applications {
		if a.CandidateEmail == email && a.OfferID == offerID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, notFound("application", email+"/"+offerID)
}

func (r *Relational) ListApplications(_ context.Context, email string) ([]*models.Application, error) {
	if err := r.call("ListApplications"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []*models.Application{}
	for i := len(r.applications) - 1; i >= 0; i-- {
		if a := r.applications[i]; a.CandidateEmail == email {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *Relational) ListApplicantEmails(_ context.Context, offerID string) ([]string, error) {
	if err := r.call("ListApplicantEmails"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []string{}
	for _, a := range r.applications {
		if a.OfferID == offerID {
			out = append(out, a.CandidateEmail)
		}
	}
	return out, nil
}

func (r *Relational) process(id models.ID) *models.Process {
	for _, p := range r.processes {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Relational) position(processID models.ID) string {
	if p := r.process(processID); p != nil {
		return p.Position
	}
	return ""
}

// candidateProcess reports whether the process belongs to c, keyed either by
// e-mail or by candidate id.
func (r *Relational) candidateProcess(processID models.ID, c *models.CandidateRecord) bool {
	p := r.process(processID)
	return p != nil && (p.CandidateID == c.Email || p.CandidateID == c.ID.String())
}

func (r *Relational) CreateInterview(_ context.Context, i *models.Interview) error {
	if err := r.call("CreateInterview"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.process(i.ProcessID) == nil {
		return notFound("process", i.ProcessID.String())
	}
	if i.Status == "" {
		i.Status = models.InterviewScheduled
	}
	i.ID = r.id()
	cp := *i
	r.interviews = append(r.interviews, &cp)
	return nil
}

func (r *Relational) GetInterview(_ context.Context, id models.ID) (*models.Interview, error) {
	if err := r.call("GetInterview"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, i := range r.interviews {
		if i.ID == id {
			cp := *i
			cp.Position = r.position(i.ProcessID)
			return &cp, nil
		}
	}
	return nil, notFound("interview", id.String())
}

func (r *Relational) ListInterviewsByProcess(_ context.Context, processID models.ID) ([]*models.Interview, error) {
	if err := r.call("ListInterviewsByProcess"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []*models.Interview{}
	for _, i := range r.interviews {
		if i.ProcessID == processID {
			cp := *i
			cp.Position = r.position(i.ProcessID)
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *Relational) ListInterviewsByCandidate(_ context.Context, c *models.CandidateRecord) ([]*models.Interview, error) {
	if err := r.call("ListInterviewsByCandidate"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []*models.Interview{}
	for _, i := range r.interviews {
		if r.candidateProcess(i.ProcessID, c) {
			cp := *i
			cp.Position = r.position(i.ProcessID)
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *Relational) UpdateInterview(_ context.Context, id models.ID, u *models.InterviewUpdate) error {
	if err := r.call("UpdateInterview"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, i := range r.interviews {
		if i.ID != id {
			continue
		}
		if u.Status != nil {
			i.Status = *u.Status
		}
		if u.Score != nil {
			score := *u.Score
			i.Score = &score
		}
		if u.Notes != nil {
			i.Notes = *u.Notes
		}
		return nil
	}
	return notFound("interview", id.String())
}

func (r *Relational) CreateEvaluation(_ context.Context, e *models.Evaluation) error {
	if err := r.call("CreateEvaluation"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.process(e.ProcessID) == nil {
		return notFound("process", e.ProcessID.String())
	}
	e.ID = r.id()
	cp := *e
	r.evaluations = append(r.evaluations, &cp)
	return nil
}

func (r *Relational) GetEvaluation(_ context.Context, id models.ID) (*models.Evaluation, error) {
	if err := r.call("GetEvaluation"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.evaluations {
		if e.ID == id {
			cp := *e
			cp.Position = r.position(e.ProcessID)
			return &cp, nil
		}
	}
	return nil, notFound("evaluation", id.String())
}

func (r *Relational) ListEvaluationsByProcess(_ context.Context, processID models.ID) ([]*models.Evaluation, error) {
	if err := r.call("ListEvaluationsByProcess"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []*models.Evaluation{}
	for _, e := range r.evaluations {
		if e.ProcessID == processID {
			cp := *e
			cp.Position = r.position(e.ProcessID)
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *Relational) ListEvaluationsByCandidate(_ context.Context, c *models.CandidateRecord) ([]*models.Evaluation, error) {
	if err := r.call("ListEvaluationsByCandidate"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []*models.Evaluation{}
	for _, e := range r.evaluations {
		if r.candidateProcess(e.ProcessID, c) {
			cp := *e
			cp.Position = r.position(e.ProcessID)
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *Relational) UpdateEvaluation(_ context.Context, id models.ID, u *models.EvaluationUpdate) error {
	if err := r.call("UpdateEvaluation"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.evaluations {
		if e.ID == id {
			e.Result = *u.Result
			e.Score = *u.Score
			e.Feedback = *u.Feedback
			return nil
		}
	}
	return notFound("evaluation", id.String())
}

func (r *Relational) EnsureSchema(context.Context) error {
	return r.call("EnsureSchema")
}
