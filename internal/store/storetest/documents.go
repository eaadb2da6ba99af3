package storetest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/talentum-plus/talentum/internal/models"
	"github.com/talentum-plus/talentum/internal/store"
	"github.com/talentum-plus/talentum/internal/utils"
)

// Documents is an in-memory store.Documents.
type Documents struct {
	Failures

	mu           sync.Mutex
	profiles     []*models.Profile
	legacySkills map[string]string
	courses      []*models.Course
	enrollments  []*models.Enrollment
	companies    []*models.Company
	offers       []*models.Offer
	requests     []*models.ConnectionRequest
	events       []*models.ChangeEvent
}

var _ store.Documents = (*Documents)(nil)

func NewDocuments() *Documents {
	return &Documents{legacySkills: make(map[string]string)}
}

func newObjectID() string {
	return primitive.NewObjectID().Hex()
}

func checkObjectID(id string) error {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return fmt.Errorf("%q: %w", id, store.ErrInvalidID)
	}
	return nil
}

func notFound(kind, key string) error {
	return fmt.Errorf("%s %s: %w", kind, key, store.ErrNotFound)
}

// SetLegacySkills stores skills of email as a comma separated string, the way
// old profile documents did.
func (d *Documents) SetLegacySkills(email, csv string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.legacySkills[email] = csv
}

// ChangeEvents returns the recorded audit events.
func (d *Documents) ChangeEvents() []models.ChangeEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]models.ChangeEvent, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, *e)
	}
	return out
}

func (d *Documents) InsertProfile(_ context.Context, p *models.Profile) (string, error) {
	if err := d.call("InsertProfile"); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.profile(p.Email) != nil {
		return "", fmt.Errorf("profile %s: %w", p.Email, store.ErrDuplicate)
	}
	if p.Skills == nil {
		p.Skills = models.SkillList{}
	}
	if p.CreatedAt == nil {
		now := Clock()
		p.CreatedAt = &now
	}
	p.ID = newObjectID()
	cp := *p
	d.profiles = append(d.profiles, &cp)
	return p.ID, nil
}

func (d *Documents) profile(email string) *models.Profile {
	for _, p := range d.profiles {
		if p.Email == email {
			return p
		}
	}
	return nil
}

func (d *Documents) GetProfile(_ context.Context, email string) (*models.Profile, error) {
	if err := d.call("GetProfile"); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	p := d.profile(email)
	if p == nil {
		return nil, notFound("profile", email)
	}
	cp := *p
	if legacy, ok := d.legacySkills[email]; ok {
		cp.Skills = utils.SplitCSV(legacy)
	}
	return &cp, nil
}

// UpdateProfile merges changes through the profile's JSON field names.
func (d *Documents) UpdateProfile(_ context.Context, email string, changes map[string]any) error {
	if err := d.call("UpdateProfile"); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	p := d.profile(email)
	if p == nil {
		return notFound("profile", email)
	}

	set := map[string]any{}
	for k, v := range changes {
		if k == "_id" || k == "id" {
			continue
		}
		set[k] = v
	}
	if err := merge(p, set); err != nil {
		return fmt.Errorf("updating profile %s: %w", email, err)
	}
	if _, ok := changes["skills"]; ok {
		delete(d.legacySkills, email)
	}
	return nil
}

func (d *Documents) ListProfiles(_ context.Context, f store.ProfileFilter) ([]*models.Profile, error) {
	if err := d.call("ListProfiles"); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	out := []*models.Profile{}
	for _, p := range d.profiles {
		if f.Seniority != "" && p.Seniority != f.Seniority {
			continue
		}
		if f.Skill != "" && !containsFold(p.Skills, f.Skill) {
			continue
		}
		cp := *p
		out = append(out, &cp)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func containsFold(skills []string, needle string) bool {
	needle = strings.ToLower(needle)
	for _, s := range skills {
		if strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return false
}

func (d *Documents) ProfileSkills(_ context.Context, email string) ([]string, error) {
	if err := d.call("ProfileSkills"); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	p := d.profile(email)
	if p == nil {
		return nil, notFound("profile", email)
	}
	if legacy, ok := d.legacySkills[email]; ok {
		p.Skills = utils.SplitCSV(legacy)
		delete(d.legacySkills, email)
	}
	return append([]string{}, p.Skills...), nil
}

func (d *Documents) upsertProfile(email, name string) (*models.Profile, bool) {
	if p := d.profile(email); p != nil {
		return p, false
	}
	now := Clock()
	p := &models.Profile{ID: newObjectID(), Email: email, Name: name, Skills: models.SkillList{}, CreatedAt: &now}
	d.profiles = append(d.profiles, p)
	return p, true
}

func (d *Documents) AddProfileSkills(_ context.Context, email, name string, skills []string) (bool, error) {
	if err := d.call("AddProfileSkills"); err != nil {
		return false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	p, created := d.upsertProfile(email, name)
	for _, s := range skills {
		if !p.Skills.Contains(s) {
			p.Skills = append(p.Skills, s)
		}
	}
	return created, nil
}

func (d *Documents) RemoveProfileSkill(_ context.Context, email, skill string) (bool, error) {
	if err := d.call("RemoveProfileSkill"); err != nil {
		return false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	p := d.profile(email)
	if p == nil {
		return false, nil
	}
	kept := models.SkillList{}
	for _, s := range p.Skills {
		if s != skill {
			kept = append(kept, s)
		}
	}
	removed := len(kept) != len(p.Skills)
	p.Skills = kept
	return removed, nil
}

func (d *Documents) SetProfileSeniority(_ context.Context, email, name, seniority string) (bool, error) {
	if err := d.call("SetProfileSeniority"); err != nil {
		return false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	p, created := d.upsertProfile(email, name)
	p.Seniority = seniority
	return created, nil
}

func (d *Documents) InsertCourse(_ context.Context, c *models.Course) (string, error) {
	if err := d.call("InsertCourse"); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, existing := range d.courses {
		if existing.Code == c.Code {
			return "", fmt.Errorf("course %s: %w", c.Code, store.ErrDuplicate)
		}
	}
	cp := *c
	d.courses = append(d.courses, &cp)
	return newObjectID(), nil
}

func (d *Documents) GetCourse(_ context.Context, code string) (*models.Course, error) {
	if err := d.call("GetCourse"); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, c := range d.courses {
		if c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, notFound("course", code)
}

func (d *Documents) ListCourses(_ context.Context, f store.CourseFilter) ([]*models.Course, error) {
	if err := d.call("ListCourses"); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	out := []*models.Course{}
	for _, c := range d.courses {
		if f.Category != "" && c.Category != f.Category {
			continue
		}
		if f.Level != "" && c.Level != f.Level {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (d *Documents) InsertEnrollment(_ context.Context, e *models.Enrollment) (string, error) {
	if err := d.call("InsertEnrollment"); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, existing := range d.enrollments {
		if existing.CandidateEmail == e.CandidateEmail && existing.CourseCode == e.CourseCode {
			return "", fmt.Errorf("enrollment: %w", store.ErrDuplicate)
		}
	}
	if e.EnrolledAt.IsZero() {
		e.EnrolledAt = Clock()
	}
	e.ID = newObjectID()
	cp := *e
	d.enrollments = append(d.enrollments, &cp)
	return e.ID, nil
}

func (d *Documents) enrollment(id string) (int, error) {
	if err := checkObjectID(id); err != nil {
		return -1, err
	}
	for i, e := range d.enrollments {
		if e.ID == id {
			return i, nil
		}
	}
	return -1, notFound("enrollment", id)
}

func (d *Documents) GetEnrollment(_ context.Context, id string) (*models.Enrollment, error) {
	if err := d.call("GetEnrollment"); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	i, err := d.enrollment(id)
	if err != nil {
		return nil, err
	}
	cp := *d.enrollments[i]
	return &cp, nil
}

func (d *Documents) FindEnrollment(_ context.Context, email, courseCode string) (*models.Enrollment, error) {
	if err := d.call("FindEnrollment"); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, e := range d.enrollments {
		if e.CandidateEmail == email && e.CourseCode == courseCode {
			cp := *e
			return &cp, nil
		}
	}
	return nil, notFound("enrollment", email+"/"+courseCode)
}

func (d *Documents) ListEnrollments(_ context.Context, email string) ([]*models.Enrollment, error) {
	if err := d.call("ListEnrollments"); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	out := []*models.Enrollment{}
	for _, e := range d.enrollments {
		if e.CandidateEmail == email {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (d *Documents) UpdateEnrollment(_ context.Context, id string, set map[string]any) (*models.Enrollment, error) {
	if err := d.call("UpdateEnrollment"); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	i, err := d.enrollment(id)
	if err != nil {
		return nil, err
	}
	e := d.enrollments[i]
	if err := merge(e, set); err != nil {
		return nil, fmt.Errorf("updating enrollment %s: %w", id, err)
	}
	e.ID = id
	cp := *e
	return &cp, nil
}

func (d *Documents) DeleteEnrollment(_ context.Context, id string) (*models.Enrollment, error) {
	if err := d.call("DeleteEnrollment"); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	i, err := d.enrollment(id)
	if err != nil {
		return nil, err
	}
	removed := d.enrollments[i]
	d.enrollments = append(d.enrollments[:i], d.enrollments[i+1:]...)
	return removed, nil
}

func (d *Documents) InsertCompany(_ context.Context, c *models.Company) (string, error) {
	if err := d.call("InsertCompany"); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, existing := range d.companies {
		if existing.CUIT == c.CUIT {
			return "", fmt.Errorf("company %s: %w", c.CUIT, store.ErrDuplicate)
		}
	}
	cp := *c
	d.companies = append(d.companies, &cp)
	return newObjectID(), nil
}

func (d *Documents) ListCompanies(context.Context) ([]*models.Company, error) {
	if err := d.call("ListCompanies"); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	out := []*models.Company{}
	for _, c := range d.companies {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (d *Documents) InsertOffer(_ context.Context, o *models.Offer) (string, error) {
	if err := d.call("InsertOffer"); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if o.RequiredSkills == nil {
		o.RequiredSkills = []string{}
	}
	o.ID = newObjectID()
	cp := *o
	d.offers = append(d.offers, &cp)
	return o.ID, nil
}

func (d *Documents) offer(id string) (*models.Offer, error) {
	if err := checkObjectID(id); err != nil {
		return nil, err
	}
	for _, o := range d.offers {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, notFound("offer", id)
}

func (d *Documents) GetOffer(_ context.Context, id string) (*models.Offer, error) {
	if err := d.call("GetOffer"); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	o, err := d.offer(id)
	if err != nil {
		return nil, err
	}
	cp := *o
	return &cp, nil
}

func (d *Documents) ListOffers(_ context.Context, f store.OfferFilter) ([]*models.Offer, error) {
	if err := d.call("ListOffers"); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	out := []*models.Offer{}
	for _, o := range d.offers {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.Modality != "" && o.Modality != f.Modality {
			continue
		}
		if f.Location != "" && o.Location != f.Location {
			continue
		}
		cp := *o
		out = append(out, &cp)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (d *Documents) UpdateOffer(_ context.Context, id string, set map[string]any) (*models.Offer, error) {
	if err := d.call("UpdateOffer"); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	o, err := d.offer(id)
	if err != nil {
		return nil, err
	}
	if err := merge(o, set); err != nil {
		return nil, fmt.Errorf("updating offer %s: %w", id, err)
	}
	o.ID = id
	cp := *o
	return &cp, nil
}

func (d *Documents) InsertConnectionRequest(_ context.Context, r *models.ConnectionRequest) (string, error) {
	if err := d.call("InsertConnectionRequest"); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if r.Status == "" {
		r.Status = models.RequestPending
	}
	if r.RequestedAt.IsZero() {
		r.RequestedAt = Clock()
	}
	r.ID = newObjectID()
	cp := *r
	d.requests = append(d.requests, &cp)
	return r.ID, nil
}

func (d *Documents) request(id string) (*models.ConnectionRequest, error) {
	if err := checkObjectID(id); err != nil {
		return nil, err
	}
	for _, r := range d.requests {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, notFound("connection request", id)
}

func (d *Documents) GetConnectionRequest(_ context.Context, id string) (*models.ConnectionRequest, error) {
	if err := d.call("GetConnectionRequest"); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	r, err := d.request(id)
	if err != nil {
		return nil, err
	}
	cp := *r
	return &cp, nil
}

func (d *Documents) FindConnection(_ context.Context, a, b, status string) (*models.ConnectionRequest, error) {
	if err := d.call("FindConnection"); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, r := range d.requests {
		if r.Status != status {
			continue
		}
		if (r.Sender == a && r.Recipient == b) || (r.Sender == b && r.Recipient == a) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, notFound("connection", a+"/"+b)
}

func (d *Documents) ListConnectionRequests(_ context.Context, f store.ConnectionFilter) ([]*models.ConnectionRequest, error) {
	if err := d.call("ListConnectionRequests"); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	out := []*models.ConnectionRequest{}
	for _, r := range d.requests {
		if f.Sender != "" && r.Sender != f.Sender {
			continue
		}
		if f.Recipient != "" && r.Recipient != f.Recipient {
			continue
		}
		if f.Participant != "" && r.Sender != f.Participant && r.Recipient != f.Participant {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (d *Documents) SetConnectionStatus(_ context.Context, id, status string) error {
	if err := d.call("SetConnectionStatus"); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	r, err := d.request(id)
	if err != nil {
		return err
	}
	r.Status = status
	return nil
}

func (d *Documents) InsertChangeEvent(_ context.Context, e *models.ChangeEvent) error {
	if err := d.call("InsertChangeEvent"); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if e.Timestamp.IsZero() {
		e.Timestamp = Clock()
	}
	cp := *e
	d.events = append(d.events, &cp)
	return nil
}

func (d *Documents) EnsureIndexes(context.Context) error {
	return d.call("EnsureIndexes")
}

// merge applies set to v through its JSON field names.
func merge(v any, set map[string]any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	doc := map[string]any{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	for k, val := range set {
		doc[k] = val
	}
	raw, err = json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
