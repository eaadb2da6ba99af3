package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/talentum-plus/talentum/internal/models"
	"github.com/talentum-plus/talentum/internal/store"
)

// GraphCandidate is a Candidato node with its DOMINA skills.
type GraphCandidate struct {
	Name      string
	Seniority string
	Active    bool
	Skills    []string
}

// GraphCourse is an INSCRITO_EN relation, with COMPLETO folded in.
type GraphCourse struct {
	Name      string
	Progress  float64
	Completed bool
	Grade     *float64
}

// Graph is an in-memory store.Graph.
type Graph struct {
	Failures

	mu           sync.Mutex
	candidates   map[string]*GraphCandidate
	roles        map[string][]string
	processes    map[string]string
	mentors      map[string]string
	courses      map[string]*GraphCourse
	companies    map[string]models.Company
	offers       map[string]models.Offer
	applications map[string]bool
	connections  map[string]bool
}

var _ store.Graph = (*Graph)(nil)

func NewGraph() *Graph {
	return &Graph{
		candidates:   make(map[string]*GraphCandidate),
		roles:        make(map[string][]string),
		processes:    make(map[string]string),
		mentors:      make(map[string]string),
		courses:      make(map[string]*GraphCourse),
		companies:    make(map[string]models.Company),
		offers:       make(map[string]models.Offer),
		applications: make(map[string]bool),
		connections:  make(map[string]bool),
	}
}

func pair(a, b string) string {
	return a + "|" + b
}

// Candidate returns a copy of the candidate node.
func (g *Graph) Candidate(email string) (GraphCandidate, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.candidates[email]
	if !ok {
		return GraphCandidate{}, false
	}
	cp := *c
	cp.Skills = append([]string{}, c.Skills...)
	return cp, true
}

// AddRole stores a Rol node requiring skills.
func (g *Graph) AddRole(name string, skills ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.roles[name] = skills
}

// Process returns the POSTULA_A status of candidateID for position.
func (g *Graph) Process(candidateID, position string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.processes[pair(candidateID, position)]
	return s, ok
}

// Mentor returns the MENTOREADO_POR kind between candidate and mentor.
func (g *Graph) Mentor(candidateID, mentorID string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	k, ok := g.mentors[pair(candidateID, mentorID)]
	return k, ok
}

// Course returns the enrollment relation of email in courseCode.
func (g *Graph) Course(email, courseCode string) (GraphCourse, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.courses[pair(email, courseCode)]
	if !ok {
		return GraphCourse{}, false
	}
	return *c, true
}

func (g *Graph) Company(cuit string) (models.Company, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.companies[cuit]
	return c, ok
}

func (g *Graph) Offer(id string) (models.Offer, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	o, ok := g.offers[id]
	return o, ok
}

// Applied reports whether an APLICA_A relation exists.
func (g *Graph) Applied(email, offerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.applications[pair(email, offerID)]
}

// Connected reports whether a and b are connected in either direction.
func (g *Graph) Connected(a, b string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connections[pair(a, b)] || g.connections[pair(b, a)]
}

func (g *Graph) candidate(email string) *GraphCandidate {
	c, ok := g.candidates[email]
	if !ok {
		c = &GraphCandidate{}
		g.candidates[email] = c
	}
	return c
}

func (g *Graph) MergeCandidate(_ context.Context, email, name, seniority string) error {
	if err := g.call("MergeCandidate"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	c := g.candidate(email)
	c.Name = name
	c.Seniority = seniority
	c.Active = true
	return nil
}

func (g *Graph) EnsureCandidate(_ context.Context, email, name string) error {
	if err := g.call("EnsureCandidate"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if c := g.candidate(email); c.Name == "" {
		c.Name = name
	}
	return nil
}

func (g *Graph) SetCandidateSeniority(_ context.Context, email, seniority string) error {
	if err := g.call("SetCandidateSeniority"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if c, ok := g.candidates[email]; ok {
		c.Seniority = seniority
	}
	return nil
}

func (g *Graph) linkSkills(email string, skills []string) {
	c := g.candidate(email)
	for _, s := range skills {
		if !contains(c.Skills, s) {
			c.Skills = append(c.Skills, s)
		}
	}
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func (g *Graph) LinkSkills(_ context.Context, email string, skills []string) error {
	if err := g.call("LinkSkills"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	g.linkSkills(email, skills)
	return nil
}

func (g *Graph) ReplaceSkills(_ context.Context, email string, skills []string) error {
	if err := g.call("ReplaceSkills"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if c, ok := g.candidates[email]; ok {
		c.Skills = nil
	}
	g.linkSkills(email, skills)
	return nil
}

func (g *Graph) UnlinkSkill(_ context.Context, email, skill string) (int, error) {
	if err := g.call("UnlinkSkill"); err != nil {
		return 0, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.candidates[email]
	if !ok {
		return 0, nil
	}
	kept := c.Skills[:0]
	removed := 0
	for _, s := range c.Skills {
		if s == skill {
			removed++
			continue
		}
		kept = append(kept, s)
	}
	c.Skills = kept
	return removed, nil
}

func (g *Graph) CandidateSkills(_ context.Context, email string) ([]string, error) {
	if err := g.call("CandidateSkills"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	out := []string{}
	if c, ok := g.candidates[email]; ok {
		out = append(out, c.Skills...)
	}
	sort.Strings(out)
	return out, nil
}

func (g *Graph) MatchCandidates(_ context.Context, q store.MatchQuery) ([]models.SkillMatch, error) {
	if err := g.call("MatchCandidates"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	minMatch := q.MinMatch
	if minMatch < 1 {
		minMatch = 1
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	out := []models.SkillMatch{}
	for email, c := range g.candidates {
		if q.ActiveOnly && !c.Active {
			continue
		}
		matched := []string{}
		for _, have := range c.Skills {
			for _, want := range q.Skills {
				if have == want || (q.IgnoreCase && strings.EqualFold(have, want)) {
					matched = append(matched, have)
					break
				}
			}
		}
		if len(matched) < minMatch {
			continue
		}
		out = append(out, models.SkillMatch{
			Email:         email,
			Name:          c.Name,
			Seniority:     c.Seniority,
			SkillsMatched: matched,
			MatchCount:    len(matched),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].MatchCount != out[j].MatchCount {
			return out[i].MatchCount > out[j].MatchCount
		}
		return out[i].Email < out[j].Email
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (g *Graph) Recommendations(_ context.Context, email string, limit int) ([]models.Recommendation, error) {
	if err := g.call("Recommendations"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.candidates[email]
	if !ok {
		return []models.Recommendation{}, nil
	}

	required := make(map[string][]string, len(g.roles)+len(g.offers))
	for name, skills := range g.roles {
		required[name] = skills
	}
	for _, o := range g.offers {
		required[o.Title] = o.RequiredSkills
	}

	out := []models.Recommendation{}
	for name, skills := range required {
		n := 0
		for _, s := range skills {
			if contains(c.Skills, s) {
				n++
			}
		}
		if n > 0 {
			out = append(out, models.Recommendation{Role: name, Match: n})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Match != out[j].Match {
			return out[i].Match > out[j].Match
		}
		return out[i].Role < out[j].Role
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (g *Graph) LinkProcess(_ context.Context, candidateID, position, status string) error {
	if err := g.call("LinkProcess"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.candidates[candidateID]; ok {
		g.processes[pair(candidateID, position)] = status
	}
	return nil
}

func (g *Graph) LinkMentor(_ context.Context, candidateID, mentorID, kind string) error {
	if err := g.call("LinkMentor"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.candidates[candidateID]; ok {
		g.mentors[pair(candidateID, mentorID)] = kind
	}
	return nil
}

func (g *Graph) EnrollCourse(_ context.Context, email, courseCode, courseName string) error {
	if err := g.call("EnrollCourse"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.candidates[email]; ok {
		g.courses[pair(email, courseCode)] = &GraphCourse{Name: courseName}
	}
	return nil
}

func (g *Graph) SetCourseProgress(_ context.Context, email, courseCode string, progress float64, completed bool) error {
	if err := g.call("SetCourseProgress"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if c, ok := g.courses[pair(email, courseCode)]; ok {
		c.Progress = progress
		if completed {
			c.Completed = true
		}
	}
	return nil
}

func (g *Graph) SetCourseGrade(_ context.Context, email, courseCode string, grade float64) error {
	if err := g.call("SetCourseGrade"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if c, ok := g.courses[pair(email, courseCode)]; ok && c.Completed {
		c.Grade = &grade
	}
	return nil
}

func (g *Graph) UnenrollCourse(_ context.Context, email, courseCode string) error {
	if err := g.call("UnenrollCourse"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.courses, pair(email, courseCode))
	return nil
}

func (g *Graph) MergeCompany(_ context.Context, c *models.Company) error {
	if err := g.call("MergeCompany"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	g.companies[c.CUIT] = *c
	return nil
}

func (g *Graph) CreateOffer(_ context.Context, id string, o *models.Offer) error {
	if err := g.call("CreateOffer"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	g.offers[id] = *o
	return nil
}

func (g *Graph) LinkApplication(_ context.Context, email, offerID string) error {
	if err := g.call("LinkApplication"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	g.candidate(email)
	g.applications[pair(email, offerID)] = true
	return nil
}

func (g *Graph) Connect(_ context.Context, a, b string) error {
	if err := g.call("Connect"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	g.connections[pair(a, b)] = true
	return nil
}

func (g *Graph) EnsureConstraints(context.Context) error {
	return g.call("EnsureConstraints")
}
