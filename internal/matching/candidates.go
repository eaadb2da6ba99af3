// Package matching holds the candidate lists produced by skill matching.
package matching

import (
	"math"

	"github.com/talentum-plus/talentum/internal/models"
)

// AIAssessment is the AI verdict attached to a candidate.
type AIAssessment struct {
	Fit     bool    `json:"fit"`
	Score   float64 `json:"score"`
	Reason  string  `json:"reason,omitempty"`
	Message string  `json:"message,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// Candidate is a candidate found by skill overlap.
type Candidate struct {
	Email           string        `json:"email"`
	Name            string        `json:"nombre"`
	Seniority       string        `json:"seniority"`
	SkillsMatched   []string      `json:"skills_matched,omitempty"`
	MatchSkills     int           `json:"match_skills"`
	MatchPercentage float64       `json:"match_percentage"`
	AI              *AIAssessment `json:"ia,omitempty"`
}

type Candidates struct {
	Items []*Candidate
}

// FromMatches converts graph matches against total required skills, rounding
// the percentage to decimals places. A negative decimals keeps full precision.
func FromMatches(matches []models.SkillMatch, total, decimals int) *Candidates {
	c := &Candidates{Items: make([]*Candidate, 0, len(matches))}
	for _, m := range matches {
		c.Items = append(c.Items, &Candidate{
			Email:           m.Email,
			Name:            m.Name,
			Seniority:       m.Seniority,
			SkillsMatched:   m.SkillsMatched,
			MatchSkills:     m.MatchCount,
			MatchPercentage: Round(m.Percentage(total), decimals),
		})
	}
	return c
}

// Round rounds v to decimals places. A negative decimals returns v unchanged.
func Round(v float64, decimals int) float64 {
	if decimals < 0 {
		return v
	}
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

func (c *Candidates) Len() int {
	return len(c.Items)
}

func (c *Candidates) Emails() []string {
	emails := make([]string, 0, len(c.Items))
	for _, item := range c.Items {
		emails = append(emails, item.Email)
	}
	return emails
}

func (c *Candidates) FindByEmail(email string) *Candidate {
	for _, item := range c.Items {
		if item.Email == email {
			return item
		}
	}
	return nil
}

// Exclude drops candidates whose e-mail is in emails and returns the dropped
// e-mails. Order is preserved.
func (c *Candidates) Exclude(emails []string) []string {
	drop := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		drop[e] = struct{}{}
	}
	return c.Keep(func(item *Candidate) bool {
		_, found := drop[item.Email]
		return !found
	})
}

// Keep retains candidates for which keep returns true and returns the
// e-mails of the dropped ones.
func (c *Candidates) Keep(keep func(*Candidate) bool) []string {
	var dropped []string
	kept := c.Items[:0]
	for _, item := range c.Items {
		if keep(item) {
			kept = append(kept, item)
			continue
		}
		dropped = append(dropped, item.Email)
	}
	c.Items = kept
	return dropped
}
