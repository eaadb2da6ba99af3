package models

// SkillMatch is a candidate found by skill overlap in the graph.
type SkillMatch struct {
	Email         string   `json:"email"`
	Name          string   `json:"nombre"`
	Seniority     string   `json:"seniority,omitempty"`
	SkillsMatched []string `json:"skills_matched"`
	MatchCount    int      `json:"match_count"`
}

// Percentage returns the share of total skills that matched, in percent.
func (m SkillMatch) Percentage(total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(m.MatchCount) / float64(total) * 100
}

// Recommendation is a role or offer sharing skills with a candidate.
type Recommendation struct {
	Role  string `json:"rol"`
	Match int    `json:"match"`
}
