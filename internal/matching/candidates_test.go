package matching

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/talentum-plus/talentum/internal/models"
)

func sample() *Candidates {
	return &Candidates{Items: []*Candidate{
		{Email: "a@example.com", Seniority: "Senior"},
		{Email: "b@example.com", Seniority: "Junior"},
		{Email: "c@example.com"},
	}}
}

func TestFromMatches(t *testing.T) {
	matches := []models.SkillMatch{
		{Email: "a@example.com", Name: "A", SkillsMatched: []string{"Go"}, MatchCount: 1},
		{Email: "b@example.com", Name: "B", MatchCount: 2},
	}

	got := FromMatches(matches, 3, 1)
	if got.Len() != 2 {
		t.Fatalf("expected 2 candidates, got %d", got.Len())
	}
	if got.Items[0].MatchPercentage != 33.3 {
		t.Fatalf("expected 33.3, got %v", got.Items[0].MatchPercentage)
	}
	if got.Items[1].MatchPercentage != 66.7 {
		t.Fatalf("expected 66.7, got %v", got.Items[1].MatchPercentage)
	}
	if got.Items[1].MatchSkills != 2 {
		t.Fatalf("expected match_skills 2, got %d", got.Items[1].MatchSkills)
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		v        float64
		decimals int
		want     float64
	}{
		{v: 66.666, decimals: 1, want: 66.7},
		{v: 3.14159, decimals: 2, want: 3.14},
		{v: 50, decimals: 0, want: 50},
		{v: 100.0 / 3, decimals: -1, want: 100.0 / 3},
	}
	for _, tt := range tests {
		if got := Round(tt.v, tt.decimals); got != tt.want {
			t.Fatalf("Round(%v, %d) = %v, want %v", tt.v, tt.decimals, got, tt.want)
		}
	}
}

func TestExcludePreservesOrder(t *testing.T) {
	c := sample()
	dropped := c.Exclude([]string{"b@example.com", "missing@example.com"})

	if diff := cmp.Diff([]string{"b@example.com"}, dropped); diff != "" {
		t.Fatalf("dropped mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a@example.com", "c@example.com"}, c.Emails()); diff != "" {
		t.Fatalf("remaining mismatch (-want +got):\n%s", diff)
	}
}

func TestKeepAndFind(t *testing.T) {
	c := sample()
	dropped := c.Keep(func(item *Candidate) bool { return item.Seniority != "" })

	if diff := cmp.Diff([]string{"c@example.com"}, dropped); diff != "" {
		t.Fatalf("dropped mismatch (-want +got):\n%s", diff)
	}
	if c.FindByEmail("a@example.com") == nil {
		t.Fatalf("expected to find a@example.com")
	}
	if c.FindByEmail("c@example.com") != nil {
		t.Fatalf("expected c@example.com to be dropped")
	}
}
