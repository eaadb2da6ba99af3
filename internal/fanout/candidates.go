package fanout

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/talentum-plus/talentum/internal/matching"
	"github.com/talentum-plus/talentum/internal/models"
	"github.com/talentum-plus/talentum/internal/store"
	"github.com/talentum-plus/talentum/internal/store/cache"
	"github.com/talentum-plus/talentum/internal/utils"
)

// CachedProfile is the profile snapshot kept in the cache.
type CachedProfile struct {
	Name      string   `json:"nombre"`
	Seniority string   `json:"seniority"`
	Skills    []string `json:"skills"`
}

// CandidateCreated mirrors a new profile into the graph, the relational
// candidates table and the cache.
func (s *Syncer) CandidateCreated(ctx context.Context, p *models.Profile) *Report {
	seniority := p.Seniority
	if seniority == "" {
		seniority = models.DefaultSeniority
	}
	skills := []string(p.Skills)
	if skills == nil {
		skills = []string{}
	}

	return s.run(ctx, EventCandidateCreated,
		step{name: "graph_candidate", store: store.NameGraph, run: func(ctx context.Context) error {
			return s.graph.MergeCandidate(ctx, p.Email, p.Name, seniority)
		}},
		step{name: "graph_skills", store: store.NameGraph, run: func(ctx context.Context) error {
			return s.graph.LinkSkills(ctx, p.Email, skills)
		}},
		step{name: "relational_candidate", store: store.NameRelational, run: func(ctx context.Context) error {
			return s.rel.UpsertCandidate(ctx, &models.CandidateRecord{Name: p.Name, Email: p.Email, Seniority: seniority})
		}},
		step{name: "cache_profile", store: store.NameCache, run: func(ctx context.Context) error {
			snapshot := CachedProfile{Name: p.Name, Seniority: seniority, Skills: skills}
			return store.SetJSON(ctx, s.cache, cache.ProfileKey(p.Email), snapshot, cache.ProfileTTL)
		}},
	)
}

// CandidateUpdated propagates changed seniority or skills to the graph and
// drops the cached profile and recommendations.
func (s *Syncer) CandidateUpdated(ctx context.Context, email string, changes map[string]any) *Report {
	var steps []step

	if v, ok := changes["seniority"]; ok {
		seniority := fmt.Sprint(v)
		steps = append(steps, step{name: "graph_seniority", store: store.NameGraph, run: func(ctx context.Context) error {
			return s.graph.SetCandidateSeniority(ctx, email, seniority)
		}})
	}
	if v, ok := changes["skills"]; ok {
		skills := SkillsValue(v)
		steps = append(steps, step{name: "graph_skills", store: store.NameGraph, run: func(ctx context.Context) error {
			return s.graph.ReplaceSkills(ctx, email, skills)
		}})
	}

	steps = append(steps, step{
		name:  "cache_invalidate",
		store: store.NameCache,
		run:   s.invalidate(cache.ProfileKey(email), cache.RecommendationKey(email)),
	})
	return s.run(ctx, EventCandidateUpdated, steps...)
}

// SkillsValue reads a skills value from a decoded update body.
func SkillsValue(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		return utils.SplitCSV(t)
	default:
		return []string{}
	}
}

// SkillsAdded links skills to the candidate in the graph and drops the cached
// profile. name only labels a candidate node that has none yet.
func (s *Syncer) SkillsAdded(ctx context.Context, email, name string, skills []string) *Report {
	return s.run(ctx, EventSkillsAdded,
		step{name: "graph_candidate", store: store.NameGraph, run: func(ctx context.Context) error {
			return s.graph.EnsureCandidate(ctx, email, name)
		}},
		step{name: "graph_skills", store: store.NameGraph, run: func(ctx context.Context) error {
			return s.graph.LinkSkills(ctx, email, skills)
		}},
		step{name: "cache_invalidate", store: store.NameCache, run: s.invalidate(cache.ProfileKey(email))},
	)
}

// ProfileChanged drops the cached profile.
func (s *Syncer) ProfileChanged(ctx context.Context, email string) *Report {
	return s.run(ctx, EventProfileChanged,
		step{name: "cache_invalidate", store: store.NameCache, run: s.invalidate(cache.ProfileKey(email))},
	)
}

func (s *Syncer) ProcessCreated(ctx context.Context, p *models.Process) *Report {
	return s.run(ctx, EventProcessCreated,
		step{name: "graph_process", store: store.NameGraph, run: func(ctx context.Context) error {
			return s.graph.LinkProcess(ctx, p.CandidateID, p.Position, p.Status)
		}},
		step{name: "cache_invalidate", store: store.NameCache, run: s.invalidate(cache.ProfileKey(p.CandidateID))},
	)
}

// Matching finds active candidates sharing at least half of skills, best
// first, and caches the result. Query errors are returned; cache errors are
// only logged.
func (s *Syncer) Matching(ctx context.Context, position string, skills []string) (*matching.Candidates, error) {
	matches, err := s.graph.MatchCandidates(ctx, store.MatchQuery{
		Skills:     skills,
		MinMatch:   len(skills) / 2,
		Limit:      10,
		ActiveOnly: true,
	})
	s.metrics.ObserveStep(EventMatching, "graph_match", store.NameGraph, err)
	if err != nil {
		return nil, fmt.Errorf("matching %s: %w", position, err)
	}

	candidates := matching.FromMatches(matches, len(skills), -1)
	s.run(ctx, EventMatching,
		step{name: "cache_matching", store: store.NameCache, run: func(ctx context.Context) error {
			return store.SetJSON(ctx, s.cache, cache.MatchingKey(position, skills), candidates.Items, cache.MatchingTTL)
		}},
	)

	s.logger.Info("matching completed",
		zap.String("position", position),
		zap.Int("candidates", candidates.Len()),
	)
	return candidates, nil
}

func (s *Syncer) MentorInteraction(ctx context.Context, candidateID, mentorID, kind string) *Report {
	return s.run(ctx, EventMentorInteraction,
		step{name: "graph_mentor", store: store.NameGraph, run: func(ctx context.Context) error {
			return s.graph.LinkMentor(ctx, candidateID, mentorID, kind)
		}},
	)
}
