package filtering

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/talentum-plus/talentum/internal/ai"
	"github.com/talentum-plus/talentum/internal/matching"
	"github.com/talentum-plus/talentum/internal/models"
)

type aiFitFilter struct {
	disabled bool
	reason   string
	config   *AIConfig
}

// NewAIFit creates the AI-based filtering step.
func NewAIFit() Filter {
	return &aiFitFilter{}
}

func (f *aiFitFilter) Name() string { return "ai_fit" }

func (f *aiFitFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *aiFitFilter) IsEnabled() bool { return !f.disabled }

func (f *aiFitFilter) Validate(cfg *Config) error {
	f.config = nil
	if cfg != nil {
		f.config = cfg.AI
	}
	if !f.IsEnabled() {
		return nil
	}
	if cfg == nil || cfg.AI == nil || !cfg.AI.Enabled {
		return fmt.Errorf("ai configuration is required when ai filter is enabled")
	}
	if cfg.AI.Gemini == nil {
		return fmt.Errorf("gemini configuration is required when ai filter is enabled")
	}
	if strings.TrimSpace(cfg.AI.Gemini.Model) == "" {
		return fmt.Errorf("gemini model is required when ai filter is enabled")
	}
	return nil
}

func (f *aiFitFilter) Apply(ctx context.Context, deps Deps, c *matching.Candidates) (*matching.Candidates, Step, error) {
	initial := c.Len()
	if deps.Matcher == nil {
		if deps.Logger != nil {
			deps.Logger.Info("ai matcher is not configured; skipping ai_fit filter")
		}
		return c, Step{Initial: initial, Dropped: 0, Left: c.Len()}, nil
	}
	if deps.Offer == nil {
		return c, Step{}, fmt.Errorf("offer is required for AI evaluation")
	}
	if deps.Profiles == nil {
		return c, Step{}, fmt.Errorf("profile store is required for AI evaluation")
	}

	evaluateCandidates(ctx, deps, c)

	left := c.Len()
	return c, Step{Initial: initial, Dropped: initial - left, Left: left}, nil
}

// evaluateCandidates scores every candidate, dropping non-fits. Candidates
// whose evaluation failed are kept and annotated with the error.
func evaluateCandidates(ctx context.Context, deps Deps, c *matching.Candidates) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c.Keep(func(item *matching.Candidate) bool {
		profile, err := deps.Profiles.GetProfile(ctx, item.Email)
		if err != nil {
			logger.Debug("candidate profile unavailable; evaluating graph data only",
				zap.String("email", item.Email),
				zap.Error(err),
			)
			profile = &models.Profile{
				Email:     item.Email,
				Name:      item.Name,
				Seniority: item.Seniority,
				Skills:    item.SkillsMatched,
			}
		}

		assessment, err := deps.Matcher.Evaluate(ctx, profile, deps.Offer)
		if err != nil {
			logger.Warn("AI evaluation failed",
				zap.String("email", item.Email),
				zap.Error(err),
			)
			item.AI = &matching.AIAssessment{Error: err.Error()}
			return true
		}

		if !assessment.Fit {
			logger.Info("candidate rejected by AI provider",
				zap.String("email", item.Email),
				zap.Float64("ai_score", assessment.Score),
				zap.String("reason", assessment.Reason),
			)
			return false
		}

		logger.Info("candidate approved by AI",
			zap.String("email", item.Email),
			zap.Float64("ai_score", assessment.Score),
		)
		item.AI = Annotate(assessment)
		return true
	})
}

// Annotate converts a provider assessment into the candidate annotation.
func Annotate(a *ai.FitAssessment) *matching.AIAssessment {
	if a == nil {
		return nil
	}
	return &matching.AIAssessment{
		Fit:     a.Fit,
		Score:   a.Score,
		Reason:  a.Reason,
		Message: a.Message,
	}
}

func (f *aiFitFilter) Status() Status {
	details := map[string]string{}
	if f.config != nil {
		details["minimum_fit_score"] = fmt.Sprintf("%.2f", f.config.MinimumFitScore)
		if f.config.Gemini != nil {
			details["model"] = f.config.Gemini.Model
			details["max_retries"] = strconv.Itoa(f.config.Gemini.MaxRetries)
			details["max_log_length"] = strconv.Itoa(f.config.Gemini.MaxLogLength)
		}
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
