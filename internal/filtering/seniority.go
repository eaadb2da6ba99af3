package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/talentum-plus/talentum/internal/matching"
	"github.com/talentum-plus/talentum/internal/models"
)

type seniorityFilter struct {
	disabled bool
	reason   string
	min      models.Seniority
}

// NewSeniority creates a filter that drops candidates below the minimum seniority.
// Candidates without a known seniority are kept.
func NewSeniority() Filter {
	return &seniorityFilter{}
}

func (f *seniorityFilter) Name() string { return "seniority" }

func (f *seniorityFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *seniorityFilter) IsEnabled() bool { return !f.disabled }

func (f *seniorityFilter) Validate(cfg *Config) error {
	f.min = models.SeniorityUnknown
	if cfg == nil || cfg.MinSeniority == "" {
		return nil
	}
	f.min = models.ParseSeniority(cfg.MinSeniority)
	if !f.min.Known() {
		return fmt.Errorf("unknown seniority %q", cfg.MinSeniority)
	}
	return nil
}

func (f *seniorityFilter) Apply(_ context.Context, deps Deps, c *matching.Candidates) (*matching.Candidates, Step, error) {
	initial := c.Len()
	if !f.min.Known() {
		return c, Step{Initial: initial, Dropped: 0, Left: c.Len()}, nil
	}

	dropped := c.Keep(func(item *matching.Candidate) bool {
		level := models.ParseSeniority(item.Seniority)
		return !level.Known() || level.AtLeast(f.min)
	})
	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Info("excluding candidates below the minimum seniority",
			zap.String("minimum", f.min.String()),
			zap.Strings("excluded_candidates", dropped),
			zap.Int("candidates_left", c.Len()),
		)
	}

	return c, Step{Initial: initial, Dropped: len(dropped), Left: c.Len()}, nil
}

func (f *seniorityFilter) Status() Status {
	details := map[string]string{}
	if f.min.Known() {
		details["minimum"] = f.min.String()
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
