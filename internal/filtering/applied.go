package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/talentum-plus/talentum/internal/matching"
)

type appliedFilter struct {
	disabled bool
	reason   string
}

// NewApplied creates a filter that removes candidates who already applied to the offer.
func NewApplied() Filter {
	return &appliedFilter{}
}

func (f *appliedFilter) Name() string { return "applied" }

func (f *appliedFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *appliedFilter) IsEnabled() bool { return !f.disabled }

func (f *appliedFilter) Validate(*Config) error { return nil }

func (f *appliedFilter) Apply(ctx context.Context, deps Deps, c *matching.Candidates) (*matching.Candidates, Step, error) {
	initial := c.Len()
	if deps.Applicants == nil {
		return c, Step{}, fmt.Errorf("applicant lister is required")
	}
	if deps.Offer == nil || deps.Offer.ID == "" {
		return c, Step{}, fmt.Errorf("offer is required")
	}

	applied, err := deps.Applicants.ListApplicantEmails(ctx, deps.Offer.ID)
	if err != nil {
		return c, Step{}, fmt.Errorf("listing applicants of %s: %w", deps.Offer.ID, err)
	}

	excluded := c.Exclude(applied)
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Info("excluding candidates that already applied",
			zap.String("offer_id", deps.Offer.ID),
			zap.Strings("excluded_candidates", excluded),
			zap.Int("candidates_left", c.Len()),
		)
	}

	return c, Step{Initial: initial, Dropped: len(excluded), Left: c.Len()}, nil
}

func (f *appliedFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}
