package ai

import (
	"context"
	"errors"

	"github.com/talentum-plus/talentum/internal/models"
)

// ErrDisabled is returned when no AI provider is configured.
var ErrDisabled = errors.New("ai matching is disabled")

// FitAssessment is the provider's verdict on one candidate for one offer.
type FitAssessment struct {
	Fit     bool    `json:"fit"`
	Score   float64 `json:"score"`
	Reason  string  `json:"reason"`
	Message string  `json:"message,omitempty"`
	Raw     string  `json:"-"`
}

type Matcher interface {
	Evaluate(ctx context.Context, profile *models.Profile, offer *models.Offer) (*FitAssessment, error)
}
