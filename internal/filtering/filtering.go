package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/talentum-plus/talentum/internal/ai"
	"github.com/talentum-plus/talentum/internal/matching"
	"github.com/talentum-plus/talentum/internal/models"
)

// Filter represents a single filtering step applied to matched candidates.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, c *matching.Candidates) (*matching.Candidates, Step, error)
}

// ApplicantLister lists the e-mails that already applied to an offer.
type ApplicantLister interface {
	ListApplicantEmails(ctx context.Context, offerID string) ([]string, error)
}

// ProfileGetter loads candidate profiles.
type ProfileGetter interface {
	GetProfile(ctx context.Context, email string) (*models.Profile, error)
}

// Deps aggregates dependencies shared across all filtering steps.
type Deps struct {
	Logger     *zap.Logger
	Offer      *models.Offer
	Applicants ApplicantLister
	Profiles   ProfileGetter
	Matcher    ai.Matcher
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int `json:"initial"`
	Dropped int `json:"dropped"`
	Left    int `json:"left"`
}

// Config contains configuration settings consumed by the filters.
type Config struct {
	MinSeniority string
	AI           *AIConfig
}

// AIConfig stores AI-related configuration used by the filters.
type AIConfig struct {
	Enabled         bool
	Provider        string
	MinimumFitScore float64
	Gemini          *GeminiConfig
}

// GeminiConfig stores Gemini provider configuration.
type GeminiConfig struct {
	Model        string
	MaxRetries   int
	MaxLogLength int
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string            `json:"nombre"`
	Enabled bool              `json:"habilitado"`
	Reason  string            `json:"motivo,omitempty"`
	Details map[string]string `json:"detalles,omitempty"`
	Step    *Step             `json:"resultado,omitempty"`
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Pipeline runs filters in order.
type Pipeline struct {
	steps   []Filter
	results map[string]Step
	logger  *zap.Logger
}

// New creates a pipeline over steps.
func New(steps []Filter, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{steps: steps, results: make(map[string]Step), logger: logger}
}

// Default returns the candidate filters in their standard order.
func Default() []Filter {
	return []Filter{NewSeniority(), NewApplied(), NewAIFit()}
}

// RunFilters validates every enabled step, then applies them sequentially.
func (p *Pipeline) RunFilters(ctx context.Context, cfg *Config, deps Deps, c *matching.Candidates) (*matching.Candidates, error) {
	if deps.Logger == nil {
		deps.Logger = p.logger
	}

	for _, step := range p.steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	for _, step := range p.steps {
		if !step.IsEnabled() {
			p.logger.Debug("filter disabled", zap.String("name", step.Name()))
			continue
		}

		next, info, err := step.Apply(ctx, deps, c)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		p.logger.Info("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)
		p.results[step.Name()] = info
		c = next
	}

	return c, nil
}

// Describe returns status entries for the pipeline's filters, including the
// outcome of steps that already ran.
func (p *Pipeline) Describe() []Status {
	statuses := Describe(p.steps)
	for i := range statuses {
		if info, ok := p.results[statuses[i].Name]; ok {
			info := info
			statuses[i].Step = &info
		}
	}
	return statuses
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}
