// Package fanout propagates writes from the primary store to the graph, the
// cache and the relational store. Every step is best effort: a failure is
// logged and recorded, and the remaining steps still run.
package fanout

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/talentum-plus/talentum/internal/logger"
	"github.com/talentum-plus/talentum/internal/metrics"
	"github.com/talentum-plus/talentum/internal/store"
)

// Event names.
const (
	EventCandidateCreated     = "candidate_created"
	EventCandidateUpdated     = "candidate_updated"
	EventSkillsAdded          = "skills_added"
	EventProfileChanged       = "profile_changed"
	EventProcessCreated       = "process_created"
	EventMatching             = "matching"
	EventMentorInteraction    = "mentor_interaction"
	EventCourseCreated        = "course_created"
	EventEnrollmentCreated    = "enrollment_created"
	EventEnrollmentProgressed = "enrollment_progressed"
	EventEnrollmentGraded     = "enrollment_graded"
	EventEnrollmentWithdrawn  = "enrollment_withdrawn"
	EventCompanyCreated       = "company_created"
	EventOfferPublished       = "offer_published"
	EventApplicationCreated   = "application_created"
	EventConnectionAccepted   = "connection_accepted"
)

// Syncer runs the synchronization events against the four stores.
type Syncer struct {
	docs    store.Documents
	rel     store.Relational
	graph   store.Graph
	cache   store.Cache
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// New creates a Syncer. m may be nil.
func New(docs store.Documents, rel store.Relational, graph store.Graph, cache store.Cache, m *metrics.Metrics, log *zap.Logger) *Syncer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Syncer{
		docs:    docs,
		rel:     rel,
		graph:   graph,
		cache:   cache,
		metrics: m,
		logger:  log.Named("fanout"),
	}
}

// StepResult is the outcome of one step.
type StepResult struct {
	Name  string
	Store string
	Err   error
}

// Report collects the step outcomes of one event.
type Report struct {
	Event string
	Steps []StepResult
}

// OK reports whether every step succeeded.
func (r *Report) OK() bool {
	return len(r.Failed()) == 0
}

// Failed returns the failed steps.
func (r *Report) Failed() []StepResult {
	var failed []StepResult
	for _, s := range r.Steps {
		if s.Err != nil {
			failed = append(failed, s)
		}
	}
	return failed
}

// Err joins the step errors, or returns nil when every step succeeded.
func (r *Report) Err() error {
	var errs []error
	for _, s := range r.Failed() {
		errs = append(errs, fmt.Errorf("%s (%s): %w", s.Name, s.Store, s.Err))
	}
	return errors.Join(errs...)
}

type step struct {
	name  string
	store string
	run   func(ctx context.Context) error
}

// run executes steps in order. It never stops early.
func (s *Syncer) run(ctx context.Context, event string, steps ...step) *Report {
	report := &Report{Event: event, Steps: make([]StepResult, 0, len(steps))}

	for _, st := range steps {
		err := st.run(ctx)
		report.Steps = append(report.Steps, StepResult{Name: st.name, Store: st.store, Err: err})
		s.metrics.ObserveStep(event, st.name, st.store, err)

		fields := logger.StepFields(event, st.name, st.store)
		if err != nil {
			s.logger.Warn("sync step failed", append(fields, zap.Error(err))...)
			continue
		}
		s.logger.Debug("sync step done", fields...)
	}

	if report.OK() {
		s.logger.Info("event synchronized", zap.String(logger.FieldEvent, event), zap.Int("steps", len(steps)))
	}
	return report
}

func (s *Syncer) invalidate(keys ...string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return s.cache.Delete(ctx, keys...)
	}
}
