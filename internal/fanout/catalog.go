package fanout

import (
	"context"

	"github.com/talentum-plus/talentum/internal/models"
	"github.com/talentum-plus/talentum/internal/store"
	"github.com/talentum-plus/talentum/internal/store/cache"
)

// CourseCreated caches the course and drops every cached course listing.
func (s *Syncer) CourseCreated(ctx context.Context, c *models.Course) *Report {
	return s.run(ctx, EventCourseCreated,
		step{name: "cache_course", store: store.NameCache, run: func(ctx context.Context) error {
			return store.SetJSON(ctx, s.cache, cache.CourseKey(c.Code), c, cache.CourseTTL)
		}},
		step{name: "cache_invalidate_listings", store: store.NameCache, run: func(ctx context.Context) error {
			_, err := s.cache.DeletePattern(ctx, cache.CourseListPattern)
			return err
		}},
	)
}

func (s *Syncer) EnrollmentCreated(ctx context.Context, e *models.Enrollment, courseName string) *Report {
	return s.run(ctx, EventEnrollmentCreated,
		step{name: "graph_enroll", store: store.NameGraph, run: func(ctx context.Context) error {
			return s.graph.EnrollCourse(ctx, e.CandidateEmail, e.CourseCode, courseName)
		}},
		step{name: "cache_invalidate", store: store.NameCache, run: s.invalidate(cache.ProfileKey(e.CandidateEmail))},
	)
}

func (s *Syncer) EnrollmentProgressed(ctx context.Context, e *models.Enrollment) *Report {
	return s.run(ctx, EventEnrollmentProgressed,
		step{name: "graph_progress", store: store.NameGraph, run: func(ctx context.Context) error {
			return s.graph.SetCourseProgress(ctx, e.CandidateEmail, e.CourseCode, e.Progress, e.Completed)
		}},
	)
}

func (s *Syncer) EnrollmentGraded(ctx context.Context, e *models.Enrollment, grade float64) *Report {
	return s.run(ctx, EventEnrollmentGraded,
		step{name: "graph_grade", store: store.NameGraph, run: func(ctx context.Context) error {
			return s.graph.SetCourseGrade(ctx, e.CandidateEmail, e.CourseCode, grade)
		}},
	)
}

func (s *Syncer) EnrollmentWithdrawn(ctx context.Context, e *models.Enrollment) *Report {
	return s.run(ctx, EventEnrollmentWithdrawn,
		step{name: "graph_unenroll", store: store.NameGraph, run: func(ctx context.Context) error {
			return s.graph.UnenrollCourse(ctx, e.CandidateEmail, e.CourseCode)
		}},
	)
}

func (s *Syncer) CompanyCreated(ctx context.Context, c *models.Company) *Report {
	return s.run(ctx, EventCompanyCreated,
		step{name: "graph_company", store: store.NameGraph, run: func(ctx context.Context) error {
			return s.graph.MergeCompany(ctx, c)
		}},
	)
}

func (s *Syncer) OfferPublished(ctx context.Context, id string, o *models.Offer) *Report {
	return s.run(ctx, EventOfferPublished,
		step{name: "graph_offer", store: store.NameGraph, run: func(ctx context.Context) error {
			return s.graph.CreateOffer(ctx, id, o)
		}},
	)
}

// ApplicationCreated writes the audit event and links the candidate to the offer.
func (s *Syncer) ApplicationCreated(ctx context.Context, a *models.Application) *Report {
	return s.run(ctx, EventApplicationCreated,
		step{name: "document_history", store: store.NameDocuments, run: func(ctx context.Context) error {
			return s.docs.InsertChangeEvent(ctx, &models.ChangeEvent{
				Type:           models.EventApplication,
				CandidateEmail: a.CandidateEmail,
				OfferID:        a.OfferID,
				ApplicationID:  a.ID.String(),
			})
		}},
		step{name: "graph_application", store: store.NameGraph, run: func(ctx context.Context) error {
			return s.graph.LinkApplication(ctx, a.CandidateEmail, a.OfferID)
		}},
	)
}

func (s *Syncer) ConnectionAccepted(ctx context.Context, r *models.ConnectionRequest) *Report {
	return s.run(ctx, EventConnectionAccepted,
		step{name: "graph_connect", store: store.NameGraph, run: func(ctx context.Context) error {
			return s.graph.Connect(ctx, r.Sender, r.Recipient)
		}},
	)
}
