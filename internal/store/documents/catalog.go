package documents

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/talentum-plus/talentum/internal/models"
	"github.com/talentum-plus/talentum/internal/store"
)

func (s *Store) InsertCourse(ctx context.Context, c *models.Course) (string, error) {
	if c.Skills == nil {
		c.Skills = []string{}
	}
	if c.Resources == nil {
		c.Resources = []string{}
	}
	return s.insert(ctx, Courses, c)
}

func (s *Store) GetCourse(ctx context.Context, code string) (*models.Course, error) {
	return findOne[models.Course](ctx, s.collection(Courses), bson.M{"codigo": code})
}

func (s *Store) ListCourses(ctx context.Context, f store.CourseFilter) ([]*models.Course, error) {
	filter := bson.M{}
	if f.Category != "" {
		filter["categoria"] = f.Category
	}
	if f.Level != "" {
		filter["nivel"] = f.Level
	}
	return findAll[models.Course](ctx, s.collection(Courses), filter)
}

func (s *Store) InsertEnrollment(ctx context.Context, e *models.Enrollment) (string, error) {
	if e.EnrolledAt.IsZero() {
		e.EnrolledAt = s.now().UTC()
	}
	id, err := s.insert(ctx, Enrollments, e)
	if err != nil {
		return "", err
	}
	e.ID = id
	return id, nil
}

func (s *Store) GetEnrollment(ctx context.Context, id string) (*models.Enrollment, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return findOne[models.Enrollment](ctx, s.collection(Enrollments), bson.M{"_id": oid})
}

func (s *Store) FindEnrollment(ctx context.Context, email, courseCode string) (*models.Enrollment, error) {
	return findOne[models.Enrollment](ctx, s.collection(Enrollments), bson.M{
		"candidato_email": email,
		"curso_codigo":    courseCode,
	})
}

func (s *Store) ListEnrollments(ctx context.Context, email string) ([]*models.Enrollment, error) {
	return findAll[models.Enrollment](ctx, s.collection(Enrollments), bson.M{"candidato_email": email})
}

func (s *Store) UpdateEnrollment(ctx context.Context, id string, set map[string]any) (*models.Enrollment, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return findOneAndUpdate[models.Enrollment](ctx, s.collection(Enrollments), bson.M{"_id": oid}, bson.M{"$set": set})
}

func (s *Store) DeleteEnrollment(ctx context.Context, id string) (*models.Enrollment, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var removed models.Enrollment
	if err := s.collection(Enrollments).FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&removed); err != nil {
		return nil, translate(err, "deleting enrollment %s", id)
	}
	return &removed, nil
}

func (s *Store) InsertCompany(ctx context.Context, c *models.Company) (string, error) {
	return s.insert(ctx, Companies, c)
}

func (s *Store) ListCompanies(ctx context.Context) ([]*models.Company, error) {
	return findAll[models.Company](ctx, s.collection(Companies), bson.M{})
}

func (s *Store) InsertOffer(ctx context.Context, o *models.Offer) (string, error) {
	if o.RequiredSkills == nil {
		o.RequiredSkills = []string{}
	}
	id, err := s.insert(ctx, Offers, o)
	if err != nil {
		return "", err
	}
	o.ID = id
	return id, nil
}

func (s *Store) GetOffer(ctx context.Context, id string) (*models.Offer, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return findOne[models.Offer](ctx, s.collection(Offers), bson.M{"_id": oid})
}

func (s *Store) ListOffers(ctx context.Context, f store.OfferFilter) ([]*models.Offer, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["estado"] = f.Status
	}
	if f.Modality != "" {
		filter["modalidad"] = f.Modality
	}
	if f.Location != "" {
		filter["ubicacion"] = f.Location
	}
	return findAll[models.Offer](ctx, s.collection(Offers), filter, limitOpts(f.Limit))
}

func (s *Store) UpdateOffer(ctx context.Context, id string, set map[string]any) (*models.Offer, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return findOneAndUpdate[models.Offer](ctx, s.collection(Offers), bson.M{"_id": oid}, bson.M{"$set": set})
}

func (s *Store) InsertChangeEvent(ctx context.Context, e *models.ChangeEvent) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now().UTC()
	}
	_, err := s.insert(ctx, ChangeHistory, e)
	return err
}
