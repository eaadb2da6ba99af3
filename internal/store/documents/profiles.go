package documents

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/talentum-plus/talentum/internal/models"
	"github.com/talentum-plus/talentum/internal/store"
	"github.com/talentum-plus/talentum/internal/utils"
)

func (s *Store) InsertProfile(ctx context.Context, p *models.Profile) (string, error) {
	if p.Skills == nil {
		p.Skills = models.SkillList{}
	}
	if p.CreatedAt == nil {
		now := s.now().UTC()
		p.CreatedAt = &now
	}
	id, err := s.insert(ctx, Profiles, p)
	if err != nil {
		return "", err
	}
	p.ID = id
	return id, nil
}

func (s *Store) GetProfile(ctx context.Context, email string) (*models.Profile, error) {
	return findOne[models.Profile](ctx, s.collection(Profiles), bson.M{"email": email})
}

func (s *Store) UpdateProfile(ctx context.Context, email string, changes map[string]any) error {
	set := bson.M{}
	for key, value := range changes {
		if key == "_id" {
			continue
		}
		set[key] = value
	}
	if len(set) == 0 {
		return fmt.Errorf("updating profile %s: no fields to set", email)
	}

	res, err := s.collection(Profiles).UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": set})
	if err != nil {
		return translate(err, "updating profile %s", email)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("updating profile %s: %w", email, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListProfiles(ctx context.Context, f store.ProfileFilter) ([]*models.Profile, error) {
	return findAll[models.Profile](ctx, s.collection(Profiles), profileFilter(f), limitOpts(f.Limit))
}

// profileFilter matches the skill as literal text, case-insensitively, so
// names like "C++" or ".NET" never act as patterns.
func profileFilter(f store.ProfileFilter) bson.M {
	filter := bson.M{}
	if f.Skill != "" {
		filter["skills"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Skill), Options: "i"}
	}
	if f.Seniority != "" {
		filter["seniority"] = f.Seniority
	}
	return filter
}

func (s *Store) ProfileSkills(ctx context.Context, email string) ([]string, error) {
	opts := options.FindOne().SetProjection(bson.M{"skills": 1})

	var doc bson.Raw
	err := s.collection(Profiles).FindOne(ctx, bson.M{"email": email}, opts).Decode(&doc)
	if err != nil {
		return nil, translate(err, "reading skills of %s", email)
	}

	value, err := doc.LookupErr("skills")
	if err != nil {
		return []string{}, nil
	}

	switch value.Type {
	case bsontype.String:
		skills := utils.SplitCSV(value.StringValue())
		_, err := s.collection(Profiles).UpdateOne(ctx,
			bson.M{"email": email},
			bson.M{"$set": bson.M{"skills": skills}},
		)
		if err != nil {
			return nil, translate(err, "migrating skills of %s", email)
		}
		s.logger.Info("migrated legacy skills to an array", zap.String("email", email), zap.Int("skills", len(skills)))
		return skills, nil
	case bsontype.Array:
		var skills models.SkillList
		if err := skills.UnmarshalBSONValue(value.Type, value.Value); err != nil {
			return nil, fmt.Errorf("reading skills of %s: %w", email, err)
		}
		return []string(skills), nil
	default:
		return []string{}, nil
	}
}

func (s *Store) AddProfileSkills(ctx context.Context, email, name string, skills []string) (bool, error) {
	onInsert := bson.M{
		"experiencia": "",
		"educacion":   "",
		"created_at":  s.now().UTC(),
	}
	if name != "" {
		onInsert["nombre"] = name
	}

	update := bson.M{
		"$addToSet":    bson.M{"skills": bson.M{"$each": skills}},
		"$setOnInsert": onInsert,
	}

	res, err := s.collection(Profiles).UpdateOne(ctx, bson.M{"email": email}, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, translate(err, "adding skills to %s", email)
	}
	return res.UpsertedID != nil, nil
}

func (s *Store) RemoveProfileSkill(ctx context.Context, email, skill string) (bool, error) {
	res, err := s.collection(Profiles).UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$pull": bson.M{"skills": skill}},
	)
	if err != nil {
		return false, translate(err, "removing skill from %s", email)
	}
	return res.ModifiedCount > 0, nil
}

func (s *Store) SetProfileSeniority(ctx context.Context, email, name, seniority string) (bool, error) {
	update := bson.M{
		"$set": bson.M{"seniority": seniority},
		"$setOnInsert": bson.M{
			"nombre":      name,
			"skills":      bson.A{},
			"experiencia": "",
			"educacion":   "",
			"created_at":  s.now().UTC(),
		},
	}

	res, err := s.collection(Profiles).UpdateOne(ctx, bson.M{"email": email}, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, translate(err, "setting seniority of %s", email)
	}
	return res.UpsertedID != nil, nil
}
