package graph

import (
	"context"

	"github.com/talentum-plus/talentum/internal/models"
	"github.com/talentum-plus/talentum/internal/store"
)

func (s *Store) MergeCandidate(ctx context.Context, email, name, seniority string) error {
	_, err := s.write(ctx, "merging candidate "+email, `
		MERGE (c:Candidato {id: $email})
		SET c.nombre = $nombre, c.seniority = $seniority, c.activo = true`,
		map[string]any{"email": email, "nombre": name, "seniority": seniority},
	)
	return err
}

func (s *Store) SetCandidateSeniority(ctx context.Context, email, seniority string) error {
	_, err := s.write(ctx, "setting seniority of "+email,
		`MATCH (c:Candidato {id: $email}) SET c.seniority = $seniority`,
		map[string]any{"email": email, "seniority": seniority},
	)
	return err
}

func (s *Store) EnsureCandidate(ctx context.Context, email, name string) error {
	var nombre any
	if name != "" {
		nombre = name
	}
	_, err := s.write(ctx, "ensuring candidate "+email, `
		MERGE (c:Candidato {id: $email})
		SET c.nombre = coalesce(c.nombre, $nombre)`,
		map[string]any{"email": email, "nombre": nombre},
	)
	return err
}

// LinkSkills adds DOMINA relations, creating the candidate and skills as needed.
func (s *Store) LinkSkills(ctx context.Context, email string, skills []string) error {
	if len(skills) == 0 {
		return nil
	}
	_, err := s.write(ctx, "linking skills of "+email, `
		MERGE (c:Candidato {id: $email})
		WITH c
		UNWIND $skills AS skill
		MERGE (s:Skill {nombre: skill})
		MERGE (c)-[:DOMINA]->(s)`,
		map[string]any{"email": email, "skills": stringsParam(skills)},
	)
	return err
}

// ReplaceSkills drops every DOMINA relation of the candidate and links skills.
func (s *Store) ReplaceSkills(ctx context.Context, email string, skills []string) error {
	_, err := s.write(ctx, "clearing skills of "+email,
		`MATCH (c:Candidato {id: $email})-[r:DOMINA]->(:Skill) DELETE r`,
		map[string]any{"email": email},
	)
	if err != nil {
		return err
	}
	return s.LinkSkills(ctx, email, skills)
}

// UnlinkSkill removes the DOMINA relation to skill and returns how many were removed.
func (s *Store) UnlinkSkill(ctx context.Context, email, skill string) (int, error) {
	result, err := s.write(ctx, "unlinking skill of "+email,
		`MATCH (c:Candidato {id: $email})-[r:DOMINA]->(:Skill {nombre: $skill}) DELETE r`,
		map[string]any{"email": email, "skill": skill},
	)
	if err != nil {
		return 0, err
	}
	return result.Summary.Counters().RelationshipsDeleted(), nil
}

func (s *Store) CandidateSkills(ctx context.Context, email string) ([]string, error) {
	result, err := s.read(ctx, "reading skills of "+email, `
		MATCH (c:Candidato {id: $email})-[:DOMINA]->(s:Skill)
		RETURN s.nombre AS skill
		ORDER BY skill`,
		map[string]any{"email": email},
	)
	if err != nil {
		return nil, err
	}

	skills := make([]string, 0, len(result.Records))
	for _, rec := range result.Records {
		if skill := recordString(rec, "skill"); skill != "" {
			skills = append(skills, skill)
		}
	}
	return skills, nil
}

// matchCypher builds the skill overlap query for q.
func matchCypher(q store.MatchQuery) string {
	skillPredicate := `s.nombre IN $skills`
	if q.IgnoreCase {
		skillPredicate = `ANY(skill IN $skills WHERE toLower(s.nombre) = toLower(skill))`
	}
	if q.ActiveOnly {
		skillPredicate += ` AND c.activo = true`
	}

	return `
		MATCH (c:Candidato)-[:DOMINA]->(s:Skill)
		WHERE ` + skillPredicate + `
		WITH c, COLLECT(DISTINCT s.nombre) AS skills_matched, COUNT(DISTINCT s) AS match_count
		WHERE match_count >= $min_match
		RETURN c.id AS email, c.nombre AS nombre, c.seniority AS seniority,
		       skills_matched, match_count
		ORDER BY match_count DESC, email
		LIMIT $limit`
}

func (s *Store) MatchCandidates(ctx context.Context, q store.MatchQuery) ([]models.SkillMatch, error) {
	minMatch := q.MinMatch
	if minMatch < 1 {
		minMatch = 1
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	result, err := s.read(ctx, "matching candidates", matchCypher(q), map[string]any{
		"skills":    stringsParam(q.Skills),
		"min_match": int64(minMatch),
		"limit":     int64(limit),
	})
	if err != nil {
		return nil, err
	}

	matches := make([]models.SkillMatch, 0, len(result.Records))
	for _, rec := range result.Records {
		matches = append(matches, skillMatchFromRecord(rec))
	}
	return matches, nil
}

// Recommendations returns roles and offers requiring the candidate's skills.
func (s *Store) Recommendations(ctx context.Context, email string, limit int) ([]models.Recommendation, error) {
	result, err := s.read(ctx, "recommending roles for "+email, `
		MATCH (c:Candidato {id: $email})-[:DOMINA]->(s:Skill)<-[:REQUIERE]-(r)
		WHERE r:Rol OR r:Oferta
		RETURN coalesce(r.nombre, r.titulo) AS rol, COUNT(s) AS match_count
		ORDER BY match_count DESC, rol
		LIMIT $limit`,
		map[string]any{"email": email, "limit": int64(limit)},
	)
	if err != nil {
		return nil, err
	}

	recs := make([]models.Recommendation, 0, len(result.Records))
	for _, rec := range result.Records {
		recs = append(recs, models.Recommendation{
			Role:  recordString(rec, "rol"),
			Match: recordInt(rec, "match_count"),
		})
	}
	return recs, nil
}
