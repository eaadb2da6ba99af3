package graph

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/talentum-plus/talentum/internal/models"
)

func skillMatchFromRecord(rec *neo4j.Record) models.SkillMatch {
	return models.SkillMatch{
		Email:         recordString(rec, "email"),
		Name:          recordString(rec, "nombre"),
		Seniority:     recordString(rec, "seniority"),
		SkillsMatched: recordStrings(rec, "skills_matched"),
		MatchCount:    recordInt(rec, "match_count"),
	}
}

// recordString returns the string under key, or "" when missing or null.
func recordString(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func recordInt(rec *neo4j.Record, key string) int {
	v, ok := rec.Get(key)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func recordStrings(rec *neo4j.Record, key string) []string {
	out := []string{}
	v, ok := rec.Get(key)
	if !ok {
		return out
	}
	items, _ := v.([]any)
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// stringsParam converts skills into a list parameter, never nil.
func stringsParam(values []string) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}
