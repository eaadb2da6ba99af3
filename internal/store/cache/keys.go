package cache

import (
	"sort"
	"strings"
	"time"
)

// Lifetimes of cached entries.
const (
	ProfileTTL        = time.Hour
	RecommendationTTL = 10 * time.Minute
	MatchingTTL       = 10 * time.Minute
	CourseTTL         = time.Hour
	AssessmentTTL     = time.Hour
)

// CourseListPattern matches every cached course listing.
const CourseListPattern = "cursos:*"

func ProfileKey(email string) string {
	return "perfil:" + email
}

func RecommendationKey(email string) string {
	return "recomendaciones:" + email
}

// MatchingKey identifies a matching result by position and the sorted skill set.
func MatchingKey(position string, skills []string) string {
	sorted := append([]string(nil), skills...)
	sort.Strings(sorted)
	return "matching:" + position + ":" + strings.Join(sorted, "-")
}

func CourseKey(code string) string {
	return "curso:" + code
}

// CourseListKey identifies a course listing by its filters.
func CourseListKey(category, level string) string {
	return "cursos:cat=" + orAll(category) + ":nivel=" + orAll(level)
}

func AssessmentKey(offerID, email string) string {
	return "evaluacion_ia:" + offerID + ":" + email
}

func orAll(v string) string {
	if v == "" {
		return "all"
	}
	return v
}
