package models

import (
	"strings"
)

// Seniority is a position on the career ladder. The zero value means unknown.
type Seniority int

const (
	SeniorityUnknown Seniority = iota
	Junior
	SemiSenior
	Senior
	Lead
)

var seniorityNames = map[Seniority]string{
	Junior:     "Junior",
	SemiSenior: "Semi-Senior",
	Senior:     "Senior",
	Lead:       "Lead",
}

// DefaultSeniority is assumed for candidates that never declared one.
const DefaultSeniority = "Junior"

// ParseSeniority maps a free-form label onto the ladder. Matching ignores
// case and treats spaces and underscores like hyphens, so "semi senior" and
// "SEMI_SENIOR" both parse as SemiSenior. Unknown labels yield SeniorityUnknown.
func ParseSeniority(s string) Seniority {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "-", "_", "-").Replace(key)
	switch key {
	case "junior", "jr":
		return Junior
	case "semi-senior", "semisenior", "ssr":
		return SemiSenior
	case "senior", "sr":
		return Senior
	case "lead":
		return Lead
	default:
		return SeniorityUnknown
	}
}

func (s Seniority) String() string {
	return seniorityNames[s]
}

// Known reports whether s is a level of the ladder.
func (s Seniority) Known() bool {
	_, ok := seniorityNames[s]
	return ok
}

// AtLeast reports whether s is the same level as min or above it.
func (s Seniority) AtLeast(min Seniority) bool {
	return s >= min
}

// SeniorityLevels lists the canonical labels in ladder order.
func SeniorityLevels() []string {
	return []string{Junior.String(), SemiSenior.String(), Senior.String(), Lead.String()}
}
