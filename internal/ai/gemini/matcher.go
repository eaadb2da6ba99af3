package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/talentum-plus/talentum/internal/ai"
	"github.com/talentum-plus/talentum/internal/models"
	"github.com/talentum-plus/talentum/internal/utils"
	"go.uber.org/zap"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
}

// PromptOverrides customise the preference block of the prompt.
type PromptOverrides struct {
	ExtraCriteria       string `mapstructure:"extra-criteria"`
	DealBreakers        string `mapstructure:"deal-breakers"`
	CustomKeywords      string `mapstructure:"custom-keywords"`
	Tone                string `mapstructure:"tone"`
	LocationConstraints string `mapstructure:"location-constraints"`
	UserInstructions    string `mapstructure:"user-instructions"`
}

type Matcher struct {
	generator contentGenerator
	minScore  float64
	logger    *zap.Logger
	maxLogLen int
	overrides PromptOverrides
}

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxLogLength     = 200
	maxUserInstructionRunes = 500
	defaultTone             = "Friendly"
	nonePlaceholder         = "none"

	systemInstruction = "You are a technical recruiter assistant. Follow the [Template] section and reply with JSON only."
)

func NewMatcher(generator contentGenerator, minScore float64, maxLogLength int, logger *zap.Logger) *Matcher {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Matcher{
		generator: generator,
		minScore:  minScore,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (m *Matcher) SetPromptOverrides(o PromptOverrides) {
	m.overrides = o
}

func (m *Matcher) Evaluate(ctx context.Context, profile *models.Profile, offer *models.Offer) (*ai.FitAssessment, error) {
	if profile == nil {
		return nil, fmt.Errorf("candidate profile is required")
	}
	if offer == nil {
		return nil, fmt.Errorf("offer is required")
	}

	profileJSON, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal profile payload: %w", err)
	}

	offerJSON, err := json.MarshalIndent(offer, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal offer payload: %w", err)
	}

	prompt := m.buildPrompt(string(profileJSON), string(offerJSON))

	m.logger.Debug("gemini generate content request",
		zap.String("offer_id", offer.ID),
		zap.String("candidate", profile.Email),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, m.maxLogLen)),
	)

	raw, err := m.generator.GenerateContent(ctx, systemInstruction, prompt)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("gemini generate content response",
		zap.String("offer_id", offer.ID),
		zap.String("candidate", profile.Email),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, m.maxLogLen)),
	)

	assessment, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	if m.minScore > 0 && assessment.Score < m.minScore {
		m.logger.Debug("set fit to false by score threshold",
			zap.String("offer_id", offer.ID),
			zap.String("candidate", profile.Email),
			zap.Float64("score", assessment.Score),
			zap.Float64("threshold", m.minScore),
		)
		assessment.Fit = false
	}

	assessment.Raw = raw
	return assessment, nil
}

func (m *Matcher) buildPrompt(profileJSON, offerJSON string) string {
	o := m.overrides
	tone := singleLine(o.Tone)
	if tone == "" {
		tone = defaultTone
	}

	replacer := strings.NewReplacer(
		"{{EXTRA_CRITERIA}}", orNone(singleLine(o.ExtraCriteria)),
		"{{DEAL_BREAKERS}}", orNone(singleLine(o.DealBreakers)),
		"{{CUSTOM_KEYWORDS}}", orNone(keywords(o.CustomKeywords)),
		"{{TONE}}", tone,
		"{{LOCATION_CONSTRAINTS}}", orNone(singleLine(o.LocationConstraints)),
		"{{USER_INSTRUCTIONS}}", userInstructions(o.UserInstructions),
		"{{PROFILE_JSON}}", profileJSON,
		"{{OFFER_JSON}}", offerJSON,
	)
	return replacer.Replace(promptTemplate)
}

// singleLine collapses whitespace and swaps square brackets for parentheses
// so user input cannot open a new prompt section.
func singleLine(s string) string {
	return neutralize(strings.Join(strings.Fields(s), " "))
}

func neutralize(s string) string {
	return strings.NewReplacer("[", "(", "]", ")").Replace(s)
}

func keywords(s string) string {
	return strings.Join(utils.SplitCSV(singleLine(s)), ", ")
}

func orNone(s string) string {
	if s == "" {
		return nonePlaceholder
	}
	return s
}

// userInstructions renders free text as an indented list, one item per
// non-empty line, capped at maxUserInstructionRunes in total.
func userInstructions(s string) string {
	budget := maxUserInstructionRunes
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = singleLine(line)
		if line == "" || budget <= 0 {
			continue
		}
		runes := []rune(line)
		if len(runes) > budget {
			runes = runes[:budget]
		}
		budget -= len(runes)
		lines = append(lines, "  - "+string(runes))
	}
	if len(lines) == 0 {
		return "  - " + nonePlaceholder
	}
	return strings.Join(lines, "\n")
}

func parseResponse(raw string) (*ai.FitAssessment, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	score := coerceFloat(data["score"])
	if math.IsNaN(score) {
		score = 0
	}

	return &ai.FitAssessment{
		Fit:     coerceBool(data["fit"]),
		Score:   score,
		Reason:  coerceString(data["reason"]),
		Message: coerceString(data["message"]),
	}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	raw = strings.TrimSpace(raw)

	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start > 0 && end > start {
		raw = raw[start : end+1]
	}
	return raw
}

func coerceBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		lower := strings.ToLower(strings.TrimSpace(val))
		return lower == "true" || lower == "yes" || lower == "si" || lower == "sí"
	case float64:
		return val != 0
	default:
		return false
	}
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case nil:
		return ""
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
