package cmd

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/talentum-plus/talentum/internal/auth"
	"github.com/talentum-plus/talentum/internal/fanout"
	"github.com/talentum-plus/talentum/internal/models"
	"github.com/talentum-plus/talentum/internal/store"
	"github.com/talentum-plus/talentum/internal/store/storetest"
)

func newSyncer(t *testing.T) (*storetest.Documents, *storetest.Relational, *storetest.Graph, *fanout.Syncer) {
	t.Helper()
	docs := storetest.NewDocuments()
	rel := storetest.NewRelational()
	graph := storetest.NewGraph()
	c, _ := storetest.NewCache(t)
	return docs, rel, graph, fanout.New(docs, rel, graph, c, nil, zap.NewNop())
}

func TestSyncProfileCreatesMissingProfile(t *testing.T) {
	docs, rel, graph, syncer := newSyncer(t)

	report, err := syncProfile(t.Context(), docs, rel, syncer, "ana@example.com", "")
	if err != nil {
		t.Fatalf("syncProfile() error = %v", err)
	}
	if !report.OK() {
		t.Fatalf("expected a clean report, got %v", report.Err())
	}

	p, err := docs.GetProfile(t.Context(), "ana@example.com")
	if err != nil {
		t.Fatalf("profile not created: %v", err)
	}
	if p.Name != "ana" {
		t.Fatalf("expected the local part as name, got %q", p.Name)
	}

	node, ok := graph.Candidate("ana@example.com")
	if !ok || node.Seniority != models.DefaultSeniority {
		t.Fatalf("unexpected graph node %+v %v", node, ok)
	}
	if _, err := rel.GetCandidate(t.Context(), "ana@example.com"); err != nil {
		t.Fatalf("candidate row missing: %v", err)
	}
}

func TestSyncProfileKeepsExistingProfile(t *testing.T) {
	docs, rel, graph, syncer := newSyncer(t)
	if _, err := docs.InsertProfile(t.Context(), &models.Profile{
		Email:     "ana@example.com",
		Name:      "Ana",
		Seniority: "Senior",
		Skills:    models.SkillList{"Go"},
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := syncProfile(t.Context(), docs, rel, syncer, "ana@example.com", "Otro"); err != nil {
		t.Fatalf("syncProfile() error = %v", err)
	}

	node, _ := graph.Candidate("ana@example.com")
	if node.Name != "Ana" || node.Seniority != "Senior" {
		t.Fatalf("existing profile should be synced as is, got %+v", node)
	}
	if diff := cmp.Diff([]string{"Go"}, node.Skills); diff != "" {
		t.Fatalf("skills mismatch (-want +got):\n%s", diff)
	}
	p, _ := docs.GetProfile(t.Context(), "ana@example.com")
	if p.Name != "Ana" {
		t.Fatalf("the name flag only applies to new profiles, got %q", p.Name)
	}
}

func TestSyncProfileReportsMissingRow(t *testing.T) {
	docs, rel, _, syncer := newSyncer(t)
	rel.Fail("UpsertCandidate", errors.New("postgres down"))

	report, err := syncProfile(t.Context(), docs, rel, syncer, "ana@example.com", "Ana")
	if err == nil {
		t.Fatalf("expected an error when the candidate row is missing")
	}
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found in %v", err)
	}
	if report == nil || report.OK() {
		t.Fatalf("expected the failed step in the report")
	}
}

func TestSyncProfileDocumentFailure(t *testing.T) {
	docs, rel, _, syncer := newSyncer(t)
	docs.Fail("GetProfile", errors.New("mongo down"))

	if _, err := syncProfile(t.Context(), docs, rel, syncer, "ana@example.com", "Ana"); err == nil {
		t.Fatalf("expected the read error")
	}
	if rel.Called("UpsertCandidate") {
		t.Fatalf("nothing should be synced without a profile")
	}
}

func TestSetPassword(t *testing.T) {
	rel := storetest.NewRelational()
	if err := rel.CreateUser(t.Context(), &models.User{Email: "ana@example.com", Name: "Ana", Role: models.RoleCandidate}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		confirm  string
		wantErr  error
		fails    bool
	}{
		{name: "mismatch", email: "ana@example.com", password: "secret123", confirm: "secret124", wantErr: errPasswordMismatch},
		{name: "too short", email: "ana@example.com", password: "abc", confirm: "abc", fails: true},
		{name: "no email", password: "secret123", confirm: "secret123", fails: true},
		{name: "unknown account", email: "nadie@example.com", password: "secret123", confirm: "secret123", wantErr: store.ErrNotFound},
		{name: "ok", email: "ana@example.com", password: "secret123", confirm: "secret123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := setPassword(t.Context(), rel, tt.email, tt.password, tt.confirm)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("setPassword() error = %v, want %v", err, tt.wantErr)
				}
			case tt.fails:
				if err == nil {
					t.Fatalf("expected an error")
				}
			case err != nil:
				t.Fatalf("setPassword() error = %v", err)
			}
		})
	}

	u, err := rel.GetUser(t.Context(), "ana@example.com")
	if err != nil {
		t.Fatal(err)
	}
	ok, err := auth.CheckPassword("secret123", u.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("stored hash does not match the new password: %v", err)
	}
}

func TestVersionString(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "v1.2", want: "talentum version: 1.2.0"},
		{raw: "1.4.0-rc.1", want: "talentum version: 1.4.0-rc.1"},
		{raw: "unknown", want: "talentum version: unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := versionString(tt.raw); got != tt.want {
				t.Fatalf("versionString(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestRedactedMasksSecrets(t *testing.T) {
	config := &Config{
		Neo4j: &Neo4jConfig{Username: "neo4j", Password: "neo4j1234"},
		Auth:  &AuthConfig{JWTSecret: "s3cr3t"},
		AI:    &AIConfig{Enabled: true, Gemini: &GeminiConfig{APIKey: "key", Model: "gemini-2.5-pro"}},
	}

	out := redacted(config)
	if out.Neo4j.Password != "***" || out.Auth.JWTSecret != "***" || out.AI.Gemini.APIKey != "***" {
		t.Fatalf("secrets leaked: %+v %+v %+v", out.Neo4j, out.Auth, out.AI.Gemini)
	}
	if out.AI.Gemini.Model != "gemini-2.5-pro" || out.Neo4j.Username != "neo4j" {
		t.Fatalf("non secret values should survive")
	}
	if config.Neo4j.Password != "neo4j1234" || config.AI.Gemini.APIKey != "key" {
		t.Fatalf("the original config must not change")
	}
}

func TestFilteringAIConfig(t *testing.T) {
	if filteringAIConfig(nil) != nil {
		t.Fatalf("nil config should stay nil")
	}
	got := filteringAIConfig(&AIConfig{
		Enabled:         true,
		Provider:        "gemini",
		MinimumFitScore: 0.6,
		Gemini:          &GeminiConfig{APIKey: "key", Model: "gemini-2.5-pro", MaxRetries: 3, MaxLogLength: 200},
	})
	if !got.Enabled || got.MinimumFitScore != 0.6 || got.Gemini == nil || got.Gemini.Model != "gemini-2.5-pro" || got.Gemini.MaxRetries != 3 {
		t.Fatalf("unexpected filtering config %+v", got)
	}
}
