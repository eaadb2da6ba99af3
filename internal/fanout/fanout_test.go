package fanout

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/talentum-plus/talentum/internal/metrics"
	"github.com/talentum-plus/talentum/internal/models"
	"github.com/talentum-plus/talentum/internal/store/storetest"
)

type fixture struct {
	syncer *Syncer
	docs   *storetest.Documents
	rel    *storetest.Relational
	graph  *storetest.Graph
	redis  *miniredis.Miniredis
	logs   *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	c, s := storetest.NewCache(t)
	f := &fixture{
		docs:  storetest.NewDocuments(),
		rel:   storetest.NewRelational(),
		graph: storetest.NewGraph(),
		redis: s,
		logs:  logs,
	}
	f.syncer = New(f.docs, f.rel, f.graph, c, metrics.New(zap.NewNop()), zap.New(core))
	return f
}

func TestCandidateCreated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	report := f.syncer.CandidateCreated(ctx, &models.Profile{
		Email:  "ana@example.com",
		Name:   "Ana",
		Skills: models.SkillList{"Go", "SQL"},
	})
	if !report.OK() {
		t.Fatalf("expected clean report, got %v", report.Err())
	}

	node, ok := f.graph.Candidate("ana@example.com")
	if !ok {
		t.Fatalf("candidate node not created")
	}
	want := storetest.GraphCandidate{Name: "Ana", Seniority: "Junior", Active: true, Skills: []string{"Go", "SQL"}}
	if diff := cmp.Diff(want, node); diff != "" {
		t.Fatalf("node mismatch (-want +got):\n%s", diff)
	}

	rec, err := f.rel.GetCandidate(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("relational candidate: %v", err)
	}
	if rec.Seniority != "Junior" {
		t.Fatalf("expected default seniority, got %q", rec.Seniority)
	}

	raw, err := f.redis.Get("perfil:ana@example.com")
	if err != nil {
		t.Fatalf("cached profile: %v", err)
	}
	var cached CachedProfile
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		t.Fatalf("decoding cached profile: %v", err)
	}
	if diff := cmp.Diff(CachedProfile{Name: "Ana", Seniority: "Junior", Skills: []string{"Go", "SQL"}}, cached); diff != "" {
		t.Fatalf("cached mismatch (-want +got):\n%s", diff)
	}
}

func TestCandidateCreatedContinuesAfterFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	boom := errors.New("neo4j unavailable")
	f.graph.Fail("MergeCandidate", boom)

	report := f.syncer.CandidateCreated(ctx, &models.Profile{Email: "bo@example.com", Name: "Bo", Seniority: "Senior"})

	if report.OK() {
		t.Fatalf("expected failed report")
	}
	if !errors.Is(report.Err(), boom) {
		t.Fatalf("expected joined error to wrap %v, got %v", boom, report.Err())
	}
	failed := report.Failed()
	if len(failed) != 1 || failed[0].Name != "graph_candidate" {
		t.Fatalf("unexpected failed steps: %+v", failed)
	}
	if len(report.Steps) != 4 {
		t.Fatalf("expected all 4 steps to run, got %d", len(report.Steps))
	}
	if _, err := f.rel.GetCandidate(ctx, "bo@example.com"); err != nil {
		t.Fatalf("relational step should still run: %v", err)
	}

	warnings := f.logs.FilterMessage("sync step failed").All()
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %d", len(warnings))
	}
	fields := warnings[0].ContextMap()
	if fields["event"] != EventCandidateCreated || fields["step"] != "graph_candidate" || fields["store"] != "neo4j" {
		t.Fatalf("unexpected warning fields: %v", fields)
	}

	series, err := testutil.GatherAndCount(f.syncer.metrics.Registry(), "talentum_fanout_steps_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if series != 4 {
		t.Fatalf("expected 4 step series, got %d", series)
	}
}

func TestCandidateUpdated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_ = f.graph.MergeCandidate(ctx, "ana@example.com", "Ana", "Junior")
	_ = f.graph.LinkSkills(ctx, "ana@example.com", []string{"Java"})
	f.redis.Set("perfil:ana@example.com", "{}")
	f.redis.Set("recomendaciones:ana@example.com", "[]")

	report := f.syncer.CandidateUpdated(ctx, "ana@example.com", map[string]any{
		"seniority": "Senior",
		"skills":    []any{"Go", "Rust"},
	})
	if !report.OK() {
		t.Fatalf("unexpected failure: %v", report.Err())
	}

	node, _ := f.graph.Candidate("ana@example.com")
	if node.Seniority != "Senior" {
		t.Fatalf("expected seniority Senior, got %q", node.Seniority)
	}
	if diff := cmp.Diff([]string{"Go", "Rust"}, node.Skills); diff != "" {
		t.Fatalf("skills mismatch (-want +got):\n%s", diff)
	}
	if f.redis.Exists("perfil:ana@example.com") || f.redis.Exists("recomendaciones:ana@example.com") {
		t.Fatalf("expected cache entries to be invalidated")
	}
}

func TestCandidateUpdatedOnlyInvalidatesForOtherFields(t *testing.T) {
	f := newFixture(t)
	report := f.syncer.CandidateUpdated(context.Background(), "ana@example.com", map[string]any{"experiencia": "5 años"})

	if len(report.Steps) != 1 || report.Steps[0].Name != "cache_invalidate" {
		t.Fatalf("unexpected steps: %+v", report.Steps)
	}
	if f.graph.Called("SetCandidateSeniority") || f.graph.Called("ReplaceSkills") {
		t.Fatalf("graph should not be touched")
	}
}

func TestSkillsValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []string
	}{
		{name: "strings", in: []string{"Go"}, want: []string{"Go"}},
		{name: "decoded json", in: []any{"Go", " ", "SQL"}, want: []string{"Go", "SQL"}},
		{name: "csv", in: "Go, SQL", want: []string{"Go", "SQL"}},
		{name: "other", in: 42, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, SkillsValue(tt.in)); diff != "" {
				t.Fatalf("skills mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMatching(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_ = f.graph.MergeCandidate(ctx, "a@example.com", "A", "Senior")
	_ = f.graph.LinkSkills(ctx, "a@example.com", []string{"Go", "SQL", "Docker"})
	_ = f.graph.MergeCandidate(ctx, "b@example.com", "B", "Junior")
	_ = f.graph.LinkSkills(ctx, "b@example.com", []string{"Go"})
	_ = f.graph.MergeCandidate(ctx, "c@example.com", "C", "Junior")
	_ = f.graph.LinkSkills(ctx, "c@example.com", []string{"Python"})

	got, err := f.syncer.Matching(ctx, "Backend", []string{"SQL", "Go", "Docker", "Kafka"})
	if err != nil {
		t.Fatalf("matching: %v", err)
	}
	if diff := cmp.Diff([]string{"a@example.com"}, got.Emails()); diff != "" {
		t.Fatalf("matched mismatch (-want +got):\n%s", diff)
	}
	if got.Items[0].MatchPercentage != 75 {
		t.Fatalf("expected 75%%, got %v", got.Items[0].MatchPercentage)
	}
	if !f.redis.Exists("matching:Backend:Docker-Go-Kafka-SQL") {
		t.Fatalf("expected matching result to be cached, keys: %v", f.redis.Keys())
	}
}

func TestMatchingReturnsGraphError(t *testing.T) {
	f := newFixture(t)
	f.graph.Fail("MatchCandidates", errors.New("timeout"))

	if _, err := f.syncer.Matching(context.Background(), "Backend", []string{"Go"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestCourseCreatedInvalidatesListings(t *testing.T) {
	f := newFixture(t)
	f.redis.Set("cursos:cat=all:nivel=all", "[]")
	f.redis.Set("cursos:cat=data:nivel=all", "[]")
	f.redis.Set("perfil:keep@example.com", "{}")

	report := f.syncer.CourseCreated(context.Background(), &models.Course{Code: "GO101", Name: "Go"})
	if !report.OK() {
		t.Fatalf("unexpected failure: %v", report.Err())
	}
	if f.redis.Exists("cursos:cat=all:nivel=all") || f.redis.Exists("cursos:cat=data:nivel=all") {
		t.Fatalf("expected course listings to be dropped")
	}
	if !f.redis.Exists("curso:GO101") || !f.redis.Exists("perfil:keep@example.com") {
		t.Fatalf("unexpected cache state: %v", f.redis.Keys())
	}
}

func TestCacheOutageIsReported(t *testing.T) {
	f := newFixture(t)
	f.redis.Close()

	report := f.syncer.ProfileChanged(context.Background(), "ana@example.com")
	if report.OK() {
		t.Fatalf("expected cache failure to be reported")
	}
}

func TestEnrollmentLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_ = f.graph.MergeCandidate(ctx, "ana@example.com", "Ana", "Junior")
	e := &models.Enrollment{CandidateEmail: "ana@example.com", CourseCode: "GO101"}

	f.syncer.EnrollmentCreated(ctx, e, "Go básico")
	e.Progress, e.Completed = 1, true
	f.syncer.EnrollmentProgressed(ctx, e)
	f.syncer.EnrollmentGraded(ctx, e, 90)

	course, ok := f.graph.Course("ana@example.com", "GO101")
	if !ok || !course.Completed || course.Grade == nil || *course.Grade != 90 {
		t.Fatalf("unexpected course relation: %+v", course)
	}

	f.syncer.EnrollmentWithdrawn(ctx, e)
	if _, ok := f.graph.Course("ana@example.com", "GO101"); ok {
		t.Fatalf("expected relation to be removed")
	}
}

func TestApplicationCreated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	report := f.syncer.ApplicationCreated(ctx, &models.Application{ID: 7, CandidateEmail: "ana@example.com", OfferID: "off1"})
	if !report.OK() {
		t.Fatalf("unexpected failure: %v", report.Err())
	}

	events := f.docs.ChangeEvents()
	if len(events) != 1 {
		t.Fatalf("expected one change event, got %d", len(events))
	}
	if events[0].Type != models.EventApplication || events[0].ApplicationID != "7" {
		t.Fatalf("unexpected event: %+v", events[0])
	}
	if !f.graph.Applied("ana@example.com", "off1") {
		t.Fatalf("expected APLICA_A relation")
	}
}

func TestConnectionAccepted(t *testing.T) {
	f := newFixture(t)
	f.syncer.ConnectionAccepted(context.Background(), &models.ConnectionRequest{Sender: "a@example.com", Recipient: "b@example.com"})

	if !f.graph.Connected("b@example.com", "a@example.com") {
		t.Fatalf("expected connection in either direction")
	}
}

func TestSkillsAddedNamesNewCandidates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.redis.Set("perfil:bruno@example.com", "{}")

	report := f.syncer.SkillsAdded(ctx, "bruno@example.com", "Bruno", []string{"Go"})
	if !report.OK() {
		t.Fatalf("expected clean report, got %v", report.Err())
	}
	node, ok := f.graph.Candidate("bruno@example.com")
	if !ok || node.Name != "Bruno" {
		t.Fatalf("expected a named candidate node, got %+v %v", node, ok)
	}
	if diff := cmp.Diff([]string{"Go"}, node.Skills); diff != "" {
		t.Fatalf("skills mismatch (-want +got):\n%s", diff)
	}
	if f.redis.Exists("perfil:bruno@example.com") {
		t.Fatalf("cached profile should be dropped")
	}

	// an existing name is never overwritten
	f.syncer.SkillsAdded(ctx, "bruno@example.com", "Otro", []string{"SQL"})
	f.syncer.SkillsAdded(ctx, "bruno@example.com", "", []string{"Docker"})
	node, _ = f.graph.Candidate("bruno@example.com")
	if node.Name != "Bruno" {
		t.Fatalf("name changed to %q", node.Name)
	}
	if diff := cmp.Diff([]string{"Go", "SQL", "Docker"}, node.Skills); diff != "" {
		t.Fatalf("skills mismatch (-want +got):\n%s", diff)
	}
}
