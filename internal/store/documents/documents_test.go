package documents

import (
	"errors"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/talentum-plus/talentum/internal/store"
)

var _ store.Documents = (*Store)(nil)

func TestObjectID(t *testing.T) {
	t.Parallel()

	oid := primitive.NewObjectID()
	got, err := objectID(" " + oid.Hex() + " ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != oid {
		t.Fatalf("expected %s, got %s", oid.Hex(), got.Hex())
	}

	for _, bad := range []string{"", "123", "zzzzzzzzzzzzzzzzzzzzzzzz"} {
		if _, err := objectID(bad); !errors.Is(err, store.ErrInvalidID) {
			t.Fatalf("objectID(%q): expected ErrInvalidID, got %v", bad, err)
		}
	}
}

func TestInsertedID(t *testing.T) {
	t.Parallel()

	oid := primitive.NewObjectID()
	if got := insertedID(&mongo.InsertOneResult{InsertedID: oid}); got != oid.Hex() {
		t.Fatalf("expected hex id, got %s", got)
	}
	if got := insertedID(&mongo.InsertOneResult{InsertedID: "custom"}); got != "custom" {
		t.Fatalf("expected custom id, got %s", got)
	}
}

func TestTranslate(t *testing.T) {
	t.Parallel()

	if translate(nil, "noop") != nil {
		t.Fatalf("nil error must stay nil")
	}

	err := translate(mongo.ErrNoDocuments, "finding %s", "x")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}}}
	if err := translate(dup, "inserting"); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	other := errors.New("boom")
	if err := translate(other, "inserting"); !errors.Is(err, other) || errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("unexpected translation: %v", err)
	}
}

func TestLimitOpts(t *testing.T) {
	t.Parallel()

	if opts := limitOpts(0); opts.Limit != nil {
		t.Fatalf("expected no limit, got %d", *opts.Limit)
	}
	if opts := limitOpts(50); opts.Limit == nil || *opts.Limit != 50 {
		t.Fatalf("expected limit 50, got %v", opts.Limit)
	}
}

func TestProfileFilter(t *testing.T) {
	t.Parallel()

	if diff := cmp.Diff(bson.M{}, profileFilter(store.ProfileFilter{Limit: 10})); diff != "" {
		t.Fatalf("empty filter mismatch (-want +got):\n%s", diff)
	}

	got := profileFilter(store.ProfileFilter{Skill: "C++", Seniority: "Senior"})
	if got["seniority"] != "Senior" {
		t.Fatalf("expected seniority filter, got %v", got)
	}
	skill, ok := got["skills"].(primitive.Regex)
	if !ok || skill.Options != "i" {
		t.Fatalf("expected a case-insensitive skill regex, got %#v", got["skills"])
	}

	re := regexp.MustCompile("(?i)" + skill.Pattern)
	tests := []struct {
		skill string
		match bool
	}{
		{skill: "C++", match: true},
		{skill: "c++ / Qt", match: true},
		{skill: "C", match: false},
		{skill: "Ccc", match: false},
	}
	for _, tt := range tests {
		if re.MatchString(tt.skill) != tt.match {
			t.Fatalf("pattern %q on %q: expected match %v", skill.Pattern, tt.skill, tt.match)
		}
	}
}
