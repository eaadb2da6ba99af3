package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/talentum-plus/talentum/internal/models"
)

func TestPasswordRoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	ok, err := CheckPassword("s3cret", hash)
	if err != nil || !ok {
		t.Fatalf("expected match, got %v %v", ok, err)
	}

	ok, err = CheckPassword("wrong", hash)
	if err != nil || ok {
		t.Fatalf("expected mismatch without error, got %v %v", ok, err)
	}

	if _, err := CheckPassword("s3cret", "not-a-hash"); err == nil {
		t.Fatalf("expected error for malformed hash")
	}
}

func TestPasswordTruncatedTo72Bytes(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 72)
	hash, err := HashPassword(long + "tail-one")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	ok, err := CheckPassword(long+"tail-two", hash)
	if err != nil || !ok {
		t.Fatalf("expected bytes past 72 to be ignored, got %v %v", ok, err)
	}
}

func TestTokens(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	tokens, err := NewTokens("secret", time.Minute)
	if err != nil {
		t.Fatalf("new tokens: %v", err)
	}
	tokens.now = func() time.Time { return now }

	signed, err := tokens.Issue("ada@talentum.plus", models.RoleRecruiter)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	id, err := tokens.Verify(signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.Email != "ada@talentum.plus" || id.Role != models.RoleRecruiter {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if !id.IsStaff() || id.HasRole(models.RoleAdmin) {
		t.Fatalf("unexpected role checks for %+v", id)
	}

	tokens.now = func() time.Time { return now.Add(2 * time.Minute) }
	if _, err := tokens.Verify(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}

	other, _ := NewTokens("other", time.Minute)
	other.now = func() time.Time { return now }
	if _, err := other.Verify(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected signature mismatch, got %v", err)
	}

	if _, err := NewTokens("  ", time.Minute); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}

func TestTokensRejectMissingSubject(t *testing.T) {
	t.Parallel()

	tokens, err := NewTokens("secret", 0)
	if err != nil {
		t.Fatalf("new tokens: %v", err)
	}

	claims := Claims{
		Role: models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := tokens.Verify(signed); !errors.Is(err, ErrMissingSubject) {
		t.Fatalf("expected missing subject, got %v", err)
	}
}

func TestIdentityContext(t *testing.T) {
	t.Parallel()

	if FromContext(context.Background()) != nil {
		t.Fatalf("expected anonymous context")
	}

	var anon *Identity
	if anon.HasRole(models.RoleAdmin) {
		t.Fatalf("nil identity must not hold roles")
	}

	ctx := WithIdentity(context.Background(), &Identity{Email: "a@b.co", Role: models.RoleAdmin})
	if got := FromContext(ctx); got == nil || got.Email != "a@b.co" {
		t.Fatalf("unexpected identity: %+v", got)
	}
}
