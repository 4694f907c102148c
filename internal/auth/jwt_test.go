package auth_test

import (
	"testing"
	"time"

	"github.com/ayushrkl/ratehub/internal/auth"
	"github.com/ayushrkl/ratehub/internal/domain/user"
	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	m := auth.NewManager("test-secret", time.Hour)

	token, err := m.IssueToken("user-1", "ayush@example.com", user.RoleStoreOwner)

	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	claims, err := m.VerifyToken(token)

	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}

	if claims.UserID != "user-1" || claims.Email != "ayush@example.com" || claims.Role != "store_owner" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := auth.NewManager("secret-a", time.Hour)
	verifier := auth.NewManager("secret-b", time.Hour)

	token, err := issuer.IssueToken("user-1", "a@b.co", user.RoleUser)

	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	if _, err := verifier.VerifyToken(token); err != auth.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := auth.NewManager("test-secret", time.Hour)

	for _, tok := range []string{"", "not-a-token", "aaa.bbb.ccc"} {
		if _, err := m.VerifyToken(tok); err != auth.ErrInvalidToken {
			t.Fatalf("VerifyToken(%q): expected ErrInvalidToken, got %v", tok, err)
		}
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := auth.NewManager("test-secret", time.Millisecond)

	token, err := m.IssueToken("user-1", "a@b.co", user.RoleUser)

	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	if _, err := m.VerifyToken(token); err != auth.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerifyRejectsUnknownRole(t *testing.T) {
	// Forge a token with the right secret but a role outside the enum.
	claims := auth.Claims{
		UserID: "user-1",
		Email:  "a@b.co",
		Role:   "superuser",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))

	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	m := auth.NewManager("test-secret", time.Hour)

	if _, err := m.VerifyToken(raw); err != auth.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for unknown role, got %v", err)
	}
}
