package utils

import (
	"testing"
	"time"
)

func init() {
	SetJWTSecret("test-secret-key-for-testing")
}

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken("user_2abc", "org_1", RoleOrgAdmin, 24)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if token == "" {
		t.Error("GenerateToken() returned empty token")
	}

	if len(token) < 50 {
		t.Errorf("token seems too short: %d chars", len(token))
	}
}

func TestGenerateToken_DifferentTokens(t *testing.T) {
	token1, _ := GenerateToken("user_1", "org_1", RoleOrgAdmin, 24)
	token2, _ := GenerateToken("user_2", "org_1", RoleOrgMember, 24)

	if token1 == token2 {
		t.Error("different users should produce different tokens")
	}
}

func TestParseToken(t *testing.T) {
	token, _ := GenerateToken("user_42", "org_acme", RoleOrgMember, 24)

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}

	if claims.UserID() != "user_42" {
		t.Errorf("UserID = %q, expected %q", claims.UserID(), "user_42")
	}
	if claims.OrgID != "org_acme" {
		t.Errorf("OrgID = %q, expected %q", claims.OrgID, "org_acme")
	}
	if claims.OrgRole != RoleOrgMember {
		t.Errorf("OrgRole = %q, expected %q", claims.OrgRole, RoleOrgMember)
	}
}

func TestParseToken_InvalidToken(t *testing.T) {
	invalidTokens := []string{
		"",
		"invalid",
		"not.a.token",
		"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid.signature",
	}

	for _, token := range invalidTokens {
		_, err := ParseToken(token)
		if err == nil {
			t.Errorf("ParseToken(%q) should return error", token)
		}
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	SetJWTSecret("original-secret")
	token, _ := GenerateToken("user_1", "org_1", RoleOrgAdmin, 24)

	SetJWTSecret("different-secret")
	_, err := ParseToken(token)

	SetJWTSecret("test-secret-key-for-testing")

	if err == nil {
		t.Error("ParseToken should fail with wrong secret")
	}
}

func TestParseToken_Expired(t *testing.T) {
	token, _ := GenerateToken("user_1", "org_1", RoleOrgMember, -1)

	if _, err := ParseToken(token); err == nil {
		t.Error("ParseToken should reject an expired token")
	}
}

func TestParseToken_MissingSubject(t *testing.T) {
	token, _ := GenerateToken("", "org_1", RoleOrgMember, 1)

	if _, err := ParseToken(token); err == nil {
		t.Error("ParseToken should reject a token without subject")
	}
}

func TestParseToken_Issuer(t *testing.T) {
	SetJWTIssuer("https://clerk.example.com")
	token, _ := GenerateToken("user_1", "org_1", RoleOrgMember, 1)

	if _, err := ParseToken(token); err != nil {
		t.Errorf("token from the configured issuer should parse: %v", err)
	}

	SetJWTIssuer("https://other.example.com")
	_, err := ParseToken(token)
	SetJWTIssuer("")

	if err == nil {
		t.Error("ParseToken should reject a token from another issuer")
	}
}

func TestGenerateToken_Expiration(t *testing.T) {
	token, _ := GenerateToken("user_1", "org_1", RoleOrgAdmin, 1)
	claims, _ := ParseToken(token)

	expiresAt := claims.ExpiresAt.Time
	now := time.Now()

	if expiresAt.Before(now) {
		t.Error("token should not be expired immediately")
	}

	expectedExpiry := now.Add(1 * time.Hour)
	diff := expiresAt.Sub(expectedExpiry)
	if diff < -time.Minute || diff > time.Minute {
		t.Errorf("expiration time is off by more than 1 minute: %v", diff)
	}
}
