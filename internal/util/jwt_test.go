package util

import (
	"testing"
	"time"
)

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken("s3cret", "ivr-flow", "ops", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := ParseToken("s3cret", "ivr-flow", token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Subject != "ops" || claims.Scope != ScopeAdmin {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := ParseToken("other", "ivr-flow", token); err == nil {
		t.Error("ParseToken() with wrong secret error = nil")
	}
	if _, err := ParseToken("s3cret", "someone-else", token); err == nil {
		t.Error("ParseToken() with wrong issuer error = nil")
	}
}

func TestGenerateToken_EmptySecret(t *testing.T) {
	if _, err := GenerateToken("", "ivr-flow", "ops", time.Hour); err == nil {
		t.Error("GenerateToken() with empty secret error = nil")
	}
}
