// AngelaMos | 2026
// security_test.go

package core

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPasswordUsesConfiguredCost(t *testing.T) {
	hash, err := HashPassword("s3cretpass")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("bcrypt.Cost: %v", err)
	}
	if cost != BcryptCost {
		t.Errorf("cost = %d, want %d", cost, BcryptCost)
	}
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct1")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"match", "correct1", true},
		{"mismatch", "wrong1", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := VerifyPassword(tt.password, hash)
			if err != nil {
				t.Fatalf("VerifyPassword: %v", err)
			}
			if got != tt.want {
				t.Errorf("VerifyPassword(%q) = %v, want %v", tt.password, got, tt.want)
			}
		})
	}
}

func TestHashPasswordRejectsOverlongInput(t *testing.T) {
	if _, err := HashPassword(strings.Repeat("a", 73)); err != ErrPasswordTooLong {
		t.Fatalf("err = %v, want ErrPasswordTooLong", err)
	}
}

func TestVerifyPasswordTimingSafeUnknownAccount(t *testing.T) {
	valid, rehash, err := VerifyPasswordTimingSafe("anything1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if valid || rehash != "" {
		t.Fatalf("nil hash must never verify")
	}
}

func TestVerifyPasswordWithRehashUpgradesCost(t *testing.T) {
	weak, err := bcrypt.GenerateFromPassword([]byte("upgrade1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword: %v", err)
	}

	valid, newHash, err := VerifyPasswordWithRehash("upgrade1", string(weak))
	if err != nil {
		t.Fatalf("VerifyPasswordWithRehash: %v", err)
	}
	if !valid {
		t.Fatal("expected password to verify")
	}
	if newHash == "" {
		t.Fatal("expected a rehash for a low-cost hash")
	}
}

func TestGenerateResetTokenLength(t *testing.T) {
	a, err := GenerateResetToken()
	if err != nil {
		t.Fatalf("GenerateResetToken: %v", err)
	}
	b, err := GenerateResetToken()
	if err != nil {
		t.Fatalf("GenerateResetToken: %v", err)
	}

	if len(a) != ResetTokenLength {
		t.Errorf("len = %d, want %d", len(a), ResetTokenLength)
	}
	if a == b {
		t.Error("two reset tokens must differ")
	}
}

func TestCompareTokenHash(t *testing.T) {
	h := HashToken("refresh-token")
	if !CompareTokenHash("refresh-token", h) {
		t.Error("expected hash to match")
	}
	if CompareTokenHash("other", h) {
		t.Error("expected hash mismatch")
	}
}
