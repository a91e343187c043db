package crypto

import (
	"strings"
	"testing"
)

func TestHashPasswordFormat(t *testing.T) {
	hash, err := HashPassword("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("HashPassword() unexpected error: %v", err)
	}

	// PHC format: $argon2id$v=19$m=65536,t=3,p=2$<salt>$<hash>
	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		t.Fatalf("HashPassword() expected 6 parts, got %d: %q", len(parts), hash)
	}
	if parts[1] != "argon2id" {
		t.Errorf("HashPassword() algorithm = %q, want %q", parts[1], "argon2id")
	}
	if parts[2] != "v=19" {
		t.Errorf("HashPassword() version = %q, want %q", parts[2], "v=19")
	}
	if parts[3] != "m=65536,t=3,p=2" {
		t.Errorf("HashPassword() params = %q, want %q", parts[3], "m=65536,t=3,p=2")
	}
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	a, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword() unexpected error: %v", err)
	}
	b, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword() unexpected error: %v", err)
	}
	if a == b {
		t.Error("HashPassword() produced identical hashes for two calls, salt not random")
	}
}

func TestVerifyPasswordCorrect(t *testing.T) {
	hash, err := HashPassword("my-secure-password")
	if err != nil {
		t.Fatalf("HashPassword() unexpected error: %v", err)
	}

	match, err := VerifyPassword("my-secure-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword() unexpected error: %v", err)
	}
	if !match {
		t.Error("VerifyPassword() = false for correct password")
	}
}

func TestVerifyPasswordWrong(t *testing.T) {
	hash, err := HashPassword("my-secure-password")
	if err != nil {
		t.Fatalf("HashPassword() unexpected error: %v", err)
	}

	match, err := VerifyPassword("not-the-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword() unexpected error: %v", err)
	}
	if match {
		t.Error("VerifyPassword() = true for wrong password")
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	for _, encoded := range []string{
		"",
		"not-a-hash",
		"$bcrypt$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=3,p=2$!!!$aGFzaA",
	} {
		if _, err := VerifyPassword("password", encoded); err == nil {
			t.Errorf("VerifyPassword(%q) expected error", encoded)
		}
	}
}
