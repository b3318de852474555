package mailcheck_test

import (
	"strings"
	"testing"

	"github.com/playcadiz/pokeruta/internal/mailcheck"
)

func TestValidateAllowed(t *testing.T) {
	for _, email := range []string{
		"user@gmail.com",
		"  User@GMAIL.com  ",
		"maria.lopez@outlook.es",
		"x@proton.me",
	} {
		if res := mailcheck.Validate(email); !res.Valid {
			t.Errorf("Validate(%q) = invalid (%q), want valid", email, res.Reason)
		}
	}
}

func TestValidateMalformed(t *testing.T) {
	for _, email := range []string{
		"",
		"   ",
		"not-an-email",
		"@gmail.com",
		"user@",
		"user@gmail",
		"user@gmail.c",
	} {
		res := mailcheck.Validate(email)
		if res.Valid {
			t.Errorf("Validate(%q) = valid, want invalid", email)
			continue
		}
		if strings.Contains(res.Reason, "provider") {
			t.Errorf("Validate(%q) rejected as domain-not-allowed, want malformed: %q", email, res.Reason)
		}
	}
}

func TestValidateDomainNotAllowed(t *testing.T) {
	res := mailcheck.Validate("user@unknownmail.xyz")
	if res.Valid {
		t.Fatal("expected unknownmail.xyz to be rejected")
	}
	if !strings.Contains(res.Reason, "provider") {
		t.Errorf("expected domain-not-allowed reason, got %q", res.Reason)
	}
}

func TestNormalize(t *testing.T) {
	if got := mailcheck.Normalize("  Ash@Gmail.COM "); got != "ash@gmail.com" {
		t.Errorf("Normalize = %q, want ash@gmail.com", got)
	}
}
