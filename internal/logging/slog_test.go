package logging

import (
	"errors"
	"strings"
	"testing"
)

func TestAnonymizeEmail(t *testing.T) {
	hashed := AnonymizeEmail("alice@example.com")
	if !strings.HasPrefix(hashed, "user:") {
		t.Errorf("AnonymizeEmail = %q, want user: prefix", hashed)
	}
	if strings.Contains(hashed, "alice") {
		t.Errorf("AnonymizeEmail leaked the address: %q", hashed)
	}
	if AnonymizeEmail("alice@example.com") != hashed {
		t.Error("AnonymizeEmail is not deterministic")
	}
}

func TestAnonymizeEmailEmpty(t *testing.T) {
	if got := AnonymizeEmail(""); got != "" {
		t.Errorf("AnonymizeEmail(\"\") = %q, want empty", got)
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := SanitizeToken("ya29.secret-token"); strings.Contains(got, "secret") {
		t.Errorf("SanitizeToken leaked token content: %q", got)
	}
	if got := SanitizeToken(""); got != "<empty>" {
		t.Errorf("SanitizeToken(\"\") = %q, want <empty>", got)
	}
}

func TestErrAttr(t *testing.T) {
	attr := Err(errors.New("boom"))
	if attr.Key != KeyError {
		t.Errorf("Err key = %q, want %q", attr.Key, KeyError)
	}
	if attr.Value.String() != "boom" {
		t.Errorf("Err value = %q, want %q", attr.Value.String(), "boom")
	}
}

func TestErrAttrNil(t *testing.T) {
	attr := Err(nil)
	if attr.Key != "" {
		t.Errorf("Err(nil) key = %q, want empty group", attr.Key)
	}
}

func TestUserHash(t *testing.T) {
	attr := UserHash("alice@example.com")
	if attr.Key != KeyUserHash {
		t.Errorf("UserHash key = %q, want %q", attr.Key, KeyUserHash)
	}
	if strings.Contains(attr.Value.String(), "alice") {
		t.Errorf("UserHash leaked the address: %q", attr.Value.String())
	}
}

func TestStatusAttr(t *testing.T) {
	attr := Status(StatusSuccess)
	if attr.Key != KeyStatus {
		t.Errorf("Status key = %q, want %q", attr.Key, KeyStatus)
	}
	if attr.Value.String() != "success" {
		t.Errorf("Status value = %q, want %q", attr.Value.String(), "success")
	}
}

func TestSetupReturnsLogger(t *testing.T) {
	if Setup(true) == nil {
		t.Error("Setup returned nil")
	}
}
