package authutil_test

import (
	"testing"

	"github.com/mwholloway/salescope/internal/app/system/authutil"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := authutil.HashPassword("correct horse 1")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "correct horse 1" {
		t.Fatal("hash equals plaintext")
	}
	if !authutil.CheckPassword("correct horse 1", hash) {
		t.Error("CheckPassword rejected the correct password")
	}
	if authutil.CheckPassword("wrong horse 1", hash) {
		t.Error("CheckPassword accepted a wrong password")
	}
}

func TestCheckPassword_BadHash(t *testing.T) {
	if authutil.CheckPassword("anything", "not-a-bcrypt-hash") {
		t.Error("CheckPassword accepted a malformed hash")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := authutil.ValidatePassword("good pass 1"); err != nil {
		t.Errorf("expected valid password, got %v", err)
	}
	if err := authutil.ValidatePassword("short1"); err == nil {
		t.Error("expected error for short password")
	}
	if err := authutil.ValidatePassword("lettersonly"); err == nil {
		t.Error("expected error for password without digits")
	}
	if err := authutil.ValidatePassword("12345678"); err == nil {
		t.Error("expected error for password without letters")
	}
}
