package bot

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestCheckStaffCodePlaintext(t *testing.T) {
	if !CheckStaffCode("barber2026", "barber2026") {
		t.Fatal("matching plaintext code rejected")
	}
	if CheckStaffCode("barber2026", "wrong") {
		t.Fatal("wrong code accepted")
	}
	if CheckStaffCode("", "") || CheckStaffCode("barber2026", "") {
		t.Fatal("empty input must never pass")
	}
}

func TestCheckStaffCodeBcrypt(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("barber2026"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword: %v", err)
	}
	if !CheckStaffCode(string(hash), "barber2026") {
		t.Fatal("matching bcrypt code rejected")
	}
	if CheckStaffCode(string(hash), "wrong") {
		t.Fatal("wrong bcrypt code accepted")
	}
}
