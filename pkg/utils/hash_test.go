package utils

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hashed, err := HashPassword("s3cret!")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hashed == "s3cret!" {
		t.Fatal("password stored in clear")
	}
	if !CheckPassword("s3cret!", hashed) {
		t.Fatal("expected match")
	}
	if CheckPassword("S3cret!", hashed) {
		t.Fatal("expected mismatch")
	}
}
