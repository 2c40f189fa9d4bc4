package secret_test

import (
	"testing"

	"gamebooks/internal/secret"
)

func TestPassword(t *testing.T) {
	store := secret.NewMemoryStore()
	store.Set("catalog", []byte("s3cret"))

	got, err := secret.Password(store, "catalog")
	if err != nil || got != "s3cret" {
		t.Fatalf("Password = %q, %v", got, err)
	}
	if got, err := secret.Password(store, ""); got != "" || err != nil {
		t.Errorf("empty account: got %q, %v", got, err)
	}
	if _, err := secret.Password(store, "unknown"); err == nil {
		t.Error("missing secret should be an error")
	}
}

func TestMemoryStore(t *testing.T) {
	s := secret.NewMemoryStore()
	if v, err := s.Get("k"); v != nil || err != nil {
		t.Fatalf("missing key: got %q, %v", v, err)
	}
	s.Set("k", []byte("v"))
	if v, _ := s.Get("k"); string(v) != "v" {
		t.Errorf("got %q", v)
	}
	s.Delete("k")
	if v, _ := s.Get("k"); v != nil {
		t.Errorf("expected deleted, got %q", v)
	}
}
