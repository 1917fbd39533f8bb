package store

import (
	"testing"

	"github.com/mirilee/daybook/internal/database"
)

func setupUserStore(t *testing.T) *UserStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserStore(db)
}

func TestUserCreateAndGetByEmail(t *testing.T) {
	s := setupUserStore(t)

	user, err := s.Create("mina@example.com", "Mina")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.ID == 0 {
		t.Error("expected nonzero id")
	}

	got, err := s.GetByEmail("mina@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got == nil || got.Name != "Mina" {
		t.Errorf("got %+v, want name Mina", got)
	}
}

func TestUserGetByEmailNotFound(t *testing.T) {
	s := setupUserStore(t)

	got, err := s.GetByEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got != nil {
		t.Error("expected nil for unknown email")
	}
}

func TestUserUpsert(t *testing.T) {
	s := setupUserStore(t)

	first, err := s.Upsert("mina@example.com", "Mina")
	if err != nil {
		t.Fatalf("upsert new user: %v", err)
	}

	// Second sign-in with a changed display name keeps the same row.
	second, err := s.Upsert("mina@example.com", "Mina Lee")
	if err != nil {
		t.Fatalf("upsert existing user: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("upsert created a new row: id %d != %d", second.ID, first.ID)
	}
	if second.Name != "Mina Lee" {
		t.Errorf("name = %q, want Mina Lee", second.Name)
	}
}
