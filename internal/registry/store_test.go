package registry

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "users.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func TestPutAndGet(t *testing.T) {
	s := openTestStore(t)

	rec := UserRecord{
		UserID:    42,
		Username:  "alice",
		FullName:  "Alice A",
		FirstSeen: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	if err := s.Put(rec); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(42)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if got == nil {
		t.Fatal("expected record, got nil")
	}

	if got.Username != "alice" || got.FullName != "Alice A" {
		t.Errorf("record mismatch: %+v", got)
	}
}

func TestGetUnknownUser(t *testing.T) {
	s := openTestStore(t)

	got, err := s.Get(999)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if got != nil {
		t.Errorf("expected nil for unknown user, got %+v", got)
	}
}

func TestPutIsFirstWriteWins(t *testing.T) {
	s := openTestStore(t)

	if err := s.Put(UserRecord{UserID: 1, Username: "original"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// later contact must not overwrite the first-seen record
	if err := s.Put(UserRecord{UserID: 1, Username: "changed"}); err != nil {
		t.Fatalf("second Put: %v", err)
	}

	got, err := s.Get(1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if got.Username != "original" {
		t.Errorf("expected original record kept, got %q", got.Username)
	}
}

func TestListAll(t *testing.T) {
	s := openTestStore(t)

	for i, id := range []int64{10, 20, 30} {
		rec := UserRecord{
			UserID:    id,
			FirstSeen: time.Date(2025, 1, 1+i, 0, 0, 0, 0, time.UTC),
		}
		if err := s.Put(rec); err != nil {
			t.Fatalf("Put %d: %v", id, err)
		}
	}

	ids, err := s.ListAll()
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}

	if len(ids) != 3 {
		t.Fatalf("expected 3 users, got %d", len(ids))
	}

	count, err := s.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}

	if count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}
}
