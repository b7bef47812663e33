package identity

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taker.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestEnsureSeedPhrasePersists(t *testing.T) {
	s, path := openTestStore(t)
	phrase, created, err := s.EnsureSeedPhrase()
	if err != nil {
		t.Fatalf("EnsureSeedPhrase: %v", err)
	}
	if !created || phrase == "" {
		t.Fatalf("first run: created=%v phrase=%q", created, phrase)
	}

	again, created, err := s.EnsureSeedPhrase()
	if err != nil {
		t.Fatalf("EnsureSeedPhrase: %v", err)
	}
	if created || again != phrase {
		t.Fatalf("second call: created=%v phrase=%q, want stored %q", created, again, phrase)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	stored, err := reopened.SeedPhrase()
	if err != nil {
		t.Fatalf("SeedPhrase: %v", err)
	}
	if stored != phrase {
		t.Fatalf("phrase = %q after reopen, want %q", stored, phrase)
	}
}

func TestTradeIndexStartsAtOne(t *testing.T) {
	s, _ := openTestStore(t)
	last, err := s.LastTradeIndex()
	if err != nil {
		t.Fatalf("LastTradeIndex: %v", err)
	}
	if last != 0 {
		t.Fatalf("last = %d, want 0", last)
	}
	next, err := s.NextTradeIndex()
	if err != nil {
		t.Fatalf("NextTradeIndex: %v", err)
	}
	if next != 1 {
		t.Fatalf("next = %d, want 1", next)
	}
}

func TestAdvanceIsMonotonic(t *testing.T) {
	s, _ := openTestStore(t)
	if err := s.Advance(3); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	// Going backwards is silently ignored.
	if err := s.Advance(1); err != nil {
		t.Fatalf("Advance backwards: %v", err)
	}
	last, err := s.LastTradeIndex()
	if err != nil {
		t.Fatalf("LastTradeIndex: %v", err)
	}
	if last != 3 {
		t.Fatalf("last = %d, want 3", last)
	}
	if err := s.Advance(-1); err == nil {
		t.Fatal("negative index must be rejected")
	}
}

func TestNextTradeIndexDoesNotPersist(t *testing.T) {
	s, _ := openTestStore(t)
	for i := 0; i < 3; i++ {
		next, err := s.NextTradeIndex()
		if err != nil {
			t.Fatalf("NextTradeIndex: %v", err)
		}
		if next != 1 {
			t.Fatalf("next = %d, want 1 until an index is consumed", next)
		}
	}
}
