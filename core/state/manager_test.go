package state

import (
	"testing"

	"burnswap/storage"
)

type storedValue struct {
	Text string
}

func TestManagerRoundTrip(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	if err := manager.KVPut([]byte("k"), storedValue{Text: "v"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	var out storedValue
	ok, err := manager.KVGet([]byte("k"), &out)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || out.Text != "v" {
		t.Fatalf("unexpected value: ok=%v out=%+v", ok, out)
	}
	ok, err = manager.KVGet([]byte("missing"), &out)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if ok {
		t.Fatal("missing key reported as present")
	}
}

func TestTxnCommitAppliesWrites(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	txn := manager.Begin()
	if err := txn.KVPut([]byte("a"), storedValue{Text: "one"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Pending writes must be visible inside the transaction...
	var inside storedValue
	ok, err := txn.KVGet([]byte("a"), &inside)
	if err != nil || !ok || inside.Text != "one" {
		t.Fatalf("overlay read failed: ok=%v err=%v out=%+v", ok, err, inside)
	}

	// ...but not outside before commit.
	var outside storedValue
	ok, err = manager.KVGet([]byte("a"), &outside)
	if err != nil {
		t.Fatalf("manager get: %v", err)
	}
	if ok {
		t.Fatal("uncommitted write visible through manager")
	}

	if err := txn.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	ok, err = manager.KVGet([]byte("a"), &outside)
	if err != nil || !ok || outside.Text != "one" {
		t.Fatalf("committed value missing: ok=%v err=%v out=%+v", ok, err, outside)
	}
}

func TestTxnRollbackDiscardsWrites(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	txn := manager.Begin()
	if err := txn.KVPut([]byte("a"), storedValue{Text: "one"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	txn.Rollback()

	var out storedValue
	ok, err := manager.KVGet([]byte("a"), &out)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("rolled back write reached the database")
	}
	if err := txn.KVPut([]byte("b"), storedValue{Text: "two"}); err == nil {
		t.Fatal("expected write on finished txn to fail")
	}
}

func TestTxnOverwriteKeepsLastValue(t *testing.T) {
	manager := NewManager(storage.NewMemDB())
	txn := manager.Begin()
	for _, text := range []string{"one", "two", "three"} {
		if err := txn.KVPut([]byte("a"), storedValue{Text: text}); err != nil {
			t.Fatalf("put %q: %v", text, err)
		}
	}
	if err := txn.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	var out storedValue
	ok, err := manager.KVGet([]byte("a"), &out)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if out.Text != "three" {
		t.Fatalf("expected last write to win, got %q", out.Text)
	}
}
