package state

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"burnswap/storage"
)

// Manager provides typed key-value access on top of the raw database. Values
// are RLP encoded. Mutating operations are expected to run through a
// transaction obtained from Begin so a failed call leaves no partial writes.
type Manager struct {
	db storage.Database
}

// NewManager constructs a manager bound to the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// KVGet decodes the value stored under key into out. The boolean reports
// whether the key exists.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if m == nil || m.db == nil {
		return false, fmt.Errorf("state: manager not initialised")
	}
	raw, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, fmt.Errorf("state: decode %q: %w", key, err)
	}
	return true, nil
}

// KVPut encodes value and stores it under key.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: manager not initialised")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	return m.db.Put(key, encoded)
}

// Begin opens a write-buffering transaction. Reads observe pending writes;
// nothing reaches the database until Commit.
func (m *Manager) Begin() *Txn {
	return &Txn{
		manager: m,
		writes:  make(map[string][]byte),
	}
}

// Txn overlays pending writes on top of the manager. It provides the
// all-or-nothing call semantics the engines rely on: Commit applies every
// buffered write, Rollback (or simply dropping the transaction) discards them.
type Txn struct {
	manager *Manager
	writes  map[string][]byte
	order   []string
	done    bool
}

// KVGet reads through the overlay, preferring buffered writes.
func (t *Txn) KVGet(key []byte, out interface{}) (bool, error) {
	if t == nil || t.manager == nil {
		return false, fmt.Errorf("state: txn not initialised")
	}
	if raw, ok := t.writes[string(key)]; ok {
		if err := rlp.DecodeBytes(raw, out); err != nil {
			return false, fmt.Errorf("state: decode %q: %w", key, err)
		}
		return true, nil
	}
	return t.manager.KVGet(key, out)
}

// KVPut buffers the encoded value until Commit.
func (t *Txn) KVPut(key []byte, value interface{}) error {
	if t == nil || t.manager == nil {
		return fmt.Errorf("state: txn not initialised")
	}
	if t.done {
		return fmt.Errorf("state: txn already finished")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	k := string(key)
	if _, seen := t.writes[k]; !seen {
		t.order = append(t.order, k)
	}
	t.writes[k] = encoded
	return nil
}

// Commit applies buffered writes to the database in insertion order.
func (t *Txn) Commit() error {
	if t == nil || t.manager == nil {
		return fmt.Errorf("state: txn not initialised")
	}
	if t.done {
		return fmt.Errorf("state: txn already finished")
	}
	t.done = true
	for _, key := range t.order {
		if err := t.manager.db.Put([]byte(key), t.writes[key]); err != nil {
			return fmt.Errorf("state: commit %q: %w", key, err)
		}
	}
	return nil
}

// Rollback discards buffered writes.
func (t *Txn) Rollback() {
	if t == nil {
		return
	}
	t.done = true
	t.writes = make(map[string][]byte)
	t.order = nil
}
