// ABOUTME: Local BadgerDB-backed charm client for tests
// ABOUTME: Same Client API without a charm server or SSH keys

package charm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v3"
)

// localKV satisfies store over a plain BadgerDB directory.
type localKV struct {
	db *badger.DB
}

func (l *localKV) Get(key []byte) ([]byte, error) {
	var out []byte
	err := l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	return out, err
}

func (l *localKV) Set(key, value []byte) error {
	return l.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (l *localKV) Delete(key []byte) error {
	return l.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (l *localKV) Keys() ([][]byte, error) {
	var keys [][]byte
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	return keys, err
}

func (l *localKV) Sync() error { return nil }

func (l *localKV) Reset() error { return l.db.DropAll() }

// OpenLocal opens a BadgerDB directory as a client that never syncs.
func OpenLocal(dir string) (*Client, func() error, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, nil, err
	}
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, nil, err
	}
	c := &Client{
		store:  &localKV{db: db},
		config: &Config{Host: "localhost"},
		local:  true,
	}
	return c, db.Close, nil
}

// NewTestClient returns a client on a temporary BadgerDB. Defer the cleanup.
func NewTestClient(t *testing.T) (*Client, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "lifecycle-gate-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	c, closeDB, err := OpenLocal(filepath.Join(tmpDir, AppName))
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		t.Fatalf("Failed to open badger: %v", err)
	}

	cleanup := func() {
		if err := closeDB(); err != nil {
			t.Logf("Warning: failed to close test database: %v", err)
		}
		if err := os.RemoveAll(tmpDir); err != nil {
			t.Logf("Warning: failed to remove temp directory %s: %v", tmpDir, err)
		}
	}
	return c, cleanup
}
