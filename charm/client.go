// ABOUTME: Charm KV client used by the key-value governance repositories
// ABOUTME: Wraps charm/kv (or a local BadgerDB in tests) with JSON helpers and auto-sync

package charm

import (
	"encoding/json"
	"os"
	"strconv"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
)

// store is the subset of *kv.KV the repositories rely on.
type store interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Keys() ([][]byte, error)
	Sync() error
	Reset() error
}

// Client serialises access to one KV database.
type Client struct {
	store  store
	config *Config
	local  bool
	mu     sync.RWMutex
}

// Open connects to the charm KV database named AppName on cfg.Host.
func Open(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if err := os.Setenv("CHARM_HOST", cfg.Host); err != nil {
		return nil, errors.Wrap(err, "set CHARM_HOST")
	}

	db, err := kv.OpenWithDefaults(AppName)
	if err != nil {
		return nil, errors.Wrap(err, "open charm kv")
	}

	c := &Client{store: db, config: cfg}
	if cfg.AutoSync {
		// Startup pull is best effort; an offline device still works locally.
		_ = db.Sync()
	}
	return c, nil
}

func (c *Client) Config() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// ID returns the charm account id linked to this device's SSH key.
func (c *Client) ID() (string, error) {
	if c.local {
		return "local", nil
	}
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", errors.Wrap(err, "create charm client")
	}
	return cc.ID()
}

func (c *Client) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return errors.Wrap(c.store.Sync(), "sync charm kv")
}

// Get returns nil, nil for a missing key.
func (c *Client) Get(key []byte) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, err := c.store.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	return v, errors.Wrapf(err, "get %s", key)
}

func (c *Client) Set(key, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setLocked(key, value)
}

func (c *Client) setLocked(key, value []byte) error {
	if err := c.store.Set(key, value); err != nil {
		return errors.Wrapf(err, "set %s", key)
	}
	c.autoSyncLocked()
	return nil
}

func (c *Client) Delete(key []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Delete(key); err != nil {
		return errors.Wrapf(err, "delete %s", key)
	}
	c.autoSyncLocked()
	return nil
}

func (c *Client) autoSyncLocked() {
	if c.config.AutoSync {
		_ = c.store.Sync()
	}
}

func (c *Client) Keys() ([][]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys, err := c.store.Keys()
	return keys, errors.Wrap(err, "list keys")
}

func (c *Client) KeysWithPrefix(prefix string) ([][]byte, error) {
	all, err := c.Keys()
	if err != nil {
		return nil, err
	}
	var matched [][]byte
	for _, k := range all {
		if len(k) >= len(prefix) && string(k[:len(prefix)]) == prefix {
			matched = append(matched, k)
		}
	}
	return matched, nil
}

// Reset wipes every key, locally and on the next sync.
func (c *Client) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return errors.Wrap(c.store.Reset(), "reset charm kv")
}

// getJSON decodes the value at key into dst and reports whether it existed.
func (c *Client) getJSON(key string, dst any) (bool, error) {
	data, err := c.Get([]byte(key))
	if err != nil || data == nil {
		return false, err
	}
	return true, errors.Wrapf(json.Unmarshal(data, dst), "decode %s", key)
}

func (c *Client) putJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	return c.Set([]byte(key), data)
}

// nextSeq increments the counter stored at key and returns the new value.
func (c *Client) nextSeq(key string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var n uint64
	raw, err := c.store.Get([]byte(key))
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
	case err != nil:
		return 0, errors.Wrapf(err, "get %s", key)
	default:
		if n, err = strconv.ParseUint(string(raw), 10, 64); err != nil {
			return 0, errors.Wrapf(err, "parse %s", key)
		}
	}
	n++
	if err := c.setLocked([]byte(key), []byte(strconv.FormatUint(n, 10))); err != nil {
		return 0, err
	}
	return n, nil
}
