package analysis

import "sync"

// KeyStore holds the provider API key. It is set at startup from
// configuration and may be replaced at runtime.
type KeyStore struct {
	mu  sync.RWMutex
	key string
}

// NewKeyStore creates a key store seeded with key
func NewKeyStore(key string) *KeyStore {
	return &KeyStore{key: key}
}

// Get returns the current key
func (k *KeyStore) Get() string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.key
}

// Set replaces the current key
func (k *KeyStore) Set(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.key = key
}
