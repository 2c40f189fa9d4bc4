// Package secret keeps credentials such as catalog database passwords out of
// the configuration file.
package secret

import "fmt"

// SecretStore stores sensitive values by key.
type SecretStore interface {
	Set(key string, value []byte) error

	// Get returns nil and no error when key does not exist.
	Get(key string) ([]byte, error)

	Delete(key string) error
}

// Password reads the secret filed under account. An empty account yields an
// empty password; a missing secret is an error.
func Password(store SecretStore, account string) (string, error) {
	if account == "" {
		return "", nil
	}
	value, err := store.Get(account)
	if err != nil {
		return "", fmt.Errorf("read secret %s: %w", account, err)
	}
	if value == nil {
		return "", fmt.Errorf("no secret stored for %s", account)
	}
	return string(value), nil
}

// MemoryStore is an in-process SecretStore used where no keychain exists.
type MemoryStore struct {
	values map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func (m *MemoryStore) Set(key string, value []byte) error {
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Get(key string) ([]byte, error) {
	v, ok := m.values[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) Delete(key string) error {
	delete(m.values, key)
	return nil
}
