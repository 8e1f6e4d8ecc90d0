// Package kvstore implements the persistence port: a string-keyed store of opaque payloads.
package kvstore

import (
	"strings"

	"github.com/pkg/errors"
)

// Store key-value persistence. Load returns nil payload and nil error when the key is absent.
type Store interface {
	Load(key string) ([]byte, error)
	Save(key string, payload []byte) error
	Delete(key string) error
}

// Kind selects a Store implementation.
type Kind string

const (
	KindFile   Kind = "file"
	KindSQLite Kind = "sqlite"
	KindMemory Kind = "memory"
)

// Open creates the store of the given kind rooted at dir.
func Open(kind Kind, dir string) (Store, error) {
	switch kind {
	case KindFile, "":
		return NewFileStore(dir)
	case KindSQLite:
		return NewSQLiteStore(dir)
	case KindMemory:
		return NewMemoryStore(), nil
	default:
		return nil, errors.Errorf("unsupported storage kind: %s", kind)
	}
}

func sanitizeKey(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return ""
	}

	var b strings.Builder

	prevUnderscore := false

	for _, r := range value {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)

			prevUnderscore = false

			continue
		}

		if !prevUnderscore {
			b.WriteByte('_')

			prevUnderscore = true
		}
	}

	return strings.Trim(b.String(), "_")
}
