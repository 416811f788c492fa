// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package store keeps named diagram documents. The orchestrator never
// touches a store; callers load a document, run an edit, and write the
// result back only on success.
package store

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
)

// ErrInvalidKey is returned for keys that are empty or escape the store.
var ErrInvalidKey = errors.New("invalid document key")

// Store is a named-document key/value store.
type Store interface {
	// Get returns the document stored under key. A missing document is
	// reported with ok == false and a nil error.
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// Annotated is implemented by stores that record why a document changed.
type Annotated interface {
	SetWithInstruction(key, value, instruction string) error
}

// validateKey accepts slash-separated relative keys such as "graph.py" or
// "lectures/bfs.py".
func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	clean := path.Clean(key)
	if clean != key || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// MemoryStore is an in-process Store, safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, bool, error) {
	if err := validateKey(key); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.docs[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[key] = value
	return nil
}
