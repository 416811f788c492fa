// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package store

import (
	"fmt"
	"sync"

	"github.com/petar-djukic/diagram-coder/internal/git"
)

// GitStore is a FileStore whose root is a git work tree. Every write is
// committed, so the repository history is the document history.
type GitStore struct {
	files *FileStore
	repo  *git.Repo
	mu    sync.Mutex // Serializes write+commit
}

// NewGitStore opens the repository at root, initializing it if needed.
func NewGitStore(root string) (*GitStore, error) {
	files, err := NewFileStore(root)
	if err != nil {
		return nil, err
	}
	repo, err := git.Open(git.Config{WorkDir: root, Init: true})
	if err != nil {
		return nil, err
	}
	return &GitStore{files: files, repo: repo}, nil
}

func (s *GitStore) Get(key string) (string, bool, error) {
	return s.files.Get(key)
}

// Set writes and commits the document with a generic message.
func (s *GitStore) Set(key, value string) error {
	return s.SetWithInstruction(key, value, "update "+key)
}

// SetWithInstruction writes and commits the document with a message
// derived from the instruction that produced it.
func (s *GitStore) SetWithInstruction(key, value, instruction string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.files.Set(key, value); err != nil {
		return err
	}
	if _, err := s.repo.Commit([]string{key}, instruction); err != nil {
		return fmt.Errorf("committing %s: %w", key, err)
	}
	return nil
}
