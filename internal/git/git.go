// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package git records document edits as commits in a local repository.
package git

import (
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const (
	defaultAuthorName  = "diagram-coder"
	defaultAuthorEmail = "noreply@diagram-coder"

	// editTrailer marks commits created from an instruction.
	editTrailer = "Edited-By: diagram-coder"
)

// ErrNoGit is returned when the working directory is not a git repository.
var ErrNoGit = errors.New("not a git repository")

// Config configures the repository.
type Config struct {
	WorkDir     string // Repository working directory
	Init        bool   // Initialize a repository when none exists
	AuthorName  string // Commit author (default "diagram-coder")
	AuthorEmail string
}

// Repo wraps a go-git repository for the operations we need.
type Repo struct {
	repo *gogit.Repository
	cfg  Config
}

// Open opens the git repository at the configured work directory, creating
// it when Config.Init is set. Returns ErrNoGit otherwise.
func Open(cfg Config) (*Repo, error) {
	if cfg.AuthorName == "" {
		cfg.AuthorName = defaultAuthorName
	}
	if cfg.AuthorEmail == "" {
		cfg.AuthorEmail = defaultAuthorEmail
	}

	r, err := gogit.PlainOpen(cfg.WorkDir)
	if errors.Is(err, gogit.ErrRepositoryNotExists) && cfg.Init {
		r, err = gogit.PlainInit(cfg.WorkDir, false)
		if err != nil {
			return nil, fmt.Errorf("initializing repository: %w", err)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoGit, err)
	}
	return &Repo{repo: r, cfg: cfg}, nil
}

// WorkDir returns the repository working directory.
func (r *Repo) WorkDir() string {
	return r.cfg.WorkDir
}

// lastCommitMessage returns the message of the HEAD commit.
func (r *Repo) lastCommitMessage() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", err
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return "", err
	}
	return commit.Message, nil
}

// commitCount returns the total number of commits reachable from HEAD.
func (r *Repo) commitCount() (int, error) {
	iter, err := r.repo.Log(&gogit.LogOptions{})
	if err != nil {
		return 0, err
	}
	count := 0
	err = iter.ForEach(func(c *object.Commit) error {
		count++
		return nil
	})
	return count, err
}
