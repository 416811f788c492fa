// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package git

import (
	"fmt"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Commit stages the given paths, relative to the work directory, and
// commits them with a message generated from instruction. Other changes
// in the work tree are left alone. When none of the paths changed, no
// commit is made and the zero hash is returned.
func (r *Repo) Commit(paths []string, instruction string) (plumbing.Hash, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("getting worktree: %w", err)
	}

	for _, p := range paths {
		if _, err := wt.Add(p); err != nil {
			return plumbing.ZeroHash, fmt.Errorf("staging %s: %w", p, err)
		}
	}

	status, err := wt.Status()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("getting status: %w", err)
	}
	if !anyStaged(status, paths) {
		return plumbing.ZeroHash, nil
	}

	hash, err := wt.Commit(GenerateMessage(instruction, paths), &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  r.cfg.AuthorName,
			Email: r.cfg.AuthorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("committing: %w", err)
	}
	return hash, nil
}

func anyStaged(status gogit.Status, paths []string) bool {
	for _, p := range paths {
		fs, ok := status[p]
		if ok && fs.Staging != gogit.Unmodified && fs.Staging != gogit.Untracked {
			return true
		}
	}
	return false
}
