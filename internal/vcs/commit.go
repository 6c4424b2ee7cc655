// Package vcs records transformation output as a git commit.
package vcs

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/classforge/internal/foundation/errors"
)

// Author identifies the committer.
type Author struct {
	Name  string
	Email string
}

// DefaultAuthor is used when no author is configured.
var DefaultAuthor = Author{Name: "classforge", Email: "classforge@localhost"}

// CommitResult describes a commit made by CommitAll.
type CommitResult struct {
	Hash    string
	Added   []string
	Removed []string
}

// CommitAll stages every change under dir, including deletions, and commits
// it with message. dir may be anywhere inside a repository. When nothing
// under dir changed no commit is made and the result is nil.
func CommitAll(dir, message string, author Author) (*CommitResult, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryVCS, "failed to open git repository").
			WithContext("path", dir).Build()
	}
	w, err := repo.Worktree()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryVCS, "failed to get git worktree").Build()
	}

	prefix, err := relativePrefix(w.Filesystem.Root(), dir)
	if err != nil {
		return nil, err
	}

	status, err := w.Status()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryVCS, "failed to get git status").Build()
	}

	paths := make([]string, 0, len(status))
	for path := range status {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	res := &CommitResult{}
	for _, path := range paths {
		if prefix != "" && path != prefix && !strings.HasPrefix(path, prefix+"/") {
			continue
		}
		switch status[path].Worktree {
		case git.Unmodified:
			continue
		case git.Deleted:
			if _, err := w.Remove(path); err != nil {
				return nil, errors.WrapError(err, errors.CategoryVCS, "failed to stage removal").
					WithContext("path", path).Build()
			}
			res.Removed = append(res.Removed, path)
		default:
			if _, err := w.Add(path); err != nil {
				return nil, errors.WrapError(err, errors.CategoryVCS, "failed to stage file").
					WithContext("path", path).Build()
			}
			res.Added = append(res.Added, path)
		}
	}
	if len(res.Added) == 0 && len(res.Removed) == 0 {
		return nil, nil
	}

	if author.Name == "" {
		author = DefaultAuthor
	}
	hash, err := w.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: author.Name, Email: author.Email, When: time.Now()},
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryVCS, "failed to commit").Build()
	}
	res.Hash = hash.String()
	return res, nil
}

// relativePrefix returns dir relative to root in git's slash form, or "" for
// the root itself.
func relativePrefix(root, dir string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "failed to resolve repository root").Build()
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "failed to resolve output path").Build()
	}
	if r, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = r
	}
	if d, err := filepath.EvalSymlinks(absDir); err == nil {
		absDir = d
	}
	rel, err := filepath.Rel(absRoot, absDir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", errors.NewError(errors.CategoryVCS, "output path is outside the repository").
			WithContext("path", dir).Build()
	}
	if rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel), nil
}
