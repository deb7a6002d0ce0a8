// Package gitrepo implements the publish pipeline's repository operations
// directly on a git repository with go-git, for sites deployed from a local
// checkout or mirror rather than from GitHub.
package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage"

	"clubsite/internal/apperrors"
	"clubsite/internal/models"
)

// Default commit identity
const (
	DefaultAuthorName  = "Club admin"
	DefaultAuthorEmail = "admin@clubsite.local"
)

// Repository writes objects and moves branches in a go-git repository
type Repository struct {
	repo   *git.Repository
	Author object.Signature
	now    func() time.Time
}

// Open opens the repository at path (bare or with a worktree)
func Open(path string) (*Repository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, apperrors.NewConfigError("GIT_REPO_PATH", fmt.Sprintf("cannot open git repository at %s: %v", path, err))
	}
	return New(repo), nil
}

// New wraps an already opened repository
func New(repo *git.Repository) *Repository {
	return &Repository{
		repo:   repo,
		Author: object.Signature{Name: DefaultAuthorName, Email: DefaultAuthorEmail},
		now:    time.Now,
	}
}

// GetBranchHead returns the commit the branch points at
func (r *Repository) GetBranchHead(ctx context.Context, branch string) (string, error) {
	ref, err := r.repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", apperrors.NewRemoteError("get ref", http.StatusNotFound, "branch "+branch+" not found")
	}
	if err != nil {
		return "", fmt.Errorf("failed to read branch %s: %w", branch, err)
	}
	return ref.Hash().String(), nil
}

// GetCommitTree returns the tree of a commit
func (r *Repository) GetCommitTree(ctx context.Context, commitSHA string) (string, error) {
	hash, err := parseHash("get commit", commitSHA)
	if err != nil {
		return "", err
	}
	commit, err := r.repo.CommitObject(hash)
	if err != nil {
		return "", notFound("get commit", commitSHA, err)
	}
	return commit.TreeHash.String(), nil
}

// CreateBlob stores content as a blob object
func (r *Repository) CreateBlob(ctx context.Context, content []byte) (string, error) {
	obj := r.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(content)))

	w, err := obj.Writer()
	if err != nil {
		return "", fmt.Errorf("failed to open blob writer: %w", err)
	}
	if _, err := w.Write(content); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}

	hash, err := r.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return "", fmt.Errorf("failed to store blob: %w", err)
	}
	return hash.String(), nil
}

// CreateTree writes a tree equal to baseTree with entries added or replaced.
// Entry paths may be nested; intermediate trees are rewritten as needed.
func (r *Repository) CreateTree(ctx context.Context, baseTree string, entries []models.TreeEntry) (string, error) {
	var base *object.Tree
	if baseTree != "" {
		hash, err := parseHash("create tree", baseTree)
		if err != nil {
			return "", err
		}
		if base, err = r.repo.TreeObject(hash); err != nil {
			return "", notFound("create tree", baseTree, err)
		}
	}

	files := make(map[string]plumbing.Hash, len(entries))
	for _, entry := range entries {
		hash, err := parseHash("create tree", entry.BlobSHA)
		if err != nil {
			return "", err
		}
		clean := strings.Trim(path.Clean(entry.Path), "/")
		if clean == "" || clean == "." || strings.HasPrefix(clean, "../") {
			return "", apperrors.NewRemoteError("create tree", http.StatusUnprocessableEntity, "invalid path "+entry.Path)
		}
		files[clean] = hash
	}

	hash, err := r.writeTree(base, files)
	if err != nil {
		return "", err
	}
	return hash.String(), nil
}

// writeTree merges files (paths relative to this tree) into base and stores the result
func (r *Repository) writeTree(base *object.Tree, files map[string]plumbing.Hash) (plumbing.Hash, error) {
	byName := make(map[string]object.TreeEntry)
	if base != nil {
		for _, entry := range base.Entries {
			byName[entry.Name] = entry
		}
	}

	subdirs := make(map[string]map[string]plumbing.Hash)
	for file, hash := range files {
		dir, rest, nested := strings.Cut(file, "/")
		if !nested {
			byName[file] = object.TreeEntry{Name: file, Mode: filemode.Regular, Hash: hash}
			continue
		}
		if subdirs[dir] == nil {
			subdirs[dir] = make(map[string]plumbing.Hash)
		}
		subdirs[dir][rest] = hash
	}

	for dir, nestedFiles := range subdirs {
		var subBase *object.Tree
		if existing, ok := byName[dir]; ok && existing.Mode == filemode.Dir {
			tree, err := r.repo.TreeObject(existing.Hash)
			if err != nil {
				return plumbing.ZeroHash, fmt.Errorf("failed to read tree %s: %w", dir, err)
			}
			subBase = tree
		}
		hash, err := r.writeTree(subBase, nestedFiles)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		byName[dir] = object.TreeEntry{Name: dir, Mode: filemode.Dir, Hash: hash}
	}

	tree := &object.Tree{Entries: make([]object.TreeEntry, 0, len(byName))}
	for _, entry := range byName {
		tree.Entries = append(tree.Entries, entry)
	}
	// git orders directories as if their name ended with "/"
	sort.Slice(tree.Entries, func(i, j int) bool {
		return sortName(tree.Entries[i]) < sortName(tree.Entries[j])
	})

	obj := r.repo.Storer.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to encode tree: %w", err)
	}
	hash, err := r.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to store tree: %w", err)
	}
	return hash, nil
}

func sortName(entry object.TreeEntry) string {
	if entry.Mode == filemode.Dir {
		return entry.Name + "/"
	}
	return entry.Name
}

// CreateCommit writes a commit object
func (r *Repository) CreateCommit(ctx context.Context, message, tree string, parents []string) (string, error) {
	treeHash, err := parseHash("create commit", tree)
	if err != nil {
		return "", err
	}
	if _, err := r.repo.TreeObject(treeHash); err != nil {
		return "", notFound("create commit", tree, err)
	}

	parentHashes := make([]plumbing.Hash, 0, len(parents))
	for _, parent := range parents {
		hash, err := parseHash("create commit", parent)
		if err != nil {
			return "", err
		}
		parentHashes = append(parentHashes, hash)
	}

	signature := r.Author
	signature.When = r.now()
	commit := &object.Commit{
		Author:       signature,
		Committer:    signature,
		Message:      message,
		TreeHash:     treeHash,
		ParentHashes: parentHashes,
	}

	obj := r.repo.Storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return "", fmt.Errorf("failed to encode commit: %w", err)
	}
	hash, err := r.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return "", fmt.Errorf("failed to store commit: %w", err)
	}
	return hash.String(), nil
}

// UpdateRef moves branch to sha when sha descends from the current head
func (r *Repository) UpdateRef(ctx context.Context, branch, sha string) error {
	hash, err := parseHash("update ref", sha)
	if err != nil {
		return err
	}
	name := plumbing.NewBranchReferenceName(branch)

	current, err := r.repo.Storer.Reference(name)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return apperrors.NewRemoteError("update ref", http.StatusNotFound, "branch "+branch+" not found")
	}
	if err != nil {
		return fmt.Errorf("failed to read branch %s: %w", branch, err)
	}

	next, err := r.repo.CommitObject(hash)
	if err != nil {
		return notFound("update ref", sha, err)
	}
	head, err := r.repo.CommitObject(current.Hash())
	if err != nil {
		return fmt.Errorf("failed to read head of %s: %w", branch, err)
	}
	ok, err := head.IsAncestor(next)
	if err != nil {
		return fmt.Errorf("failed to compare commits: %w", err)
	}
	if !ok {
		return apperrors.NewRemoteError("update ref", http.StatusUnprocessableEntity, "Update is not a fast forward")
	}

	err = r.repo.Storer.CheckAndSetReference(plumbing.NewHashReference(name, hash), current)
	if errors.Is(err, storage.ErrReferenceHasChanged) {
		return apperrors.NewRemoteError("update ref", http.StatusConflict, "Reference has changed")
	}
	if err != nil {
		return fmt.Errorf("failed to update branch %s: %w", branch, err)
	}
	return nil
}

// parseHash accepts only full 40-character hex object names
func parseHash(operation, sha string) (plumbing.Hash, error) {
	if len(sha) != 40 || strings.Trim(strings.ToLower(sha), "0123456789abcdef") != "" {
		return plumbing.ZeroHash, apperrors.NewRemoteError(operation, http.StatusUnprocessableEntity, "invalid object name "+sha)
	}
	return plumbing.NewHash(sha), nil
}

func notFound(operation, sha string, err error) error {
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		return apperrors.NewRemoteError(operation, http.StatusNotFound, "object "+sha+" not found")
	}
	return fmt.Errorf("%s: %w", operation, err)
}
