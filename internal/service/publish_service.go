package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"clubsite/internal/config"
	"clubsite/internal/models"
)

// PublishCommitMessage is used for every data commit. [skip ci] keeps the site build from looping.
const PublishCommitMessage = "chore: Update data from admin panel [skip ci]"

// PublishSuccessMessage is returned to the operator after a publish
const PublishSuccessMessage = "Data published successfully!"

// PublishDataDir is the repository directory holding the published files
const PublishDataDir = "public/data"

// RepositoryAPI is the subset of a Git hosting API the publish pipeline needs
type RepositoryAPI interface {
	GetBranchHead(ctx context.Context, branch string) (string, error)
	GetCommitTree(ctx context.Context, commitSHA string) (string, error)
	CreateBlob(ctx context.Context, content []byte) (string, error)
	CreateTree(ctx context.Context, baseTree string, entries []models.TreeEntry) (string, error)
	CreateCommit(ctx context.Context, message, tree string, parents []string) (string, error)
	// UpdateRef moves branch to sha; only fast-forward updates are allowed
	UpdateRef(ctx context.Context, branch, sha string) error
}

// RepositoryConnector builds the RepositoryAPI for a validated configuration
type RepositoryConnector func(cfg config.PublishConfig) (RepositoryAPI, error)

// PublishResult describes a successful publish
type PublishResult struct {
	CommitSHA string `json:"commit"`
	Message   string `json:"message"`
}

// PublishService commits the three collections to the data repository
type PublishService struct {
	cfg     config.PublishConfig
	connect RepositoryConnector
	debug   bool
}

// NewPublishService creates a publish service
func NewPublishService(cfg config.PublishConfig, connect RepositoryConnector, debug bool) *PublishService {
	return &PublishService{cfg: cfg, connect: connect, debug: debug}
}

// CheckConfig reports missing or malformed publish configuration without contacting the repository
func (s *PublishService) CheckConfig() error {
	return s.cfg.Validate()
}

// DataPath returns the repository path of a collection file
func DataPath(name models.CollectionName) string {
	return PublishDataDir + "/" + name.FileName()
}

// Publish writes data as a single commit on the configured branch.
// Configuration is checked before any remote call, and the branch only moves
// once every other step has succeeded.
func (s *PublishService) Publish(ctx context.Context, data models.Dataset) (PublishResult, error) {
	if err := s.CheckConfig(); err != nil {
		return PublishResult{}, err
	}

	contents, err := encodeDataset(data)
	if err != nil {
		return PublishResult{}, err
	}

	repo, err := s.connect(s.cfg)
	if err != nil {
		return PublishResult{}, err
	}

	branch := s.cfg.Branch

	// 1. Resolve branch head
	headSHA, err := repo.GetBranchHead(ctx, branch)
	if err != nil {
		return PublishResult{}, fmt.Errorf("failed to read branch %s: %w", branch, err)
	}
	if s.debug {
		log.Printf("[DEBUG] Branch %s is at %s", branch, headSHA)
	}

	// 2. Resolve base tree
	baseTree, err := repo.GetCommitTree(ctx, headSHA)
	if err != nil {
		return PublishResult{}, fmt.Errorf("failed to read commit %s: %w", headSHA, err)
	}

	// 3. Create blobs. A failure does not cancel the other uploads; their
	// results are dropped.
	blobs := make([]string, len(models.Collections))
	var g errgroup.Group
	for i, name := range models.Collections {
		g.Go(func() error {
			sha, err := repo.CreateBlob(ctx, contents[name])
			if err != nil {
				return fmt.Errorf("failed to create blob for %s: %w", name.FileName(), err)
			}
			blobs[i] = sha
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return PublishResult{}, err
	}

	// 4. Create tree
	entries := make([]models.TreeEntry, len(models.Collections))
	for i, name := range models.Collections {
		entries[i] = models.TreeEntry{Path: DataPath(name), BlobSHA: blobs[i]}
	}
	treeSHA, err := repo.CreateTree(ctx, baseTree, entries)
	if err != nil {
		return PublishResult{}, fmt.Errorf("failed to create tree: %w", err)
	}

	// 5. Create commit
	commitSHA, err := repo.CreateCommit(ctx, PublishCommitMessage, treeSHA, []string{headSHA})
	if err != nil {
		return PublishResult{}, fmt.Errorf("failed to create commit: %w", err)
	}

	// 6. Update ref
	if err := repo.UpdateRef(ctx, branch, commitSHA); err != nil {
		return PublishResult{}, fmt.Errorf("failed to update branch %s: %w", branch, err)
	}

	log.Printf("Published %d members, %d news, %d events as %s on %s",
		len(data.Members), len(data.News), len(data.Events), commitSHA, branch)

	return PublishResult{CommitSHA: commitSHA, Message: PublishSuccessMessage}, nil
}

// encodeDataset renders every collection the way it is published
func encodeDataset(data models.Dataset) (map[models.CollectionName][]byte, error) {
	contents := make(map[models.CollectionName][]byte, len(models.Collections))
	var err error
	if contents[models.CollectionMembers], err = MarshalPretty(nonNil(data.Members)); err != nil {
		return nil, err
	}
	if contents[models.CollectionNews], err = MarshalPretty(nonNil(data.News)); err != nil {
		return nil, err
	}
	if contents[models.CollectionEvents], err = MarshalPretty(nonNil(data.Events)); err != nil {
		return nil, err
	}
	return contents, nil
}

// MarshalPretty encodes v as 2-space indented JSON without HTML escaping
func MarshalPretty(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
