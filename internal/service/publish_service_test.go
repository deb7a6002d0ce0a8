package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"clubsite/internal/apperrors"
	"clubsite/internal/config"
	"clubsite/internal/models"
)

// fakeRepository records every call and fails on the configured step
type fakeRepository struct {
	mu       sync.Mutex
	head     string
	calls    []string
	blobs    map[string][]byte
	entries  []models.TreeEntry
	parents  []string
	message  string
	failStep string
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{head: "abc", blobs: make(map[string][]byte)}
}

func (f *fakeRepository) record(step string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, step)
	if step == f.failStep {
		return apperrors.NewRemoteError(step, 500, "boom")
	}
	return nil
}

func (f *fakeRepository) GetBranchHead(ctx context.Context, branch string) (string, error) {
	if err := f.record("head"); err != nil {
		return "", err
	}
	return f.head, nil
}

func (f *fakeRepository) GetCommitTree(ctx context.Context, sha string) (string, error) {
	if err := f.record("commit-tree"); err != nil {
		return "", err
	}
	return "t1", nil
}

func (f *fakeRepository) CreateBlob(ctx context.Context, content []byte) (string, error) {
	if err := f.record("blob"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	// blob names follow the collection they hold
	var sha string
	switch {
	case strings.Contains(string(content), "firstName"):
		sha = "b1"
	case strings.Contains(string(content), "content"):
		sha = "b2"
	default:
		sha = "b3"
	}
	f.blobs[sha] = content
	return sha, nil
}

func (f *fakeRepository) CreateTree(ctx context.Context, baseTree string, entries []models.TreeEntry) (string, error) {
	if err := f.record("tree"); err != nil {
		return "", err
	}
	if baseTree != "t1" {
		return "", errors.New("unexpected base tree " + baseTree)
	}
	f.entries = entries
	return "t2", nil
}

func (f *fakeRepository) CreateCommit(ctx context.Context, message, tree string, parents []string) (string, error) {
	if err := f.record("commit"); err != nil {
		return "", err
	}
	if tree != "t2" {
		return "", errors.New("unexpected tree " + tree)
	}
	f.message = message
	f.parents = parents
	return "c2", nil
}

func (f *fakeRepository) UpdateRef(ctx context.Context, branch, sha string) error {
	if err := f.record("ref"); err != nil {
		return err
	}
	f.head = sha
	return nil
}

func validPublishConfig() config.PublishConfig {
	return config.PublishConfig{Token: "secret", Repo: "club/site", Branch: "main"}
}

func testDataset() models.Dataset {
	return models.Dataset{
		Members: []models.Member{testMember()},
		News:    models.DefaultNews(),
		Events:  models.DefaultEvents(),
	}
}

func connectTo(repo *fakeRepository, connected *bool) RepositoryConnector {
	return func(cfg config.PublishConfig) (RepositoryAPI, error) {
		if connected != nil {
			*connected = true
		}
		return repo, nil
	}
}

func TestPublishSuccess(t *testing.T) {
	repo := newFakeRepository()
	svc := NewPublishService(validPublishConfig(), connectTo(repo, nil), false)

	result, err := svc.Publish(context.Background(), testDataset())
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if result.CommitSHA != "c2" || result.Message != "Data published successfully!" {
		t.Errorf("Publish() = %+v", result)
	}
	if repo.head != "c2" {
		t.Errorf("branch head = %q, want c2", repo.head)
	}
	if repo.message != "chore: Update data from admin panel [skip ci]" {
		t.Errorf("commit message = %q", repo.message)
	}
	if len(repo.parents) != 1 || repo.parents[0] != "abc" {
		t.Errorf("commit parents = %v, want [abc]", repo.parents)
	}

	wantEntries := []models.TreeEntry{
		{Path: "public/data/members.json", BlobSHA: "b1"},
		{Path: "public/data/news.json", BlobSHA: "b2"},
		{Path: "public/data/events.json", BlobSHA: "b3"},
	}
	if len(repo.entries) != len(wantEntries) {
		t.Fatalf("tree entries = %+v", repo.entries)
	}
	for i, want := range wantEntries {
		if repo.entries[i] != want {
			t.Errorf("entry %d = %+v, want %+v", i, repo.entries[i], want)
		}
	}

	var members []models.Member
	if err := json.Unmarshal(repo.blobs["b1"], &members); err != nil {
		t.Fatalf("members blob is not JSON: %v", err)
	}
	if len(members) != 1 || members[0].ID != "m1" {
		t.Errorf("members blob = %s", repo.blobs["b1"])
	}
	if !strings.Contains(string(repo.blobs["b1"]), "\n  {") {
		t.Errorf("members blob is not pretty printed: %s", repo.blobs["b1"])
	}
}

func TestPublishAbortsBeforeRefUpdate(t *testing.T) {
	for _, step := range []string{"head", "commit-tree", "blob", "tree", "commit"} {
		t.Run(step, func(t *testing.T) {
			repo := newFakeRepository()
			repo.failStep = step
			svc := NewPublishService(validPublishConfig(), connectTo(repo, nil), false)

			_, err := svc.Publish(context.Background(), testDataset())
			if !errors.Is(err, apperrors.ErrRemote) {
				t.Fatalf("Publish() error = %v, want remote error", err)
			}
			if !strings.Contains(err.Error(), "boom") {
				t.Errorf("Publish() error = %v, want remote message", err)
			}
			for _, call := range repo.calls {
				if call == "ref" {
					t.Errorf("ref updated after %s failed", step)
				}
			}
			if repo.head != "abc" {
				t.Errorf("branch head = %q, want abc", repo.head)
			}
		})
	}
}

// slowBlobRepository fails the members blob at once while the other uploads
// are still running
type slowBlobRepository struct {
	*fakeRepository
	canceled int
	finished int
}

func (f *slowBlobRepository) CreateBlob(ctx context.Context, content []byte) (string, error) {
	if strings.Contains(string(content), "firstName") {
		return "", apperrors.NewRemoteError("blob", 500, "boom")
	}
	select {
	case <-ctx.Done():
		f.mu.Lock()
		f.canceled++
		f.mu.Unlock()
		return "", ctx.Err()
	case <-time.After(50 * time.Millisecond):
	}
	f.mu.Lock()
	f.finished++
	f.mu.Unlock()
	return "b", nil
}

func TestPublishBlobFailureLetsOtherUploadsFinish(t *testing.T) {
	repo := &slowBlobRepository{fakeRepository: newFakeRepository()}
	connect := func(cfg config.PublishConfig) (RepositoryAPI, error) { return repo, nil }
	svc := NewPublishService(validPublishConfig(), connect, false)

	_, err := svc.Publish(context.Background(), testDataset())
	if !errors.Is(err, apperrors.ErrRemote) {
		t.Fatalf("Publish() error = %v, want remote error", err)
	}
	if repo.canceled != 0 || repo.finished != 2 {
		t.Errorf("in-flight uploads: canceled = %d, finished = %d, want 0 and 2", repo.canceled, repo.finished)
	}
	for _, call := range repo.calls {
		if call == "tree" || call == "ref" {
			t.Errorf("%s called after a blob failed", call)
		}
	}
}

func TestPublishMissingToken(t *testing.T) {
	cfg := validPublishConfig()
	cfg.Token = ""
	connected := false
	svc := NewPublishService(cfg, connectTo(newFakeRepository(), &connected), false)

	_, err := svc.Publish(context.Background(), testDataset())
	if !errors.Is(err, apperrors.ErrConfig) {
		t.Fatalf("Publish() error = %v, want config error", err)
	}
	if !strings.Contains(err.Error(), "GITHUB_TOKEN") {
		t.Errorf("Publish() error = %v, want mention of GITHUB_TOKEN", err)
	}
	if connected {
		t.Error("repository contacted despite missing configuration")
	}
}

func TestPublishMalformedRepo(t *testing.T) {
	cfg := validPublishConfig()
	cfg.Repo = "club-site"
	svc := NewPublishService(cfg, connectTo(newFakeRepository(), nil), false)

	_, err := svc.Publish(context.Background(), testDataset())
	var configErr *apperrors.ConfigError
	if !errors.As(err, &configErr) || configErr.Key != "GITHUB_REPO" {
		t.Errorf("Publish() error = %v, want GITHUB_REPO config error", err)
	}
}

func TestMarshalPrettyKeepsHTMLCharacters(t *testing.T) {
	data, err := MarshalPretty([]string{"<b>Rugby & co</b>"})
	if err != nil {
		t.Fatalf("MarshalPretty() error = %v", err)
	}
	if string(data) != "[\n  \"<b>Rugby & co</b>\"\n]" {
		t.Errorf("MarshalPretty() = %q", data)
	}
}
