package gitrepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"

	"clubsite/internal/apperrors"
	"clubsite/internal/models"
)

// newTestRepository returns an in-memory repository whose main branch holds
// README.md and public/index.html
func newTestRepository(t *testing.T) (*Repository, string) {
	t.Helper()
	repo, err := git.Init(memory.NewStorage(), nil)
	if err != nil {
		t.Fatalf("git.Init() error = %v", err)
	}
	r := New(repo)
	r.now = func() time.Time { return time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC) }

	ctx := context.Background()
	readme := mustBlob(t, r, "# Club\n")
	index := mustBlob(t, r, "<html></html>\n")
	tree, err := r.CreateTree(ctx, "", []models.TreeEntry{
		{Path: "README.md", BlobSHA: readme},
		{Path: "public/index.html", BlobSHA: index},
	})
	if err != nil {
		t.Fatalf("CreateTree() error = %v", err)
	}
	commit, err := r.CreateCommit(ctx, "initial", tree, nil)
	if err != nil {
		t.Fatalf("CreateCommit() error = %v", err)
	}
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName("main"), plumbing.NewHash(commit))
	if err := repo.Storer.SetReference(ref); err != nil {
		t.Fatalf("SetReference() error = %v", err)
	}
	return r, commit
}

func mustBlob(t *testing.T, r *Repository, content string) string {
	t.Helper()
	sha, err := r.CreateBlob(context.Background(), []byte(content))
	if err != nil {
		t.Fatalf("CreateBlob() error = %v", err)
	}
	return sha
}

// readFile returns the content of path at the tip of branch
func readFile(t *testing.T, r *Repository, branch, path string) string {
	t.Helper()
	ref, err := r.repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		t.Fatalf("Reference(%s) error = %v", branch, err)
	}
	commit, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		t.Fatalf("CommitObject() error = %v", err)
	}
	file, err := commit.File(path)
	if err != nil {
		t.Fatalf("File(%s) error = %v", path, err)
	}
	contents, err := file.Contents()
	if err != nil {
		t.Fatalf("Contents(%s) error = %v", path, err)
	}
	return contents
}

func TestPublishFlowAddsFilesAndKeepsBaseTree(t *testing.T) {
	r, initial := newTestRepository(t)
	ctx := context.Background()

	head, err := r.GetBranchHead(ctx, "main")
	if err != nil {
		t.Fatalf("GetBranchHead() error = %v", err)
	}
	if head != initial {
		t.Fatalf("GetBranchHead() = %s, want %s", head, initial)
	}

	baseTree, err := r.GetCommitTree(ctx, head)
	if err != nil {
		t.Fatalf("GetCommitTree() error = %v", err)
	}

	members := mustBlob(t, r, `[{"id":"m1"}]`)
	news := mustBlob(t, r, `[]`)
	tree, err := r.CreateTree(ctx, baseTree, []models.TreeEntry{
		{Path: "public/data/members.json", BlobSHA: members},
		{Path: "public/data/news.json", BlobSHA: news},
	})
	if err != nil {
		t.Fatalf("CreateTree() error = %v", err)
	}

	commit, err := r.CreateCommit(ctx, "chore: data", tree, []string{head})
	if err != nil {
		t.Fatalf("CreateCommit() error = %v", err)
	}
	if err := r.UpdateRef(ctx, "main", commit); err != nil {
		t.Fatalf("UpdateRef() error = %v", err)
	}

	files := map[string]string{
		"README.md":                "# Club\n",
		"public/index.html":        "<html></html>\n",
		"public/data/members.json": `[{"id":"m1"}]`,
		"public/data/news.json":    `[]`,
	}
	for path, want := range files {
		if got := readFile(t, r, "main", path); got != want {
			t.Errorf("%s = %q, want %q", path, got, want)
		}
	}
}

func TestCreateTreeReplacesExistingFile(t *testing.T) {
	r, initial := newTestRepository(t)
	ctx := context.Background()

	baseTree, _ := r.GetCommitTree(ctx, initial)
	replacement := mustBlob(t, r, "# Club (updated)\n")
	tree, err := r.CreateTree(ctx, baseTree, []models.TreeEntry{{Path: "README.md", BlobSHA: replacement}})
	if err != nil {
		t.Fatalf("CreateTree() error = %v", err)
	}
	commit, _ := r.CreateCommit(ctx, "update readme", tree, []string{initial})
	if err := r.UpdateRef(ctx, "main", commit); err != nil {
		t.Fatalf("UpdateRef() error = %v", err)
	}

	if got := readFile(t, r, "main", "README.md"); got != "# Club (updated)\n" {
		t.Errorf("README.md = %q", got)
	}
}

func TestUpdateRefRejectsNonFastForward(t *testing.T) {
	r, initial := newTestRepository(t)
	ctx := context.Background()
	baseTree, _ := r.GetCommitTree(ctx, initial)

	// Two publishes start from the same head; the second one loses
	first, _ := r.CreateCommit(ctx, "first", baseTree, []string{initial})
	second, _ := r.CreateCommit(ctx, "second", baseTree, []string{initial})
	if err := r.UpdateRef(ctx, "main", first); err != nil {
		t.Fatalf("UpdateRef(first) error = %v", err)
	}

	err := r.UpdateRef(ctx, "main", second)
	if !errors.Is(err, apperrors.ErrRemote) {
		t.Fatalf("UpdateRef(second) error = %v, want remote error", err)
	}

	head, _ := r.GetBranchHead(ctx, "main")
	if head != first {
		t.Errorf("branch head = %s, want %s", head, first)
	}
}

func TestMissingBranch(t *testing.T) {
	r, _ := newTestRepository(t)

	_, err := r.GetBranchHead(context.Background(), "gh-pages")
	var remoteErr *apperrors.RemoteError
	if !errors.As(err, &remoteErr) || remoteErr.StatusCode != 404 {
		t.Errorf("GetBranchHead() error = %v, want 404 remote error", err)
	}
}

func TestInvalidObjectNames(t *testing.T) {
	r, _ := newTestRepository(t)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{"short commit", func() error { _, err := r.GetCommitTree(ctx, "abc"); return err }},
		{"non-hex tree", func() error { _, err := r.CreateCommit(ctx, "m", "zz", nil); return err }},
		{"unknown commit", func() error {
			_, err := r.GetCommitTree(ctx, "0123456789abcdef0123456789abcdef01234567")
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, apperrors.ErrRemote) {
				t.Errorf("error = %v, want remote error", err)
			}
		})
	}
}

func TestOpenMissingRepository(t *testing.T) {
	_, err := Open(t.TempDir())
	if !errors.Is(err, apperrors.ErrConfig) {
		t.Errorf("Open() error = %v, want config error", err)
	}
}
