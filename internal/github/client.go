// Package github implements the publish pipeline's repository operations
// on top of the GitHub Git Data REST API.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"clubsite/internal/apperrors"
	"clubsite/internal/models"
)

// DefaultBaseURL is the public GitHub API
const DefaultBaseURL = "https://api.github.com"

// Client talks to one repository through the Git Data API
type Client struct {
	httpClient *http.Client
	baseURL    string
	owner      string
	repo       string
}

// NewClient creates a client authenticated with token ("Authorization: token ...")
func NewClient(token, owner, repo, baseURL string, timeout time.Duration) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "token"})
	httpClient := oauth2.NewClient(context.Background(), src)
	httpClient.Timeout = timeout

	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		owner:      owner,
		repo:       repo,
	}
}

type refResponse struct {
	Object struct {
		SHA string `json:"sha"`
	} `json:"object"`
}

type commitResponse struct {
	SHA  string `json:"sha"`
	Tree struct {
		SHA string `json:"sha"`
	} `json:"tree"`
}

type shaResponse struct {
	SHA string `json:"sha"`
}

type treeEntry struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
}

// GetBranchHead returns the commit SHA the branch points at
func (c *Client) GetBranchHead(ctx context.Context, branch string) (string, error) {
	var ref refResponse
	if err := c.do(ctx, "get ref", http.MethodGet, "/git/ref/heads/"+url.PathEscape(branch), nil, &ref); err != nil {
		return "", err
	}
	return requireSHA("get ref", ref.Object.SHA)
}

// GetCommitTree returns the tree SHA of a commit
func (c *Client) GetCommitTree(ctx context.Context, commitSHA string) (string, error) {
	var commit commitResponse
	if err := c.do(ctx, "get commit", http.MethodGet, "/git/commits/"+commitSHA, nil, &commit); err != nil {
		return "", err
	}
	return requireSHA("get commit", commit.Tree.SHA)
}

// CreateBlob stores content and returns its SHA
func (c *Client) CreateBlob(ctx context.Context, content []byte) (string, error) {
	body := map[string]string{"content": string(content), "encoding": "utf-8"}
	var blob shaResponse
	if err := c.do(ctx, "create blob", http.MethodPost, "/git/blobs", body, &blob); err != nil {
		return "", err
	}
	return requireSHA("create blob", blob.SHA)
}

// CreateTree creates a tree on top of baseTree with entries replaced or added
func (c *Client) CreateTree(ctx context.Context, baseTree string, entries []models.TreeEntry) (string, error) {
	tree := make([]treeEntry, len(entries))
	for i, entry := range entries {
		tree[i] = treeEntry{Path: entry.Path, Mode: "100644", Type: "blob", SHA: entry.BlobSHA}
	}
	body := map[string]any{"base_tree": baseTree, "tree": tree}

	var created shaResponse
	if err := c.do(ctx, "create tree", http.MethodPost, "/git/trees", body, &created); err != nil {
		return "", err
	}
	return requireSHA("create tree", created.SHA)
}

// CreateCommit creates a commit object
func (c *Client) CreateCommit(ctx context.Context, message, tree string, parents []string) (string, error) {
	body := map[string]any{"message": message, "tree": tree, "parents": parents}
	var created shaResponse
	if err := c.do(ctx, "create commit", http.MethodPost, "/git/commits", body, &created); err != nil {
		return "", err
	}
	return requireSHA("create commit", created.SHA)
}

// UpdateRef fast-forwards the branch to sha
func (c *Client) UpdateRef(ctx context.Context, branch, sha string) error {
	body := map[string]any{"sha": sha, "force": false}
	return c.do(ctx, "update ref", http.MethodPatch, "/git/refs/heads/"+url.PathEscape(branch), body, nil)
}

// do sends a request to the repository API and decodes the response into out
func (c *Client) do(ctx context.Context, operation, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", operation, err)
		}
		body = bytes.NewReader(data)
	}

	endpoint := fmt.Sprintf("%s/repos/%s/%s%s", c.baseURL, url.PathEscape(c.owner), url.PathEscape(c.repo), path)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewNetworkError(operation, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewNetworkError(operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperrors.NewRemoteError(operation, resp.StatusCode, remoteMessage(resp.StatusCode, data))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.NewRemoteError(operation, resp.StatusCode, "malformed response: "+err.Error())
	}
	return nil
}

// remoteMessage prefers the "message" field GitHub puts in error bodies
func remoteMessage(status int, body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return http.StatusText(status)
}

func requireSHA(operation, sha string) (string, error) {
	if sha == "" {
		return "", apperrors.NewRemoteError(operation, 0, "malformed response: missing sha")
	}
	return sha, nil
}
