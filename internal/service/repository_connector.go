package service

import (
	"time"

	"clubsite/internal/config"
	"clubsite/internal/github"
	"clubsite/internal/gitrepo"
)

// NewRepositoryConnector picks the local git backend when GIT_REPO_PATH is set,
// the GitHub API otherwise
func NewRepositoryConnector(timeout time.Duration) RepositoryConnector {
	return func(cfg config.PublishConfig) (RepositoryAPI, error) {
		if cfg.LocalRepoPath != "" {
			return gitrepo.Open(cfg.LocalRepoPath)
		}
		owner, name, err := cfg.OwnerAndName()
		if err != nil {
			return nil, err
		}
		return github.NewClient(cfg.Token, owner, name, cfg.APIBaseURL, timeout), nil
	}
}
