package github

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/gitlapse/gitlapse/retry"
)

// Excluded records a repository dropped during enumeration and why, so
// the behavior is observable instead of silently swallowed.
type Excluded struct {
	Repo   string `json:"repo"`
	Reason string `json:"reason"`
}

// Enumerator lists a user's repositories, truncates to the configured
// cap, and keeps only those with at least one authored commit. Probes
// run sequentially; a repository whose probe fails is excluded, never
// fatal to the run.
type Enumerator struct {
	remote   Remote
	exec     *retry.Executor
	memo     *pageMemo
	maxRepos int
	log      *logrus.Logger
}

// NewEnumerator builds an enumerator.
func NewEnumerator(remote Remote, exec *retry.Executor, memo *pageMemo, maxRepos int, log *logrus.Logger) *Enumerator {
	return &Enumerator{remote: remote, exec: exec, memo: memo, maxRepos: maxRepos, log: log}
}

// Enumerate returns the qualifying repositories in listing order plus the
// explicit exclusions.
func (e *Enumerator) Enumerate(ctx context.Context, username string) ([]Repo, []Excluded, error) {
	candidates, err := e.listAll(ctx, username)
	if err != nil {
		return nil, nil, fmt.Errorf("list repositories: %w", err)
	}
	if len(candidates) > e.maxRepos {
		candidates = candidates[:e.maxRepos]
	}
	e.log.WithField("candidates", len(candidates)).Info("filtering repositories")

	var (
		qualified []Repo
		excluded  []Excluded
	)
	for _, repo := range candidates {
		commits, err := e.probe(ctx, repo, username)
		if err != nil {
			e.log.WithField("repo", repo.FullName).WithError(err).Warn("probe failed, excluding repository")
			excluded = append(excluded, Excluded{Repo: repo.FullName, Reason: err.Error()})
			continue
		}
		if len(commits) == 0 {
			e.log.WithField("repo", repo.FullName).Debug("no authored commits, skipping")
			continue
		}
		qualified = append(qualified, repo)
	}

	e.log.WithFields(logrus.Fields{
		"qualified": len(qualified),
		"excluded":  len(excluded),
	}).Info("repositories enumerated")
	return qualified, excluded, nil
}

// listAll pages through the user's repositories.
func (e *Enumerator) listAll(ctx context.Context, username string) ([]Repo, error) {
	var all []Repo
	page := 1
	for page != 0 {
		var (
			repos []Repo
			next  int
		)
		err := e.exec.Do(ctx, "list repositories", func(ctx context.Context) retry.Result {
			var err error
			repos, next, err = e.remote.ListRepositories(ctx, username, page)
			return classify(err)
		})
		if err != nil {
			return nil, err
		}
		all = append(all, repos...)
		if len(all) >= e.maxRepos {
			break
		}
		page = next
	}
	return all, nil
}

// probe fetches the repository's first authored commit page and memoizes
// it for the extractor.
func (e *Enumerator) probe(ctx context.Context, repo Repo, username string) ([]CommitSummary, error) {
	if p, ok := e.memo.get(repo); ok {
		return p.commits, nil
	}

	var (
		commits []CommitSummary
		next    int
	)
	err := e.exec.Do(ctx, "probe "+repo.FullName, func(ctx context.Context) retry.Result {
		var err error
		commits, next, err = e.remote.ListCommits(ctx, repo, username, 1)
		return classify(err)
	})
	if err != nil {
		return nil, err
	}

	e.memo.put(repo, commits, next)
	return commits, nil
}
