// Package github acquires one user's authored commit history from the
// GitHub REST API: enumerating repositories, extracting per-commit file
// stats, and orchestrating cache-or-fresh fetches.
package github

import (
	"context"
	"errors"
	"net/http"
	"time"

	gh "github.com/google/go-github/v74/github"
	"github.com/jferrl/go-githubauth"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/gitlapse/gitlapse/ratelimit"
	"github.com/gitlapse/gitlapse/retry"
)

const pageSize = 100

// Repo identifies one candidate repository.
type Repo struct {
	Owner    string
	Name     string
	FullName string
}

// CommitSummary is one entry of a commit listing.
type CommitSummary struct {
	SHA       string
	Message   string
	Author    string
	Timestamp time.Time
}

// FileStat is one file's diff stats from a commit detail.
type FileStat struct {
	Filename  string
	Additions int
	Deletions int
	Changes   int
}

// CommitDetail is a commit with its file-level diff stats.
type CommitDetail struct {
	CommitSummary
	Files []FileStat
}

// Remote is the slice of the remote API the fetcher touches. The REST
// implementation wraps go-github; tests substitute fakes.
type Remote interface {
	// ListRepositories returns one page of the user's repositories and
	// the next page number (0 when exhausted).
	ListRepositories(ctx context.Context, user string, page int) ([]Repo, int, error)
	// ListCommits returns one page of commits authored by author in repo
	// and the next page number (0 when exhausted).
	ListCommits(ctx context.Context, repo Repo, author string, page int) ([]CommitSummary, int, error)
	// CommitDetail fetches one commit with file-level stats.
	CommitDetail(ctx context.Context, repo Repo, sha string) (CommitDetail, error)
	// Quota probes the remote rate-limit state.
	Quota(ctx context.Context) (ratelimit.Quota, error)
}

// Client is the REST implementation of Remote. Every call is paced by a
// client-side token bucket so bursts never trip abuse detection.
type Client struct {
	gh    *gh.Client
	pacer *rate.Limiter
}

// NewTokenClient builds a client from a pre-validated personal access
// token.
func NewTokenClient(token string, reqPerSec float64) *Client {
	return &Client{
		gh:    gh.NewClient(nil).WithAuthToken(token),
		pacer: rate.NewLimiter(rate.Limit(reqPerSec), 1),
	}
}

// NewAppClient builds a client authenticated as a GitHub App
// installation.
func NewAppClient(privateKey []byte, clientID string, installationID int64, reqPerSec float64) (*Client, error) {
	appTokenSource, err := githubauth.NewApplicationTokenSource(clientID, privateKey)
	if err != nil {
		return nil, err
	}
	installationTokenSource := githubauth.NewInstallationTokenSource(installationID, appTokenSource)
	httpClient := oauth2.NewClient(context.Background(), installationTokenSource)
	return &Client{
		gh:    gh.NewClient(httpClient),
		pacer: rate.NewLimiter(rate.Limit(reqPerSec), 1),
	}, nil
}

// ListRepositories implements Remote.
func (c *Client) ListRepositories(ctx context.Context, user string, page int) ([]Repo, int, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, 0, err
	}

	opts := &gh.RepositoryListByUserOptions{
		ListOptions: gh.ListOptions{Page: page, PerPage: pageSize},
	}
	repos, resp, err := c.gh.Repositories.ListByUser(ctx, user, opts)
	if err != nil {
		return nil, 0, err
	}

	out := make([]Repo, 0, len(repos))
	for _, r := range repos {
		if r == nil {
			continue
		}
		out = append(out, Repo{
			Owner:    r.GetOwner().GetLogin(),
			Name:     r.GetName(),
			FullName: r.GetFullName(),
		})
	}
	return out, resp.NextPage, nil
}

// ListCommits implements Remote.
func (c *Client) ListCommits(ctx context.Context, repo Repo, author string, page int) ([]CommitSummary, int, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, 0, err
	}

	opts := &gh.CommitsListOptions{
		Author:      author,
		ListOptions: gh.ListOptions{Page: page, PerPage: pageSize},
	}
	commits, resp, err := c.gh.Repositories.ListCommits(ctx, repo.Owner, repo.Name, opts)
	if err != nil {
		return nil, 0, err
	}

	out := make([]CommitSummary, 0, len(commits))
	for _, cm := range commits {
		if cm == nil {
			continue
		}
		out = append(out, CommitSummary{
			SHA:       cm.GetSHA(),
			Message:   cm.GetCommit().GetMessage(),
			Author:    cm.GetCommit().GetAuthor().GetName(),
			Timestamp: cm.GetCommit().GetAuthor().GetDate().Time,
		})
	}
	return out, resp.NextPage, nil
}

// CommitDetail implements Remote.
func (c *Client) CommitDetail(ctx context.Context, repo Repo, sha string) (CommitDetail, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return CommitDetail{}, err
	}

	cm, _, err := c.gh.Repositories.GetCommit(ctx, repo.Owner, repo.Name, sha, nil)
	if err != nil {
		return CommitDetail{}, err
	}

	detail := CommitDetail{
		CommitSummary: CommitSummary{
			SHA:       cm.GetSHA(),
			Message:   cm.GetCommit().GetMessage(),
			Author:    cm.GetCommit().GetAuthor().GetName(),
			Timestamp: cm.GetCommit().GetAuthor().GetDate().Time,
		},
	}
	for _, f := range cm.Files {
		if f == nil {
			continue
		}
		detail.Files = append(detail.Files, FileStat{
			Filename:  f.GetFilename(),
			Additions: f.GetAdditions(),
			Deletions: f.GetDeletions(),
			Changes:   f.GetChanges(),
		})
	}
	return detail, nil
}

// Quota implements Remote.
func (c *Client) Quota(ctx context.Context) (ratelimit.Quota, error) {
	limits, _, err := c.gh.RateLimit.Get(ctx)
	if err != nil {
		return ratelimit.Quota{}, err
	}
	core := limits.GetCore()
	return ratelimit.Quota{
		Remaining: core.Remaining,
		Limit:     core.Limit,
		Reset:     core.Reset.Time,
	}, nil
}

// classify maps a remote call error to a tagged retry result.
func classify(err error) retry.Result {
	if err == nil {
		return retry.OK()
	}

	var rateLimited *gh.RateLimitError
	if errors.As(err, &rateLimited) {
		return retry.Result{Status: retry.StatusRateLimited, Err: err}
	}

	var abuse *gh.AbuseRateLimitError
	if errors.As(err, &abuse) {
		return retry.Result{Status: retry.StatusForbidden, Err: err}
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case http.StatusForbidden:
			return retry.Result{Status: retry.StatusForbidden, Err: err}
		case http.StatusUnauthorized:
			return retry.Result{Status: retry.StatusFatal, Err: err}
		}
		return retry.Result{Status: retry.StatusTransient, Err: err}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return retry.Result{Status: retry.StatusFatal, Err: err}
	}

	return retry.Result{Status: retry.StatusTransient, Err: err}
}
