package github

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gitlapse/gitlapse/cache"
	"github.com/gitlapse/gitlapse/dataset"
	"github.com/gitlapse/gitlapse/ratelimit"
	"github.com/gitlapse/gitlapse/retry"
)

// memoTTL bounds how long a probed commit page may be reused. A single
// run finishes well inside it.
const memoTTL = 10 * time.Minute

// FetchStats summarizes one acquisition run.
type FetchStats struct {
	FromCache    bool
	Repositories int
	Commits      int
	Excluded     []Excluded
}

// Options carries the fetch parameters the orchestrator needs.
type Options struct {
	Username       string
	UseCache       bool
	MaxRepos       int
	CommitsPerRepo int
	ProbeCacheSize int
}

// Fetcher orchestrates the acquisition: serve from the cache snapshot
// when it is fresh, otherwise enumerate repositories, extract commits
// sequentially under the rate-limit guard, persist the snapshot, and
// normalize. All remote work is single-threaded by design; parallel
// fetching would complicate quota accounting for no reliable gain.
type Fetcher struct {
	enum    *Enumerator
	extract *Extractor
	guard   *ratelimit.Guard
	store   *cache.Store
	opts    Options
	log     *logrus.Logger
}

// NewFetcher wires the enumerator, extractor, guard, and cache store
// around one Remote.
func NewFetcher(remote Remote, guard *ratelimit.Guard, exec *retry.Executor, store *cache.Store, opts Options, log *logrus.Logger) (*Fetcher, error) {
	memo, err := newPageMemo(opts.ProbeCacheSize, memoTTL)
	if err != nil {
		return nil, fmt.Errorf("probe cache: %w", err)
	}
	return &Fetcher{
		enum:    NewEnumerator(remote, exec, memo, opts.MaxRepos, log),
		extract: NewExtractor(remote, exec, memo, opts.CommitsPerRepo, log),
		guard:   guard,
		store:   store,
		opts:    opts,
		log:     log,
	}, nil
}

// FetchAll returns the normalized commit dataset, from cache when valid,
// otherwise freshly fetched. A run that yields no repositories or no
// commits returns an empty dataset, not an error; the caller branches on
// emptiness.
func (f *Fetcher) FetchAll(ctx context.Context) (dataset.Dataset, FetchStats, error) {
	if f.opts.UseCache && f.store.Valid(f.opts.Username) {
		records, err := f.store.Load()
		if err == nil {
			f.log.WithField("commits", len(records)).Info("loaded commits from cache")
			meta, _ := f.store.ReadMetadata()
			return dataset.Normalize(records), FetchStats{
				FromCache:    true,
				Repositories: meta.RepositoryCount,
				Commits:      len(records),
			}, nil
		}
		f.log.WithError(err).Warn("cache unreadable, fetching fresh data")
	}

	return f.fetchFresh(ctx)
}

func (f *Fetcher) fetchFresh(ctx context.Context) (dataset.Dataset, FetchStats, error) {
	f.log.WithField("user", f.opts.Username).Info("fetching fresh data")

	repos, excluded, err := f.enum.Enumerate(ctx, f.opts.Username)
	if err != nil {
		return dataset.Dataset{}, FetchStats{Excluded: excluded}, err
	}

	stats := FetchStats{Repositories: len(repos), Excluded: excluded}
	if len(repos) == 0 {
		f.log.Warn("no repositories with authored commits found")
		return dataset.Normalize(nil), stats, nil
	}

	var all []dataset.CommitRecord
	for _, repo := range repos {
		// Quota check at repository granularity; file-level calls
		// inside the repo ride on the same headroom.
		if err := f.guard.Wait(ctx); err != nil {
			return dataset.Dataset{}, stats, err
		}

		records, err := f.extract.Extract(ctx, repo, f.opts.Username)
		if err != nil {
			if ctx.Err() != nil {
				return dataset.Dataset{}, stats, err
			}
			f.log.WithField("repo", repo.FullName).WithError(err).Warn("extraction failed, skipping repository")
			continue
		}
		all = append(all, records...)
	}
	stats.Commits = len(all)
	f.log.WithField("commits", len(all)).Info("fetch complete")

	// The snapshot is written once, at the end, and only when the run
	// produced at least one commit.
	if f.opts.UseCache && len(all) > 0 {
		if err := f.store.Save(all, len(repos), f.opts.Username); err != nil {
			f.log.WithError(err).Warn("failed to save cache")
		}
	}

	if len(all) == 0 {
		f.log.Warn("no commits fetched")
	}
	return dataset.Normalize(all), stats, nil
}
