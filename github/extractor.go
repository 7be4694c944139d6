package github

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/gitlapse/gitlapse/dataset"
	"github.com/gitlapse/gitlapse/retry"
)

// maxFilesPerCommit caps the file list extracted per commit. Monster
// diffs past this point add noise, not signal, and burn quota.
const maxFilesPerCommit = 50

// Extractor pulls authored commits for one repository, up to the
// configured cap, with per-file change stats.
type Extractor struct {
	remote         Remote
	exec           *retry.Executor
	memo           *pageMemo
	commitsPerRepo int
	log            *logrus.Logger
}

// NewExtractor builds an extractor.
func NewExtractor(remote Remote, exec *retry.Executor, memo *pageMemo, commitsPerRepo int, log *logrus.Logger) *Extractor {
	return &Extractor{remote: remote, exec: exec, memo: memo, commitsPerRepo: commitsPerRepo, log: log}
}

// Extract returns the commit records for repo authored by username.
// Per-commit failures are logged and skipped; a commit whose file diff is
// unavailable gets an empty file list.
func (x *Extractor) Extract(ctx context.Context, repo Repo, username string) ([]dataset.CommitRecord, error) {
	summaries, err := x.listCommits(ctx, repo, username)
	if err != nil {
		return nil, err
	}

	records := make([]dataset.CommitRecord, 0, len(summaries))
	for _, summary := range summaries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if summary.SHA == "" {
			x.log.WithField("repo", repo.FullName).Warn("skipping commit without sha")
			continue
		}
		records = append(records, x.extractOne(ctx, repo, summary))
	}

	x.log.WithFields(logrus.Fields{
		"repo":    repo.FullName,
		"commits": len(records),
	}).Info("commits extracted")
	return records, nil
}

// listCommits pages through the repository's authored commits up to the
// per-repo cap, reusing the memoized probe page when present.
func (x *Extractor) listCommits(ctx context.Context, repo Repo, username string) ([]CommitSummary, error) {
	var (
		all  []CommitSummary
		page = 1
	)
	if p, ok := x.memo.get(repo); ok {
		all = append(all, p.commits...)
		page = p.nextPage
	}

	for page != 0 && len(all) < x.commitsPerRepo {
		var (
			commits []CommitSummary
			next    int
		)
		err := x.exec.Do(ctx, "list commits "+repo.FullName, func(ctx context.Context) retry.Result {
			var err error
			commits, next, err = x.remote.ListCommits(ctx, repo, username, page)
			return classify(err)
		})
		if err != nil {
			return nil, err
		}
		all = append(all, commits...)
		page = next
	}

	if len(all) > x.commitsPerRepo {
		all = all[:x.commitsPerRepo]
	}
	return all, nil
}

// extractOne builds the record for one commit. A failed detail fetch is
// not an error: merges and oversized diffs simply have no file list.
func (x *Extractor) extractOne(ctx context.Context, repo Repo, summary CommitSummary) dataset.CommitRecord {
	record := dataset.CommitRecord{
		SHA:          summary.SHA,
		Message:      summary.Message,
		Timestamp:    summary.Timestamp,
		RepoName:     repo.Name,
		RepoFullName: repo.FullName,
		Author:       summary.Author,
		FilesChanged: []dataset.FileChange{},
	}

	var detail CommitDetail
	err := x.exec.Do(ctx, "get commit "+summary.SHA, func(ctx context.Context) retry.Result {
		var err error
		detail, err = x.remote.CommitDetail(ctx, repo, summary.SHA)
		return classify(err)
	})
	if err != nil {
		x.log.WithFields(logrus.Fields{
			"repo": repo.FullName,
			"sha":  summary.SHA,
		}).WithError(err).Debug("file diff unavailable")
		return record
	}

	files := detail.Files
	if len(files) > maxFilesPerCommit {
		files = files[:maxFilesPerCommit]
	}
	for _, f := range files {
		record.FilesChanged = append(record.FilesChanged, dataset.FileChange{
			Filename:  f.Filename,
			Extension: dataset.FileExtension(f.Filename),
			Additions: f.Additions,
			Deletions: f.Deletions,
			Changes:   f.Changes,
		})
	}
	return record
}
