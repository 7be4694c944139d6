package github

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// firstPage is a memoized first commit page for one repository.
type firstPage struct {
	commits   []CommitSummary
	nextPage  int
	expiresAt time.Time
}

// pageMemo remembers the first commit page fetched while probing each
// repository, so the extractor reuses it instead of repeating the call.
type pageMemo struct {
	lru *lru.Cache[string, firstPage]
	ttl time.Duration
}

func newPageMemo(size int, ttl time.Duration) (*pageMemo, error) {
	l, err := lru.New[string, firstPage](size)
	if err != nil {
		return nil, err
	}
	return &pageMemo{lru: l, ttl: ttl}, nil
}

func (m *pageMemo) get(repo Repo) (firstPage, bool) {
	p, ok := m.lru.Get(repo.FullName)
	if !ok || time.Now().After(p.expiresAt) {
		return firstPage{}, false
	}
	return p, true
}

func (m *pageMemo) put(repo Repo, commits []CommitSummary, nextPage int) {
	m.lru.Add(repo.FullName, firstPage{
		commits:   commits,
		nextPage:  nextPage,
		expiresAt: time.Now().Add(m.ttl),
	})
}
