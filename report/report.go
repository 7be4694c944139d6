// Package report assembles the analyzer outputs into a single JSON
// document and writes it for downstream consumers (dashboards, static
// sites). The write is atomic so a half-finished run never clobbers a
// previous report.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gitlapse/gitlapse/analyze"
	"github.com/gitlapse/gitlapse/dataset"
)

const reportFile = "analysis_report.json"

// Summary is the headline block of the report.
type Summary struct {
	TotalCommits      int    `json:"total_commits"`
	TotalRepositories int    `json:"total_repositories"`
	FirstCommitDate   string `json:"first_commit_date,omitempty"`
	LastCommitDate    string `json:"last_commit_date,omitempty"`
}

// Report is the full exported document.
type Report struct {
	Username    string    `json:"username"`
	GeneratedAt time.Time `json:"generated_at"`
	FromCache   bool      `json:"from_cache"`

	Summary      Summary                   `json:"summary"`
	Temporal     analyze.TemporalStats     `json:"temporal"`
	Languages    analyze.LanguageStats     `json:"languages"`
	Linguistic   analyze.LinguisticStats   `json:"linguistic"`
	Productivity analyze.ProductivityStats `json:"productivity"`
}

// Build assembles the report document from the dataset and analyzer
// results.
func Build(username string, fromCache bool, ds dataset.Dataset,
	temporal analyze.TemporalStats, languages analyze.LanguageStats,
	linguistic analyze.LinguisticStats, productivity analyze.ProductivityStats) Report {

	r := Report{
		Username:    username,
		GeneratedAt: time.Now().UTC(),
		FromCache:   fromCache,
		Summary: Summary{
			TotalCommits: ds.Len(),
		},
		Temporal:     temporal,
		Languages:    languages,
		Linguistic:   linguistic,
		Productivity: productivity,
	}

	repos := map[string]struct{}{}
	for _, row := range ds.Rows {
		repos[row.RepoName] = struct{}{}
	}
	r.Summary.TotalRepositories = len(repos)

	if !ds.Empty() {
		r.Summary.FirstCommitDate = ds.Rows[0].Date
		r.Summary.LastCommitDate = ds.Rows[ds.Len()-1].Date
	}
	return r
}

// Write serializes the report into dir as indented JSON, creating the
// directory if needed. The file is written to a temporary name and
// renamed into place.
func Write(dir string, r Report, log *logrus.Logger) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, reportFile)

	raw, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	tmp, err := os.CreateTemp(dir, reportFile+".tmp-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	log.WithFields(logrus.Fields{
		"path":    path,
		"commits": r.Summary.TotalCommits,
	}).Info("report written")
	return path, nil
}
