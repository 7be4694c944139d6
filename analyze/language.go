package analyze

import (
	"math"
	"sort"

	"github.com/gitlapse/gitlapse/dataset"
)

// LanguageShare is one language's slice of the changed files.
type LanguageShare struct {
	Language   string  `json:"language"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// LanguageStats describes what the user writes. Binary and media files
// are excluded entirely; unknown extensions count under the generic
// fallback tag.
type LanguageStats struct {
	Counts            map[string]int    `json:"language_counts"`
	TopLanguages      []LanguageShare   `json:"top_languages"`
	PrimaryLanguage   string            `json:"primary_language"`
	TotalFilesChanged int               `json:"total_files_changed"`
	UniqueLanguages   int               `json:"unique_languages"`
	DiversityScore    float64           `json:"diversity_score"`
	ByRepository      map[string]string `json:"primary_language_by_repository"`
}

// Languages counts changed files per language tag across all commits.
func Languages(ds dataset.Dataset) LanguageStats {
	stats := LanguageStats{
		Counts:       map[string]int{},
		ByRepository: map[string]string{},
	}
	if ds.Empty() {
		return stats
	}

	perRepo := map[string]map[string]int{}
	for _, row := range ds.Rows {
		for _, file := range row.FilesChanged {
			lang, ok := dataset.LanguageFor(file.Extension)
			if !ok {
				continue
			}
			stats.Counts[lang]++
			stats.TotalFilesChanged++
			if perRepo[row.RepoName] == nil {
				perRepo[row.RepoName] = map[string]int{}
			}
			perRepo[row.RepoName][lang]++
		}
	}

	stats.UniqueLanguages = len(stats.Counts)
	stats.PrimaryLanguage = maxKey(stats.Counts)
	stats.TopLanguages = topLanguages(stats.Counts, stats.TotalFilesChanged, 10)
	stats.DiversityScore = shannonDiversity(stats.Counts, stats.TotalFilesChanged)
	for repo, counts := range perRepo {
		stats.ByRepository[repo] = maxKey(counts)
	}

	return stats
}

func topLanguages(counts map[string]int, total, n int) []LanguageShare {
	shares := make([]LanguageShare, 0, len(counts))
	for lang, count := range counts {
		shares = append(shares, LanguageShare{
			Language:   lang,
			Count:      count,
			Percentage: float64(count) / float64(total) * 100,
		})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Count == shares[j].Count {
			return shares[i].Language < shares[j].Language
		}
		return shares[i].Count > shares[j].Count
	})
	if len(shares) > n {
		shares = shares[:n]
	}
	return shares
}

// shannonDiversity is the Shannon entropy of the language distribution
// normalized to 0..100 against the maximum entropy for that many
// languages.
func shannonDiversity(counts map[string]int, total int) float64 {
	if total == 0 || len(counts) < 2 {
		return 0
	}
	var entropy float64
	for _, count := range counts {
		p := float64(count) / float64(total)
		entropy -= p * math.Log(p)
	}
	return entropy / math.Log(float64(len(counts))) * 100
}
