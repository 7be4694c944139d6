package analyze

import (
	"math"
	"sort"

	"github.com/gitlapse/gitlapse/dataset"
)

// RepoDevotion scores how devoted the user is to one repository:
// commits times active days over the repository's commit date range.
type RepoDevotion struct {
	RepoName      string  `json:"repo_name"`
	Commits       int     `json:"commits"`
	ActiveDays    int     `json:"active_days"`
	DateRangeDays int     `json:"date_range_days"`
	DevotionIndex float64 `json:"devotion_index"`
}

// ProductivityStats describes how steadily and intensely the user ships.
type ProductivityStats struct {
	ConsistencyScore float64 `json:"consistency_score"`
	Interpretation   string  `json:"interpretation"`
	ActiveDays       int     `json:"active_days"`
	TotalDays        int     `json:"total_days"`
	AvgCommitsPerDay float64 `json:"avg_commits_per_day"`

	PeakDay        string `json:"peak_day"`
	PeakDayCommits int    `json:"peak_day_commits"`
	TotalChanges   int    `json:"total_changes"`

	FavoriteHour  int    `json:"favorite_hour"`
	FavoriteDay   string `json:"favorite_day"`
	TopRepository string `json:"top_repository"`
	TopRepoCommit int    `json:"top_repository_commits"`

	Devotion []RepoDevotion `json:"devotion"`
}

// Productivity analyzes consistency, velocity, and per-repository
// devotion.
func Productivity(ds dataset.Dataset) ProductivityStats {
	var stats ProductivityStats
	if ds.Empty() {
		return stats
	}

	daily := map[string]int{}
	repoCommits := map[string]int{}
	var hours [24]int
	dayNames := map[string]int{}
	for _, row := range ds.Rows {
		daily[row.Date]++
		repoCommits[row.RepoName]++
		hours[row.Hour]++
		dayNames[row.DayOfWeek]++
		for _, f := range row.FilesChanged {
			stats.TotalChanges += f.Changes
		}
	}

	stats.ActiveDays = len(daily)
	stats.TotalDays = daysSpan(ds)
	if stats.TotalDays > 0 {
		stats.AvgCommitsPerDay = float64(ds.Len()) / float64(stats.TotalDays)
	}
	stats.ConsistencyScore = consistency(daily, stats.ActiveDays, stats.TotalDays, ds.Len())
	stats.Interpretation = interpretConsistency(stats.ConsistencyScore)

	stats.PeakDay = maxKey(daily)
	stats.PeakDayCommits = daily[stats.PeakDay]
	for h, c := range hours {
		if c > hours[stats.FavoriteHour] {
			stats.FavoriteHour = h
		}
	}
	stats.FavoriteDay = maxKey(dayNames)
	stats.TopRepository = maxKey(repoCommits)
	stats.TopRepoCommit = repoCommits[stats.TopRepository]

	stats.Devotion = devotion(ds)
	return stats
}

// consistency blends the active-day share with a variance penalty:
// frequent, evenly sized days beat rare bursts.
func consistency(daily map[string]int, activeDays, totalDays, commits int) float64 {
	if totalDays == 0 {
		return 0
	}
	basic := float64(activeDays) / float64(totalDays) * 100

	// Standard deviation over all calendar days, counting gaps as zero.
	mean := float64(commits) / float64(totalDays)
	var variance float64
	for _, c := range daily {
		variance += (float64(c) - mean) * (float64(c) - mean)
	}
	variance += float64(totalDays-activeDays) * mean * mean
	variance /= float64(totalDays)

	penalty := 100.0
	if mean > 0 {
		cv := math.Sqrt(variance) / mean
		penalty = math.Max(0, 100-cv*20)
	}

	return basic*0.7 + penalty*0.3
}

func interpretConsistency(score float64) string {
	switch {
	case score >= 80:
		return "Machine-like consistency: commits almost every day."
	case score >= 60:
		return "Highly consistent: a strong regular coding habit."
	case score >= 40:
		return "Moderately consistent: room for more regularity."
	case score >= 20:
		return "Sporadic: inconsistent commit patterns."
	default:
		return "Burst coder: intense periods followed by breaks."
	}
}

func devotion(ds dataset.Dataset) []RepoDevotion {
	type span struct {
		commits int
		dates   map[string]struct{}
		first   string
		last    string
	}
	repos := map[string]*span{}
	for _, row := range ds.Rows {
		s := repos[row.RepoName]
		if s == nil {
			s = &span{dates: map[string]struct{}{}, first: row.Date}
			repos[row.RepoName] = s
		}
		s.commits++
		s.dates[row.Date] = struct{}{}
		s.last = row.Date
	}

	out := make([]RepoDevotion, 0, len(repos))
	for name, s := range repos {
		rangeDays := dateRangeDays(s.first, s.last)
		index := 0.0
		if rangeDays > 0 {
			index = math.Min(100, float64(s.commits)*float64(len(s.dates))/float64(rangeDays)*5)
		}
		out = append(out, RepoDevotion{
			RepoName:      name,
			Commits:       s.commits,
			ActiveDays:    len(s.dates),
			DateRangeDays: rangeDays,
			DevotionIndex: index,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DevotionIndex == out[j].DevotionIndex {
			return out[i].RepoName < out[j].RepoName
		}
		return out[i].DevotionIndex > out[j].DevotionIndex
	})
	return out
}

func dateRangeDays(first, last string) int {
	f, err1 := parseDate(first)
	l, err2 := parseDate(last)
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(l.Sub(f).Hours()/24) + 1
}
