package analyze

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitlapse/gitlapse/dataset"
)

func commit(sha, repo, message string, ts time.Time, files ...string) dataset.CommitRecord {
	changes := make([]dataset.FileChange, 0, len(files))
	for _, f := range files {
		changes = append(changes, dataset.FileChange{
			Filename:  f,
			Extension: dataset.FileExtension(f),
			Additions: 2,
			Deletions: 1,
			Changes:   3,
		})
	}
	return dataset.CommitRecord{
		SHA:          sha,
		Message:      message,
		Timestamp:    ts,
		RepoName:     repo,
		RepoFullName: "ada/" + repo,
		Author:       "Ada Lovelace",
		FilesChanged: changes,
	}
}

func TestLanguagesCountsAndExcludesMedia(t *testing.T) {
	base := time.Date(2024, 3, 15, 20, 30, 0, 0, time.UTC)
	ds := dataset.Normalize([]dataset.CommitRecord{
		commit("s1", "alpha", "add parser", base, "a.py"),
		commit("s2", "alpha", "add frontend", base.Add(time.Hour), "b.js"),
		commit("s3", "alpha", "add logo", base.Add(2*time.Hour), "c.png"),
	})

	stats := Languages(ds)
	assert.Equal(t, map[string]int{"Python": 1, "JavaScript": 1}, stats.Counts)
	assert.Equal(t, 2, stats.TotalFilesChanged)
	assert.Equal(t, 2, stats.UniqueLanguages)
}

func TestLanguagesPrimaryAndPerRepo(t *testing.T) {
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	ds := dataset.Normalize([]dataset.CommitRecord{
		commit("s1", "alpha", "core", base, "a.go", "b.go", "util.go"),
		commit("s2", "alpha", "docs", base.Add(time.Hour), "README.md"),
		commit("s3", "beta", "site", base.Add(2*time.Hour), "index.html"),
	})

	stats := Languages(ds)
	assert.Equal(t, "Go", stats.PrimaryLanguage)
	assert.Equal(t, "Go", stats.ByRepository["alpha"])
	assert.Equal(t, "HTML", stats.ByRepository["beta"])
	require.NotEmpty(t, stats.TopLanguages)
	assert.Equal(t, "Go", stats.TopLanguages[0].Language)
	assert.InDelta(t, 60.0, stats.TopLanguages[0].Percentage, 0.001)
}

func TestLanguagesUnknownExtensionFallsBack(t *testing.T) {
	ds := dataset.Normalize([]dataset.CommitRecord{
		commit("s1", "alpha", "weird", time.Now().UTC(), "data.zig"),
	})
	stats := Languages(ds)
	assert.Equal(t, 1, stats.Counts[dataset.FallbackLanguage])
}

func TestLanguagesEmptyDataset(t *testing.T) {
	stats := Languages(dataset.Normalize(nil))
	assert.Empty(t, stats.Counts)
	assert.Zero(t, stats.TotalFilesChanged)
	assert.Zero(t, stats.DiversityScore)
}

func TestTemporalDistributions(t *testing.T) {
	// Friday 2024-03-15 at 20:30 twice, Saturday at 09:00 once.
	fri := time.Date(2024, 3, 15, 20, 30, 0, 0, time.UTC)
	sat := time.Date(2024, 3, 16, 9, 0, 0, 0, time.UTC)
	ds := dataset.Normalize([]dataset.CommitRecord{
		commit("s1", "alpha", "one", fri, "a.go"),
		commit("s2", "alpha", "two", fri.Add(time.Minute), "b.go"),
		commit("s3", "alpha", "three", sat, "c.go"),
	})

	stats := Temporal(ds)
	assert.Equal(t, 2, stats.HourlyCounts[20])
	assert.Equal(t, 1, stats.HourlyCounts[9])
	assert.Equal(t, 20, stats.MostActiveHour)
	assert.Equal(t, "Friday", stats.MostActiveDay)
	assert.InDelta(t, 66.67, stats.WeekdayPercentage, 0.01)
	assert.InDelta(t, 33.33, stats.WeekendPercentage, 0.01)
	assert.Equal(t, map[string]int{"2024-03": 3}, stats.MonthlyCounts)
	assert.Equal(t, "2024-03", stats.MostProductiveMonth)
	assert.Equal(t, 2, stats.ActiveDays)
	assert.Equal(t, 2, stats.LongestStreak)
	assert.Equal(t, 2, stats.TotalDaysSpan)
}

func TestTemporalStreakBreaks(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var records []dataset.CommitRecord
	// Days 1,2,3 then a gap, then days 10,11.
	for i, offset := range []int{0, 1, 2, 9, 10} {
		records = append(records, commit(
			string(rune('a'+i)), "alpha", "work",
			base.AddDate(0, 0, offset), "x.go",
		))
	}
	stats := Temporal(dataset.Normalize(records))
	assert.Equal(t, 3, stats.LongestStreak)
	assert.Equal(t, 5, stats.ActiveDays)
	assert.Equal(t, 11, stats.TotalDaysSpan)
}

func TestTemporalPersonalityNightOwl(t *testing.T) {
	base := time.Date(2024, 2, 1, 23, 0, 0, 0, time.UTC)
	var records []dataset.CommitRecord
	for i := 0; i < 10; i++ {
		records = append(records, commit(string(rune('a'+i)), "alpha", "late work", base.Add(time.Duration(i)*time.Minute), "x.go"))
	}
	stats := Temporal(dataset.Normalize(records))
	assert.Equal(t, "Night Owl", stats.Personality)
}

func TestTemporalEmptyDataset(t *testing.T) {
	stats := Temporal(dataset.Normalize(nil))
	assert.Zero(t, stats.ActiveDays)
	assert.Empty(t, stats.DailyCounts)
	assert.Empty(t, stats.Personality)
}

func TestLinguisticStatsBasics(t *testing.T) {
	base := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)
	ds := dataset.Normalize([]dataset.CommitRecord{
		commit("s1", "alpha", "Fix parser crash", base, "a.go"),
		commit("s2", "alpha", "fix parser tests", base.Add(time.Hour), "b.go"),
		commit("s3", "alpha", "wip", base.Add(2*time.Hour), "c.go"),
	})

	stats := Linguistic(ds)
	assert.InDelta(t, (16.0+16.0+3.0)/3.0, stats.AvgMessageLength, 0.001)
	assert.InDelta(t, (3.0+3.0+1.0)/3.0, stats.AvgWordCount, 0.001)
	assert.InDelta(t, 33.33, stats.ShortMessagePct, 0.01)

	// "fix" is a stopword; "parser" leads the vocabulary.
	require.NotEmpty(t, stats.TopWords)
	assert.Equal(t, "parser", stats.TopWords[0].Word)
	assert.Equal(t, 2, stats.TopWords[0].Count)

	// First words keep stopwords so the action verbs show up.
	require.NotEmpty(t, stats.TopFirstWords)
	assert.Equal(t, WordCount{Word: "fix", Count: 2}, stats.TopFirstWords[0])
}

func TestLinguisticEmptyDataset(t *testing.T) {
	stats := Linguistic(dataset.Normalize(nil))
	assert.Zero(t, stats.AvgMessageLength)
	assert.Empty(t, stats.TopWords)
}

func TestProductivityBasics(t *testing.T) {
	base := time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC)
	ds := dataset.Normalize([]dataset.CommitRecord{
		commit("s1", "alpha", "one", base, "a.go"),
		commit("s2", "alpha", "two", base.Add(time.Hour), "b.go"),
		commit("s3", "beta", "three", base.AddDate(0, 0, 1), "c.go"),
	})

	stats := Productivity(ds)
	assert.Equal(t, 2, stats.ActiveDays)
	assert.Equal(t, 2, stats.TotalDays)
	assert.Equal(t, "2024-06-01", stats.PeakDay)
	assert.Equal(t, 2, stats.PeakDayCommits)
	assert.Equal(t, 9, stats.TotalChanges) // 3 files x 3 changes
	assert.Equal(t, "alpha", stats.TopRepository)
	assert.Equal(t, 2, stats.TopRepoCommit)
	assert.Equal(t, 14, stats.FavoriteHour)

	require.Len(t, stats.Devotion, 2)
	assert.Equal(t, "alpha", stats.Devotion[0].RepoName)
	assert.Equal(t, 2, stats.Devotion[0].Commits)
	assert.Equal(t, 1, stats.Devotion[0].DateRangeDays)
}

func TestProductivityConsistencyBounds(t *testing.T) {
	// A commit every single day scores near the top of the range.
	base := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	var daily []dataset.CommitRecord
	for i := 0; i < 14; i++ {
		daily = append(daily, commit(string(rune('a'+i)), "alpha", "steady", base.AddDate(0, 0, i), "x.go"))
	}
	steady := Productivity(dataset.Normalize(daily))
	assert.Greater(t, steady.ConsistencyScore, 80.0)
	assert.LessOrEqual(t, steady.ConsistencyScore, 100.0)

	// One burst day in a long window scores low.
	var burst []dataset.CommitRecord
	for i := 0; i < 10; i++ {
		burst = append(burst, commit(string(rune('a'+i)), "alpha", "burst", base.Add(time.Duration(i)*time.Minute), "x.go"))
	}
	burst = append(burst, commit("z", "alpha", "straggler", base.AddDate(0, 0, 59), "x.go"))
	bursty := Productivity(dataset.Normalize(burst))
	assert.Less(t, bursty.ConsistencyScore, steady.ConsistencyScore)
}

func TestProductivityEmptyDataset(t *testing.T) {
	stats := Productivity(dataset.Normalize(nil))
	assert.Zero(t, stats.ConsistencyScore)
	assert.Empty(t, stats.Devotion)
}
