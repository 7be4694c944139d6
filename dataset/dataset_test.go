package dataset

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(sha string, ts time.Time) CommitRecord {
	return CommitRecord{
		SHA:          sha,
		Message:      "fix: handle empty response body",
		Timestamp:    ts,
		RepoName:     "gitlapse",
		RepoFullName: "gitlapse/gitlapse",
		Author:       "Ada Lovelace",
		FilesChanged: []FileChange{{Filename: "main.go", Extension: "go", Additions: 3, Deletions: 1, Changes: 4}},
	}
}

func TestNormalizeDerivedColumns(t *testing.T) {
	ts := time.Date(2024, 3, 15, 20, 30, 0, 0, time.UTC)
	ds := Normalize([]CommitRecord{record("abc123", ts)})

	require.Equal(t, 1, ds.Len())
	row := ds.Rows[0]
	assert.Equal(t, 20, row.Hour)
	assert.Equal(t, "Friday", row.DayOfWeek)
	assert.Equal(t, 4, row.DayOfWeekNum)
	assert.Equal(t, "2024-03-15", row.Date)
	assert.Equal(t, "2024-03", row.Month)
	assert.Equal(t, 2024, row.Year)
	assert.Equal(t, len("fix: handle empty response body"), row.MessageLength)
	assert.Equal(t, 5, row.MessageWordCount)
	assert.Equal(t, 1, row.FilesCount)
}

func TestNormalizeMondayIsZero(t *testing.T) {
	// 2024-03-11 was a Monday, 2024-03-17 a Sunday.
	mon := Normalize([]CommitRecord{record("a", time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC))})
	sun := Normalize([]CommitRecord{record("b", time.Date(2024, 3, 17, 9, 0, 0, 0, time.UTC))})

	assert.Equal(t, 0, mon.Rows[0].DayOfWeekNum)
	assert.Equal(t, "Monday", mon.Rows[0].DayOfWeek)
	assert.Equal(t, 6, sun.Rows[0].DayOfWeekNum)
	assert.Equal(t, "Sunday", sun.Rows[0].DayOfWeek)
}

func TestNormalizeSortsAscending(t *testing.T) {
	base := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	records := []CommitRecord{
		record("c", base.Add(48*time.Hour)),
		record("a", base),
		record("b", base.Add(24*time.Hour)),
	}

	ds := Normalize(records)
	require.Equal(t, 3, ds.Len())
	for i := 1; i < ds.Len(); i++ {
		assert.False(t, ds.Rows[i].Timestamp.Before(ds.Rows[i-1].Timestamp))
	}
	assert.Equal(t, []string{"a", "b", "c"}, []string{ds.Rows[0].SHA, ds.Rows[1].SHA, ds.Rows[2].SHA})
}

func TestNormalizeOrderIndependent(t *testing.T) {
	base := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	records := make([]CommitRecord, 0, 20)
	for i := 0; i < 20; i++ {
		// Duplicate timestamps on purpose so the SHA tiebreak is exercised.
		records = append(records, record(string(rune('a'+i)), base.Add(time.Duration(i/2)*time.Hour)))
	}

	want := Normalize(records)

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 5; trial++ {
		shuffled := append([]CommitRecord(nil), records...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got := Normalize(shuffled)
		assert.Equal(t, want, got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	records := []CommitRecord{
		record("x", time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)),
		record("y", time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)),
	}
	first := Normalize(records)

	again := make([]CommitRecord, 0, first.Len())
	for _, row := range first.Rows {
		again = append(again, row.CommitRecord)
	}
	assert.Equal(t, first, Normalize(again))
}

func TestNormalizeEmptyInput(t *testing.T) {
	ds := Normalize(nil)
	assert.True(t, ds.Empty())
	assert.NotNil(t, ds.Rows)
	assert.Equal(t, 0, ds.Len())
}

func TestNormalizeNilFilesBecomesEmptySlice(t *testing.T) {
	rec := record("z", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	rec.FilesChanged = nil
	ds := Normalize([]CommitRecord{rec})

	require.Equal(t, 1, ds.Len())
	assert.NotNil(t, ds.Rows[0].FilesChanged)
	assert.Equal(t, 0, ds.Rows[0].FilesCount)
}

func TestNormalizeMultibyteMessageLength(t *testing.T) {
	rec := record("m", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	rec.Message = "naïve fix"
	ds := Normalize([]CommitRecord{rec})

	assert.Equal(t, 9, ds.Rows[0].MessageLength)
	assert.Equal(t, 2, ds.Rows[0].MessageWordCount)
}
