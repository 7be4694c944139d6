// Package dataset holds the flat commit record model and the pure
// normalization step that turns raw fetched records into the analyzable
// dataset consumed by the analyzers and the report exporter.
package dataset

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// FileChange is one file touched by a commit. Changes is reported by the
// API independently and is not necessarily Additions+Deletions.
type FileChange struct {
	Filename  string `json:"filename"`
	Extension string `json:"extension"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Changes   int    `json:"changes"`
}

// CommitRecord is one authored change-set as fetched from the API or
// loaded from the cache. FilesChanged is never nil, but may be empty
// (merge commits and commits whose diff is unavailable).
type CommitRecord struct {
	SHA          string       `json:"sha"`
	Message      string       `json:"message"`
	Timestamp    time.Time    `json:"timestamp"`
	RepoName     string       `json:"repo_name"`
	RepoFullName string       `json:"repo_full_name"`
	Author       string       `json:"author"`
	FilesChanged []FileChange `json:"files_changed"`
}

// Row is a CommitRecord augmented with derived columns.
type Row struct {
	CommitRecord

	Hour             int    `json:"hour"`
	DayOfWeek        string `json:"day_of_week"`
	DayOfWeekNum     int    `json:"day_of_week_num"` // 0=Monday .. 6=Sunday
	Date             string `json:"date"`            // YYYY-MM-DD
	Month            string `json:"month"`           // YYYY-MM
	Year             int    `json:"year"`
	MessageLength    int    `json:"message_length"`
	MessageWordCount int    `json:"message_word_count"`
	FilesCount       int    `json:"files_count"`
}

// Dataset is the normalized commit dataset, sorted ascending by timestamp.
// It is recomputed on every run and never persisted.
type Dataset struct {
	Rows []Row
}

// Empty reports whether the dataset has no rows.
func (d Dataset) Empty() bool { return len(d.Rows) == 0 }

// Len returns the number of rows.
func (d Dataset) Len() int { return len(d.Rows) }

// Normalize derives the computed columns for every record and sorts the
// result ascending by timestamp (SHA as tiebreak, so any permutation of
// the same input yields identical output). An empty or nil input returns
// an empty, well-typed dataset.
func Normalize(records []CommitRecord) Dataset {
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		if rec.FilesChanged == nil {
			rec.FilesChanged = []FileChange{}
		}
		rows = append(rows, Row{
			CommitRecord:     rec,
			Hour:             rec.Timestamp.Hour(),
			DayOfWeek:        rec.Timestamp.Weekday().String(),
			DayOfWeekNum:     mondayIndexed(rec.Timestamp.Weekday()),
			Date:             rec.Timestamp.Format("2006-01-02"),
			Month:            rec.Timestamp.Format("2006-01"),
			Year:             rec.Timestamp.Year(),
			MessageLength:    utf8.RuneCountInString(rec.Message),
			MessageWordCount: len(strings.Fields(rec.Message)),
			FilesCount:       len(rec.FilesChanged),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Timestamp.Equal(rows[j].Timestamp) {
			return rows[i].SHA < rows[j].SHA
		}
		return rows[i].Timestamp.Before(rows[j].Timestamp)
	})

	return Dataset{Rows: rows}
}

// mondayIndexed converts Go's Sunday-first weekday to a Monday=0 index.
func mondayIndexed(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}
