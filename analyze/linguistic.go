package analyze

import (
	"sort"
	"strings"

	"github.com/gitlapse/gitlapse/dataset"
)

// stopwords are dropped from commit message word statistics: common
// English filler plus the verbs that appear in nearly every commit.
var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for", "from",
		"in", "into", "is", "it", "of", "on", "or", "that", "the", "this",
		"to", "was", "when", "with",

		"add", "added", "update", "updated", "fix", "fixed", "remove",
		"removed", "change", "changed", "modify", "modified", "delete",
		"deleted", "merge", "merging", "commit", "committed", "push",
		"pushed",
	} {
		stopwords[w] = struct{}{}
	}
}

// WordCount is one word's frequency.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// LinguisticStats describes how the user writes commit messages.
type LinguisticStats struct {
	AvgMessageLength float64     `json:"avg_message_length"`
	AvgWordCount     float64     `json:"avg_word_count"`
	ShortMessagePct  float64     `json:"short_message_pct"` // under 10 characters
	TopWords         []WordCount `json:"top_words"`
	TopFirstWords    []WordCount `json:"top_first_words"`
}

// Linguistic analyzes commit message length, vocabulary, and leading
// action words.
func Linguistic(ds dataset.Dataset) LinguisticStats {
	var stats LinguisticStats
	if ds.Empty() {
		return stats
	}
	total := float64(ds.Len())

	var lengthSum, wordSum, short int
	words := map[string]int{}
	firstWords := map[string]int{}

	for _, row := range ds.Rows {
		lengthSum += row.MessageLength
		wordSum += row.MessageWordCount
		if row.MessageLength < 10 {
			short++
		}

		fields := strings.Fields(row.Message)
		for i, raw := range fields {
			word := normalizeWord(raw)
			if word == "" {
				continue
			}
			if i == 0 {
				firstWords[word]++
			}
			if _, skip := stopwords[word]; skip {
				continue
			}
			words[word]++
		}
	}

	stats.AvgMessageLength = float64(lengthSum) / total
	stats.AvgWordCount = float64(wordSum) / total
	stats.ShortMessagePct = float64(short) / total * 100
	stats.TopWords = topWords(words, 10)
	stats.TopFirstWords = topWords(firstWords, 5)
	return stats
}

// normalizeWord lowercases and strips surrounding punctuation.
func normalizeWord(raw string) string {
	return strings.Trim(strings.ToLower(raw), ".,:;!?()[]{}'\"`")
}

func topWords(counts map[string]int, n int) []WordCount {
	out := make([]WordCount, 0, len(counts))
	for word, count := range counts {
		out = append(out, WordCount{Word: word, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Word < out[j].Word
		}
		return out[i].Count > out[j].Count
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
