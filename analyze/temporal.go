// Package analyze contains the pure analyzers that run over the
// normalized commit dataset. Each analyzer takes the dataset, returns a
// stats struct, and touches no I/O, so they can run concurrently.
package analyze

import (
	"sort"
	"time"

	"github.com/gitlapse/gitlapse/dataset"
)

var dayOrder = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// DayCount is one weekday's commit count, in Monday-first order.
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// PeakHour is one of the top commit hours.
type PeakHour struct {
	Hour       int     `json:"hour"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// TemporalStats describes when the user commits.
type TemporalStats struct {
	HourlyCounts   [24]int    `json:"hourly_counts"`
	PeakHours      []PeakHour `json:"peak_hours"`
	MostActiveHour int        `json:"most_active_hour"`

	DailyCounts       []DayCount `json:"daily_counts"`
	MostActiveDay     string     `json:"most_active_day"`
	WeekdayPercentage float64    `json:"weekday_percentage"`
	WeekendPercentage float64    `json:"weekend_percentage"`

	Personality     string `json:"personality"`
	PersonalityNote string `json:"personality_note"`

	LongestStreak          int     `json:"longest_streak"`
	ActiveDays             int     `json:"active_days"`
	TotalDaysSpan          int     `json:"total_days_span"`
	AvgCommitsPerActiveDay float64 `json:"avg_commits_per_active_day"`

	MonthlyCounts       map[string]int `json:"monthly_counts"`
	MostProductiveMonth string         `json:"most_productive_month"`
}

// Temporal analyzes hour-of-day, day-of-week, streak, and monthly
// patterns. An empty dataset yields zero-value stats.
func Temporal(ds dataset.Dataset) TemporalStats {
	var stats TemporalStats
	if ds.Empty() {
		return stats
	}
	total := float64(ds.Len())

	var weekday int
	monthly := map[string]int{}
	for _, row := range ds.Rows {
		stats.HourlyCounts[row.Hour]++
		if row.DayOfWeekNum < 5 {
			weekday++
		}
		monthly[row.Month]++
	}
	stats.WeekdayPercentage = float64(weekday) / total * 100
	stats.WeekendPercentage = 100 - stats.WeekdayPercentage
	stats.MonthlyCounts = monthly
	stats.MostProductiveMonth = maxKey(monthly)

	stats.MostActiveHour = 0
	for h, c := range stats.HourlyCounts {
		if c > stats.HourlyCounts[stats.MostActiveHour] {
			stats.MostActiveHour = h
		}
	}
	stats.PeakHours = topHours(stats.HourlyCounts, 3, total)

	daily := map[string]int{}
	for _, row := range ds.Rows {
		daily[row.DayOfWeek]++
	}
	best := dayOrder[0]
	for _, day := range dayOrder {
		stats.DailyCounts = append(stats.DailyCounts, DayCount{Day: day, Count: daily[day]})
		if daily[day] > daily[best] {
			best = day
		}
	}
	stats.MostActiveDay = best

	stats.Personality, stats.PersonalityNote = personality(stats.HourlyCounts, total)

	dates := uniqueDates(ds)
	stats.ActiveDays = len(dates)
	stats.LongestStreak = longestStreak(dates)
	stats.TotalDaysSpan = daysSpan(ds)
	if stats.ActiveDays > 0 {
		stats.AvgCommitsPerActiveDay = total / float64(stats.ActiveDays)
	}

	return stats
}

func topHours(counts [24]int, n int, total float64) []PeakHour {
	hours := make([]int, 24)
	for i := range hours {
		hours[i] = i
	}
	sort.SliceStable(hours, func(i, j int) bool { return counts[hours[i]] > counts[hours[j]] })

	peaks := make([]PeakHour, 0, n)
	for _, h := range hours[:n] {
		peaks = append(peaks, PeakHour{
			Hour:       h,
			Count:      counts[h],
			Percentage: float64(counts[h]) / total * 100,
		})
	}
	return peaks
}

// personality buckets the day into late night [0,6), morning [6,12),
// afternoon [12,17), evening [17,21), and night [21,24).
func personality(counts [24]int, total float64) (string, string) {
	sum := func(from, to int) float64 {
		n := 0
		for h := from; h < to; h++ {
			n += counts[h]
		}
		return float64(n) / total * 100
	}

	lateNight := sum(0, 6)
	morning := sum(6, 12)
	afternoon := sum(12, 17)
	night := sum(21, 24) + lateNight

	switch {
	case night > 30:
		return "Night Owl", "You thrive in the quiet hours after sunset."
	case morning > 35:
		return "Early Bird", "You harness the morning's energy."
	case afternoon > 40:
		return "Afternoon Achiever", "Peak productivity hits in the afternoon hours."
	default:
		return "Balanced Coder", "You code consistently throughout the day."
	}
}

// uniqueDates returns the distinct commit dates in ascending order. Rows
// are already sorted by timestamp.
func uniqueDates(ds dataset.Dataset) []string {
	var dates []string
	for _, row := range ds.Rows {
		if len(dates) == 0 || dates[len(dates)-1] != row.Date {
			dates = append(dates, row.Date)
		}
	}
	return dates
}

// parseDate parses the dataset's YYYY-MM-DD date column.
func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// longestStreak is the longest run of consecutive calendar days.
func longestStreak(dates []string) int {
	if len(dates) == 0 {
		return 0
	}
	longest, current := 1, 1
	prev, _ := parseDate(dates[0])
	for _, d := range dates[1:] {
		day, err := parseDate(d)
		if err != nil {
			continue
		}
		if day.Sub(prev) == 24*time.Hour {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 1
		}
		prev = day
	}
	return longest
}

// daysSpan is the inclusive calendar-day count between the first and
// last commit dates.
func daysSpan(ds dataset.Dataset) int {
	first, err1 := parseDate(ds.Rows[0].Date)
	last, err2 := parseDate(ds.Rows[ds.Len()-1].Date)
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(last.Sub(first).Hours()/24) + 1
}

func maxKey(m map[string]int) string {
	var best string
	for k, v := range m {
		if best == "" || v > m[best] || (v == m[best] && k < best) {
			best = k
		}
	}
	return best
}
