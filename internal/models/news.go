package models

import (
	"sort"
	"time"
)

// NewsItem represents a "flash info" entry shown on the public page
type NewsItem struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Date    string `json:"date"`
}

// RecordID returns the news identifier
func (n NewsItem) RecordID() string {
	return n.ID
}

// CalendarEvent represents a dated club event
type CalendarEvent struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Date        string `json:"date"` // YYYY-MM-DD
	Description string `json:"description"`
}

// RecordID returns the event identifier
func (e CalendarEvent) RecordID() string {
	return e.ID
}

// SortNews returns a copy of items ordered by date, newest first
func SortNews(items []NewsItem) []NewsItem {
	sorted := Clone(items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return ParseDate(sorted[i].Date).After(ParseDate(sorted[j].Date))
	})
	return sorted
}

// SortEvents returns a copy of events ordered by date, earliest first
func SortEvents(events []CalendarEvent) []CalendarEvent {
	sorted := Clone(events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return ParseDate(sorted[i].Date).Before(ParseDate(sorted[j].Date))
	})
	return sorted
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate accepts full timestamps as well as calendar days.
// Unparseable values yield the zero time.
func ParseDate(value string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
