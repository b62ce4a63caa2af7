package chat

import (
	"time"

	"github.com/ashureev/wildscan/internal/domain"
)

// Labels of the sidebar date bands, in display order.
const (
	GroupToday     = "Today"
	GroupYesterday = "Yesterday"
	GroupThisWeek  = "2d ago"
	GroupOlder     = "1w ago"
)

var groupOrder = []string{GroupToday, GroupYesterday, GroupThisWeek, GroupOlder}

// Group is a band of sessions shown under one date heading.
type Group struct {
	Label    string                `json:"label"`
	Sessions []*domain.ChatSession `json:"sessions"`
}

// GroupByDate partitions sessions by the calendar date of UpdatedAt relative
// to now, in now's location. Empty bands are omitted and sessions keep their
// input order within a band; the input slice is not modified.
func GroupByDate(sessions []*domain.ChatSession, now time.Time) []Group {
	loc := now.Location()
	today := dateOf(now)
	yesterday := today.AddDate(0, 0, -1)
	weekAgo := now.AddDate(0, 0, -7)

	buckets := make(map[string][]*domain.ChatSession, len(groupOrder))
	for _, sess := range sessions {
		updated := sess.UpdatedAt.In(loc)
		day := dateOf(updated)

		var label string
		switch {
		case day.Equal(today):
			label = GroupToday
		case day.Equal(yesterday):
			label = GroupYesterday
		case updated.After(weekAgo):
			label = GroupThisWeek
		default:
			label = GroupOlder
		}
		buckets[label] = append(buckets[label], sess)
	}

	groups := make([]Group, 0, len(buckets))
	for _, label := range groupOrder {
		if b := buckets[label]; len(b) > 0 {
			groups = append(groups, Group{Label: label, Sessions: b})
		}
	}
	return groups
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
