package chat

import (
	"fmt"
	"sort"
	"time"
)

// TimelineSection is one labeled bucket of the conversation timeline.
type TimelineSection struct {
	Label         string
	Conversations []*Conversation
}

// GroupByTimeline buckets conversations by elapsed whole days between
// now and each conversation's UpdatedAt, using same-day truncation.
// Sections are returned most recent first and internally sorted by
// UpdatedAt descending. The input is not modified. Stateless; no
// persistence or locking concerns.
func GroupByTimeline(conversations []*Conversation, now time.Time) []TimelineSection {
	buckets := make(map[string][]*Conversation)
	order := make(map[string]int)

	for _, conv := range conversations {
		label, rank := timelineLabel(elapsedDays(conv.UpdatedAt, now))
		buckets[label] = append(buckets[label], conv)
		order[label] = rank
	}

	labels := make([]string, 0, len(buckets))
	for label := range buckets {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		return order[labels[i]] < order[labels[j]]
	})

	sections := make([]TimelineSection, 0, len(labels))
	for _, label := range labels {
		convs := buckets[label]
		sort.SliceStable(convs, func(i, j int) bool {
			return convs[i].UpdatedAt.After(convs[j].UpdatedAt)
		})
		sections = append(sections, TimelineSection{Label: label, Conversations: convs})
	}
	return sections
}

// elapsedDays counts whole calendar days between t and now, truncating
// both to their local calendar date so any two times on the same day
// are zero days apart. The truncated dates are re-anchored in UTC
// before subtracting: local midnights can be 23 or 25 hours apart
// around DST transitions, which would make an hour-based count miss a
// calendar day.
func elapsedDays(t, now time.Time) int {
	toDate := func(ts time.Time) time.Time {
		y, m, d := ts.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	days := int(toDate(now).Sub(toDate(t)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// timelineLabel maps an elapsed-day count to its display label and a
// rank used to order sections most recent first.
func timelineLabel(days int) (string, int) {
	switch {
	case days == 0:
		return "Today", 0
	case days == 1:
		return "Yesterday", 1
	case days < 7:
		return fmt.Sprintf("%d days ago", days), 2 + days
	case days < 30:
		return "1 week ago", 100
	case days < 365:
		return "1 month ago", 101
	default:
		return "1 year ago", 102
	}
}
