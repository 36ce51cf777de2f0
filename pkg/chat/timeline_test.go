package chat

import (
	"testing"
	"time"
)

func convUpdatedAt(title string, updatedAt time.Time) *Conversation {
	return &Conversation{
		ID:        "conv-" + title,
		Title:     title,
		Model:     "m",
		CreatedAt: updatedAt,
		UpdatedAt: updatedAt,
	}
}

func TestGroupByTimelineLabels(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		daysAgo int
		want    string
	}{
		{0, "Today"},
		{1, "Yesterday"},
		{2, "2 days ago"},
		{6, "6 days ago"},
		{7, "1 week ago"},
		{9, "1 week ago"},
		{29, "1 week ago"},
		{30, "1 month ago"},
		{40, "1 month ago"},
		{364, "1 month ago"},
		{365, "1 year ago"},
		{400, "1 year ago"},
	}

	for _, tt := range tests {
		conv := convUpdatedAt("c", now.AddDate(0, 0, -tt.daysAgo))
		sections := GroupByTimeline([]*Conversation{conv}, now)
		if len(sections) != 1 {
			t.Fatalf("daysAgo=%d: expected 1 section, got %d", tt.daysAgo, len(sections))
		}
		if sections[0].Label != tt.want {
			t.Errorf("daysAgo=%d: expected label %q, got %q", tt.daysAgo, tt.want, sections[0].Label)
		}
	}
}

func TestGroupByTimelineSameDayTruncation(t *testing.T) {
	// 23:30 yesterday is "Yesterday" even though less than a day has
	// elapsed from 00:30 today.
	now := time.Date(2025, 6, 15, 0, 30, 0, 0, time.UTC)
	lateYesterday := time.Date(2025, 6, 14, 23, 30, 0, 0, time.UTC)

	sections := GroupByTimeline([]*Conversation{convUpdatedAt("c", lateYesterday)}, now)
	if len(sections) != 1 || sections[0].Label != "Yesterday" {
		t.Fatalf("expected a single Yesterday section, got %+v", sections)
	}
}

func TestGroupByTimelineAcrossDSTTransitions(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	tests := []struct {
		name      string
		updatedAt time.Time
		now       time.Time
		want      string
	}{
		{
			// DST began 2025-03-09: only 23 wall-clock hours separate
			// these two noons, but a calendar day has elapsed.
			name:      "spring forward",
			updatedAt: time.Date(2025, 3, 9, 12, 0, 0, 0, loc),
			now:       time.Date(2025, 3, 10, 12, 0, 0, 0, loc),
			want:      "Yesterday",
		},
		{
			// DST ended 2025-11-02: 25 wall-clock hours, still one
			// calendar day.
			name:      "fall back",
			updatedAt: time.Date(2025, 11, 1, 12, 0, 0, 0, loc),
			now:       time.Date(2025, 11, 2, 12, 0, 0, 0, loc),
			want:      "Yesterday",
		},
		{
			// Eight local midnights with a spring transition inside the
			// window: 7x24h plus one 23h day.
			name:      "week spanning spring forward",
			updatedAt: time.Date(2025, 3, 5, 18, 0, 0, 0, loc),
			now:       time.Date(2025, 3, 12, 9, 0, 0, 0, loc),
			want:      "1 week ago",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sections := GroupByTimeline([]*Conversation{convUpdatedAt("c", tt.updatedAt)}, tt.now)
			if len(sections) != 1 {
				t.Fatalf("expected 1 section, got %d", len(sections))
			}
			if sections[0].Label != tt.want {
				t.Errorf("expected label %q, got %q", tt.want, sections[0].Label)
			}
		})
	}
}

func TestGroupByTimelineSectionOrder(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	convs := []*Conversation{
		convUpdatedAt("oldest", now.AddDate(0, 0, -400)),
		convUpdatedAt("month", now.AddDate(0, 0, -40)),
		convUpdatedAt("week", now.AddDate(0, 0, -9)),
		convUpdatedAt("twodays", now.AddDate(0, 0, -2)),
		convUpdatedAt("yesterday", now.AddDate(0, 0, -1)),
		convUpdatedAt("today", now),
	}

	sections := GroupByTimeline(convs, now)
	wantOrder := []string{"Today", "Yesterday", "2 days ago", "1 week ago", "1 month ago", "1 year ago"}
	if len(sections) != len(wantOrder) {
		t.Fatalf("expected %d sections, got %d", len(wantOrder), len(sections))
	}
	for i, want := range wantOrder {
		if sections[i].Label != want {
			t.Errorf("section %d: expected %q, got %q", i, want, sections[i].Label)
		}
	}
}

func TestGroupByTimelineSortsWithinSection(t *testing.T) {
	now := time.Date(2025, 6, 15, 18, 0, 0, 0, time.UTC)
	morning := convUpdatedAt("morning", now.Add(-8*time.Hour))
	noon := convUpdatedAt("noon", now.Add(-6*time.Hour))
	recent := convUpdatedAt("recent", now.Add(-time.Hour))

	sections := GroupByTimeline([]*Conversation{morning, recent, noon}, now)
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	got := sections[0].Conversations
	if got[0].Title != "recent" || got[1].Title != "noon" || got[2].Title != "morning" {
		t.Errorf("expected recency order within section, got %q %q %q",
			got[0].Title, got[1].Title, got[2].Title)
	}
}

func TestGroupByTimelineEmptyInput(t *testing.T) {
	sections := GroupByTimeline(nil, time.Now())
	if len(sections) != 0 {
		t.Errorf("expected no sections for empty input, got %d", len(sections))
	}
}
