package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/andy/docket/internal/domain"
)

type mockHistory struct {
	entries    []*domain.TimeEntry
	err        error
	start, end time.Time
	userID     string
}

func (m *mockHistory) ListClosed(ctx context.Context, userID string, start, end time.Time) ([]*domain.TimeEntry, error) {
	m.userID, m.start, m.end = userID, start, end
	if m.err != nil {
		return nil, m.err
	}
	return m.entries, nil
}

func closedEntry(matterID, name string, rate float64, start time.Time, worked time.Duration) *domain.TimeEntry {
	end := start.Add(worked)
	return &domain.TimeEntry{
		ID:         matterID + start.Format("1504"),
		UserID:     "user-1",
		MatterID:   matterID,
		MatterName: name,
		HourlyRate: rate,
		StartAt:    start,
		EndAt:      &end,
	}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestReportService_GetDailySummary(t *testing.T) {
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	history := &mockHistory{entries: []*domain.TimeEntry{
		closedEntry("m1", "Merger", 300, day.Add(9*time.Hour), 12*time.Minute),             // 0.2h $60
		closedEntry("m2", "Litigation", 500, day.Add(10*time.Hour), 61*time.Minute),        // 1.1h $550
		closedEntry("m1", "Merger", 300, day.Add(14*time.Hour), 6*time.Minute+time.Second), // 0.2h $60
	}}
	svc := NewReportService(history, "user-1")

	summary, err := svc.GetDailySummary(context.Background(), day.Add(15*time.Hour))
	if err != nil {
		t.Fatalf("GetDailySummary failed: %v", err)
	}

	if history.userID != "user-1" || !history.start.Equal(day) || !history.end.Equal(day.AddDate(0, 0, 1)) {
		t.Errorf("queried %s [%s, %s)", history.userID, history.start, history.end)
	}

	// rounded per entry, not on the total
	if !approx(summary.BillableHours, 1.5) {
		t.Errorf("billable hours = %v, want 1.5", summary.BillableHours)
	}
	if !approx(summary.TotalValue, 670) {
		t.Errorf("total value = %v, want 670", summary.TotalValue)
	}
	if summary.Seconds != (12*60 + 61*60 + 6*60 + 1) {
		t.Errorf("seconds = %d", summary.Seconds)
	}

	got := make([]string, len(summary.ByMatter))
	for i, m := range summary.ByMatter {
		got[i] = m.MatterName
	}
	if diff := cmp.Diff([]string{"Litigation", "Merger"}, got); diff != "" {
		t.Errorf("matter order mismatch (-want +got):\n%s", diff)
	}
	if merger := summary.ByMatter[1]; merger.Entries != 2 || !approx(merger.Amount, 120) {
		t.Errorf("merger total = %+v", merger)
	}
}

func TestReportService_GetWeekSummary(t *testing.T) {
	wednesday := time.Date(2024, 3, 6, 15, 0, 0, 0, time.UTC)
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	history := &mockHistory{entries: []*domain.TimeEntry{
		closedEntry("m1", "Merger", 300, monday.Add(9*time.Hour), time.Hour),
		closedEntry("m1", "Merger", 300, wednesday, 30*time.Minute),
	}}
	svc := NewReportService(history, "user-1")

	summary, err := svc.GetWeekSummary(context.Background(), wednesday)
	if err != nil {
		t.Fatalf("GetWeekSummary failed: %v", err)
	}

	if !summary.WeekStart.Equal(monday) {
		t.Errorf("week start = %s, want %s", summary.WeekStart, monday)
	}
	if !history.end.Equal(monday.AddDate(0, 0, 7)) {
		t.Errorf("week end = %s", history.end)
	}
	if !approx(summary.ByDay[time.Monday], 1.0) || !approx(summary.ByDay[time.Wednesday], 0.5) {
		t.Errorf("by day = %v", summary.ByDay)
	}
	if !approx(summary.TotalValue, 450) {
		t.Errorf("total value = %v, want 450", summary.TotalValue)
	}
}

func TestReportService_PropagatesErrors(t *testing.T) {
	history := &mockHistory{err: domain.ErrTransient}
	svc := NewReportService(history, "user-1")

	if _, err := svc.GetDailySummary(context.Background(), time.Now()); !errors.Is(err, domain.ErrTransient) {
		t.Errorf("expected transient error, got %v", err)
	}
}
