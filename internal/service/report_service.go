package service

import (
	"context"
	"sort"
	"time"

	"github.com/andy/docket/internal/domain"
	"github.com/andy/docket/internal/repository"
)

// MatterTotal is the billed time for one matter in a period
type MatterTotal struct {
	MatterID      string
	MatterName    string
	Seconds       int64
	BillableHours float64
	Amount        float64
	Entries       int
}

// DailySummary is the closed time for one local day. Billable hours are
// the sum of each entry's rounded hours, the way the entries are invoiced.
type DailySummary struct {
	Date          time.Time
	Seconds       int64
	BillableHours float64
	TotalValue    float64
	ByMatter      []MatterTotal // largest amount first
	Entries       []*domain.TimeEntry
}

// WeekSummary is the closed time for the week starting on Monday
type WeekSummary struct {
	WeekStart     time.Time
	Seconds       int64
	BillableHours float64
	TotalValue    float64
	ByDay         map[time.Weekday]float64 // billable hours
	ByMatter      []MatterTotal
}

// ReportService aggregates closed entries
type ReportService interface {
	GetDailySummary(ctx context.Context, date time.Time) (*DailySummary, error)
	GetWeekSummary(ctx context.Context, weekStart time.Time) (*WeekSummary, error)
}

type reportService struct {
	history repository.EntryHistory
	userID  string
}

// NewReportService creates a new report service for one user
func NewReportService(history repository.EntryHistory, userID string) ReportService {
	return &reportService{history: history, userID: userID}
}

func (s *reportService) GetDailySummary(ctx context.Context, date time.Time) (*DailySummary, error) {
	// Normalize to start of day
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)

	entries, err := s.history.ListClosed(ctx, s.userID, startOfDay, endOfDay)
	if err != nil {
		return nil, err
	}

	summary := &DailySummary{
		Date:    startOfDay,
		Entries: entries,
	}
	byMatter := make(map[string]*MatterTotal)

	for _, entry := range entries {
		seconds, hours, value := entryTotals(entry)
		summary.Seconds += seconds
		summary.BillableHours += hours
		summary.TotalValue += value
		addMatter(byMatter, entry, seconds, hours, value)
	}
	summary.ByMatter = sortedMatters(byMatter)

	return summary, nil
}

func (s *reportService) GetWeekSummary(ctx context.Context, weekStart time.Time) (*WeekSummary, error) {
	// Ensure weekStart is actually a Monday (start of week)
	weekStart = time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), 0, 0, 0, 0, weekStart.Location())
	for weekStart.Weekday() != time.Monday {
		weekStart = weekStart.AddDate(0, 0, -1)
	}
	weekEnd := weekStart.AddDate(0, 0, 7)

	entries, err := s.history.ListClosed(ctx, s.userID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}

	summary := &WeekSummary{
		WeekStart: weekStart,
		ByDay:     make(map[time.Weekday]float64),
	}
	byMatter := make(map[string]*MatterTotal)

	for _, entry := range entries {
		seconds, hours, value := entryTotals(entry)
		summary.Seconds += seconds
		summary.BillableHours += hours
		summary.TotalValue += value
		summary.ByDay[entry.StartAt.In(weekStart.Location()).Weekday()] += hours
		addMatter(byMatter, entry, seconds, hours, value)
	}
	summary.ByMatter = sortedMatters(byMatter)

	return summary, nil
}

func entryTotals(entry *domain.TimeEntry) (int64, float64, float64) {
	end := entry.StartAt
	if entry.EndAt != nil {
		end = *entry.EndAt
	}
	return entry.ElapsedSeconds(end), entry.BillableHours(end), entry.Amount(end)
}

func addMatter(byMatter map[string]*MatterTotal, entry *domain.TimeEntry, seconds int64, hours, value float64) {
	t, ok := byMatter[entry.MatterID]
	if !ok {
		t = &MatterTotal{MatterID: entry.MatterID, MatterName: entry.MatterName}
		byMatter[entry.MatterID] = t
	}
	t.Seconds += seconds
	t.BillableHours += hours
	t.Amount += value
	t.Entries++
}

func sortedMatters(byMatter map[string]*MatterTotal) []MatterTotal {
	out := make([]MatterTotal, 0, len(byMatter))
	for _, t := range byMatter {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].MatterName < out[j].MatterName
	})
	return out
}
