package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/legacieweb/payme/models"

	"gorm.io/gorm"
)

// AnalyticsService computes revenue statistics over recorded payments. It
// only reads; freshness per request is the requirement and volumes are small,
// so nothing is cached. All date arithmetic is done in UTC.
type AnalyticsService struct {
	db *gorm.DB
}

func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: db}
}

// Window is a labelled lower time bound. A zero Start means no lower bound.
type Window struct {
	Label string
	Start time.Time
}

// StandardWindows returns the product's reporting windows relative to now:
// today (UTC midnight), thisWeek (-7d), thisMonth (-30d) and allTime.
func StandardWindows(now time.Time) []Window {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return []Window{
		{Label: "today", Start: midnight},
		{Label: "thisWeek", Start: now.AddDate(0, 0, -7)},
		{Label: "thisMonth", Start: now.AddDate(0, 0, -30)},
		{Label: "allTime"},
	}
}

type WindowStat struct {
	Total float64 `json:"total"`
	Count int64   `json:"count"`
}

// WindowStats sums payment amounts and counts records per window. Empty
// windows report zeros rather than being omitted.
func (s *AnalyticsService) WindowStats(ctx context.Context, windows []Window) (map[string]WindowStat, error) {
	stats := make(map[string]WindowStat, len(windows))
	for _, w := range windows {
		query := s.db.WithContext(ctx).Model(&models.Payment{})
		if !w.Start.IsZero() {
			query = query.Where("created_at >= ?", w.Start)
		}
		var row struct {
			Total float64
			Count int64
		}
		if err := query.
			Select("COALESCE(SUM(amount), 0) as total, COUNT(*) as count").
			Scan(&row).Error; err != nil {
			return nil, fmt.Errorf("window %q: %w", w.Label, err)
		}
		stats[w.Label] = WindowStat{Total: row.Total, Count: row.Count}
	}
	return stats, nil
}

type DailyStat struct {
	Year        int     `json:"year"`
	Month       int     `json:"month"`
	Day         int     `json:"day"`
	TotalAmount float64 `json:"totalAmount"`
	Count       int64   `json:"count"`
}

// DailySeries groups payments within the lookback window by UTC calendar day,
// newest day first. Grouping happens in Go so the query stays portable across
// the MySQL store and the sqlite test store.
func (s *AnalyticsService) DailySeries(ctx context.Context, lookbackDays int) ([]DailyStat, error) {
	since := time.Now().UTC().AddDate(0, 0, -lookbackDays)

	var payments []models.Payment
	if err := s.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("daily series: %w", err)
	}

	byDay := make(map[[3]int]*DailyStat)
	for _, p := range payments {
		t := p.CreatedAt.UTC()
		key := [3]int{t.Year(), int(t.Month()), t.Day()}
		stat, ok := byDay[key]
		if !ok {
			stat = &DailyStat{Year: key[0], Month: key[1], Day: key[2]}
			byDay[key] = stat
		}
		stat.TotalAmount += p.Amount
		stat.Count++
	}

	series := make([]DailyStat, 0, len(byDay))
	for _, stat := range byDay {
		series = append(series, *stat)
	}
	sort.Slice(series, func(i, j int) bool {
		a, b := series[i], series[j]
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		if a.Month != b.Month {
			return a.Month > b.Month
		}
		return a.Day > b.Day
	})
	return series, nil
}

type Overview struct {
	TotalRevenue      float64 `json:"totalRevenue"`
	TotalTransactions int64   `json:"totalTransactions"`
	AverageAmount     float64 `json:"averageAmount"`
}

// Overview returns all-time revenue totals for the admin payments page.
func (s *AnalyticsService) Overview(ctx context.Context) (*Overview, error) {
	var row struct {
		Total float64
		Count int64
	}
	if err := s.db.WithContext(ctx).Model(&models.Payment{}).
		Select("COALESCE(SUM(amount), 0) as total, COUNT(*) as count").
		Scan(&row).Error; err != nil {
		return nil, fmt.Errorf("overview: %w", err)
	}

	overview := &Overview{TotalRevenue: row.Total, TotalTransactions: row.Count}
	if row.Count > 0 {
		overview.AverageAmount = row.Total / float64(row.Count)
	}
	return overview, nil
}
