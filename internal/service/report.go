package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ANIKETSHETTY47/energy-grid-analytics-go/aggregator"

	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/domain"
	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/stats"
)

// WeeklyReport is the archived summary of the current ISO week.
type WeeklyReport struct {
	BinID        string                  `json:"binId"`
	Week         string                  `json:"week"`
	WeekStart    time.Time               `json:"weekStart"`
	GeneratedAt  time.Time               `json:"generatedAt"`
	Days         []domain.DayCount       `json:"days"`
	Total        float64                 `json:"total"`
	DailyAverage float64                 `json:"dailyAverage"`
	Today        domain.TodayVsYesterday `json:"today"`
}

type ArchivedReport struct {
	Key    string       `json:"key"`
	URL    string       `json:"url"`
	Report WeeklyReport `json:"report"`
}

// ReportService archives weekly usage reports to object storage.
type ReportService struct {
	binID   string
	stats   *StatsService
	archive ReportArchive
}

func NewReportService(binID string, st *StatsService, archive ReportArchive) *ReportService {
	return &ReportService{binID: binID, stats: st, archive: archive}
}

func (s *ReportService) prefix() string { return "reports/" + s.binID + "/" }

// Build computes the report without storing it.
func (s *ReportService) Build(ctx context.Context) (WeeklyReport, error) {
	days, err := s.stats.Weekly(ctx)
	if err != nil {
		return WeeklyReport{}, fmt.Errorf("weekly stats: %w", err)
	}
	now := s.stats.now()
	start := stats.WeekStart(now, s.stats.Location())

	// Only days that have started count towards the average.
	points := make([]aggregator.Point, 0, len(days))
	for i, d := range days {
		ts := start.AddDate(0, 0, i)
		if ts.After(now) {
			break
		}
		points = append(points, aggregator.Point{Value: float64(d.Amount), Timestamp: ts})
	}

	year, week := start.ISOWeek()
	return WeeklyReport{
		BinID:        s.binID,
		Week:         fmt.Sprintf("%d-W%02d", year, week),
		WeekStart:    start,
		GeneratedAt:  now,
		Days:         days,
		Total:        aggregator.Sum(points),
		DailyAverage: aggregator.Average(points),
		Today:        s.stats.TodayVsYesterday(ctx),
	}, nil
}

// ArchiveWeekly uploads this week's report as JSON, overwriting earlier
// uploads for the same week, and returns a presigned link to it.
func (s *ReportService) ArchiveWeekly(ctx context.Context) (ArchivedReport, error) {
	if s.archive == nil {
		return ArchivedReport{}, ErrCloudDisabled
	}
	report, err := s.Build(ctx)
	if err != nil {
		return ArchivedReport{}, err
	}
	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return ArchivedReport{}, fmt.Errorf("encode report: %w", err)
	}
	key := s.prefix() + report.Week + ".json"
	url, err := s.archive.UploadReport(ctx, key, body, "application/json")
	if err != nil {
		return ArchivedReport{}, err
	}
	return ArchivedReport{Key: key, URL: url, Report: report}, nil
}

func (s *ReportService) List(ctx context.Context) ([]string, error) {
	if s.archive == nil {
		return nil, ErrCloudDisabled
	}
	return s.archive.ListReports(ctx, s.prefix())
}
