package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/domain"
	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/metrics"
	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/stats"
)

const (
	HistoryLimit      = 50
	historyTimeLayout = "15:04 02/01/2006"
)

// StatsService answers the dashboard's counting questions from the event store.
type StatsService struct {
	store EventStore
	loc   *time.Location
	now   func() time.Time
}

func NewStatsService(store EventStore, loc *time.Location) *StatsService {
	return &StatsService{store: store, loc: loc, now: time.Now}
}

func (s *StatsService) Location() *time.Location { return s.loc }

func (s *StatsService) TodayCount(ctx context.Context) int {
	return s.CountOn(ctx, s.now())
}

// CountOn counts emptied events on day's calendar day. A failed range query
// falls back to scanning every emptied event; if that fails too the count is 0.
func (s *StatsService) CountOn(ctx context.Context, day time.Time) int {
	from, to := stats.DayBounds(day, s.loc)
	n, err := s.store.CountBetween(ctx, domain.EventEmptied, from, to)
	if err == nil {
		return n
	}
	log.Warn().Err(err).Time("day", from).Msg("range count failed, scanning events")
	metrics.StoreFallbacks.Inc()

	docs, err := s.store.ListByEvent(ctx, domain.EventEmptied)
	if err != nil {
		log.Error().Err(err).Msg("event scan failed, reporting zero")
		return 0
	}
	return stats.CountInDay(stats.Timestamps(docs), day, s.loc)
}

func (s *StatsService) TodayVsYesterday(ctx context.Context) domain.TodayVsYesterday {
	now := s.now()
	return stats.Compare(s.CountOn(ctx, now), s.CountOn(ctx, now.AddDate(0, 0, -1)))
}

// Weekly counts every event since Monday 00:00, bucketed by weekday.
func (s *StatsService) Weekly(ctx context.Context) ([]domain.DayCount, error) {
	docs, err := s.store.ListSince(ctx, stats.WeekStart(s.now(), s.loc))
	if err != nil {
		return nil, err
	}
	return stats.BucketWeekly(stats.Timestamps(docs), s.loc), nil
}

// History rebuilds the usage log from the latest stored events.
func (s *StatsService) History(ctx context.Context) ([]domain.UsageLog, error) {
	docs, err := s.store.Recent(ctx, HistoryLimit)
	if err != nil {
		return nil, err
	}
	out := make([]domain.UsageLog, 0, len(docs))
	for _, d := range docs {
		l := domain.UsageLog{
			ID:        d.ID,
			Timestamp: d.TS.In(s.loc).Format(historyTimeLayout),
			Type:      domain.LogOpen,
			Details:   "Activity",
		}
		if d.Event == domain.EventEmptied {
			l.Type = domain.LogEmpty
			l.Details = "Trash emptied"
		}
		out = append(out, l)
	}
	return out, nil
}

// LastEmptied returns the time of the newest emptied event.
func (s *StatsService) LastEmptied(ctx context.Context) (time.Time, bool, error) {
	docs, err := s.store.Recent(ctx, HistoryLimit)
	if err != nil {
		return time.Time{}, false, err
	}
	for _, d := range docs {
		if d.Event == domain.EventEmptied {
			return d.TS, true, nil
		}
	}
	return time.Time{}, false, nil
}
