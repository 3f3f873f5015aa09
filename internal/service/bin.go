package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/domain"
	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/metrics"
	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/telemetry"
)

const (
	LiveLogLimit   = 10
	liveTimeLayout = "15:04"
)

// BinService owns the live snapshot of one bin and its recent usage feed.
// Telemetry, the HTTP API and the watcher all mutate it concurrently.
type BinService struct {
	mu            sync.RWMutex
	data          domain.TrashCanData
	logs          []domain.UsageLog
	lastEmptiedAt time.Time

	subMu sync.Mutex
	subs  map[chan domain.TrashCanData]struct{}

	// refreshMu orders Refresh calls so an older count never overwrites a newer one.
	refreshMu sync.Mutex

	stats    *StatsService
	store    EventStore
	cache    SnapshotCache
	notifier Notifier
	lid      LidCommander
	loc      *time.Location
	now      func() time.Time
}

func NewBinService(opts Options, st *StatsService) *BinService {
	return &BinService{
		data:     domain.NewTrashCanData(opts.BinID),
		subs:     make(map[chan domain.TrashCanData]struct{}),
		stats:    st,
		store:    opts.Store,
		cache:    opts.Cache,
		notifier: opts.Notifier,
		lid:      opts.Lid,
		loc:      opts.Location,
		now:      time.Now,
	}
}

// SetLidCommander attaches the MQTT bridge once it exists; the bridge needs
// HandleSignal as its callback, so it is built after the service.
func (s *BinService) SetLidCommander(c LidCommander) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lid = c
}

func (s *BinService) Snapshot() domain.TrashCanData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.data
	if !s.lastEmptiedAt.IsZero() {
		out.LastEmptied = humanize.RelTime(s.lastEmptiedAt, s.now(), "ago", "from now")
	}
	return out
}

func (s *BinService) Status() domain.TrashStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.StatusForLevel(s.data.Level)
}

// Logs returns the live feed, newest first.
func (s *BinService) Logs() []domain.UsageLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.UsageLog, len(s.logs))
	copy(out, s.logs)
	return out
}

// HandleSignal applies one decoded telemetry signal.
func (s *BinService) HandleSignal(ctx context.Context, sig telemetry.Signal) error {
	switch sig.Kind {
	case telemetry.KindFill:
		s.applyFill(ctx, sig.Level)
	case telemetry.KindLid:
		s.mu.Lock()
		s.data.LidOpen = sig.LidOpen
		s.mu.Unlock()
	case telemetry.KindSensors:
		s.applySensors(sig.Sensors)
	case telemetry.KindEmptied:
		s.addLog(domain.LogEmpty, "Bin emptied")
		err := s.recordEmptied(ctx)
		s.publish()
		return err
	case telemetry.KindConnected, telemetry.KindDisconnected:
		s.mu.Lock()
		s.data.IsConnected = sig.Kind == telemetry.KindConnected
		s.mu.Unlock()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSignal, sig.Kind)
	}
	s.publish()
	return nil
}

func (s *BinService) applyFill(ctx context.Context, level float64) {
	level = domain.ClampPercent(level)

	s.mu.Lock()
	before := domain.StatusForLevel(s.data.Level)
	s.data.Level = level
	s.data.IsConnected = true
	binID := s.data.ID
	s.mu.Unlock()

	metrics.FillLevel.WithLabelValues(binID).Set(level)

	if before == domain.StatusCritical || domain.StatusForLevel(level) != domain.StatusCritical {
		return
	}
	s.addLog(domain.LogAlert, fmt.Sprintf("Bin is %.0f%% full", level))
	if err := s.notifier.NotifyCritical(ctx, binID, level); err != nil {
		log.Error().Err(err).Str("bin", binID).Msg("critical fill alert failed")
	}
}

func (s *BinService) applySensors(in telemetry.Sensors) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if in.Battery != nil {
		s.data.Battery = domain.ClampPercent(*in.Battery)
	}
	if in.Temperature != nil {
		s.data.Temperature = *in.Temperature
	}
	if in.Humidity != nil {
		s.data.Humidity = domain.ClampPercent(*in.Humidity)
	}
	if in.Odor != nil {
		s.data.OdorLevel = domain.ClampOdor(*in.Odor)
	}
}

// ToggleLid flips the lid locally and sends the matching command to the bin.
func (s *BinService) ToggleLid(ctx context.Context) error {
	s.mu.Lock()
	open := !s.data.LidOpen
	s.data.LidOpen = open
	lid := s.lid
	s.mu.Unlock()

	if open {
		s.addLog(domain.LogOpen, "Lid opened manually")
	} else {
		s.addLog(domain.LogAutoClose, "Lid closed manually")
	}
	s.publish()

	if lid == nil {
		return nil
	}
	if err := lid.SendLidCommand(open); err != nil {
		return fmt.Errorf("send lid command: %w", err)
	}
	return nil
}

// EmptyTrash records a manual emptying. The local state changes even when
// the event cannot be stored.
func (s *BinService) EmptyTrash(ctx context.Context) error {
	s.mu.Lock()
	s.data.Level = 0
	s.data.OdorLevel = 1
	binID := s.data.ID
	s.mu.Unlock()

	metrics.FillLevel.WithLabelValues(binID).Set(0)
	s.addLog(domain.LogEmpty, "Trash emptied")

	err := s.recordEmptied(ctx)
	s.publish()
	return err
}

// recordEmptied stores the event and updates the counters. When the store
// rejects the write the bin still shows as just emptied.
func (s *BinService) recordEmptied(ctx context.Context) error {
	doc, appendErr := s.store.Append(ctx, domain.EventEmptied)
	at := doc.TS
	if appendErr != nil {
		metrics.EventsStored.WithLabelValues(domain.EventEmptied, "error").Inc()
		at = s.now()
	} else {
		metrics.EventsStored.WithLabelValues(domain.EventEmptied, "ok").Inc()
	}

	s.mu.Lock()
	s.lastEmptiedAt = at
	s.mu.Unlock()

	if err := s.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("refresh after emptied failed")
	}
	if appendErr != nil {
		return fmt.Errorf("store emptied event: %w", appendErr)
	}
	return nil
}

// Refresh reloads today's count, the difference with yesterday and the last
// emptied time from the store.
func (s *BinService) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	tvy := s.stats.TodayVsYesterday(ctx)
	last, ok, err := s.stats.LastEmptied(ctx)

	s.mu.Lock()
	s.data.EmptiedCountToday = tvy.Today
	s.data.DiffWithYesterday = tvy.Diff
	if ok && last.After(s.lastEmptiedAt) {
		s.lastEmptiedAt = last
	}
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("load last emptied: %w", err)
	}
	return nil
}

// Handler adapts HandleSignal to the MQTT callback. Emptied signals run on a
// separate goroutine in arrival order, so the store round trips they need do
// not delay fill and lid updates.
func (s *BinService) Handler(ctx context.Context) telemetry.Handler {
	emptied := make(chan telemetry.Signal, 16)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-emptied:
				s.handle(ctx, sig)
			}
		}
	}()
	return func(sig telemetry.Signal) {
		if sig.Kind != telemetry.KindEmptied {
			s.handle(ctx, sig)
			return
		}
		select {
		case emptied <- sig:
		case <-ctx.Done():
		}
	}
}

func (s *BinService) handle(ctx context.Context, sig telemetry.Signal) {
	if err := s.HandleSignal(ctx, sig); err != nil {
		log.Error().Err(err).Str("signal", string(sig.Kind)).Msg("signal handling failed")
	}
}

// Watch keeps today's count live: it picks up events written by other
// processes and resets the count after midnight.
func (s *BinService) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				log.Warn().Err(err).Msg("watch refresh failed")
			}
			s.publish()
		}
	}
}

// Restore seeds the snapshot from the cache. The bin is reported offline
// until the broker connection comes up.
func (s *BinService) Restore(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	s.mu.RLock()
	binID := s.data.ID
	s.mu.RUnlock()

	cached, ok, err := s.cache.Load(ctx, binID)
	if err != nil || !ok {
		return err
	}
	cached.IsConnected = false
	s.mu.Lock()
	s.data = cached
	s.mu.Unlock()
	return nil
}

// PersistSnapshots writes every change to the cache until ctx is done.
func (s *BinService) PersistSnapshots(ctx context.Context) {
	if s.cache == nil {
		return
	}
	updates, cancel := s.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-updates:
			if err := s.cache.Save(ctx, data); err != nil {
				log.Warn().Err(err).Msg("snapshot cache write failed")
			}
		}
	}
}

// Subscribe returns a channel that always holds the latest snapshot after a
// change. Slow readers skip intermediate states.
func (s *BinService) Subscribe() (<-chan domain.TrashCanData, func()) {
	ch := make(chan domain.TrashCanData, 1)
	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, ch)
			s.subMu.Unlock()
		})
	}
}

func (s *BinService) publish() {
	snap := s.Snapshot()
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

func (s *BinService) addLog(t domain.LogType, details string) {
	entry := domain.UsageLog{
		ID:        uuid.NewString(),
		Timestamp: s.now().In(s.loc).Format(liveTimeLayout),
		Type:      t,
		Details:   details,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append([]domain.UsageLog{entry}, s.logs...)
	if len(s.logs) > LiveLogLimit {
		s.logs = s.logs[:LiveLogLimit]
	}
}
