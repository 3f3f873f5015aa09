package service

import (
	"context"
	"errors"
	"time"

	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/domain"
)

var (
	ErrUnknownSignal = errors.New("unknown signal")
	ErrCloudDisabled = errors.New("cloud services not enabled")
)

// EventStore is the append-only trash log.
type EventStore interface {
	// Append stores an event stamped with the store's clock.
	Append(ctx context.Context, event string) (domain.EventDoc, error)
	// CountBetween counts events equal to event with from <= ts <= to.
	CountBetween(ctx context.Context, event string, from, to time.Time) (int, error)
	ListByEvent(ctx context.Context, event string) ([]domain.EventDoc, error)
	ListSince(ctx context.Context, from time.Time) ([]domain.EventDoc, error)
	// Recent returns up to limit events, newest first.
	Recent(ctx context.Context, limit int) ([]domain.EventDoc, error)
}

type SnapshotCache interface {
	Save(ctx context.Context, data domain.TrashCanData) error
	Load(ctx context.Context, binID string) (domain.TrashCanData, bool, error)
}

type Notifier interface {
	NotifyCritical(ctx context.Context, binID string, level float64) error
	NotifyMaintenance(ctx context.Context, binID string, failureRisk float64, due time.Time) error
}

// LidCommander sends lid commands to the bin.
type LidCommander interface {
	SendLidCommand(open bool) error
}

type ReportArchive interface {
	UploadReport(ctx context.Context, key string, data []byte, contentType string) (string, error)
	ListReports(ctx context.Context, prefix string) ([]string, error)
}

type NopNotifier struct{}

func (NopNotifier) NotifyCritical(context.Context, string, float64) error { return nil }

func (NopNotifier) NotifyMaintenance(context.Context, string, float64, time.Time) error { return nil }

type Options struct {
	BinID    string
	Location *time.Location
	Store    EventStore
	Cache    SnapshotCache
	Notifier Notifier
	Lid      LidCommander
	// Archive is nil when cloud services are disabled.
	Archive     ReportArchive
	Maintenance MaintenanceConfig
}

type Services struct {
	Bin         *BinService
	Stats       *StatsService
	Maintenance *MaintenanceService
	Reports     *ReportService
}

func New(opts Options) *Services {
	if opts.Notifier == nil {
		opts.Notifier = NopNotifier{}
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	st := NewStatsService(opts.Store, opts.Location)
	return &Services{
		Bin:         NewBinService(opts, st),
		Stats:       st,
		Maintenance: NewMaintenanceService(opts.BinID, opts.Maintenance, opts.Notifier),
		Reports:     NewReportService(opts.BinID, st, opts.Archive),
	}
}
