package service

import (
	"context"
	"time"

	"github.com/ANIKETSHETTY47/energy-grid-analytics-go/maintenance"
	"github.com/rs/zerolog/log"
)

// MaintenanceConfig describes the lid actuator of the bin.
type MaintenanceConfig struct {
	InstalledAt        time.Time
	LastService        time.Time
	FailureRatePerYear float64
	ServiceInterval    time.Duration
}

// MaintenanceService predicts when the lid actuator needs servicing.
type MaintenanceService struct {
	binID    string
	cfg      MaintenanceConfig
	notifier Notifier
	now      func() time.Time
}

func NewMaintenanceService(binID string, cfg MaintenanceConfig, n Notifier) *MaintenanceService {
	if n == nil {
		n = NopNotifier{}
	}
	return &MaintenanceService{binID: binID, cfg: cfg, notifier: n, now: time.Now}
}

type MaintenancePrediction struct {
	BinID             string    `json:"bin_id"`
	CurrentHealth     float64   `json:"current_health"`
	FailureRisk30Days float64   `json:"failure_risk_30_days"`
	FailureRisk90Days float64   `json:"failure_risk_90_days"`
	NextServiceDate   time.Time `json:"next_service_date"`
	DaysUntilService  int       `json:"days_until_service"`
	Recommendation    string    `json:"recommendation"`
}

// Predict builds the actuator's health profile and alerts when it is at risk.
func (s *MaintenanceService) Predict(ctx context.Context) MaintenancePrediction {
	now := s.now()
	health := maintenance.AssetHealth{
		HoursRun:           now.Sub(s.cfg.InstalledAt).Hours(),
		FailureRatePerYear: s.cfg.FailureRatePerYear,
		LastService:        s.cfg.LastService,
		ServiceInterval:    s.cfg.ServiceInterval,
	}

	risk30 := maintenance.FailureRisk(health.FailureRatePerYear, 30*24*time.Hour)
	risk90 := maintenance.FailureRisk(health.FailureRatePerYear, 90*24*time.Hour)
	next := maintenance.NextServiceDate(health)
	score := healthScore(now.Sub(s.cfg.LastService), s.cfg.ServiceInterval)

	p := MaintenancePrediction{
		BinID:             s.binID,
		CurrentHealth:     score,
		FailureRisk30Days: risk30 * 100,
		FailureRisk90Days: risk90 * 100,
		NextServiceDate:   next,
		DaysUntilService:  int(next.Sub(now).Hours() / 24),
		Recommendation:    recommendation(risk30, score),
	}

	if risk30 > 0.5 || score < 25 {
		if err := s.notifier.NotifyMaintenance(ctx, s.binID, p.FailureRisk30Days, next); err != nil {
			log.Error().Err(err).Str("bin", s.binID).Msg("maintenance alert failed")
		}
	}
	return p
}

// healthScore is the share of the service interval still left, 0..100.
func healthScore(sinceService, interval time.Duration) float64 {
	if interval <= 0 {
		return 0
	}
	left := 100 * (1 - float64(sinceService)/float64(interval))
	switch {
	case left < 0:
		return 0
	case left > 100:
		return 100
	}
	return left
}

func recommendation(risk, health float64) string {
	switch {
	case risk > 0.5 || health < 10:
		return "URGENT: Service the lid actuator now"
	case risk > 0.3 || health < 25:
		return "Schedule lid maintenance within the next 30 days"
	case risk > 0.15 || health < 50:
		return "Plan lid maintenance within the next 90 days"
	}
	return "Lid actuator operating normally"
}
