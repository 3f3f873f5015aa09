package dashboard

import (
	"time"

	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/domain"
)

// API payloads as the dashboard reads them.

type BinView struct {
	Data   domain.TrashCanData `json:"data"`
	Status domain.TrashStatus  `json:"status"`
	Logs   []domain.UsageLog   `json:"logs"`
}

type ChatRequest struct {
	Message string               `json:"message"`
	History []domain.ChatMessage `json:"history"`
}

type ChatResponse struct {
	Reply domain.ChatMessage `json:"reply"`
}

type AssistantInfo struct {
	Greeting     domain.ChatMessage `json:"greeting"`
	QuickPrompts []string           `json:"quickPrompts"`
}

type Maintenance struct {
	BinID             string    `json:"bin_id"`
	CurrentHealth     float64   `json:"current_health"`
	FailureRisk30Days float64   `json:"failure_risk_30_days"`
	FailureRisk90Days float64   `json:"failure_risk_90_days"`
	NextServiceDate   time.Time `json:"next_service_date"`
	DaysUntilService  int       `json:"days_until_service"`
	Recommendation    string    `json:"recommendation"`
}

type ArchivedReport struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// LiveState is pushed to browsers over the websocket.
type LiveState struct {
	Online    bool              `json:"online"`
	Bin       *BinView          `json:"bin,omitempty"`
	Weekly    []domain.DayCount `json:"weekly,omitempty"`
	Timestamp int64             `json:"timestamp"`
}
