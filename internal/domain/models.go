package domain

import "time"

// EventEmptied is the only event the bin firmware reports on its event topic.
const EventEmptied = "emptied"

type TrashStatus string

const (
	StatusEmpty    TrashStatus = "EMPTY"
	StatusNormal   TrashStatus = "NORMAL"
	StatusFull     TrashStatus = "FULL"
	StatusCritical TrashStatus = "CRITICAL"
)

// StatusForLevel maps a fill level to the status shown on the bin visual.
func StatusForLevel(level float64) TrashStatus {
	switch {
	case level >= 90:
		return StatusCritical
	case level >= 75:
		return StatusFull
	case level <= 5:
		return StatusEmpty
	default:
		return StatusNormal
	}
}

type AppView string

const (
	ViewDashboard AppView = "DASHBOARD"
	ViewHistory   AppView = "HISTORY"
	ViewAssistant AppView = "ASSISTANT"
	ViewSettings  AppView = "SETTINGS"
)

// ParseView falls back to the dashboard for anything it does not know.
func ParseView(s string) AppView {
	switch AppView(s) {
	case ViewHistory, ViewAssistant, ViewSettings:
		return AppView(s)
	}
	return ViewDashboard
}

type TrashCanData struct {
	ID                string  `json:"id"`
	Level             float64 `json:"level"`
	LidOpen           bool    `json:"lidOpen"`
	Battery           float64 `json:"battery"`
	Temperature       float64 `json:"temperature"`
	Humidity          float64 `json:"humidity"`
	OdorLevel         float64 `json:"odorLevel"`
	LastEmptied       string  `json:"lastEmptied"`
	EmptiedCountToday int     `json:"emptiedCountToday"`
	DiffWithYesterday int     `json:"diffWithYesterday"`
	IsConnected       bool    `json:"isConnected"`
}

// NewTrashCanData returns the initial snapshot shown before any telemetry arrives.
func NewTrashCanData(id string) TrashCanData {
	return TrashCanData{
		ID:          id,
		Battery:     85,
		Temperature: 28,
		Humidity:    65,
		OdorLevel:   2,
		LastEmptied: "unknown",
	}
}

type LogType string

const (
	LogOpen      LogType = "OPEN"
	LogEmpty     LogType = "EMPTY"
	LogAlert     LogType = "ALERT"
	LogAutoClose LogType = "AUTO_CLOSE"
)

type UsageLog struct {
	ID        string  `json:"id"`
	Timestamp string  `json:"timestamp"`
	Type      LogType `json:"type"`
	Details   string  `json:"details"`
}

// EventDoc is the persisted event document. Event and TS are the payload,
// ID and BinID are keys added by the stores.
type EventDoc struct {
	ID    string    `db:"id" json:"id"`
	BinID string    `db:"bin_id" json:"binId"`
	Event string    `db:"event" json:"event"`
	TS    time.Time `db:"ts" json:"ts"`
}

type ChatRole string

const (
	RoleUser  ChatRole = "user"
	RoleModel ChatRole = "model"
)

type ChatMessage struct {
	ID   string   `json:"id"`
	Role ChatRole `json:"role"`
	Text string   `json:"text"`
}

type DayCount struct {
	Name   string `json:"name"`
	Amount int    `json:"amount"`
}

type TodayVsYesterday struct {
	Today     int `json:"today"`
	Yesterday int `json:"yesterday"`
	Diff      int `json:"diff"`
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampPercent bounds level, battery and humidity readings to 0..100.
func ClampPercent(v float64) float64 { return clamp(v, 0, 100) }

// ClampOdor bounds the VOC index to 0..10.
func ClampOdor(v float64) float64 { return clamp(v, 0, 10) }
