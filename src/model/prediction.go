package model

import "time"

const (
	PredictionStatusActive    = "active"
	PredictionStatusEvaluated = "evaluated"
	PredictionStatusExpired   = "expired"
)

// Prediction is a persisted scoring outcome for a ticker at a point in time.
// At most one active prediction exists per ticker; recording a new one
// supersedes the prior active row.
type Prediction struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Ticker          string         `gorm:"size:20;not null;index" json:"ticker"`
	EventAt         time.Time      `gorm:"not null;index" json:"event_at"`
	Score           float64        `gorm:"not null" json:"score"`
	Recommendation  Recommendation `gorm:"size:10;not null" json:"recommendation"`
	InitialPrice    float64        `gorm:"not null" json:"initial_price"`
	ExpectedMovePct float64        `gorm:"not null" json:"expected_move_pct"`
	Certainty       float64        `gorm:"not null" json:"certainty"`
	Catalyst        NewsType       `gorm:"size:20;not null;default:general" json:"catalyst"`
	Status          string         `gorm:"size:20;not null;default:active;index" json:"status"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (Prediction) TableName() string {
	return "predictions"
}
