package model

import "time"

// Outcome classification thresholds, in percent.
// A consistent move must hold through both medium horizons; a fake rally is a
// one-day pop that has faded by day five.
const (
	ConsistentMinRet3d = 2.0
	ConsistentMinRet5d = 2.0
	FakeMinRet1d       = 2.0
	FakeMaxRet5d       = 0.5
)

// PerformanceRecord is one append-only evaluation of a prediction against
// realized prices. Partial is set when a horizon had no bar and its return was
// defaulted to zero.
type PerformanceRecord struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	PredictionID uint      `gorm:"not null;index" json:"prediction_id"`
	Ticker       string    `gorm:"size:20;not null;index" json:"ticker"`
	RunID        string    `gorm:"size:36;not null;index" json:"run_id"`
	EventAt      time.Time `gorm:"not null" json:"event_at"`
	Ret1d        float64   `gorm:"not null" json:"ret_1d"`
	Ret3d        float64   `gorm:"not null" json:"ret_3d"`
	Ret5d        float64   `gorm:"not null" json:"ret_5d"`
	Consistent   bool      `gorm:"not null" json:"consistent"`
	Fake         bool      `gorm:"not null" json:"fake"`
	Partial      bool      `gorm:"not null" json:"partial"`
	Catalyst     NewsType  `gorm:"size:20;not null;default:general" json:"catalyst"`
	ReliabilityD float64   `gorm:"column:reliability_delta;not null" json:"reliability_delta"`
	CreatedAt    time.Time `json:"created_at"`
}

func (PerformanceRecord) TableName() string {
	return "performance_records"
}

// ClassifyReturns applies the consistent/fake thresholds to a return triple.
func ClassifyReturns(ret1d, ret3d, ret5d float64) (consistent, fake bool) {
	consistent = ret3d >= ConsistentMinRet3d && ret5d >= ConsistentMinRet5d
	fake = ret1d >= FakeMinRet1d && ret5d <= FakeMaxRet5d
	return consistent, fake
}
