package model

import "time"

// FakeRallyPenaltyWeight is the asymmetric weighting applied to fake rallies
// in the reliability score.
const FakeRallyPenaltyWeight = 1.25

// TickerStats is the running per-ticker outcome aggregate. It is recomputed
// incrementally from each new performance record; the score depends only on
// the totals, never on the order records arrived in.
type TickerStats struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Ticker           string    `gorm:"size:20;not null;uniqueIndex" json:"ticker"`
	Successes        int       `gorm:"not null;default:0" json:"successes"`
	FakeRiseCount    int       `gorm:"not null;default:0" json:"fake_rise_count"`
	Appearances      int       `gorm:"not null;default:0" json:"appearances"`
	ReliabilityScore float64   `gorm:"not null;default:0" json:"reliability_score"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (TickerStats) TableName() string {
	return "ticker_stats"
}

// Reliability computes the closed-form reliability score for the given totals.
func Reliability(successes, fakeRiseCount, appearances int) float64 {
	denom := appearances
	if denom < 1 {
		denom = 1
	}
	return (float64(successes) - FakeRallyPenaltyWeight*float64(fakeRiseCount)) / float64(denom)
}

// Apply folds one evaluated outcome into the aggregate and refreshes the score.
func (t *TickerStats) Apply(consistent, fake bool) {
	t.Appearances++
	if consistent {
		t.Successes++
	}
	if fake {
		t.FakeRiseCount++
	}
	t.ReliabilityScore = Reliability(t.Successes, t.FakeRiseCount, t.Appearances)
}
