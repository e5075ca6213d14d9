package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Config snapshot lifecycle. A draft produced by the learner is optionally
// reviewed, then promoted to active; the previously active snapshot becomes
// superseded in the same transaction.
const (
	ConfigStatusDraft      = "draft"
	ConfigStatusReviewed   = "reviewed"
	ConfigStatusActive     = "active"
	ConfigStatusSuperseded = "superseded"
)

// GateThresholds are the admission thresholds for final picks.
type GateThresholds struct {
	AlphaMin float64 `json:"alpha_min"`
	RVolMin  float64 `json:"rvol_min"`
}

// WeightBounds bound every learned adjustment.
type WeightBounds struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	MaxStep float64 `json:"max_step"`
}

// ScoringConfig is the full tunable state consumed by the scorer and the
// alpha calculator, and produced (as a new snapshot) by the weight learner.
type ScoringConfig struct {
	CatalystWeights map[NewsType]float64 `json:"catalyst_weights"`
	AlphaWeights    map[string]float64   `json:"alpha_weights"`
	FeatureCaps     map[string]float64   `json:"feature_caps"`
	EventBonus      map[NewsType]float64 `json:"event_bonus"`
	SourceBonus     map[string]float64   `json:"source_bonus"`
	TickerPenalty   map[string]float64   `json:"ticker_penalty"`
	DedupExponent   float64              `json:"dedup_exponent"`
	Gates           GateThresholds       `json:"gates"`
	Bounds          WeightBounds         `json:"bounds"`
}

// DefaultScoringConfig returns the baseline configuration used before any
// learning cycle has produced a snapshot.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		CatalystWeights: map[NewsType]float64{
			NewsTypeEarnings: 1.0,
			NewsTypeDividend: 1.0,
			NewsTypeMA:       1.0,
			NewsTypeSector:   1.0,
			NewsTypeGeneral:  1.0,
		},
		AlphaWeights: map[string]float64{
			"momentum":      0.25,
			"rvol":          0.15,
			"squeeze_break": 0.20,
			"pullback_zone": 0.10,
			"news":          0.30,
		},
		FeatureCaps: map[string]float64{
			"news":      40,
			"technical": 40,
			"volume":    20,
		},
		EventBonus:    map[NewsType]float64{},
		SourceBonus:   map[string]float64{},
		TickerPenalty: map[string]float64{},
		DedupExponent: 0.7,
		Gates: GateThresholds{
			AlphaMin: 70,
			RVolMin:  1.5,
		},
		Bounds: WeightBounds{
			Min:     0.5,
			Max:     1.5,
			MaxStep: 0.1,
		},
	}
}

// Validate checks every learned value against the configured bounds. A draft
// failing validation is discarded, never promoted.
func (c *ScoringConfig) Validate() error {
	for catalyst, w := range c.CatalystWeights {
		if w < c.Bounds.Min || w > c.Bounds.Max {
			return fmt.Errorf("catalyst weight %q=%.3f outside [%.2f, %.2f]", catalyst, w, c.Bounds.Min, c.Bounds.Max)
		}
	}
	for ticker, p := range c.TickerPenalty {
		if p > 0 || p < -25 {
			return fmt.Errorf("ticker penalty %q=%.2f outside [-25, 0]", ticker, p)
		}
	}
	if c.Gates.AlphaMin < 0 || c.Gates.AlphaMin > 100 {
		return fmt.Errorf("alpha gate %.2f outside [0,100]", c.Gates.AlphaMin)
	}
	return nil
}

// ConfigSnapshot is one immutable persisted version of the scoring config.
type ConfigSnapshot struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Version   int       `gorm:"not null;uniqueIndex" json:"version"`
	Status    string    `gorm:"size:20;not null;index" json:"status"`
	RunID     string    `gorm:"size:36" json:"run_id"`
	Payload   string    `gorm:"type:text;not null" json:"payload"`
	Insights  string    `gorm:"type:text" json:"insights"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ConfigSnapshot) TableName() string {
	return "config_snapshots"
}

// Config decodes the snapshot payload.
func (s *ConfigSnapshot) Config() (ScoringConfig, error) {
	var cfg ScoringConfig
	if err := json.Unmarshal([]byte(s.Payload), &cfg); err != nil {
		return ScoringConfig{}, fmt.Errorf("decode config snapshot v%d: %w", s.Version, err)
	}
	return cfg, nil
}

// NewConfigSnapshot encodes cfg as a draft snapshot for the given version.
func NewConfigSnapshot(version int, runID string, cfg ScoringConfig, insights []string) (*ConfigSnapshot, error) {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config snapshot: %w", err)
	}
	insightText := ""
	for i, line := range insights {
		if i > 0 {
			insightText += "\n"
		}
		insightText += line
	}
	return &ConfigSnapshot{
		Version:  version,
		Status:   ConfigStatusDraft,
		RunID:    runID,
		Payload:  string(payload),
		Insights: insightText,
	}, nil
}
