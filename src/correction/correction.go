// Package correction detects multi-day price-decline setups and scores their
// confidence. Everything here is pure and independent of news flow.
package correction

import (
	"newsquant/src/model"
)

// ----- detection thresholds -----

const (
	MinWindowBars      = 20
	MinDeclineDays     = 5
	MinCorrectionPct   = 10.0
	MaxCorrectionPct   = 35.0
	MinVolumeSpike     = 1.5
	VolumeBaselineBars = 20

	// Confidence blend weights: oversold / fundamental / catalyst.
	WeightOversold    = 0.3
	WeightFundamental = 0.3
	WeightCatalyst    = 0.4
)

// Result describes one detected decline event. Detected may be true on
// magnitude alone; Confirmed additionally requires the streak length and an
// in-window volume spike.
type Result struct {
	Detected            bool    `json:"detected"`
	Confirmed           bool    `json:"confirmed"`
	CorrectionPct       float64 `json:"correction_pct"`
	DeclineDays         int     `json:"decline_days"`
	VolumeRatioDeclMax  float64 `json:"volume_ratio_decline_max"`
	PeakClose           float64 `json:"peak_close"`
	TroughClose         float64 `json:"trough_close"`
	DeclineStartIdx     int     `json:"decline_start_idx"`
	DeclineEndIdx       int     `json:"decline_end_idx"`
	InsufficientHistory bool    `json:"insufficient_history"`
}

// Detect scans the trailing window for the longest contiguous decline streak
// and classifies it. The series must be ordered oldest to newest and should
// cover at least MinWindowBars bars.
func Detect(ticker string, series model.OHLCVSeries) Result {
	_ = ticker

	if len(series) < MinWindowBars {
		return Result{InsufficientHistory: true}
	}

	closes := series.Closes()
	volumes := series.Volumes()

	// Longest contiguous close-over-close decline streak.
	bestStart, bestEnd := -1, -1
	curStart := -1
	for i := 1; i < len(closes); i++ {
		if closes[i] < closes[i-1] {
			if curStart == -1 {
				curStart = i - 1
			}
			if curStart != -1 && (bestStart == -1 || i-curStart > bestEnd-bestStart) {
				bestStart, bestEnd = curStart, i
			}
		} else {
			curStart = -1
		}
	}

	if bestStart == -1 {
		return Result{}
	}

	peak := closes[bestStart]
	trough := closes[bestEnd]
	correctionPct := 0.0
	if peak > 0 {
		correctionPct = (peak - trough) / peak * 100
	}
	declineDays := bestEnd - bestStart

	spikeMax := maxVolumeRatio(volumes, bestStart, bestEnd)

	detected := correctionPct >= MinCorrectionPct && correctionPct <= MaxCorrectionPct
	confirmed := detected && declineDays >= MinDeclineDays && spikeMax >= MinVolumeSpike

	return Result{
		Detected:           detected,
		Confirmed:          confirmed,
		CorrectionPct:      correctionPct,
		DeclineDays:        declineDays,
		VolumeRatioDeclMax: spikeMax,
		PeakClose:          peak,
		TroughClose:        trough,
		DeclineStartIdx:    bestStart,
		DeclineEndIdx:      bestEnd,
	}
}

// maxVolumeRatio returns the largest volume-over-baseline ratio inside the
// decline window, the baseline being the trailing average before the window.
func maxVolumeRatio(volumes []float64, start, end int) float64 {
	baseStart := start - VolumeBaselineBars
	if baseStart < 0 {
		baseStart = 0
	}
	if baseStart >= start {
		return 0
	}

	sum := 0.0
	for _, v := range volumes[baseStart:start] {
		sum += v
	}
	baseline := sum / float64(start-baseStart)
	if baseline == 0 {
		return 0
	}

	maxRatio := 0.0
	for i := start; i <= end; i++ {
		if r := volumes[i] / baseline; r > maxRatio {
			maxRatio = r
		}
	}
	return maxRatio
}

// SectorAdjustment is the multiplier applied to a base confidence for the
// ticker's sector context.
type SectorAdjustment struct {
	AdjustedConfidence float64 `json:"adjusted_confidence"`
	Factor             float64 `json:"factor"`
}

// ApplySectorAdjustment scales a correction confidence by a sector factor.
// Without sector data the factor is exactly 1.0: a neutral no-op, not an
// error condition.
func ApplySectorAdjustment(ticker string, baseConfidence float64, fundamentals *model.Fundamentals) SectorAdjustment {
	_ = ticker

	if fundamentals == nil || fundamentals.Sector == "" {
		return SectorAdjustment{AdjustedConfidence: baseConfidence, Factor: 1.0}
	}

	// Defensive sectors recover from corrections more reliably.
	factor := 1.0
	switch fundamentals.Sector {
	case "FMCG", "Pharma", "Utilities":
		factor = 1.1
	case "Metals", "Realty":
		factor = 0.9
	}

	adjusted := baseConfidence * factor
	if adjusted > 1 {
		adjusted = 1
	}
	return SectorAdjustment{AdjustedConfidence: adjusted, Factor: factor}
}

// Confidence blends the oversold, fundamental and catalyst sub-scores
// (each on a 0-100 scale) into a [0,1] confidence.
func Confidence(oversoldScore, fundamentalScore, catalystScore float64) float64 {
	blended := (WeightOversold*oversoldScore + WeightFundamental*fundamentalScore + WeightCatalyst*catalystScore) / 100
	if blended < 0 {
		return 0
	}
	if blended > 1 {
		return 1
	}
	return blended
}
