// Package extract holds the best-effort text extractors used by the news
// scorer. Every extractor returns (value, ok); a miss is never an error, the
// scorer falls back to its documented default sub-score instead.
package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// "profit up 25%", "net profit grew 12.5% YoY", "revenue declined 8%"
	growthUpRe   = regexp.MustCompile(`(?i)(?:profit|revenue|sales|income|ebitda)[^.%]{0,60}?(?:up|rose|grew|jumped|surged|increased|gain(?:ed)?)\s+(?:by\s+)?(\d+(?:\.\d+)?)\s*%`)
	growthDownRe = regexp.MustCompile(`(?i)(?:profit|revenue|sales|income|ebitda)[^.%]{0,60}?(?:down|fell|declined|dropped|decreased|slipped)\s+(?:by\s+)?(\d+(?:\.\d+)?)\s*%`)
	growthBareRe = regexp.MustCompile(`(?i)(-?\d+(?:\.\d+)?)\s*%\s*(?:yoy|y-o-y|year[- ]on[- ]year|growth)`)

	dividendYieldRe = regexp.MustCompile(`(?i)(?:dividend\s+)?yield\s+(?:of\s+)?(\d+(?:\.\d+)?)\s*%`)
	dividendPctRe   = regexp.MustCompile(`(?i)dividend\s+of\s+(\d+(?:\.\d+)?)\s*%`)

	// Deal sizes quoted in Indian units or western billions/millions.
	dealCroreRe   = regexp.MustCompile(`(?i)(?:rs\.?|₹|inr)\s*([\d,]+(?:\.\d+)?)\s*(crore|cr)\b`)
	dealLakhRe    = regexp.MustCompile(`(?i)(?:rs\.?|₹|inr)\s*([\d,]+(?:\.\d+)?)\s*lakh\b`)
	dealBillionRe = regexp.MustCompile(`(?i)\$\s*([\d,]+(?:\.\d+)?)\s*(billion|bn)\b`)
	dealMillionRe = regexp.MustCompile(`(?i)\$\s*([\d,]+(?:\.\d+)?)\s*(million|mn)\b`)
)

// Conversion multiples into crore, the common unit deal sizes are
// normalized to before computing deal impact vs market cap.
const (
	lakhToCrore      = 0.01
	usdBillionToCore = 8300.0 // approx, $1bn ≈ ₹8,300 crore
	usdMillionToCore = 8.3
)

// GrowthPct extracts a year-over-year growth percentage from free text.
// Declines come back negative.
func GrowthPct(text string) (float64, bool) {
	if m := growthUpRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v, true
		}
	}
	if m := growthDownRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return -v, true
		}
	}
	if m := growthBareRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

// DividendYieldPct extracts a dividend yield percentage.
func DividendYieldPct(text string) (float64, bool) {
	for _, re := range []*regexp.Regexp{dividendYieldRe, dividendPctRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				return v, true
			}
		}
	}
	return 0, false
}

// DealSizeCrore extracts an M&A deal size and normalizes it to crore.
func DealSizeCrore(text string) (float64, bool) {
	if m := dealCroreRe.FindStringSubmatch(text); m != nil {
		if v, ok := parseAmount(m[1]); ok {
			return v, true
		}
	}
	if m := dealLakhRe.FindStringSubmatch(text); m != nil {
		if v, ok := parseAmount(m[1]); ok {
			return v * lakhToCrore, true
		}
	}
	if m := dealBillionRe.FindStringSubmatch(text); m != nil {
		if v, ok := parseAmount(m[1]); ok {
			return v * usdBillionToCore, true
		}
	}
	if m := dealMillionRe.FindStringSubmatch(text); m != nil {
		if v, ok := parseAmount(m[1]); ok {
			return v * usdMillionToCore, true
		}
	}
	return 0, false
}

func parseAmount(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Sentiment keyword lists for general news scoring.
var (
	positiveKeywords = []string{
		"growth", "profit", "surge", "rally", "record", "strong", "beat",
		"upgrade", "expansion", "wins", "order", "contract", "approval",
		"bullish", "outperform", "buyback",
	}
	negativeKeywords = []string{
		"loss", "decline", "fall", "weak", "miss", "downgrade", "fraud",
		"probe", "penalty", "default", "bearish", "underperform", "lawsuit",
		"resign", "recall",
	}
)

// SentimentCounts counts positive and negative keyword occurrences in text.
func SentimentCounts(text string) (positive, negative int) {
	lower := strings.ToLower(text)
	for _, kw := range positiveKeywords {
		positive += strings.Count(lower, kw)
	}
	for _, kw := range negativeKeywords {
		negative += strings.Count(lower, kw)
	}
	return positive, negative
}
