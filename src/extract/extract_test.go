package extract

import "testing"

func TestGrowthPct(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   float64
		wantOK bool
	}{
		{
			name:   "profit up",
			text:   "Net profit up 25% on strong festive demand",
			want:   25,
			wantOK: true,
		},
		{
			name:   "revenue grew by",
			text:   "Revenue grew by 12.5% compared to the same quarter last year",
			want:   12.5,
			wantOK: true,
		},
		{
			name:   "profit declined",
			text:   "Quarterly profit declined 8% as margins compressed",
			want:   -8,
			wantOK: true,
		},
		{
			name:   "bare yoy figure",
			text:   "The company reported 18% YoY improvement",
			want:   18,
			wantOK: true,
		},
		{
			name:   "no figure",
			text:   "The company announced its quarterly results today",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := GrowthPct(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("ok mismatch. got=%v want=%v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Fatalf("value mismatch. got=%v want=%v", got, tt.want)
			}
		})
	}
}

func TestDividendYieldPct(t *testing.T) {
	got, ok := DividendYieldPct("Board declared a dividend with a yield of 3.2% at current prices")
	if !ok || got != 3.2 {
		t.Fatalf("got=%v ok=%v, want 3.2 true", got, ok)
	}

	if _, ok := DividendYieldPct("Board declared an interim dividend"); ok {
		t.Fatalf("expected miss when no percentage is present")
	}
}

func TestDealSizeCrore(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   float64
		wantOK bool
	}{
		{
			name:   "rupee crore",
			text:   "acquired the unit for Rs 1,200 crore in an all-cash deal",
			want:   1200,
			wantOK: true,
		},
		{
			name:   "rupee symbol",
			text:   "a ₹450.5 cr buyout",
			want:   450.5,
			wantOK: true,
		},
		{
			name:   "dollar billion",
			text:   "a $1.5 billion acquisition",
			want:   1.5 * 8300.0,
			wantOK: true,
		},
		{
			name:   "dollar million",
			text:   "bought the startup for $200 million",
			want:   200 * 8.3,
			wantOK: true,
		},
		{
			name:   "no amount",
			text:   "the companies agreed to merge",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DealSizeCrore(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("ok mismatch. got=%v want=%v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Fatalf("value mismatch. got=%v want=%v", got, tt.want)
			}
		})
	}
}

func TestSentimentCounts(t *testing.T) {
	pos, neg := SentimentCounts("Record profit and strong growth despite one lawsuit")
	if pos != 4 {
		t.Fatalf("positive count mismatch. got=%d want=4", pos)
	}
	if neg != 1 {
		t.Fatalf("negative count mismatch. got=%d want=1", neg)
	}
}
