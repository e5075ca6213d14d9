package risk

import (
	"testing"
	"time"
)

func istTime(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, ist)
}

func TestDetectSession(t *testing.T) {
	cases := []struct {
		name string
		at   time.Time
		want Session
	}{
		{"regular trading hours", istTime(2026, 3, 4, 11, 0), SessionRegular},
		{"open bell", istTime(2026, 3, 4, 9, 15), SessionRegular},
		{"pre-open auction", istTime(2026, 3, 4, 9, 5), SessionPreOpen},
		{"post close window", istTime(2026, 3, 4, 15, 45), SessionPostClose},
		{"just after close bell", istTime(2026, 3, 4, 15, 30), SessionPostClose},
		{"late evening", istTime(2026, 3, 4, 20, 0), SessionClosed},
		{"early morning", istTime(2026, 3, 4, 6, 0), SessionClosed},
		{"saturday", istTime(2026, 3, 7, 11, 0), SessionWeekendHoliday},
		{"sunday", istTime(2026, 3, 8, 11, 0), SessionWeekendHoliday},
		{"republic day", istTime(2026, 1, 26, 11, 0), SessionWeekendHoliday},
		{"independence day", istTime(2025, 8, 15, 11, 0), SessionWeekendHoliday}, // falls on a Friday
		{"gandhi jayanti", istTime(2026, 10, 2, 11, 0), SessionWeekendHoliday},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectSession(tc.at); got != tc.want {
				t.Fatalf("DetectSession(%v) = %q, want %q", tc.at, got, tc.want)
			}
		})
	}
}

func TestDetectSessionConvertsFromUTC(t *testing.T) {
	// 05:30 UTC is 11:00 IST, mid regular session.
	at := time.Date(2026, 3, 4, 5, 30, 0, 0, time.UTC)
	if got := DetectSession(at); got != SessionRegular {
		t.Fatalf("expected UTC timestamp converted into IST, got %q", got)
	}
}

func TestInScanWindow(t *testing.T) {
	if !InScanWindow(istTime(2026, 3, 4, 20, 0)) {
		t.Fatal("weekday evenings must stay scannable")
	}
	if InScanWindow(istTime(2026, 3, 7, 11, 0)) {
		t.Fatal("weekends must not be scanned")
	}
}
