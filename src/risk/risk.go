package risk

import "time"

// ----- session labels -----

type Session string

const (
	SessionWeekendHoliday Session = "weekend_holiday"
	SessionPreOpen        Session = "pre_open"
	SessionRegular        Session = "regular"
	SessionPostClose      Session = "post_close"
	SessionClosed         Session = "closed"
)

// NSE trading day in IST: pre-open 09:00, regular 09:15-15:30, post-close
// until 16:00.
const (
	preOpenStartMinute   = 9 * 60
	regularStartMinute   = 9*60 + 15
	regularEndMinute     = 15*60 + 30
	postCloseEndMinute   = 16 * 60
	istOffsetSeconds     = 5*3600 + 30*60
	RepublicDayMonth     = time.January
	RepublicDay          = 26
	IndependenceDayMonth = time.August
	IndependenceDay      = 15
	GandhiJayantiMonth   = time.October
	GandhiJayanti        = 2
)

var ist = time.FixedZone("IST", istOffsetSeconds)

// isExchangeHoliday covers the fixed-date national holidays the exchange
// always closes for. Movable holidays (Diwali, Holi) are not modelled; a scan
// on those days just finds no fresh bars.
func isExchangeHoliday(t time.Time) bool {
	month, day := t.Month(), t.Day()
	switch {
	case month == RepublicDayMonth && day == RepublicDay:
		return true
	case month == IndependenceDayMonth && day == IndependenceDay:
		return true
	case month == GandhiJayantiMonth && day == GandhiJayanti:
		return true
	}
	return false
}

// ----- public API -----

// DetectSession classifies a timestamp against the NSE trading calendar.
func DetectSession(now time.Time) Session {
	local := now.In(ist)

	if local.Weekday() == time.Saturday || local.Weekday() == time.Sunday {
		return SessionWeekendHoliday
	}
	if isExchangeHoliday(local) {
		return SessionWeekendHoliday
	}

	minute := local.Hour()*60 + local.Minute()
	switch {
	case minute >= preOpenStartMinute && minute < regularStartMinute:
		return SessionPreOpen
	case minute >= regularStartMinute && minute < regularEndMinute:
		return SessionRegular
	case minute >= regularEndMinute && minute < postCloseEndMinute:
		return SessionPostClose
	default:
		return SessionClosed
	}
}

// InScanWindow reports whether a universe scan is worth running: any weekday
// session including the evening, when the day's close and news are in. Only
// weekends and exchange holidays are excluded.
func InScanWindow(now time.Time) bool {
	return DetectSession(now) != SessionWeekendHoliday
}
