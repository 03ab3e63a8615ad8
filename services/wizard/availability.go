package wizard

import (
	"time"

	"medibook/models"
)

// HorizonDays is the fixed forward-looking window within which bookable dates
// are computed.
const HorizonDays = 14

// CandidateDates derives the bookable dates for a doctor over the horizon
// starting at now. Pure: no clock reads, no network. Dates whose weekday is
// not in the doctor's available days are skipped; dates before today are kept
// but flagged as past. The result is strictly ascending.
//
// Past-ness is decided at calendar-day granularity, so today stays bookable
// until midnight rather than going stale at the current minute.
func CandidateDates(doctor models.Doctor, now time.Time) []models.AvailableDate {
	today := startOfDay(now)
	var dates []models.AvailableDate
	for i := 0; i < HorizonDays; i++ {
		d := today.AddDate(0, 0, i)
		if !doctor.AvailableOn(d.Weekday()) {
			continue
		}
		dates = append(dates, models.AvailableDate{
			Date:   d,
			IsPast: d.Before(today),
		})
	}
	return dates
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// sameDay compares calendar days only, so a date parsed in the client's zone
// still matches a candidate computed in the server's.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func isoDate(t time.Time) string {
	return t.Format("2006-01-02")
}
