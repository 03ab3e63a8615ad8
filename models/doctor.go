package models

import "time"

// Doctor represents one entry of the doctor catalog. Immutable for the
// duration of a wizard session once loaded.
type Doctor struct {
	ID              int            `json:"id"`
	Name            string         `json:"name"`
	Specialization  string         `json:"specialization"`
	Experience      string         `json:"experience"`
	Image           string         `json:"image"`
	Rating          float64        `json:"rating"`
	AvailableDays   []time.Weekday `json:"availableDays"` // 0=Sunday .. 6=Saturday
	ConsultationFee float64        `json:"consultationFee"`
	Languages       []string       `json:"languages"`
	Hospital        string         `json:"hospital"`
}

// AvailableOn reports whether the doctor accepts bookings on the given weekday.
func (d Doctor) AvailableOn(day time.Weekday) bool {
	for _, w := range d.AvailableDays {
		if w == day {
			return true
		}
	}
	return false
}

// DoctorSummary is the by-value snapshot of a doctor embedded into a booking
// record, so later catalog changes cannot mutate a past booking.
type DoctorSummary struct {
	ID              int     `json:"id"`
	Name            string  `json:"name"`
	Specialization  string  `json:"specialization"`
	Hospital        string  `json:"hospital"`
	Image           string  `json:"image"`
	ConsultationFee float64 `json:"consultationFee"`
}

// Summary copies the booking-relevant doctor fields.
func (d Doctor) Summary() DoctorSummary {
	return DoctorSummary{
		ID:              d.ID,
		Name:            d.Name,
		Specialization:  d.Specialization,
		Hospital:        d.Hospital,
		Image:           d.Image,
		ConsultationFee: d.ConsultationFee,
	}
}

// AvailableDate is one bookable calendar date within the booking horizon.
// Past dates are kept and flagged rather than dropped so a client can render
// them struck out.
type AvailableDate struct {
	Date   time.Time `json:"date"`
	IsPast bool      `json:"isPast"`
}
