package models

import "time"

// PrescriptionInfo captures the stage-4 answers. Details are required only
// when HasPrescription is "yes".
type PrescriptionInfo struct {
	HasPrescription string `json:"hasPrescription"` // "yes" or "no"
	Details         string `json:"prescriptionDetails"`
}

// PatientDetails captures the stage-5 form.
type PatientDetails struct {
	Name               string `json:"name"`
	Email              string `json:"email"`
	Phone              string `json:"phone"`
	Age                int    `json:"age"`
	Gender             string `json:"gender"`
	Symptoms           string `json:"symptoms"`
	PreviousConditions string `json:"previousConditions,omitempty"`
	Medications        string `json:"medications,omitempty"`
}

// PatientRecord is the full patient snapshot embedded into a booking record,
// including the prescription answers.
type PatientRecord struct {
	PatientDetails
	HasPrescription     string `json:"hasPrescription"`
	PrescriptionDetails string `json:"prescriptionDetails,omitempty"`
}

// Appointment is the terminal booking record. It is assembled exactly once,
// at submission, and never mutated afterwards. ID and ConfirmationCode are
// assigned by the booking service.
type Appointment struct {
	ID               int           `json:"id"`
	ConfirmationCode string        `json:"confirmationCode"`
	Doctor           DoctorSummary `json:"doctor"`
	Date             time.Time     `json:"date"`
	Time             string        `json:"time"`
	Patient          PatientRecord `json:"patient"`
	CreatedAt        time.Time     `json:"createdAt"`
}

// AppointmentDraft is an appointment before the booking service assigned its
// ID and confirmation code.
type AppointmentDraft struct {
	Doctor    DoctorSummary `json:"doctor"`
	Date      time.Time     `json:"date"`
	Time      string        `json:"time"`
	Patient   PatientRecord `json:"patient"`
	CreatedAt time.Time     `json:"createdAt"`
}
