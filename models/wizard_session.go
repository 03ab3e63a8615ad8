package models

import "time"

// WizardStage names one stage of the appointment wizard.
type WizardStage string

const (
	StageSelectingDoctor      WizardStage = "selecting_doctor"
	StageSelectingDate        WizardStage = "selecting_date"
	StageSelectingTime        WizardStage = "selecting_time"
	StageEnteringPrescription WizardStage = "entering_prescription"
	StageEnteringPatientInfo  WizardStage = "entering_patient_info"
	StageCompleted            WizardStage = "completed"
)

// wizardOrder fixes the linear stage sequence for back navigation.
var wizardOrder = []WizardStage{
	StageSelectingDoctor,
	StageSelectingDate,
	StageSelectingTime,
	StageEnteringPrescription,
	StageEnteringPatientInfo,
	StageCompleted,
}

// Previous returns the stage before s, or s itself when already at the start.
func (s WizardStage) Previous() WizardStage {
	for i, st := range wizardOrder {
		if st == s && i > 0 {
			return wizardOrder[i-1]
		}
	}
	return s
}

// WizardSession holds all state accumulated by one appointment wizard run.
// It is persisted as JSON between operations; stepping backward never discards
// data, so every prior selection stays on the session.
type WizardSession struct {
	SessionID string      `json:"sessionId"`
	User      SessionUser `json:"user"`
	Stage     WizardStage `json:"stage"`

	// Catalog snapshot from the last doctor listing; doctor selection is
	// validated against it rather than against free input.
	Doctors        []Doctor        `json:"doctors,omitempty"`
	SelectedDoctor *Doctor         `json:"selectedDoctor,omitempty"`
	CandidateDates []AvailableDate `json:"candidateDates,omitempty"`

	SelectedDate *time.Time `json:"selectedDate,omitempty"`
	// DateRev increments on every date selection. Slot lists are tagged with
	// the revision they were fetched for; a fetch whose tag no longer matches
	// is stale and must be discarded.
	DateRev      int      `json:"dateRev"`
	Slots        []string `json:"slots,omitempty"`
	SlotsRev     int      `json:"slotsRev"`
	SelectedTime string   `json:"selectedTime,omitempty"`

	Prescription PrescriptionInfo `json:"prescription"`
	Patient      PatientDetails   `json:"patient"`

	// StageError carries the last stage-scoped failure message, if any.
	StageError string `json:"stageError,omitempty"`

	Appointment *Appointment `json:"appointment,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// SlotsCurrent reports whether the stored slot list belongs to the current
// date selection.
func (s *WizardSession) SlotsCurrent() bool {
	return s.SlotsRev == s.DateRev && s.DateRev > 0
}
