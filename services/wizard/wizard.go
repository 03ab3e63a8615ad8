package wizard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"medibook/models"
	"medibook/services/catalog"
	"medibook/utils"
)

// Start opens a new wizard session for a patient. The session user snapshot
// is taken here, once; the wizard never reaches back into ambient auth state
// mid-flow. Patient name, email and phone are prefilled from the snapshot.
func (s *DefaultWizardService) Start(ctx context.Context, user models.SessionUser) (*models.WizardSession, error) {
	if !user.IsPatient() {
		return nil, newGuardError(models.StageSelectingDoctor, "only patients can book appointments")
	}

	session := &models.WizardSession{
		SessionID: uuid.New().String(),
		User:      user,
		Stage:     models.StageSelectingDoctor,
		Prescription: models.PrescriptionInfo{
			HasPrescription: "no",
		},
		Patient: models.PatientDetails{
			Name:  user.Username,
			Email: user.Email,
			Phone: user.Phone,
		},
		CreatedAt: s.now(),
	}

	if err := s.store.save(ctx, session); err != nil {
		return nil, err
	}

	utils.GetLogger().Info("wizard: session started",
		zap.String("sessionID", session.SessionID),
		zap.String("userID", user.ID))
	return session, nil
}

// Get returns the current session state without advancing it.
func (s *DefaultWizardService) Get(ctx context.Context, sessionID string) (*models.WizardSession, error) {
	return s.store.load(ctx, sessionID)
}

// ListDoctors fetches the filtered doctor catalog and snapshots the full
// result on the session, so a later doctor selection can be validated against
// what was actually offered. A catalog failure leaves the session untouched.
func (s *DefaultWizardService) ListDoctors(ctx context.Context, sessionID string, filter catalog.Filter) ([]models.Doctor, error) {
	session, err := s.store.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	doctors, err := s.CatalogSvc.List(ctx, catalog.Filter{})
	if err != nil {
		return nil, &TransientError{Op: "fetch doctors", Err: err}
	}

	session.Doctors = doctors
	if err := s.store.save(ctx, session); err != nil {
		return nil, err
	}
	return catalog.ApplyFilter(doctors, filter), nil
}

// SelectDoctor picks a doctor from the session's catalog snapshot, derives
// the candidate dates for the booking horizon and moves to date selection.
// Any previously selected date, time or slot list belongs to the old doctor
// and is cleared.
func (s *DefaultWizardService) SelectDoctor(ctx context.Context, sessionID string, doctorID int) (*models.WizardSession, error) {
	session, err := s.store.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var selected *models.Doctor
	for i := range session.Doctors {
		if session.Doctors[i].ID == doctorID {
			selected = &session.Doctors[i]
			break
		}
	}
	if selected == nil {
		return nil, newGuardError(models.StageSelectingDoctor, "doctor %d is not in the offered catalog", doctorID)
	}

	doctor := *selected
	session.SelectedDoctor = &doctor
	session.CandidateDates = CandidateDates(doctor, s.now())
	session.SelectedDate = nil
	session.SelectedTime = ""
	session.Slots = nil
	session.SlotsRev = 0
	session.Stage = models.StageSelectingDate
	session.StageError = ""

	if err := s.store.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SelectDate picks a candidate date and fetches the time slots for it. The
// guard rejects dates outside the computed candidate set and dates flagged as
// past. Changing the date invalidates a previously picked time; re-selecting
// the same date keeps it. Slots are re-fetched on every call, never cached.
func (s *DefaultWizardService) SelectDate(ctx context.Context, sessionID string, date time.Time) (*models.WizardSession, error) {
	session, err := s.store.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Stage != models.StageSelectingDate && session.Stage != models.StageSelectingTime {
		return nil, newGuardError(session.Stage, "cannot select a date from stage %s", session.Stage)
	}

	var candidate *models.AvailableDate
	for i := range session.CandidateDates {
		if sameDay(session.CandidateDates[i].Date, date) {
			candidate = &session.CandidateDates[i]
			break
		}
	}
	if candidate == nil {
		return nil, newGuardError(models.StageSelectingDate, "date %s is not available for this doctor", isoDate(date))
	}
	// The stored flag can go stale when a session crosses midnight, so the
	// guard also re-checks against the current clock.
	if candidate.IsPast || candidate.Date.Before(startOfDay(s.now())) {
		return nil, newGuardError(models.StageSelectingDate, "date %s is in the past", isoDate(candidate.Date))
	}

	if session.SelectedDate == nil || !sameDay(*session.SelectedDate, candidate.Date) {
		// A time slot was validated against the old date; it must not carry over.
		session.SelectedTime = ""
	}
	selected := candidate.Date
	session.SelectedDate = &selected
	session.DateRev++
	rev := session.DateRev
	session.Slots = nil
	session.SlotsRev = 0
	session.Stage = models.StageSelectingTime
	session.StageError = ""
	if err := s.store.save(ctx, session); err != nil {
		return nil, err
	}

	return s.fetchSlots(ctx, sessionID, session.SelectedDoctor.ID, selected, rev)
}

// RefreshSlots re-runs the slot fetch for the currently selected date, e.g.
// after a transient slot-service failure. The selected date is kept.
func (s *DefaultWizardService) RefreshSlots(ctx context.Context, sessionID string) (*models.WizardSession, error) {
	session, err := s.store.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Stage != models.StageSelectingTime || session.SelectedDate == nil {
		return nil, newGuardError(session.Stage, "no date selected to fetch slots for")
	}
	return s.fetchSlots(ctx, sessionID, session.SelectedDoctor.ID, *session.SelectedDate, session.DateRev)
}

// fetchSlots performs one slot-service call tagged with the date revision it
// was issued for. If the revision moved on while the call was in flight the
// response is stale and discarded, so a slow fetch for date A can never
// clobber the slots of a newer date B.
func (s *DefaultWizardService) fetchSlots(ctx context.Context, sessionID string, doctorID int, date time.Time, rev int) (*models.WizardSession, error) {
	logger := utils.GetLogger()

	slots, fetchErr := s.Upstream.FetchTimeSlots(ctx, doctorID, isoDate(date))

	session, err := s.store.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.DateRev != rev {
		logger.Debug("wizard: discarding stale slot fetch",
			zap.String("sessionID", sessionID),
			zap.Int("fetchedRev", rev),
			zap.Int("currentRev", session.DateRev))
		return session, nil
	}

	if fetchErr != nil {
		session.StageError = "Failed to fetch available time slots. Please try again."
		if err := s.store.save(ctx, session); err != nil {
			return nil, err
		}
		return session, &TransientError{Op: "fetch time slots", Err: fetchErr}
	}

	session.Slots = slots
	session.SlotsRev = rev
	session.StageError = ""
	if err := s.store.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SelectTime picks a slot from the last-fetched slot list. The wizard stays
// on the time stage; advancing requires an explicit ConfirmTime.
func (s *DefaultWizardService) SelectTime(ctx context.Context, sessionID string, slot string) (*models.WizardSession, error) {
	session, err := s.store.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Stage != models.StageSelectingTime {
		return nil, newGuardError(session.Stage, "cannot select a time from stage %s", session.Stage)
	}
	if !session.SlotsCurrent() {
		return nil, newGuardError(models.StageSelectingTime, "no slots loaded for the selected date")
	}

	found := false
	for _, candidate := range session.Slots {
		if candidate == slot {
			found = true
			break
		}
	}
	if !found {
		return nil, newGuardError(models.StageSelectingTime, "slot %q is not among the offered time slots", slot)
	}

	session.SelectedTime = slot
	session.StageError = ""
	if err := s.store.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// ConfirmTime is the explicit "Next" off the time stage.
func (s *DefaultWizardService) ConfirmTime(ctx context.Context, sessionID string) (*models.WizardSession, error) {
	session, err := s.store.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Stage != models.StageSelectingTime {
		return nil, newGuardError(session.Stage, "cannot confirm a time from stage %s", session.Stage)
	}
	if session.SelectedTime == "" {
		return nil, newGuardError(models.StageSelectingTime, "no time slot selected")
	}

	session.Stage = models.StageEnteringPrescription
	session.StageError = ""
	if err := s.store.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SubmitPrescription validates and stores the stage-4 answers.
func (s *DefaultWizardService) SubmitPrescription(ctx context.Context, sessionID string, info models.PrescriptionInfo) (*models.WizardSession, error) {
	session, err := s.store.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Stage != models.StageEnteringPrescription {
		return nil, newGuardError(session.Stage, "cannot submit prescription details from stage %s", session.Stage)
	}

	if errs := ValidatePrescription(info); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	session.Prescription = info
	session.Stage = models.StageEnteringPatientInfo
	session.StageError = ""
	if err := s.store.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Back steps one stage backward. All accumulated data is retained; the guard
// re-validation on the forward path decides what is still usable.
func (s *DefaultWizardService) Back(ctx context.Context, sessionID string) (*models.WizardSession, error) {
	session, err := s.store.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Stage == models.StageSelectingDoctor || session.Stage == models.StageCompleted {
		return nil, newGuardError(session.Stage, "cannot step back from stage %s", session.Stage)
	}

	session.Stage = session.Stage.Previous()
	session.StageError = ""
	if err := s.store.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Cancel abandons the wizard and drops its session.
func (s *DefaultWizardService) Cancel(ctx context.Context, sessionID string) error {
	return s.store.delete(ctx, sessionID)
}
