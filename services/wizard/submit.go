package wizard

import (
	"context"

	"go.uber.org/zap"

	"medibook/models"
	"medibook/utils"
)

// SubmitPatient validates the stage-5 form and runs the submission pipeline:
// (a) assemble the booking draft and let the booking service assign its ID
// and confirmation code, (b) append the record to the patient's history,
// (c) store it as the latest booking for the confirmation step, (d) complete
// the wizard. When (a) fails nothing is persisted and the wizard returns to
// the patient-info stage with every entered field intact: a patient never
// re-types medical details after a transient failure.
func (s *DefaultWizardService) SubmitPatient(ctx context.Context, sessionID string, details models.PatientDetails) (*models.WizardSession, error) {
	logger := utils.GetLogger()

	session, err := s.store.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Stage != models.StageEnteringPatientInfo {
		return nil, newGuardError(session.Stage, "cannot submit patient details from stage %s", session.Stage)
	}

	if errs := ValidatePatient(details); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	// Keep the entered data on the session before any external call.
	session.Patient = details
	if err := s.store.save(ctx, session); err != nil {
		return nil, err
	}

	// The wizard's own guards guarantee these by construction, but a session
	// document is external input once it round-trips through storage.
	if session.SelectedDoctor == nil || session.SelectedDate == nil || session.SelectedTime == "" {
		return nil, newGuardError(models.StageEnteringPatientInfo, "incomplete booking selections")
	}

	draft := models.AppointmentDraft{
		Doctor: session.SelectedDoctor.Summary(),
		Date:   *session.SelectedDate,
		Time:   session.SelectedTime,
		Patient: models.PatientRecord{
			PatientDetails:      details,
			HasPrescription:     session.Prescription.HasPrescription,
			PrescriptionDetails: session.Prescription.Details,
		},
		CreatedAt: s.now(),
	}

	appt, err := s.Upstream.BookAppointment(ctx, draft)
	if err != nil {
		logger.Error("wizard: booking submission failed",
			zap.String("sessionID", sessionID), zap.Error(err))
		session.Stage = models.StageEnteringPatientInfo
		session.StageError = "Failed to book appointment. Please try again."
		if saveErr := s.store.save(ctx, session); saveErr != nil {
			return nil, saveErr
		}
		return session, &TransientError{Op: "book appointment", Err: err}
	}

	userID := session.User.ID
	if err := s.HistoryRepo.Append(ctx, userID, *appt); err != nil {
		logger.Error("wizard: failed to append booking history",
			zap.String("sessionID", sessionID), zap.Error(err))
	}
	if err := s.HistoryRepo.SetLatest(ctx, userID, *appt); err != nil {
		logger.Error("wizard: failed to store latest booking",
			zap.String("sessionID", sessionID), zap.Error(err))
	}

	if s.Reminders != nil {
		if err := s.Reminders.ScheduleAppointmentReminder(ctx, userID, *appt); err != nil {
			logger.Warn("wizard: failed to schedule reminder",
				zap.Int("appointmentID", appt.ID), zap.Error(err))
		}
	}

	session.Appointment = appt
	session.Stage = models.StageCompleted
	session.StageError = ""
	if err := s.store.save(ctx, session); err != nil {
		return nil, err
	}

	logger.Info("wizard: appointment booked",
		zap.String("sessionID", sessionID),
		zap.Int("appointmentID", appt.ID),
		zap.String("confirmationCode", appt.ConfirmationCode))
	return session, nil
}
