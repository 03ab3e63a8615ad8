package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medibook/database/repository/history"
	"medibook/models"
	"medibook/services/catalog"
)

// tuesday is the fixed test clock: 2026-09-01 10:00 UTC, a Tuesday.
var tuesday = time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)

var testPatient = models.SessionUser{
	ID:       "user-1",
	Username: "jane",
	Role:     "patient",
	Email:    "jane@example.com",
	Phone:    "1234567890",
}

// stubUpstream is a controllable upstream API for wizard tests.
type stubUpstream struct {
	mu sync.Mutex

	doctors    []models.Doctor
	doctorsErr error

	slots    []string
	slotsErr error
	// slotHook, when set, overrides the slot response per call.
	slotHook func(doctorID int, isoDate string) ([]string, error)

	bookErr   error
	bookCalls int
	nextID    int
}

func (s *stubUpstream) FetchDoctors(ctx context.Context) ([]models.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doctorsErr != nil {
		return nil, s.doctorsErr
	}
	return s.doctors, nil
}

func (s *stubUpstream) FetchTimeSlots(ctx context.Context, doctorID int, isoDate string) ([]string, error) {
	s.mu.Lock()
	hook := s.slotHook
	slots, err := s.slots, s.slotsErr
	s.mu.Unlock()
	if hook != nil {
		return hook(doctorID, isoDate)
	}
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (s *stubUpstream) BookAppointment(ctx context.Context, draft models.AppointmentDraft) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookCalls++
	if s.bookErr != nil {
		return nil, s.bookErr
	}
	s.nextID++
	return &models.Appointment{
		ID:               s.nextID,
		ConfirmationCode: fmt.Sprintf("APP-TEST%04d", s.nextID),
		Doctor:           draft.Doctor,
		Date:             draft.Date,
		Time:             draft.Time,
		Patient:          draft.Patient,
		CreatedAt:        draft.CreatedAt,
	}, nil
}

func newTestService(t *testing.T) (*DefaultWizardService, *stubUpstream, *history.RedisHistoryRepo) {
	t.Helper()

	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	stub := &stubUpstream{
		doctors: []models.Doctor{
			{
				ID:              1,
				Name:            "Dr. Smith",
				Specialization:  "Cardiologist",
				Hospital:        "City Medical Center",
				ConsultationFee: 1500,
				AvailableDays:   []time.Weekday{time.Monday, time.Wednesday, time.Friday},
			},
			{
				ID:             2,
				Name:           "Dr. Johnson",
				Specialization: "Dermatologist",
				AvailableDays:  []time.Weekday{time.Tuesday, time.Thursday, time.Saturday},
			},
		},
		slots: []string{"09:00 AM", "10:00 AM", "02:00 PM"},
	}

	histRepo := history.NewRedisHistoryRepo(cache)
	svc := NewDefaultWizardService(
		&catalog.DefaultCatalogService{Upstream: stub},
		stub,
		histRepo,
		nil,
		cache,
	).WithClock(func() time.Time { return tuesday })

	return svc, stub, histRepo
}

// driveToTimeStage runs a session up to slot selection and returns it.
func driveToTimeStage(t *testing.T, svc *DefaultWizardService) *models.WizardSession {
	t.Helper()
	ctx := context.Background()

	session, err := svc.Start(ctx, testPatient)
	require.NoError(t, err)

	_, err = svc.ListDoctors(ctx, session.SessionID, catalog.Filter{})
	require.NoError(t, err)

	session, err = svc.SelectDoctor(ctx, session.SessionID, 1)
	require.NoError(t, err)
	require.NotEmpty(t, session.CandidateDates)

	session, err = svc.SelectDate(ctx, session.SessionID, session.CandidateDates[0].Date)
	require.NoError(t, err)
	require.Equal(t, models.StageSelectingTime, session.Stage)
	return session
}

func TestStartRejectsNonPatient(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Start(context.Background(), models.SessionUser{ID: "d1", Role: "doctor"})

	var guardErr *GuardError
	require.ErrorAs(t, err, &guardErr)
}

func TestStartPrefillsPatientDetails(t *testing.T) {
	svc, _, _ := newTestService(t)

	session, err := svc.Start(context.Background(), testPatient)
	require.NoError(t, err)

	assert.Equal(t, models.StageSelectingDoctor, session.Stage)
	assert.Equal(t, "jane", session.Patient.Name)
	assert.Equal(t, "jane@example.com", session.Patient.Email)
	assert.Equal(t, "1234567890", session.Patient.Phone)
	assert.Equal(t, "no", session.Prescription.HasPrescription)
}

func TestSelectDoctorRejectsUnknownDoctor(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.Start(ctx, testPatient)
	require.NoError(t, err)
	_, err = svc.ListDoctors(ctx, session.SessionID, catalog.Filter{})
	require.NoError(t, err)

	_, err = svc.SelectDoctor(ctx, session.SessionID, 99)

	var guardErr *GuardError
	require.ErrorAs(t, err, &guardErr)
}

func TestSelectDateRejectsNonCandidate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.Start(ctx, testPatient)
	require.NoError(t, err)
	_, err = svc.ListDoctors(ctx, session.SessionID, catalog.Filter{})
	require.NoError(t, err)
	session, err = svc.SelectDoctor(ctx, session.SessionID, 1)
	require.NoError(t, err)

	// Dr. Smith works Mon/Wed/Fri; "now" is Tuesday, so today is not offered.
	_, err = svc.SelectDate(ctx, session.SessionID, tuesday)

	var guardErr *GuardError
	require.ErrorAs(t, err, &guardErr)
}

func TestSelectDateRejectsDateGoneStale(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.Start(ctx, testPatient)
	require.NoError(t, err)
	_, err = svc.ListDoctors(ctx, session.SessionID, catalog.Filter{})
	require.NoError(t, err)
	session, err = svc.SelectDoctor(ctx, session.SessionID, 1)
	require.NoError(t, err)
	first := session.CandidateDates[0].Date

	// The session lingers: three days later the first candidate has passed.
	svc.WithClock(func() time.Time { return tuesday.AddDate(0, 0, 3) })

	_, err = svc.SelectDate(ctx, session.SessionID, first)

	var guardErr *GuardError
	require.ErrorAs(t, err, &guardErr)
	assert.Contains(t, guardErr.Message, "past")
}

func TestSelectTimeRejectsSlotNotOffered(t *testing.T) {
	svc, _, _ := newTestService(t)
	session := driveToTimeStage(t, svc)

	_, err := svc.SelectTime(context.Background(), session.SessionID, "07:00 PM")

	var guardErr *GuardError
	require.ErrorAs(t, err, &guardErr)
}

func TestConfirmTimeRequiresSelection(t *testing.T) {
	svc, _, _ := newTestService(t)
	session := driveToTimeStage(t, svc)

	_, err := svc.ConfirmTime(context.Background(), session.SessionID)

	var guardErr *GuardError
	require.ErrorAs(t, err, &guardErr)
}

func TestSlotFetchFailureKeepsSelectedDate(t *testing.T) {
	svc, stub, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.Start(ctx, testPatient)
	require.NoError(t, err)
	_, err = svc.ListDoctors(ctx, session.SessionID, catalog.Filter{})
	require.NoError(t, err)
	session, err = svc.SelectDoctor(ctx, session.SessionID, 1)
	require.NoError(t, err)

	stub.mu.Lock()
	stub.slotsErr = errors.New("slot service down")
	stub.mu.Unlock()

	date := session.CandidateDates[0].Date
	session, err = svc.SelectDate(ctx, session.SessionID, date)

	var transientErr *TransientError
	require.ErrorAs(t, err, &transientErr)
	require.NotNil(t, session)
	require.NotNil(t, session.SelectedDate)
	assert.True(t, session.SelectedDate.Equal(date))
	assert.NotEmpty(t, session.StageError)

	// Retry succeeds without re-selecting the date.
	stub.mu.Lock()
	stub.slotsErr = nil
	stub.mu.Unlock()

	session, err = svc.RefreshSlots(ctx, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00 AM", "10:00 AM", "02:00 PM"}, session.Slots)
	assert.Empty(t, session.StageError)
}

func TestStaleSlotFetchIsDiscarded(t *testing.T) {
	svc, stub, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.Start(ctx, testPatient)
	require.NoError(t, err)
	_, err = svc.ListDoctors(ctx, session.SessionID, catalog.Filter{})
	require.NoError(t, err)
	session, err = svc.SelectDoctor(ctx, session.SessionID, 1)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(session.CandidateDates), 2)

	dateA := session.CandidateDates[0].Date
	dateB := session.CandidateDates[1].Date

	entered := make(chan struct{})
	release := make(chan struct{})
	stub.mu.Lock()
	stub.slotHook = func(doctorID int, isoDate string) ([]string, error) {
		if isoDate == dateA.Format("2006-01-02") {
			close(entered)
			<-release
			return []string{"A-ONLY"}, nil
		}
		return []string{"B-09:00 AM", "B-10:00 AM"}, nil
	}
	stub.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Fetch for date A stalls inside the slot service.
		_, _ = svc.SelectDate(ctx, session.SessionID, dateA)
	}()

	<-entered
	// The user moves on to date B before A's fetch resolves.
	session, err = svc.SelectDate(ctx, session.SessionID, dateB)
	require.NoError(t, err)
	assert.Equal(t, []string{"B-09:00 AM", "B-10:00 AM"}, session.Slots)

	// A's response arrives late and must not clobber B's slots.
	close(release)
	<-done

	session, err = svc.Get(ctx, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, []string{"B-09:00 AM", "B-10:00 AM"}, session.Slots)
	require.NotNil(t, session.SelectedDate)
	assert.True(t, session.SelectedDate.Equal(dateB))
}

func TestBackToDateAndNewDateClearsTime(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	session := driveToTimeStage(t, svc)

	session, err := svc.SelectTime(ctx, session.SessionID, "10:00 AM")
	require.NoError(t, err)
	require.Equal(t, "10:00 AM", session.SelectedTime)

	session, err = svc.Back(ctx, session.SessionID)
	require.NoError(t, err)
	require.Equal(t, models.StageSelectingDate, session.Stage)
	// Back itself discards nothing.
	assert.Equal(t, "10:00 AM", session.SelectedTime)

	// Picking a different date invalidates the old time.
	session, err = svc.SelectDate(ctx, session.SessionID, session.CandidateDates[1].Date)
	require.NoError(t, err)
	assert.Empty(t, session.SelectedTime)
}

func TestBackToDateAndSameDateKeepsTime(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	session := driveToTimeStage(t, svc)
	date := *session.SelectedDate

	session, err := svc.SelectTime(ctx, session.SessionID, "10:00 AM")
	require.NoError(t, err)

	session, err = svc.Back(ctx, session.SessionID)
	require.NoError(t, err)

	session, err = svc.SelectDate(ctx, session.SessionID, date)
	require.NoError(t, err)
	assert.Equal(t, "10:00 AM", session.SelectedTime)
}

func TestSubmitPrescriptionValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	session := driveToTimeStage(t, svc)

	_, err := svc.SelectTime(ctx, session.SessionID, "10:00 AM")
	require.NoError(t, err)
	_, err = svc.ConfirmTime(ctx, session.SessionID)
	require.NoError(t, err)

	_, err = svc.SubmitPrescription(ctx, session.SessionID, models.PrescriptionInfo{
		HasPrescription: "yes",
		Details:         "   ",
	})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "prescriptionDetails")

	session, err = svc.SubmitPrescription(ctx, session.SessionID, models.PrescriptionInfo{
		HasPrescription: "no",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StageEnteringPatientInfo, session.Stage)
}

func TestEndToEndBooking(t *testing.T) {
	svc, _, histRepo := newTestService(t)
	ctx := context.Background()

	session, err := svc.Start(ctx, testPatient)
	require.NoError(t, err)

	doctors, err := svc.ListDoctors(ctx, session.SessionID, catalog.Filter{Search: "cardio"})
	require.NoError(t, err)
	require.Len(t, doctors, 1)

	session, err = svc.SelectDoctor(ctx, session.SessionID, doctors[0].ID)
	require.NoError(t, err)

	// Mon/Wed/Fri availability from a Tuesday: first candidate is Wednesday.
	require.Equal(t, time.Wednesday, session.CandidateDates[0].Date.Weekday())

	session, err = svc.SelectDate(ctx, session.SessionID, session.CandidateDates[0].Date)
	require.NoError(t, err)

	session, err = svc.SelectTime(ctx, session.SessionID, "10:00 AM")
	require.NoError(t, err)
	session, err = svc.ConfirmTime(ctx, session.SessionID)
	require.NoError(t, err)
	require.Equal(t, models.StageEnteringPrescription, session.Stage)

	session, err = svc.SubmitPrescription(ctx, session.SessionID, models.PrescriptionInfo{HasPrescription: "no"})
	require.NoError(t, err)

	session, err = svc.SubmitPatient(ctx, session.SessionID, validPatient())
	require.NoError(t, err)

	require.Equal(t, models.StageCompleted, session.Stage)
	appt := session.Appointment
	require.NotNil(t, appt)
	assert.Equal(t, "10:00 AM", appt.Time)
	assert.Equal(t, "no", appt.Patient.HasPrescription)
	assert.NotEmpty(t, appt.ConfirmationCode)
	assert.Equal(t, "Dr. Smith", appt.Doctor.Name)
	assert.Equal(t, float64(1500), appt.Doctor.ConsultationFee)

	// The record landed in history and as the latest booking.
	appts, err := histRepo.All(ctx, testPatient.ID)
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, appt.ID, appts[0].ID)

	latest, err := histRepo.GetLatest(ctx, testPatient.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, appt.ConfirmationCode, latest.ConfirmationCode)
}

func TestSubmitFailureKeepsPatientData(t *testing.T) {
	svc, stub, histRepo := newTestService(t)
	ctx := context.Background()
	session := driveToTimeStage(t, svc)

	_, err := svc.SelectTime(ctx, session.SessionID, "09:00 AM")
	require.NoError(t, err)
	_, err = svc.ConfirmTime(ctx, session.SessionID)
	require.NoError(t, err)
	_, err = svc.SubmitPrescription(ctx, session.SessionID, models.PrescriptionInfo{HasPrescription: "no"})
	require.NoError(t, err)

	stub.mu.Lock()
	stub.bookErr = errors.New("booking service down")
	stub.mu.Unlock()

	details := validPatient()
	details.Symptoms = "chest pain on exertion"
	session, err = svc.SubmitPatient(ctx, session.SessionID, details)

	var transientErr *TransientError
	require.ErrorAs(t, err, &transientErr)
	require.NotNil(t, session)
	assert.Equal(t, models.StageEnteringPatientInfo, session.Stage)
	assert.NotEmpty(t, session.StageError)
	// No information loss: every entered field survives the failure.
	assert.Equal(t, details, session.Patient)

	// Nothing was persisted: all-or-nothing.
	appts, err := histRepo.All(ctx, testPatient.ID)
	require.NoError(t, err)
	assert.Empty(t, appts)
	latest, err := histRepo.GetLatest(ctx, testPatient.ID)
	require.NoError(t, err)
	assert.Nil(t, latest)

	// The retry succeeds with the same data.
	stub.mu.Lock()
	stub.bookErr = nil
	stub.mu.Unlock()

	session, err = svc.SubmitPatient(ctx, session.SessionID, details)
	require.NoError(t, err)
	assert.Equal(t, models.StageCompleted, session.Stage)
	assert.Empty(t, session.StageError)
}

func TestRepeatedSubmissionIsNotDeduplicated(t *testing.T) {
	svc, _, histRepo := newTestService(t)
	ctx := context.Background()

	bookOnce := func() models.Appointment {
		session := driveToTimeStage(t, svc)
		_, err := svc.SelectTime(ctx, session.SessionID, "09:00 AM")
		require.NoError(t, err)
		_, err = svc.ConfirmTime(ctx, session.SessionID)
		require.NoError(t, err)
		_, err = svc.SubmitPrescription(ctx, session.SessionID, models.PrescriptionInfo{HasPrescription: "no"})
		require.NoError(t, err)
		session, err = svc.SubmitPatient(ctx, session.SessionID, validPatient())
		require.NoError(t, err)
		require.NotNil(t, session.Appointment)
		return *session.Appointment
	}

	first := bookOnce()
	second := bookOnce()

	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.ConfirmationCode, second.ConfirmationCode)

	appts, err := histRepo.All(ctx, testPatient.ID)
	require.NoError(t, err)
	assert.Len(t, appts, 2)
}

func TestSubmitPatientValidationReportsAllFields(t *testing.T) {
	svc, stub, _ := newTestService(t)
	ctx := context.Background()
	session := driveToTimeStage(t, svc)

	_, err := svc.SelectTime(ctx, session.SessionID, "09:00 AM")
	require.NoError(t, err)
	_, err = svc.ConfirmTime(ctx, session.SessionID)
	require.NoError(t, err)
	_, err = svc.SubmitPrescription(ctx, session.SessionID, models.PrescriptionInfo{HasPrescription: "no"})
	require.NoError(t, err)

	_, err = svc.SubmitPatient(ctx, session.SessionID, models.PatientDetails{})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Len(t, validationErr.Fields, 6)
	// Validation never reaches the booking service.
	stub.mu.Lock()
	assert.Zero(t, stub.bookCalls)
	stub.mu.Unlock()
}

func TestCancelDeletesSession(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.Start(ctx, testPatient)
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, session.SessionID))

	_, err = svc.Get(ctx, session.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
