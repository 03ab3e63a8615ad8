package wizard

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"medibook/config"
	"medibook/database/repository/history"
	"medibook/models"
	"medibook/services/catalog"
	"medibook/services/upstream"
)

// WizardService drives the five-stage appointment wizard. Every operation
// loads the session, applies its transition guard and persists the result;
// stepping backward never discards accumulated data.
type WizardService interface {
	Start(ctx context.Context, user models.SessionUser) (*models.WizardSession, error)
	Get(ctx context.Context, sessionID string) (*models.WizardSession, error)
	ListDoctors(ctx context.Context, sessionID string, filter catalog.Filter) ([]models.Doctor, error)
	SelectDoctor(ctx context.Context, sessionID string, doctorID int) (*models.WizardSession, error)
	SelectDate(ctx context.Context, sessionID string, date time.Time) (*models.WizardSession, error)
	RefreshSlots(ctx context.Context, sessionID string) (*models.WizardSession, error)
	SelectTime(ctx context.Context, sessionID string, slot string) (*models.WizardSession, error)
	ConfirmTime(ctx context.Context, sessionID string) (*models.WizardSession, error)
	SubmitPrescription(ctx context.Context, sessionID string, info models.PrescriptionInfo) (*models.WizardSession, error)
	SubmitPatient(ctx context.Context, sessionID string, details models.PatientDetails) (*models.WizardSession, error)
	Back(ctx context.Context, sessionID string) (*models.WizardSession, error)
	Cancel(ctx context.Context, sessionID string) error
}

// ReminderScheduler enqueues an appointment reminder after a successful
// booking. Failures are logged, never surfaced to the patient.
type ReminderScheduler interface {
	ScheduleAppointmentReminder(ctx context.Context, userID string, appt models.Appointment) error
}

// DefaultWizardService implements WizardService.
type DefaultWizardService struct {
	CatalogSvc  catalog.CatalogService
	Upstream    upstream.Client
	HistoryRepo history.Repository
	Reminders   ReminderScheduler // optional

	store sessionStore
	now   func() time.Time
}

// NewDefaultWizardService wires the wizard against its collaborators. The
// reminder scheduler may be nil.
func NewDefaultWizardService(
	catalogSvc catalog.CatalogService,
	upstreamClient upstream.Client,
	historyRepo history.Repository,
	reminders ReminderScheduler,
	cache *redis.Client,
) *DefaultWizardService {
	ttl := config.AppConfig.SessionTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &DefaultWizardService{
		CatalogSvc:  catalogSvc,
		Upstream:    upstreamClient,
		HistoryRepo: historyRepo,
		Reminders:   reminders,
		store:       sessionStore{client: cache, ttl: ttl},
		now:         time.Now,
	}
}

// WithClock overrides the wizard's clock. Test hook.
func (s *DefaultWizardService) WithClock(now func() time.Time) *DefaultWizardService {
	s.now = now
	return s
}
