package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"medibook/config"
	"medibook/models"
	"medibook/utils"
)

const TypeReminderSend = "reminder:send"

// AsynqReminderScheduler enqueues appointment reminders on the Redis-backed
// task queue, scheduled for the day before the appointment.
type AsynqReminderScheduler struct {
	Client *asynq.Client
}

func NewAsynqReminderScheduler() *AsynqReminderScheduler {
	return &AsynqReminderScheduler{
		Client: asynq.NewClient(redisOpts()),
	}
}

func (s *AsynqReminderScheduler) ScheduleAppointmentReminder(ctx context.Context, userID string, appt models.Appointment) error {
	fireAt := appt.Date.Add(-24 * time.Hour)
	if fireAt.Before(time.Now()) {
		fireAt = time.Now().Add(time.Minute)
	}

	payload := models.ReminderPayload{
		UserID:        userID,
		AppointmentID: appt.ID,
		DoctorName:    appt.Doctor.Name,
		FireDate:      fireAt.Format(time.RFC3339),
		Title:         "Upcoming appointment",
		Body: fmt.Sprintf("Your appointment with %s is on %s at %s.",
			appt.Doctor.Name, appt.Date.Format("Monday, January 2"), appt.Time),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal reminder payload: %w", err)
	}

	task := asynq.NewTask(TypeReminderSend, data)
	if _, err := s.Client.EnqueueContext(ctx, task, asynq.ProcessAt(fireAt)); err != nil {
		return fmt.Errorf("failed to enqueue reminder: %w", err)
	}
	return nil
}

// InitReminderWorker runs the async reminder worker in background.
func InitReminderWorker() {
	srv := asynq.NewServer(
		redisOpts(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeReminderSend, handleReminderTask)

	go func() {
		log.Println("[ReminderWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[ReminderWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[ReminderWorker] max retry attempts reached, exiting")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

func handleReminderTask(ctx context.Context, task *asynq.Task) error {
	logger := utils.GetLogger()

	var p models.ReminderPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		logger.Error("reminder: invalid payload", zap.Error(err))
		return err
	}

	// Delivery channel (push/email) is outside this service; the reminder is
	// recorded for whatever notifier tails the log stream.
	logger.Info("reminder: firing",
		zap.String("userID", p.UserID),
		zap.Int("appointmentID", p.AppointmentID),
		zap.String("title", p.Title),
		zap.String("body", p.Body))
	return nil
}

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderQueueDB,
	}
}
