package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"medibook/models"
)

// Repository is the per-patient booking history store. Records are appended in
// insertion order and never reordered or merged; the latest record is kept
// separately for the confirmation step to read after a reload.
type Repository interface {
	Append(ctx context.Context, userID string, appt models.Appointment) error
	All(ctx context.Context, userID string) ([]models.Appointment, error)
	SetLatest(ctx context.Context, userID string, appt models.Appointment) error
	GetLatest(ctx context.Context, userID string) (*models.Appointment, error)
}

// RedisHistoryRepo implements Repository on Redis.
type RedisHistoryRepo struct {
	Client *redis.Client
}

func NewRedisHistoryRepo(client *redis.Client) *RedisHistoryRepo {
	return &RedisHistoryRepo{Client: client}
}

func (r *RedisHistoryRepo) Append(ctx context.Context, userID string, appt models.Appointment) error {
	data, err := json.Marshal(appt)
	if err != nil {
		return fmt.Errorf("failed to marshal appointment: %w", err)
	}
	if err := r.Client.RPush(ctx, historyKey(userID), data).Err(); err != nil {
		return fmt.Errorf("failed to append appointment for user %s: %w", userID, err)
	}
	return nil
}

func (r *RedisHistoryRepo) All(ctx context.Context, userID string) ([]models.Appointment, error) {
	rows, err := r.Client.LRange(ctx, historyKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load appointment history for user %s: %w", userID, err)
	}
	appts := make([]models.Appointment, 0, len(rows))
	for _, row := range rows {
		var appt models.Appointment
		if err := json.Unmarshal([]byte(row), &appt); err != nil {
			return nil, fmt.Errorf("failed to parse stored appointment: %w", err)
		}
		appts = append(appts, appt)
	}
	return appts, nil
}

func (r *RedisHistoryRepo) SetLatest(ctx context.Context, userID string, appt models.Appointment) error {
	data, err := json.Marshal(appt)
	if err != nil {
		return fmt.Errorf("failed to marshal appointment: %w", err)
	}
	if err := r.Client.Set(ctx, latestKey(userID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store latest appointment for user %s: %w", userID, err)
	}
	return nil
}

func (r *RedisHistoryRepo) GetLatest(ctx context.Context, userID string) (*models.Appointment, error) {
	data, err := r.Client.Get(ctx, latestKey(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest appointment for user %s: %w", userID, err)
	}
	var appt models.Appointment
	if err := json.Unmarshal([]byte(data), &appt); err != nil {
		return nil, fmt.Errorf("failed to parse latest appointment: %w", err)
	}
	return &appt, nil
}

func historyKey(userID string) string {
	return "appointments:" + userID
}

func latestKey(userID string) string {
	return "appointments:latest:" + userID
}
