package history

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medibook/models"
)

func newTestRepo(t *testing.T) *RedisHistoryRepo {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisHistoryRepo(client)
}

func sampleAppointment(id int, code string) models.Appointment {
	return models.Appointment{
		ID:               id,
		ConfirmationCode: code,
		Doctor: models.DoctorSummary{
			ID:             1,
			Name:           "Dr. Smith",
			Specialization: "Cardiologist",
		},
		Date: time.Date(2026, time.September, 2, 0, 0, 0, 0, time.UTC),
		Time: "10:00 AM",
		Patient: models.PatientRecord{
			PatientDetails: models.PatientDetails{
				Name:  "Jane Doe",
				Email: "jane@example.com",
				Phone: "1234567890",
				Age:   34,
			},
			HasPrescription: "no",
		},
		CreatedAt: time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestAppendPreservesInsertionOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := sampleAppointment(101, "APP-AAAA1111")
	second := sampleAppointment(202, "APP-BBBB2222")
	require.NoError(t, repo.Append(ctx, "user-1", first))
	require.NoError(t, repo.Append(ctx, "user-1", second))

	appts, err := repo.All(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, appts, 2)
	assert.Equal(t, 101, appts[0].ID)
	assert.Equal(t, 202, appts[1].ID)
	assert.Equal(t, "APP-BBBB2222", appts[1].ConfirmationCode)
}

func TestAllRoundTripsFullRecord(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	appt := sampleAppointment(7, "APP-XYZ12345")
	require.NoError(t, repo.Append(ctx, "user-1", appt))

	appts, err := repo.All(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, appts, 1)
	got := appts[0]
	assert.Equal(t, "Dr. Smith", got.Doctor.Name)
	assert.Equal(t, "10:00 AM", got.Time)
	assert.Equal(t, "Jane Doe", got.Patient.Name)
	assert.Equal(t, "no", got.Patient.HasPrescription)
	assert.True(t, got.Date.Equal(appt.Date))
}

func TestAllIsEmptyForUnknownUser(t *testing.T) {
	repo := newTestRepo(t)

	appts, err := repo.All(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, appts)
}

func TestHistoriesAreIsolatedPerUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, "user-1", sampleAppointment(1, "APP-USER1AAA")))
	require.NoError(t, repo.Append(ctx, "user-2", sampleAppointment(2, "APP-USER2BBB")))

	appts, err := repo.All(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, 1, appts[0].ID)
}

func TestLatestOverwrites(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SetLatest(ctx, "user-1", sampleAppointment(1, "APP-OLDOLD11")))
	require.NoError(t, repo.SetLatest(ctx, "user-1", sampleAppointment(2, "APP-NEWNEW22")))

	latest, err := repo.GetLatest(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 2, latest.ID)
	assert.Equal(t, "APP-NEWNEW22", latest.ConfirmationCode)
}

func TestGetLatestReturnsNilWhenAbsent(t *testing.T) {
	repo := newTestRepo(t)

	latest, err := repo.GetLatest(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, latest)
}
