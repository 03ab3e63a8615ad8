package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medibook/models"
)

func TestMockFetchDoctors(t *testing.T) {
	client := NewMockClient()

	doctors, err := client.FetchDoctors(context.Background())
	require.NoError(t, err)
	require.Len(t, doctors, 8)
	assert.Equal(t, "Dr. Smith", doctors[0].Name)
	assert.Equal(t, "Cardiologist", doctors[0].Specialization)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Friday}, doctors[0].AvailableDays)

	// Callers get a copy, not the seed slice.
	doctors[0].Name = "mutated"
	again, err := client.FetchDoctors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Dr. Smith", again[0].Name)
}

func TestMockFetchTimeSlots(t *testing.T) {
	client := NewMockClient()

	slots, err := client.FetchTimeSlots(context.Background(), 1, "2026-09-02")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"09:00 AM", "10:00 AM", "11:00 AM",
		"02:00 PM", "03:00 PM", "04:00 PM",
	}, slots)
}

func TestMockBookAppointment(t *testing.T) {
	client := NewMockClient()
	draft := models.AppointmentDraft{
		Doctor: models.DoctorSummary{ID: 1, Name: "Dr. Smith"},
		Date:   time.Date(2026, time.September, 2, 0, 0, 0, 0, time.UTC),
		Time:   "10:00 AM",
	}

	appt, err := client.BookAppointment(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, "10:00 AM", appt.Time)
	assert.Equal(t, "Dr. Smith", appt.Doctor.Name)
	assert.Regexp(t, regexp.MustCompile(`^APP-[0-9A-Z]{8}$`), appt.ConfirmationCode)
	assert.GreaterOrEqual(t, appt.ID, 0)
	assert.Less(t, appt.ID, 10000)
}

func TestMockBookAppointmentFailure(t *testing.T) {
	client := NewMockClient()
	client.FailBooking = true

	_, err := client.BookAppointment(context.Background(), models.AppointmentDraft{})
	assert.Error(t, err)
}

func TestMockHonorsContextCancellation(t *testing.T) {
	client := NewMockClient()
	client.Latency = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchDoctors(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewConfirmationCodeFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^APP-[0-9A-Z]{8}$`)
	for i := 0; i < 50; i++ {
		assert.Regexp(t, pattern, NewConfirmationCode())
	}
}

func TestRESTClientFetchDoctors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/doctors", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"data": []models.Doctor{{ID: 5, Name: "Dr. Garcia", Specialization: "Orthopedic Surgeon"}},
		})
	}))
	defer srv.Close()

	client := NewRESTClient(srv.URL, 5*time.Second)
	doctors, err := client.FetchDoctors(context.Background())
	require.NoError(t, err)
	require.Len(t, doctors, 1)
	assert.Equal(t, "Dr. Garcia", doctors[0].Name)
}

func TestRESTClientFetchTimeSlots(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/doctors/5/slots", r.URL.Path)
		assert.Equal(t, "2026-09-02", r.URL.Query().Get("date"))
		json.NewEncoder(w).Encode(map[string]any{"data": []string{"09:00 AM"}})
	}))
	defer srv.Close()

	client := NewRESTClient(srv.URL, 5*time.Second)
	slots, err := client.FetchTimeSlots(context.Background(), 5, "2026-09-02")
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00 AM"}, slots)
}

func TestRESTClientFetchDoctorsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewRESTClient(srv.URL, 5*time.Second)
	_, err := client.FetchDoctors(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestRESTClientBookAppointment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/appointments", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var draft models.AppointmentDraft
		require.NoError(t, json.NewDecoder(r.Body).Decode(&draft))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"data": models.Appointment{
				ID:               4321,
				ConfirmationCode: "APP-SRV12345",
				Doctor:           draft.Doctor,
				Date:             draft.Date,
				Time:             draft.Time,
				Patient:          draft.Patient,
			},
		})
	}))
	defer srv.Close()

	client := NewRESTClient(srv.URL, 5*time.Second)
	appt, err := client.BookAppointment(context.Background(), models.AppointmentDraft{
		Doctor: models.DoctorSummary{ID: 1, Name: "Dr. Smith"},
		Time:   "10:00 AM",
	})
	require.NoError(t, err)
	assert.Equal(t, 4321, appt.ID)
	assert.Equal(t, "APP-SRV12345", appt.ConfirmationCode)
	assert.Equal(t, "10:00 AM", appt.Time)
}

func TestRESTClientBookAppointmentRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewRESTClient(srv.URL, 5*time.Second)
	_, err := client.BookAppointment(context.Background(), models.AppointmentDraft{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
