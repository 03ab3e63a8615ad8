package upstream

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"medibook/models"
)

// MockClient serves the seeded doctor directory and a fixed slot grid without
// a network hop. It backs demo mode and tests.
type MockClient struct {
	// Latency is added to every call when non-zero.
	Latency time.Duration
	// FailBooking forces BookAppointment to fail when set.
	FailBooking bool
}

// NewMockClient returns a mock upstream with no artificial latency.
func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) FetchDoctors(ctx context.Context) ([]models.Doctor, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	doctors := make([]models.Doctor, len(seededDoctors))
	copy(doctors, seededDoctors)
	return doctors, nil
}

func (m *MockClient) FetchTimeSlots(ctx context.Context, doctorID int, isoDate string) ([]string, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	slots := make([]string, len(seededSlots))
	copy(slots, seededSlots)
	return slots, nil
}

func (m *MockClient) BookAppointment(ctx context.Context, draft models.AppointmentDraft) (*models.Appointment, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	if m.FailBooking {
		return nil, fmt.Errorf("booking service unavailable")
	}
	appt := &models.Appointment{
		ID:  rand.Intn(10000),
		ConfirmationCode: NewConfirmationCode(),
		Doctor:           draft.Doctor,
		Date:             draft.Date,
		Time:             draft.Time,
		Patient:          draft.Patient,
		CreatedAt:        draft.CreatedAt,
	}
	return appt, nil
}

func (m *MockClient) wait(ctx context.Context) error {
	if m.Latency <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(m.Latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

const confirmationAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewConfirmationCode generates a human-readable confirmation code of the
// form APP-XXXXXXXX, distinct from the numeric appointment ID.
func NewConfirmationCode() string {
	var b strings.Builder
	b.WriteString("APP-")
	for i := 0; i < 8; i++ {
		b.WriteByte(confirmationAlphabet[rand.Intn(len(confirmationAlphabet))])
	}
	return b.String()
}

var seededSlots = []string{
	"09:00 AM", "10:00 AM", "11:00 AM",
	"02:00 PM", "03:00 PM", "04:00 PM",
}

var seededDoctors = []models.Doctor{
	{
		ID:1,
		Name:"Dr. Smith",
		Specialization:"Cardiologist",
		Experience:"10 years",
		Image:"/doc1.png",
		Rating:4.8,
		AvailableDays:[]time.Weekday{time.Monday, time.Wednesday, time.Friday},
		ConsultationFee: 1500,
		Languages:[]string{"English", "Spanish"},
		Hospital:"City Medical Center",
	},
	{
		ID:2,
		Name:"Dr. Johnson",
		Specialization:"Dermatologist",
		Experience:"8 years",
		Image:"/doc2.png",
		Rating:4.6,
		AvailableDays:[]time.Weekday{time.Tuesday, time.Thursday, time.Saturday},
		ConsultationFee: 1200,
		Languages:[]string{"English", "French"},
		Hospital:"Metro Skin Clinic",
	},
	{
		ID:3,
		Name:"Dr. Patel",
		Specialization:"Neurologist",
		Experience:"12 years",
		Image:"/doc3.png",
		Rating:4.9,
		AvailableDays:[]time.Weekday{time.Monday, time.Thursday, time.Friday},
		ConsultationFee: 1800,
		Languages:[]string{"English", "Hindi"},
		Hospital:"NeuroCare Hospital",
	},
	{
		ID:4,
		Name:"Dr. Lee",
		Specialization:"Pediatrician",
		Experience:"7 years",
		Image:"/doc4.png",
		Rating:4.7,
		AvailableDays:[]time.Weekday{time.Tuesday, time.Wednesday, time.Friday},
		ConsultationFee: 1000,
		Languages:[]string{"English", "Mandarin"},
		Hospital:"Kids Health Center",
	},
	{
		ID:5,
		Name:"Dr. Garcia",
		Specialization:"Orthopedic Surgeon",
		Experience:"15 years",
		Image:"/doc5.png",
		Rating:4.8,
		AvailableDays:[]time.Weekday{time.Monday, time.Tuesday, time.Thursday},
		ConsultationFee: 2000,
		Languages:[]string{"English", "Spanish"},
		Hospital:"Bone & Joint Institute",
	},
	{
		ID:6,
		Name:"Dr. Sharma",
		Specialization:"Endocrinologist",
		Experience:"9 years",
		Image:"/doc6.png",
		Rating:4.5,
		AvailableDays:[]time.Weekday{time.Wednesday, time.Thursday, time.Saturday},
		ConsultationFee: 1400,
		Languages:[]string{"English", "Hindi"},
		Hospital:"Metro Endocrine Clinic",
	},
	{
		ID:7,
		Name:"Dr. Nguyen",
		Specialization:"Ophthalmologist",
		Experience:"11 years",
		Image:"/doc7.png",
		Rating:4.7,
		AvailableDays:[]time.Weekday{time.Tuesday, time.Friday, time.Saturday},
		ConsultationFee: 1600,
		Languages:[]string{"English", "Vietnamese"},
		Hospital:"Vision Care Center",
	},
	{
		ID:8,
		Name:"Dr. Brown",
		Specialization:"Psychiatrist",
		Experience:"13 years",
		Image:"/doc8.png",
		Rating:4.6,
		AvailableDays:[]time.Weekday{time.Monday, time.Wednesday, time.Thursday},
		ConsultationFee: 1700,
		Languages:[]string{"English"},
		Hospital:"MindWell Clinic",
	},
}
