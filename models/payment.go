package models

import "time"

// CardDetails is the mock payment form captured on the confirmation step.
type CardDetails struct {
	CardNumber     string `json:"cardNumber"`
	ExpiryDate     string `json:"expiryDate"` // MM/YY
	CVV            string `json:"cvv"`
	CardHolderName string `json:"cardHolderName"`
}

// PaymentRequest asks the payment simulator to capture the consultation fee
// for a booked appointment.
type PaymentRequest struct {
	UserID        string      `json:"userId"`
	AppointmentID int         `json:"appointmentId"`
	Amount        float64     `json:"amount"`
	Card          CardDetails `json:"card"`
}

// Invoice records the outcome of a simulated payment capture.
type Invoice struct {
	InvoiceID     string    `json:"invoiceId"`
	PaymentID     string    `json:"paymentId,omitempty"`
	UserID        string    `json:"userId"`
	AppointmentID int       `json:"appointmentId"`
	Amount        float64   `json:"amount"`
	Status        string    `json:"status"` // "paid" or "failed"
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ReminderPayload is the asynq task payload for appointment reminders.
type ReminderPayload struct {
	UserID        string `json:"userId"`
	AppointmentID int    `json:"appointmentId"`
	DoctorName    string `json:"doctorName"`
	FireDate      string `json:"fireDate"`
	Title         string `json:"title"`
	Body          string `json:"body"`
}
