package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"medibook/database/repository/history"
	"medibook/middleware"
	"medibook/models"
	"medibook/services/payment"
)

// ConfirmationHandler serves the post-booking flow: appointment history, the
// latest-booking fallback read, and the simulated payment capture.
type ConfirmationHandler struct {
	history  history.Repository
	payments payment.Handler
	logger   *zap.Logger
}

func NewConfirmationHandler(historyRepo history.Repository, payments payment.Handler, logger *zap.Logger) *ConfirmationHandler {
	return &ConfirmationHandler{history: historyRepo, payments: payments, logger: logger}
}

// ListAppointments returns the user's booking history in insertion order.
func (h *ConfirmationHandler) ListAppointments(c *gin.Context) {
	user, ok := middleware.SessionUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session user"})
		return
	}

	appts, err := h.history.All(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to load appointment history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load appointments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appts})
}

// LatestAppointment is the confirmation step's fallback read when the
// in-memory handoff is empty, e.g. after a page reload.
func (h *ConfirmationHandler) LatestAppointment(c *gin.Context) {
	user, ok := middleware.SessionUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session user"})
		return
	}

	appt, err := h.history.GetLatest(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to load latest appointment", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load latest appointment"})
		return
	}
	if appt == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "no appointment found",
			"hint":  "start a new booking",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointment": appt})
}

// CapturePayment runs the simulated card capture for a booked appointment.
// The charged amount is the consultation fee recorded on the booking, never
// client input.
func (h *ConfirmationHandler) CapturePayment(c *gin.Context) {
	user, ok := middleware.SessionUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session user"})
		return
	}

	var input struct {
		AppointmentID int                `json:"appointmentId" binding:"required"`
		Card          models.CardDetails `json:"card"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	appt, err := h.findAppointment(c, user.ID, input.AppointmentID)
	if err != nil {
		h.logger.Error("failed to resolve appointment for payment", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve appointment"})
		return
	}
	if appt == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "appointment not found",
			"hint":  "start a new booking",
		})
		return
	}

	invoice, err := h.payments.Capture(c.Request.Context(), models.PaymentRequest{
		UserID:        user.ID,
		AppointmentID: appt.ID,
		Amount:        appt.Doctor.ConsultationFee,
		Card:          input.Card,
	})
	if err != nil {
		var validationErr *payment.ValidationError
		switch {
		case errors.As(err, &validationErr):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":  "card validation failed",
				"fields": validationErr.Fields,
			})
		case errors.Is(err, payment.ErrDeclined):
			c.JSON(http.StatusPaymentRequired, gin.H{
				"error":   "Payment declined. Please try another card.",
				"invoice": invoice,
			})
		default:
			h.logger.Error("payment capture failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "payment processing failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoice": invoice})
}

// findAppointment resolves the appointment by ID, preferring the latest
// booking and falling back to a history scan.
func (h *ConfirmationHandler) findAppointment(c *gin.Context, userID string, appointmentID int) (*models.Appointment, error) {
	latest, err := h.history.GetLatest(c.Request.Context(), userID)
	if err != nil {
		return nil, err
	}
	if latest != nil && latest.ID == appointmentID {
		return latest, nil
	}

	appts, err := h.history.All(c.Request.Context(), userID)
	if err != nil {
		return nil, err
	}
	for i := range appts {
		if appts[i].ID == appointmentID {
			return &appts[i], nil
		}
	}
	return nil, nil
}
