package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"medibook/middleware"
	"medibook/models"
	"medibook/services/catalog"
	"medibook/services/wizard"
)

// WizardHandler exposes the appointment wizard over HTTP. Every response
// carries the full session document so a client can render the current stage
// without tracking state of its own.
type WizardHandler struct {
	svc    wizard.WizardService
	logger *zap.Logger
}

func NewWizardHandler(svc wizard.WizardService, logger *zap.Logger) *WizardHandler {
	return &WizardHandler{svc: svc, logger: logger}
}

// StartSession opens a new wizard session for the authenticated patient.
func (h *WizardHandler) StartSession(c *gin.Context) {
	user, ok := middleware.SessionUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session user"})
		return
	}

	session, err := h.svc.Start(c.Request.Context(), user)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": session})
}

// GetSession returns the current wizard state.
func (h *WizardHandler) GetSession(c *gin.Context) {
	session, ok := h.ownedSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// ListDoctors serves the filtered doctor catalog for stage 1.
func (h *WizardHandler) ListDoctors(c *gin.Context) {
	if _, ok := h.ownedSession(c); !ok {
		return
	}

	filter := catalog.Filter{
		Search:         c.Query("search"),
		Specialization: c.Query("specialization"),
	}
	doctors, err := h.svc.ListDoctors(c.Request.Context(), c.Param("sessionID"), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"doctors":         doctors,
		"specializations": catalog.Specializations(doctors),
	})
}

// SelectDoctor applies the stage-1 choice.
func (h *WizardHandler) SelectDoctor(c *gin.Context) {
	if _, ok := h.ownedSession(c); !ok {
		return
	}

	var input struct {
		DoctorID int `json:"doctorId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	session, err := h.svc.SelectDoctor(c.Request.Context(), c.Param("sessionID"), input.DoctorID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// SelectDate applies the stage-2 choice and triggers the slot fetch.
func (h *WizardHandler) SelectDate(c *gin.Context) {
	if _, ok := h.ownedSession(c); !ok {
		return
	}

	var input struct {
		Date string `json:"date" binding:"required"` // YYYY-MM-DD
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	date, err := time.ParseInLocation("2006-01-02", input.Date, time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date", "details": err.Error()})
		return
	}

	session, err := h.svc.SelectDate(c.Request.Context(), c.Param("sessionID"), date)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// RefreshSlots retries the slot fetch after a transient failure.
func (h *WizardHandler) RefreshSlots(c *gin.Context) {
	if _, ok := h.ownedSession(c); !ok {
		return
	}

	session, err := h.svc.RefreshSlots(c.Request.Context(), c.Param("sessionID"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// SelectTime applies the stage-3 slot pick; the wizard stays on the time
// stage until ConfirmTime.
func (h *WizardHandler) SelectTime(c *gin.Context) {
	if _, ok := h.ownedSession(c); !ok {
		return
	}

	var input struct {
		Time string `json:"time" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	session, err := h.svc.SelectTime(c.Request.Context(), c.Param("sessionID"), input.Time)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// ConfirmTime is the explicit "Next" off the time stage.
func (h *WizardHandler) ConfirmTime(c *gin.Context) {
	if _, ok := h.ownedSession(c); !ok {
		return
	}

	session, err := h.svc.ConfirmTime(c.Request.Context(), c.Param("sessionID"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// SubmitPrescription applies the stage-4 form.
func (h *WizardHandler) SubmitPrescription(c *gin.Context) {
	if _, ok := h.ownedSession(c); !ok {
		return
	}

	var input models.PrescriptionInfo
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	session, err := h.svc.SubmitPrescription(c.Request.Context(), c.Param("sessionID"), input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// SubmitPatient applies the stage-5 form and books the appointment.
func (h *WizardHandler) SubmitPatient(c *gin.Context) {
	if _, ok := h.ownedSession(c); !ok {
		return
	}

	var input models.PatientDetails
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	session, err := h.svc.SubmitPatient(c.Request.Context(), c.Param("sessionID"), input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session":     session,
		"appointment": session.Appointment,
	})
}

// Back steps the wizard one stage backward.
func (h *WizardHandler) Back(c *gin.Context) {
	if _, ok := h.ownedSession(c); !ok {
		return
	}

	session, err := h.svc.Back(c.Request.Context(), c.Param("sessionID"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// CancelSession abandons the wizard.
func (h *WizardHandler) CancelSession(c *gin.Context) {
	if _, ok := h.ownedSession(c); !ok {
		return
	}

	if err := h.svc.Cancel(c.Request.Context(), c.Param("sessionID")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// ownedSession loads the session named in the path and rejects the request
// when it belongs to a different user.
func (h *WizardHandler) ownedSession(c *gin.Context) (*models.WizardSession, bool) {
	user, ok := middleware.SessionUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session user"})
		return nil, false
	}

	session, err := h.svc.Get(c.Request.Context(), c.Param("sessionID"))
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	if session.User.ID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "session belongs to another user"})
		return nil, false
	}
	return session, true
}

func (h *WizardHandler) respondError(c *gin.Context, err error) {
	var guardErr *wizard.GuardError
	var validationErr *wizard.ValidationError
	var transientErr *wizard.TransientError

	switch {
	case errors.Is(err, wizard.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "wizard session not found or expired"})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "validation failed",
			"fields": validationErr.Fields,
		})
	case errors.As(err, &guardErr):
		c.JSON(http.StatusConflict, gin.H{"error": guardErr.Message, "stage": guardErr.Stage})
	case errors.As(err, &transientErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":     "A temporary error occurred. Please retry.",
			"details":   transientErr.Error(),
			"retryable": true,
		})
	default:
		h.logger.Error("wizard handler failure", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
