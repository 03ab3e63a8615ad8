package payment

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"medibook/models"
)

// Handler simulates payment capture for a booked appointment. No real
// processor is involved: the card form is validated and the capture succeeds
// or is declined at random.
type Handler interface {
	Capture(ctx context.Context, req models.PaymentRequest) (*models.Invoice, error)
}

// ValidationError reports every failing card field at once.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("card validation failed for %d field(s)", len(e.Fields))
}

// ErrDeclined is returned when the simulated capture fails.
var ErrDeclined = fmt.Errorf("payment declined, please try another card")

// MockPaymentHandler implements Handler with a simulated processor.
type MockPaymentHandler struct {
	logger *zap.Logger

	// Delay simulates processor latency; DeclineRate is the probability of a
	// declined capture (0 disables declines, useful in tests).
	Delay       time.Duration
	DeclineRate float64
}

func NewMockPaymentHandler(logger *zap.Logger) *MockPaymentHandler {
	return &MockPaymentHandler{
		logger:      logger,
		Delay:       2 * time.Second,
		DeclineRate: 0.1,
	}
}

func (h *MockPaymentHandler) Capture(ctx context.Context, req models.PaymentRequest) (*models.Invoice, error) {
	if errs := ValidateCard(req.Card); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("invalid payment amount")
	}
	if req.UserID == "" {
		return nil, fmt.Errorf("missing user ID")
	}

	inv := &models.Invoice{
		InvoiceID:     uuid.New().String(),
		UserID:        req.UserID,
		AppointmentID: req.AppointmentID,
		Amount:        req.Amount,
		Status:        "pending",
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	if h.Delay > 0 {
		select {
		case <-time.After(h.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if rand.Float64() < h.DeclineRate {
		inv.Status = "failed"
		inv.UpdatedAt = time.Now()
		h.logger.Warn("payment declined", zap.String("invoice", inv.InvoiceID))
		return inv, ErrDeclined
	}

	inv.PaymentID = "pi_" + uuid.New().String()
	inv.Status = "paid"
	inv.UpdatedAt = time.Now()

	h.logger.Info("card payment successful", zap.String("invoice", inv.InvoiceID))
	return inv, nil
}

var (
	expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)
	cvvPattern    = regexp.MustCompile(`^[0-9]{3,4}$`)
	digitsOnly    = regexp.MustCompile(`[^0-9]`)
)

// ValidateCard checks the mock card form. Spaces in the card number are
// ignored; every failing field is reported.
func ValidateCard(card models.CardDetails) map[string]string {
	errs := make(map[string]string)

	number := digitsOnly.ReplaceAllString(card.CardNumber, "")
	if len(number) != 16 {
		errs["cardNumber"] = "Card number must be exactly 16 digits"
	}
	if !expiryPattern.MatchString(card.ExpiryDate) {
		errs["expiryDate"] = "Valid expiry date (MM/YY) is required"
	}
	if !cvvPattern.MatchString(card.CVV) {
		errs["cvv"] = "Valid CVV (3-4 digits) is required"
	}
	holder := strings.TrimSpace(card.CardHolderName)
	if holder == "" {
		errs["cardHolderName"] = "Cardholder name is required"
	} else if len(holder) < 2 {
		errs["cardHolderName"] = "Cardholder name must be at least 2 characters"
	}
	return errs
}
