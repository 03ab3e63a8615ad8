package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"medibook/models"
)

// Client is the external appointment API consumed by the wizard: the doctor
// directory, per-date time slots and the booking endpoint that assigns IDs and
// confirmation codes.
type Client interface {
	FetchDoctors(ctx context.Context) ([]models.Doctor, error)
	FetchTimeSlots(ctx context.Context, doctorID int, isoDate string) ([]string, error)
	BookAppointment(ctx context.Context, draft models.AppointmentDraft) (*models.Appointment, error)
}

// RESTClient talks to the real upstream API over JSON/HTTP.
type RESTClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewRESTClient builds a client for the given base URL.
func NewRESTClient(baseURL string, timeout time.Duration) *RESTClient {
	return &RESTClient{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

func (c *RESTClient) FetchDoctors(ctx context.Context) ([]models.Doctor, error) {
	var out struct {
		Data []models.Doctor `json:"data"`
	}
	if err := c.getJSON(ctx, "/api/doctors", &out); err != nil {
		return nil, fmt.Errorf("failed to fetch doctors: %w", err)
	}
	return out.Data, nil
}

func (c *RESTClient) FetchTimeSlots(ctx context.Context, doctorID int, isoDate string) ([]string, error) {
	var out struct {
		Data []string `json:"data"`
	}
	path := fmt.Sprintf("/api/doctors/%d/slots?date=%s", doctorID, isoDate)
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch time slots: %w", err)
	}
	return out.Data, nil
}

func (c *RESTClient) BookAppointment(ctx context.Context, draft models.AppointmentDraft) (*models.Appointment, error) {
	body, err := json.Marshal(draft)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal appointment draft: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/appointments", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build booking request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("booking request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("booking service returned status %d", resp.StatusCode)
	}

	var out struct {
		Data models.Appointment `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode booking response: %w", err)
	}
	return &out.Data, nil
}

func (c *RESTClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
