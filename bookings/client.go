package bookings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/zacktam12/Restaurant-management-sub000/models"
)

// BookingDetails is the payload forwarded to the partner service.
type BookingDetails struct {
	CustomerName string `json:"customer_name"`
	Date         string `json:"date"`
	Participants int    `json:"participants"`
}

// RemoteBooking is the partner's view of a booking.
type RemoteBooking struct {
	Reference string               `json:"reference"`
	Status    models.BookingStatus `json:"status"`
}

// PartnerBookingClient is the capability the reconciler needs from a
// partner service. Book must be idempotent on the key: retrying with the
// same key returns the existing remote booking instead of creating a
// second one.
type PartnerBookingClient interface {
	Book(ctx context.Context, serviceType models.ServiceType, serviceID, idempotencyKey string, details BookingDetails) (*RemoteBooking, error)
	GetStatus(ctx context.Context, remoteRef string) (models.BookingStatus, error)
}

// HTTPClient talks JSON over HTTP to the partner booking API with a
// bounded timeout on every call.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Book(ctx context.Context, serviceType models.ServiceType, serviceID, idempotencyKey string, details BookingDetails) (*RemoteBooking, error) {
	payload := struct {
		ServiceID string `json:"service_id"`
		BookingDetails
	}{ServiceID: serviceID, BookingDetails: details}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal booking request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/bookings", c.baseURL, serviceType)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", idempotencyKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("partner book call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("partner book call: unexpected status %d", resp.StatusCode)
	}

	var remote RemoteBooking
	if err := json.NewDecoder(resp.Body).Decode(&remote); err != nil {
		return nil, fmt.Errorf("decode partner response: %w", err)
	}
	return &remote, nil
}

func (c *HTTPClient) GetStatus(ctx context.Context, remoteRef string) (models.BookingStatus, error) {
	url := fmt.Sprintf("%s/bookings/%s", c.baseURL, remoteRef)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("partner status call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("partner status call: unexpected status %d", resp.StatusCode)
	}

	var remote RemoteBooking
	if err := json.NewDecoder(resp.Body).Decode(&remote); err != nil {
		return "", fmt.Errorf("decode partner response: %w", err)
	}
	return remote.Status, nil
}
