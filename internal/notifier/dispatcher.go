package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vetlink/appointment-notifier/internal/appointment"
)

// ErrDeliveryFailed wraps any transport-level failure talking to the
// downstream consumer: connection refused, timeout, or a non-2xx response.
var ErrDeliveryFailed = errors.New("notification delivery failed")

// Payload is the body the downstream consumer expects for each notification.
type Payload struct {
	Status             string  `json:"status"`
	Message            string  `json:"message"`
	UserID             string  `json:"user_id"`
	AppointmentDetails Details `json:"appointment_details"`
}

type Details struct {
	Date    string `json:"date"`
	Time    string `json:"time"`
	VetName string `json:"vet_name"`
}

// Dispatcher delivers a single notification. Implementations report failure
// through the returned error and never retry; retry policy belongs to the
// caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, a *appointment.Appointment) error
}

// WebhookDispatcher posts notifications to a fixed downstream URL.
type WebhookDispatcher struct {
	url    string
	client *http.Client
	log    zerolog.Logger
}

func NewWebhookDispatcher(url string, timeout time.Duration, log zerolog.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{
		url:    url,
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

func (d *WebhookDispatcher) Dispatch(ctx context.Context, a *appointment.Appointment) error {
	body, err := json.Marshal(Payload{
		Status:  "success",
		Message: "Notification sent successfully",
		UserID:  a.UserID,
		AppointmentDetails: Details{
			Date:    a.Date,
			Time:    a.Time,
			VetName: a.VetName,
		},
	})
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: downstream returned %s", ErrDeliveryFailed, resp.Status)
	}

	d.log.Debug().
		Str("user_id", a.UserID).
		Str("date", a.Date).
		Str("time", a.Time).
		Msg("notification delivered")

	return nil
}
