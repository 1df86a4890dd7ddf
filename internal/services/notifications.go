package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/harentsoaR/mysimo-api/internal/models"
)

const (
	TextbeltEndpoint = "https://textbelt.com/text"
	smsTimeout       = 10 * time.Second
)

// NotificationService sends booking SMS to the doctor's WhatsApp number
// through Textbelt. Sends run in the background and are never retried.
type NotificationService struct {
	endpoint string
	apiKey   string
	client   *http.Client
	log      zerolog.Logger
	wg       sync.WaitGroup
}

// NewNotificationService returns a notifier. With an empty apiKey nothing is
// sent.
func NewNotificationService(endpoint, apiKey string, client *http.Client, logger zerolog.Logger) *NotificationService {
	if endpoint == "" {
		endpoint = TextbeltEndpoint
	}
	if client == nil {
		client = &http.Client{Timeout: smsTimeout}
	}
	return &NotificationService{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   client,
		log:      logger.With().Str("service", "notifications").Logger(),
	}
}

func (s *NotificationService) Enabled() bool {
	return s.apiKey != ""
}

func (s *NotificationService) AppointmentBooked(d *models.Doctor, a *models.Appointment) {
	if !s.Enabled() {
		return
	}
	if d.WhatsApp == nil || *d.WhatsApp == "" {
		s.log.Debug().Str("doctor_id", d.ID).Msg("SMS not sent: doctor has no phone number")
		return
	}

	body := fmt.Sprintf("mysimo: nueva cita con %s el %s.", d.FullName, a.DateTime.Format("02/01/2006 15:04"))

	s.wg.Add(1)
	go func(phone string) {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), smsTimeout)
		defer cancel()
		if err := s.send(ctx, phone, body); err != nil {
			s.log.Warn().Err(err).Str("appointment_id", a.ID).Msg("booking SMS failed")
			return
		}
		s.log.Info().Str("appointment_id", a.ID).Msg("booking SMS sent")
	}(*d.WhatsApp)
}

// Wait blocks until every in-flight send has finished.
func (s *NotificationService) Wait() {
	s.wg.Wait()
}

type textbeltResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *NotificationService) send(ctx context.Context, phone, message string) error {
	payload, err := json.Marshal(map[string]string{
		"phone":   phone,
		"message": message,
		"key":     s.apiKey,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("textbelt request: %w", err)
	}
	defer resp.Body.Close()

	var result textbeltResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode textbelt response (status %d): %w", resp.StatusCode, err)
	}
	if !result.Success {
		return fmt.Errorf("textbelt rejected message: %s", result.Error)
	}
	return nil
}
