package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"classipost/pkg/logger"
)

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

// BrevoMailer sends transactional email through the Brevo (Sendinblue)
// HTTP API v3.
type BrevoMailer struct {
	apiKey      string
	senderEmail string
	senderName  string
	client      *http.Client
}

func NewBrevoMailer(apiKey, senderEmail, senderName string) *BrevoMailer {
	return &BrevoMailer{
		apiKey:      apiKey,
		senderEmail: senderEmail,
		senderName:  senderName,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

func (m *BrevoMailer) Send(ctx context.Context, toEmail, toName, subject, htmlBody string) error {
	payload := map[string]interface{}{
		"sender":      map[string]string{"name": m.senderName, "email": m.senderEmail},
		"to":          []map[string]string{{"email": toEmail, "name": toName}},
		"subject":     subject,
		"htmlContent": htmlBody,
	}

	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(payload); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, brevoEndpoint, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		logger.Debug("Email sent to %s subject=%s", toEmail, subject)
		return nil
	}
	return fmt.Errorf("brevo send failed status=%d", resp.StatusCode)
}
