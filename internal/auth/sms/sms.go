// Package sms delivers one-time codes. Production posts to an external SMS
// gateway webhook; dev runs without a gateway fall back to the debug log.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// GatewaySender posts the code to an SMS gateway webhook.
type GatewaySender struct {
	url    string
	client *http.Client
}

func NewGatewaySender(url string) *GatewaySender {
	return &GatewaySender{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *GatewaySender) SendCode(ctx context.Context, phone, code string) error {
	payload, err := json.Marshal(map[string]string{
		"phone":   phone,
		"message": fmt.Sprintf("رمز الدخول: %s", code),
	})
	if err != nil {
		return fmt.Errorf("marshal sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	return nil
}

// DevSender logs the code at debug level. Dev and demo runs only; never wire
// it where real beneficiaries log in.
type DevSender struct {
	logger *slog.Logger
}

func NewDevSender(logger *slog.Logger) *DevSender {
	return &DevSender{logger: logger}
}

func (s *DevSender) SendCode(ctx context.Context, phone, code string) error {
	s.logger.DebugContext(ctx, "otp code issued (dev sender)", "phone", phone, "code", code)
	return nil
}
