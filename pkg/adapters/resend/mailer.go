package resend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/msquare/pkg/domain"
)

// DefaultEndpoint is the Resend send-email API.
const DefaultEndpoint = "https://api.resend.com/emails"

// ErrNotConfigured is returned by Send when no API key is set.
var ErrNotConfigured = errors.New("email service not configured")

// APIError is a non-2xx answer of the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("resend: status %d", e.StatusCode)
	}
	return fmt.Sprintf("resend: status %d: %s", e.StatusCode, e.Message)
}

// Mailer implements ports.Mailer with the Resend HTTP API.
type Mailer struct {
	apiKey   string
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

type Option func(*Mailer)

// WithEndpoint overrides the API URL (tests, proxies).
func WithEndpoint(url string) Option {
	return func(m *Mailer) {
		if url != "" {
			m.endpoint = url
		}
	}
}

// WithHTTPClient sets the client used for API calls.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Mailer) {
		m.client = c
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Mailer) {
		m.logger = l
	}
}

// New creates a Mailer. An empty apiKey yields a mailer whose Send fails with ErrNotConfigured.
func New(apiKey string, opts ...Option) *Mailer {
	m := &Mailer{
		apiKey:   apiKey,
		endpoint: DefaultEndpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Send posts the email to the API.
func (m *Mailer) Send(ctx context.Context, email domain.Email) error {
	if m.apiKey == "" {
		return ErrNotConfigured
	}

	body, err := json.Marshal(sendRequest(email))
	if err != nil {
		return fmt.Errorf("failed to marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("resend request failed: %w", err)
	}
	defer resp.Body.Close()

	var out sendResponse
	// Error bodies are not always JSON; the status code is enough then.
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: out.Message}
	}

	m.logger.Debug("email sent", "id", out.ID, "subject", email.Subject)
	return nil
}
