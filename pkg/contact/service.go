// Package contact turns website enquiries into emails for the studio.
package contact

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"

	"github.com/aretw0/msquare/pkg/domain"
	"github.com/aretw0/msquare/pkg/ports"
)

//go:embed templates/submission.html
var templates embed.FS

var submissionTmpl = template.Must(template.ParseFS(templates, "templates/submission.html"))

// Submission outcomes reported to the Recorder.
const (
	ResultSent    = "sent"
	ResultInvalid = "invalid"
	ResultFailed  = "failed"
)

// Recorder receives the outcome of every submission.
type Recorder interface {
	ContactSubmitted(result string)
}

// Service validates contact forms and delivers them by email.
type Service struct {
	mailer   ports.Mailer
	from     string
	to       []string
	site     string
	logger   *slog.Logger
	recorder Recorder
}

type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithRecorder sets the outcome recorder (metrics).
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

// WithSiteName sets the name printed in the email footer.
func WithSiteName(name string) Option {
	return func(s *Service) {
		s.site = name
	}
}

// NewService creates a Service delivering from `from` to the `to` recipients.
func NewService(mailer ports.Mailer, from string, to []string, opts ...Option) *Service {
	s := &Service{
		mailer: mailer,
		from:   from,
		to:     to,
		site:   "MSquare Architects",
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Compose validates the form and renders the email without sending it.
func (s *Service) Compose(form domain.ContactForm) (domain.Email, error) {
	if err := form.Validate(); err != nil {
		return domain.Email{}, err
	}

	var buf bytes.Buffer
	err := submissionTmpl.Execute(&buf, struct {
		domain.ContactForm
		Site string
	}{form, s.site})
	if err != nil {
		return domain.Email{}, fmt.Errorf("failed to render email: %w", err)
	}

	return domain.Email{
		From:    s.from,
		To:      s.to,
		ReplyTo: form.Email,
		Subject: "New Contact Form Submission from " + form.Name,
		HTML:    buf.String(),
	}, nil
}

// Submit validates, renders and sends the form.
// Validation failures satisfy IsValidation; anything else is a delivery failure.
func (s *Service) Submit(ctx context.Context, form domain.ContactForm) error {
	email, err := s.Compose(form)
	if err != nil {
		s.record(ResultInvalid)
		if IsValidation(err) {
			s.logger.Debug("contact form rejected", "err", err)
		}
		return err
	}

	s.logger.Info("sending contact form email", "name", form.Name, "email", form.Email)
	if err := s.mailer.Send(ctx, email); err != nil {
		s.record(ResultFailed)
		s.logger.Error("contact email failed", "err", err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.record(ResultSent)
	s.logger.Info("contact form email sent")
	return nil
}

// IsValidation reports whether err was caused by the submitted form rather than by delivery.
func IsValidation(err error) bool {
	return errors.Is(err, domain.ErrMissingFields) ||
		errors.Is(err, domain.ErrInvalidEmail) ||
		errors.Is(err, domain.ErrInvalidInput)
}

func (s *Service) record(result string) {
	if s.recorder != nil {
		s.recorder.ContactSubmitted(result)
	}
}
