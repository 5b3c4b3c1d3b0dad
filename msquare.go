package msquare

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/msquare/internal/adapters/file"
	httpAdapter "github.com/aretw0/msquare/internal/adapters/http"
	"github.com/aretw0/msquare/internal/config"
	"github.com/aretw0/msquare/pkg/adapters/mcp"
	"github.com/aretw0/msquare/pkg/adapters/memory"
	"github.com/aretw0/msquare/pkg/adapters/redis"
	"github.com/aretw0/msquare/pkg/adapters/resend"
	"github.com/aretw0/msquare/pkg/contact"
	"github.com/aretw0/msquare/pkg/observability"
	"github.com/aretw0/msquare/pkg/portfolio"
	"github.com/aretw0/msquare/pkg/ports"
)

// Site is the high-level entry point: it wires stores, storage, mail and metrics into the
// contact and portfolio services and exposes them over HTTP and MCP.
type Site struct {
	Config    config.Config
	Contact   *contact.Service
	Portfolio *portfolio.Service
	Metrics   *observability.Metrics

	store   ports.ProjectStore
	media   ports.MediaStorage
	mailer  ports.Mailer
	locker  ports.DistributedLocker
	logger  *slog.Logger
	canMail bool
	closers []io.Closer
}

// Option defines a functional option for configuring the Site.
type Option func(*Site)

// WithLogger sets the structured logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Site) {
		s.logger = logger
	}
}

// WithStore injects a project store, bypassing the configured driver.
func WithStore(store ports.ProjectStore) Option {
	return func(s *Site) {
		s.store = store
	}
}

// WithMediaStorage injects a media bucket, bypassing the filesystem one.
func WithMediaStorage(media ports.MediaStorage) Option {
	return func(s *Site) {
		s.media = media
	}
}

// WithMailer injects a mailer, bypassing Resend.
func WithMailer(mailer ports.Mailer) Option {
	return func(s *Site) {
		s.mailer = mailer
	}
}

// WithLocker injects a distributed locker for media uploads.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(s *Site) {
		s.locker = locker
	}
}

// New builds a Site from cfg.
func New(cfg config.Config, opts ...Option) (*Site, error) {
	s := &Site{Config: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s.Metrics = observability.New()

	if s.store == nil {
		if err := s.openStore(); err != nil {
			return nil, err
		}
	}
	if s.media == nil {
		s.media = file.New(cfg.Media.Dir, cfg.Media.BaseURL)
	}
	s.canMail = s.mailer != nil || cfg.Mail.APIKey != ""
	if s.mailer == nil {
		s.mailer = resend.New(cfg.Mail.APIKey,
			resend.WithEndpoint(cfg.Mail.Endpoint),
			resend.WithLogger(s.logger),
		)
	}

	s.Contact = contact.NewService(s.mailer, cfg.Mail.From, recipients(cfg.Mail.To),
		contact.WithLogger(s.logger),
		contact.WithRecorder(s.Metrics),
	)

	portfolioOpts := []portfolio.Option{
		portfolio.WithLogger(s.logger),
		portfolio.WithRecorder(s.Metrics),
	}
	if s.locker != nil {
		portfolioOpts = append(portfolioOpts, portfolio.WithLocker(s.locker))
	}
	s.Portfolio = portfolio.NewService(s.store, s.media, portfolioOpts...)
	return s, nil
}

func (s *Site) openStore() error {
	switch s.Config.Store.Driver {
	case "", "memory":
		s.logger.Info("using in-memory project store")
		s.store = memory.NewStore()
		if s.locker == nil {
			s.locker = memory.NewLocker()
		}
	case "redis":
		rc := s.Config.Store.Redis
		prefix := rc.Prefix
		if prefix != "" && !strings.HasSuffix(prefix, ":") {
			prefix += ":"
		}
		store := redis.New(rc.Addr, rc.Password, rc.DB, redis.WithPrefix(prefix))
		s.logger.Info("using redis project store", "addr", rc.Addr, "prefix", prefix)
		s.store = store
		s.closers = append(s.closers, store)
		if s.locker == nil {
			s.locker = redis.NewLocker(store.Client(), prefix)
		}
	default:
		return fmt.Errorf("unknown store driver %q", s.Config.Store.Driver)
	}
	return nil
}

// Ping checks that the project store is reachable, when it supports it.
func (s *Site) Ping(ctx context.Context) error {
	if p, ok := s.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Handler returns the HTTP API.
func (s *Site) Handler() (http.Handler, error) {
	return httpAdapter.NewHandler(s.Contact, s.Portfolio, httpAdapter.Config{
		AdminToken: s.Config.Admin.Token,
		CORSOrigin: s.Config.Server.CORSOrigin,
		MediaDir:   s.mediaDir(),
		Version:    Version,
	}, httpAdapter.WithMetrics(s.Metrics), httpAdapter.WithLogger(s.logger))
}

// mediaDir is only served when media lives on the local filesystem.
func (s *Site) mediaDir() string {
	if _, ok := s.media.(*file.Storage); ok {
		return s.Config.Media.Dir
	}
	return ""
}

// MCP returns an MCP server over the same services.
// submit_contact is only offered when mail can actually be delivered.
func (s *Site) MCP() *mcp.Server {
	var contactSvc mcp.Contact
	if s.canMail {
		contactSvc = s.Contact
	}
	return mcp.NewServer(s.Portfolio, contactSvc, strings.TrimSpace(Version), mcp.WithLogger(s.logger))
}

// Close releases the store connections.
func (s *Site) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	s.closers = nil
	return errors.Join(errs...)
}

func recipients(to string) []string {
	var out []string
	for _, addr := range strings.Split(to, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
