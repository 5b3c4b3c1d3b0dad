package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/msquare/pkg/contact"
	"github.com/aretw0/msquare/pkg/domain"
	"github.com/aretw0/msquare/pkg/observability"
	"github.com/aretw0/msquare/pkg/portfolio"
)

// MaxUploadBytes caps one media upload request.
const MaxUploadBytes = 200 << 20

// ContactService is the contact use case.
type ContactService interface {
	Submit(ctx context.Context, form domain.ContactForm) error
}

// PortfolioService is the portfolio use case.
type PortfolioService interface {
	Create(ctx context.Context, in portfolio.CreateInput) (domain.Project, error)
	List(ctx context.Context, category string) ([]domain.Project, error)
	Get(ctx context.Context, id string) (domain.Project, error)
	UploadMedia(ctx context.Context, projectID string, up portfolio.Upload) (domain.Media, error)
	DeleteMedia(ctx context.Context, projectID, mediaID string) error
	Delete(ctx context.Context, id string) error
}

// Config carries the server settings.
type Config struct {
	// AdminToken gates /admin routes. Empty disables them (503).
	AdminToken string
	// CORSOrigin is sent as Access-Control-Allow-Origin.
	CORSOrigin string
	// MediaDir, when set, is served at /media/.
	MediaDir string
	Version  string
}

// Server holds the HTTP handlers.
type Server struct {
	Contact   ContactService
	Portfolio PortfolioService
	Streams   *StreamManager

	cfg     Config
	metrics *observability.Metrics
	logger  *slog.Logger
}

type Option func(*Server)

// WithMetrics instruments every route and serves /metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewHandler creates the HTTP handler of the site backend.
func NewHandler(contactSvc ContactService, portfolioSvc PortfolioService, cfg Config, opts ...Option) (http.Handler, error) {
	s := &Server{
		Contact:   contactSvc,
		Portfolio: portfolioSvc,
		cfg:       cfg,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)
	if s.cfg.CORSOrigin == "" {
		s.cfg.CORSOrigin = "*"
	}

	doc, err := GetSwagger()
	if err != nil {
		return nil, err
	}
	validator, err := newRequestValidator(doc)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	r.Use(s.enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	if s.cfg.MediaDir != "" {
		r.Handle("/media/*", http.StripPrefix("/media/", noDirListing(http.FileServer(http.Dir(s.cfg.MediaDir)))))
	}

	r.Group(func(r chi.Router) {
		r.Use(validator.Middleware)
		r.Post("/contact", s.SubmitContact)
		r.Get("/projects", s.ListProjects)
		r.Get("/projects/{id}", s.GetProject)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Use(validator.Middleware)
		r.Post("/projects", s.CreateProject)
		r.Delete("/projects/{id}", s.DeleteProject)
		r.Post("/projects/{id}/media", s.UploadMedia)
		r.Delete("/projects/{id}/media/{mediaID}", s.DeleteMedia)
		r.Get("/events", s.SubscribeEvents)
	})

	return r, nil
}

func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.cfg.CORSOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AdminToken == "" {
			writeJSON(w, http.StatusServiceUnavailable, errorBody("admin API is not configured"))
			return
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AdminToken)) != 1 {
			w.Header().Set("WWW-Authenticate", `Bearer realm="msquare-admin"`)
			writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>MSquare API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}
	version := strings.TrimSpace(s.cfg.Version)
	if version == "" {
		version = "dev"
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "msquare",
		"version":     version,
		"api_version": apiVersion,
	})
}

// SubmitContact handles the POST /contact request.
func (s *Server) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var form domain.ContactForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		s.logger.Warn("SubmitContact: invalid request body", "error", err)
		return
	}

	if err := s.Contact.Submit(r.Context(), form); err != nil {
		if contact.IsValidation(err) {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		s.logger.Error("SubmitContact failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ListProjects handles the GET /projects request.
func (s *Server) ListProjects(w http.ResponseWriter, r *http.Request) {
	list, err := s.Portfolio.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		s.writeError(w, "ListProjects", err)
		return
	}
	if list == nil {
		list = []domain.Project{}
	}
	writeJSON(w, http.StatusOK, list)
}

// GetProject handles the GET /projects/{id} request.
func (s *Server) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.Portfolio.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, "GetProject", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreateProject handles the POST /admin/projects request.
func (s *Server) CreateProject(w http.ResponseWriter, r *http.Request) {
	var in portfolio.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	p, err := s.Portfolio.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, "CreateProject", err)
		return
	}
	s.Streams.Publish(Event{Type: EventProjectCreated, ProjectID: p.ID})
	writeJSON(w, http.StatusCreated, p)
}

// DeleteProject handles the DELETE /admin/projects/{id} request.
func (s *Server) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Portfolio.Delete(r.Context(), id); err != nil {
		s.writeError(w, "DeleteProject", err)
		return
	}
	s.Streams.Publish(Event{Type: EventProjectDeleted, ProjectID: id})
	w.WriteHeader(http.StatusNoContent)
}

// UploadMedia handles the multipart POST /admin/projects/{id}/media request.
// Every part named "file" is uploaded in order; the first failure stops the batch.
func (s *Server) UploadMedia(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid multipart form: "+err.Error()))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody(`missing "file" part`))
		return
	}

	uploaded := make([]domain.Media, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("unreadable file: "+fh.Filename))
			return
		}
		m, err := s.Portfolio.UploadMedia(r.Context(), id, portfolio.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        f,
		})
		_ = f.Close()
		if err != nil {
			s.writeError(w, "UploadMedia", err)
			return
		}
		uploaded = append(uploaded, m)
		s.Streams.Publish(Event{Type: EventMediaAdded, ProjectID: id, MediaID: m.ID})
	}
	writeJSON(w, http.StatusCreated, uploaded)
}

// DeleteMedia handles the DELETE /admin/projects/{id}/media/{mediaID} request.
func (s *Server) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	id, mediaID := chi.URLParam(r, "id"), chi.URLParam(r, "mediaID")
	if err := s.Portfolio.DeleteMedia(r.Context(), id, mediaID); err != nil {
		s.writeError(w, "DeleteMedia", err)
		return
	}
	s.Streams.Publish(Event{Type: EventMediaRemoved, ProjectID: id, MediaID: mediaID})
	w.WriteHeader(http.StatusNoContent)
}

// writeError maps domain errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrProjectNotFound), errors.Is(err, domain.ErrMediaNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidProject):
		status = http.StatusBadRequest
	case errors.Is(err, portfolio.ErrUnsupportedMedia):
		status = http.StatusUnsupportedMediaType
	}
	if status == http.StatusInternalServerError {
		s.logger.Error(op+" failed", "error", err)
	}
	writeJSON(w, status, errorBody(err.Error()))
}

func errorBody(msg string) map[string]any {
	return map[string]any{"success": false, "error": msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
