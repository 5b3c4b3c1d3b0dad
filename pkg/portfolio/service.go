// Package portfolio manages the studio's projects and their media.
package portfolio

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/msquare/pkg/domain"
	"github.com/aretw0/msquare/pkg/ports"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrUnsupportedMedia is returned for uploads that are neither images nor videos.
var ErrUnsupportedMedia = errors.New("unsupported media type")

// UploadLockTTL bounds how long a crashed replica can hold a project's upload lock.
const UploadLockTTL = 30 * time.Second

// Recorder receives the outcome of every mutation.
type Recorder interface {
	PortfolioOp(op, result string)
}

// Service implements the portfolio use cases on top of the store, media and locker ports.
type Service struct {
	store    ports.ProjectStore
	media    ports.MediaStorage
	locker   ports.DistributedLocker
	logger   *slog.Logger
	recorder Recorder
	now      func() time.Time
	newID    func() string
}

type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithLocker serializes uploads per project across replicas.
func WithLocker(l ports.DistributedLocker) Option {
	return func(s *Service) {
		s.locker = l
	}
}

// WithRecorder sets the outcome recorder (metrics).
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

// WithClock replaces time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a Service.
func NewService(store ports.ProjectStore, media ports.MediaStorage, opts ...Option) *Service {
	s := &Service{
		store:  store,
		media:  media,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput is the admin form for a new project.
type CreateInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Featured    bool   `json:"featured"`
}

// Create validates and stores a new project.
func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Project, error) {
	p := domain.Project{
		ID:          s.newID(),
		Title:       in.Title,
		Description: in.Description,
		Category:    domain.Category(in.Category),
		Featured:    in.Featured,
		CreatedAt:   s.now().UTC(),
	}
	if err := p.Validate(); err != nil {
		s.record("create", err)
		return domain.Project{}, err
	}
	if err := s.store.CreateProject(ctx, p); err != nil {
		s.record("create", err)
		return domain.Project{}, fmt.Errorf("failed to create project: %w", err)
	}
	s.record("create", nil)
	s.logger.Info("project created", "id", p.ID, "title", p.Title, "category", p.Category)
	return p, nil
}

// List returns the projects newest first, optionally filtered by category.
func (s *Service) List(ctx context.Context, category string) ([]domain.Project, error) {
	var filter domain.Category
	if category != "" && category != "all" {
		c, err := domain.ParseCategory(category)
		if err != nil {
			return nil, err
		}
		filter = c
	}

	list, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	if filter == "" {
		return list, nil
	}
	out := list[:0]
	for _, p := range list {
		if p.Category == filter {
			out = append(out, p)
		}
	}
	return out, nil
}

// Get returns one project with its media.
func (s *Service) Get(ctx context.Context, id string) (domain.Project, error) {
	return s.store.GetProject(ctx, id)
}

// Upload is one media file sent by the admin.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// UploadMedia stores the file at <projectID>/<unix-ms>-<short-id>.<ext> and appends it to the project.
// The short ID keeps uploads made within the same millisecond from sharing an object.
// The content type is sniffed when the client did not send a usable one.
func (s *Service) UploadMedia(ctx context.Context, projectID string, up Upload) (domain.Media, error) {
	m, err := s.uploadMedia(ctx, projectID, up)
	s.record("upload", err)
	return m, err
}

func (s *Service) uploadMedia(ctx context.Context, projectID string, up Upload) (domain.Media, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return domain.Media{}, err
	}

	body := bufio.NewReader(up.Body)
	contentType := mediaContentType(up, body)
	if !strings.HasPrefix(contentType, "image/") && !strings.HasPrefix(contentType, "video/") {
		return domain.Media{}, fmt.Errorf("%w: %s", ErrUnsupportedMedia, contentType)
	}

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, "project:"+projectID, UploadLockTTL)
		if err != nil {
			return domain.Media{}, fmt.Errorf("failed to lock project %s: %w", projectID, err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("failed to release upload lock", "project", projectID, "err", err)
			}
		}()
	}

	id := s.newID()
	path := fmt.Sprintf("%s/%d-%s.%s", projectID, s.now().UnixMilli(), shortID(id), extension(up.Filename, contentType))
	url, err := s.media.Put(ctx, path, body)
	if err != nil {
		return domain.Media{}, fmt.Errorf("upload failed: %w", err)
	}

	m, err := s.store.AddMedia(ctx, domain.Media{
		ID:        id,
		ProjectID: projectID,
		URL:       url,
		Type:      domain.MediaTypeOf(contentType),
		Path:      path,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		// the project vanished meanwhile: do not leave an orphan object
		if delErr := s.media.Delete(context.WithoutCancel(ctx), path); delErr != nil {
			s.logger.Warn("failed to remove orphan media object", "path", path, "err", delErr)
		}
		return domain.Media{}, fmt.Errorf("failed to record media: %w", err)
	}

	s.logger.Info("media uploaded", "project", projectID, "media", m.ID, "type", m.Type, "order", m.DisplayOrder)
	return m, nil
}

// DeleteMedia removes the media row and its object.
func (s *Service) DeleteMedia(ctx context.Context, projectID, mediaID string) error {
	m, err := s.store.DeleteMedia(ctx, projectID, mediaID)
	if err == nil && m.Path != "" {
		if delErr := s.media.Delete(ctx, m.Path); delErr != nil {
			// the row is gone; the object is only garbage now
			s.logger.Warn("failed to remove media object", "path", m.Path, "err", delErr)
		}
	}
	s.record("delete_media", err)
	if err == nil {
		s.logger.Info("media removed", "project", projectID, "media", mediaID)
	}
	return err
}

// Delete removes the project, its media rows and its objects.
func (s *Service) Delete(ctx context.Context, id string) error {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		s.record("delete", err)
		return err
	}
	if err := s.store.DeleteProject(ctx, id); err != nil {
		s.record("delete", err)
		return err
	}
	s.record("delete", nil)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, m := range p.Media {
		if m.Path == "" {
			continue
		}
		g.Go(func() error {
			return s.media.Delete(gctx, m.Path)
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Warn("failed to remove some media objects", "project", id, "err", err)
	}

	s.logger.Info("project deleted", "id", id, "media", len(p.Media))
	return nil
}

func (s *Service) record(op string, err error) {
	if s.recorder == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.recorder.PortfolioOp(op, result)
}

// mediaContentType trusts a specific client type, otherwise sniffs the first 512 bytes.
func mediaContentType(up Upload, body *bufio.Reader) string {
	if ct, _, err := mime.ParseMediaType(up.ContentType); err == nil && ct != "application/octet-stream" {
		return ct
	}
	head, _ := body.Peek(512)
	ct, _, _ := mime.ParseMediaType(http.DetectContentType(head))
	return ct
}

var preferredExt = map[string]string{
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"image/gif":       "gif",
	"image/webp":      "webp",
	"image/svg+xml":   "svg",
	"video/mp4":       "mp4",
	"video/webm":      "webm",
	"video/quicktime": "mov",
}

// extension keeps the client's file extension when it is plain alphanumeric, else derives one from the content type.
func extension(filename, contentType string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext != "" && len(ext) <= 8 && strings.IndexFunc(ext, func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < '0' || r > '9')
	}) < 0 {
		return ext
	}
	if ext, ok := preferredExt[contentType]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return strings.TrimPrefix(exts[0], ".")
	}
	return "bin"
}

func shortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
