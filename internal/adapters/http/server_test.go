package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/msquare/internal/logging"
	"github.com/aretw0/msquare/pkg/adapters/memory"
	"github.com/aretw0/msquare/pkg/contact"
	"github.com/aretw0/msquare/pkg/domain"
	"github.com/aretw0/msquare/pkg/observability"
	"github.com/aretw0/msquare/pkg/portfolio"
)

const testToken = "s3cret"

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

type stubMailer struct {
	mu   sync.Mutex
	sent []domain.Email
	err  error
}

func (m *stubMailer) Send(ctx context.Context, email domain.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, email)
	return nil
}

type fixture struct {
	handler http.Handler
	mailer  *stubMailer
	bucket  *memory.Bucket
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	mailer := &stubMailer{}
	bucket := memory.NewBucket("/media")
	h, err := NewHandler(
		contact.NewService(mailer, "site@example.com", []string{"studio@example.com"}),
		portfolio.NewService(memory.NewStore(), bucket),
		cfg,
		WithMetrics(observability.New()),
	)
	require.NoError(t, err)
	return &fixture{handler: h, mailer: mailer, bucket: bucket}
}

func (f *fixture) do(t *testing.T, method, target string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, target, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func multipartBody(t *testing.T, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for name, content := range files {
		fw, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func TestGetHealth(t *testing.T) {
	f := newFixture(t, Config{})
	rr := f.do(t, http.MethodGet, "/health", nil, "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rr)["status"])
}

func TestGetInfo(t *testing.T) {
	f := newFixture(t, Config{Version: "1.2.3\n"})
	rr := f.do(t, http.MethodGet, "/info", nil, "")

	require.Equal(t, http.StatusOK, rr.Code)
	info := decode[map[string]string](t, rr)
	assert.Equal(t, "msquare", info["app"])
	assert.Equal(t, "1.2.3", info["version"])
	assert.NotEqual(t, "unknown", info["api_version"])
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, Config{CORSOrigin: "https://msquare.example"})
	rr := f.do(t, http.MethodOptions, "/contact", nil, "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "https://msquare.example", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "content-type")
	assert.Equal(t, "ok", rr.Body.String())
}

func TestSubmitContact(t *testing.T) {
	t.Run("sent", func(t *testing.T) {
		f := newFixture(t, Config{})
		rr := f.do(t, http.MethodPost, "/contact", map[string]string{
			"name": "Jane", "email": "jane@example.com", "message": "Hi",
		}, "")

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, true, decode[map[string]any](t, rr)["success"])
		require.Len(t, f.mailer.sent, 1)
		assert.Equal(t, "jane@example.com", f.mailer.sent[0].ReplyTo)
	})

	t.Run("missing fields", func(t *testing.T) {
		f := newFixture(t, Config{})
		rr := f.do(t, http.MethodPost, "/contact", map[string]string{"email": "jane@example.com"}, "")

		require.Equal(t, http.StatusBadRequest, rr.Code)
		body := decode[map[string]any](t, rr)
		assert.Equal(t, false, body["success"])
		assert.Contains(t, body["error"], "name, message")
		assert.Empty(t, f.mailer.sent)
	})

	t.Run("schema violation", func(t *testing.T) {
		f := newFixture(t, Config{})
		rr := f.do(t, http.MethodPost, "/contact", map[string]string{
			"name": strings.Repeat("x", 300), "email": "jane@example.com", "message": "Hi",
		}, "")

		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, decode[map[string]any](t, rr)["error"], "invalid request body")
	})

	t.Run("delivery failure", func(t *testing.T) {
		f := newFixture(t, Config{})
		f.mailer.err = errors.New("provider down")
		rr := f.do(t, http.MethodPost, "/contact", map[string]string{
			"name": "Jane", "email": "jane@example.com", "message": "Hi",
		}, "")

		require.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Contains(t, decode[map[string]any](t, rr)["error"], "failed to send email")
	})
}

func TestAdminAuth(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		f := newFixture(t, Config{})
		rr := f.do(t, http.MethodPost, "/admin/projects", map[string]string{"title": "A"}, "anything")
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})

	t.Run("wrong token", func(t *testing.T) {
		f := newFixture(t, Config{AdminToken: testToken})
		rr := f.do(t, http.MethodPost, "/admin/projects", map[string]string{"title": "A"}, "nope")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.NotEmpty(t, rr.Header().Get("WWW-Authenticate"))
	})

	t.Run("missing token", func(t *testing.T) {
		f := newFixture(t, Config{AdminToken: testToken})
		rr := f.do(t, http.MethodDelete, "/admin/projects/p1", nil, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestProjectLifecycle(t *testing.T) {
	f := newFixture(t, Config{AdminToken: testToken})

	rr := f.do(t, http.MethodPost, "/admin/projects", map[string]any{
		"title": "Villa", "description": "Seaside", "category": "renovation", "featured": true,
	}, testToken)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[domain.Project](t, rr)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, domain.CategoryRenovation, created.Category)

	rr = f.do(t, http.MethodGet, "/projects?category=renovation", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]domain.Project](t, rr), 1)

	rr = f.do(t, http.MethodGet, "/projects?category=construction", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]\n", rr.Body.String())

	body, ct := multipartBody(t, map[string][]byte{"front.png": pngHeader})
	req := httptest.NewRequest(http.MethodPost, "/admin/projects/"+created.ID+"/media", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+testToken)
	up := httptest.NewRecorder()
	f.handler.ServeHTTP(up, req)
	require.Equal(t, http.StatusCreated, up.Code, up.Body.String())
	media := decode[[]domain.Media](t, up)
	require.Len(t, media, 1)
	assert.Equal(t, domain.MediaImage, media[0].Type)
	assert.Equal(t, 1, f.bucket.Len())

	rr = f.do(t, http.MethodGet, "/projects/"+created.ID, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[domain.Project](t, rr).Media, 1)

	rr = f.do(t, http.MethodDelete, "/admin/projects/"+created.ID+"/media/"+media[0].ID, nil, testToken)
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, 0, f.bucket.Len())

	rr = f.do(t, http.MethodDelete, "/admin/projects/"+created.ID+"/media/"+media[0].ID, nil, testToken)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = f.do(t, http.MethodDelete, "/admin/projects/"+created.ID, nil, testToken)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = f.do(t, http.MethodGet, "/projects/"+created.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateProject_Validation(t *testing.T) {
	f := newFixture(t, Config{AdminToken: testToken})

	rr := f.do(t, http.MethodPost, "/admin/projects", map[string]any{"description": "no title"}, testToken)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodPost, "/admin/projects", map[string]any{"title": "A", "category": "demolition"}, testToken)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodGet, "/projects?category=demolition", nil, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUploadMedia_Rejections(t *testing.T) {
	f := newFixture(t, Config{AdminToken: testToken})
	rr := f.do(t, http.MethodPost, "/admin/projects", map[string]any{"title": "A"}, testToken)
	require.Equal(t, http.StatusCreated, rr.Code)
	id := decode[domain.Project](t, rr).ID

	upload := func(target string, files map[string][]byte) *httptest.ResponseRecorder {
		body, ct := multipartBody(t, files)
		req := httptest.NewRequest(http.MethodPost, target, body)
		req.Header.Set("Content-Type", ct)
		req.Header.Set("Authorization", "Bearer "+testToken)
		out := httptest.NewRecorder()
		f.handler.ServeHTTP(out, req)
		return out
	}

	assert.Equal(t, http.StatusUnsupportedMediaType, upload("/admin/projects/"+id+"/media", map[string][]byte{"notes.txt": []byte("plain text")}).Code)
	assert.Equal(t, http.StatusNotFound, upload("/admin/projects/missing/media", map[string][]byte{"a.png": pngHeader}).Code)
	assert.Equal(t, http.StatusBadRequest, upload("/admin/projects/"+id+"/media", nil).Code)
	assert.Equal(t, 0, f.bucket.Len())
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, Config{})
	f.do(t, http.MethodGet, "/health", nil, "")

	rr := f.do(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "msquare_http_requests_total")
}

func TestOpenAPIDocument(t *testing.T) {
	f := newFixture(t, Config{})
	rr := f.do(t, http.MethodGet, "/openapi.yaml", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "openapi:")

	rr = f.do(t, http.MethodGet, "/swagger", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "swagger-ui")
}

func TestStreamManager(t *testing.T) {
	sm := NewStreamManager(nil)
	all, cancelAll := sm.Subscribe("")
	one, cancelOne := sm.Subscribe("p1")
	defer cancelAll()

	sm.Publish(Event{Type: EventMediaAdded, ProjectID: "p1", MediaID: "m1"})
	sm.Publish(Event{Type: EventProjectCreated, ProjectID: "p2"})

	assert.Equal(t, "p1", (<-all).ProjectID)
	assert.Equal(t, "p2", (<-all).ProjectID)
	assert.Equal(t, "m1", (<-one).MediaID)
	assert.Empty(t, one)

	cancelOne()
	cancelOne()
	assert.Equal(t, 0, sm.Subscribers("p1"))
	_, open := <-one
	assert.False(t, open)
}

func TestStreamManager_DropsToInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	sm := NewStreamManager(logging.NewWithWriter(&buf, slog.LevelDebug))
	_, cancel := sm.Subscribe("p1")
	defer cancel()

	for i := 0; i < 11; i++ {
		sm.Publish(Event{Type: EventMediaAdded, ProjectID: "p1"})
	}
	assert.Contains(t, buf.String(), "dropping event")
	assert.Equal(t, 1, strings.Count(buf.String(), "dropping event"))
}

func TestSubscribeEvents(t *testing.T) {
	f := newFixture(t, Config{AdminToken: testToken})
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/admin/events?watch=project.created", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+testToken)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	readUntil := func(prefix string) string {
		for lines.Scan() {
			if strings.HasPrefix(lines.Text(), prefix) {
				return lines.Text()
			}
		}
		t.Fatalf("stream ended before %q", prefix)
		return ""
	}
	readUntil("data: connected")

	rr := f.do(t, http.MethodPost, "/admin/projects", map[string]any{"title": "Live"}, testToken)
	require.Equal(t, http.StatusCreated, rr.Code)
	id := decode[domain.Project](t, rr).ID

	assert.Equal(t, "event: project.created", readUntil("event:"))
	data := strings.TrimPrefix(readUntil("data:"), "data: ")
	var ev Event
	require.NoError(t, json.Unmarshal([]byte(data), &ev))
	assert.Equal(t, id, ev.ProjectID)
}
