package msquare_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/msquare"
	"github.com/aretw0/msquare/internal/config"
	"github.com/aretw0/msquare/pkg/domain"
	"github.com/aretw0/msquare/pkg/portfolio"
)

type nopMailer struct{ sent int }

func (m *nopMailer) Send(ctx context.Context, email domain.Email) error {
	m.sent++
	return nil
}

func testConfig(t *testing.T) config.Config {
	cfg := config.Default()
	cfg.Media.Dir = t.TempDir()
	cfg.Admin.Token = "token"
	return cfg
}

func TestNew_MemoryStore(t *testing.T) {
	mailer := &nopMailer{}
	site, err := msquare.New(testConfig(t), msquare.WithMailer(mailer))
	require.NoError(t, err)
	defer site.Close()

	ctx := context.Background()
	require.NoError(t, site.Ping(ctx))

	p, err := site.Portfolio.Create(ctx, portfolio.CreateInput{Title: "Villa"})
	require.NoError(t, err)

	m, err := site.Portfolio.UploadMedia(ctx, p.ID, portfolio.Upload{
		Filename:    "front.png",
		ContentType: "image/png",
		Body:        strings.NewReader("png bytes"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(m.URL, "/media/"+p.ID+"/"))

	require.NoError(t, site.Contact.Submit(ctx, domain.ContactForm{Name: "Jane", Email: "jane@example.com", Message: "Hi"}))
	assert.Equal(t, 1, mailer.sent)
}

func TestSite_HandlerServesMedia(t *testing.T) {
	site, err := msquare.New(testConfig(t), msquare.WithMailer(&nopMailer{}))
	require.NoError(t, err)
	defer site.Close()

	ctx := context.Background()
	p, err := site.Portfolio.Create(ctx, portfolio.CreateInput{Title: "Villa"})
	require.NoError(t, err)
	m, err := site.Portfolio.UploadMedia(ctx, p.ID, portfolio.Upload{
		Filename:    "clip.mp4",
		ContentType: "video/mp4",
		Body:        strings.NewReader("mp4 bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.MediaVideo, m.Type)

	h, err := site.Handler()
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, m.URL, nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "mp4 bytes", rr.Body.String())

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/media/"+p.ID+"/", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/info", nil))
	var info map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &info))
	assert.Equal(t, strings.TrimSpace(msquare.Version), info["version"])
}

func TestNew_RedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Store.Driver = "redis"
	cfg.Store.Redis.Addr = mr.Addr()

	site, err := msquare.New(cfg, msquare.WithMailer(&nopMailer{}))
	require.NoError(t, err)
	defer site.Close()

	ctx := context.Background()
	require.NoError(t, site.Ping(ctx))

	p, err := site.Portfolio.Create(ctx, portfolio.CreateInput{Title: "Villa"})
	require.NoError(t, err)
	assert.True(t, mr.Exists("msquare:project:"+p.ID))

	_, err = site.Portfolio.UploadMedia(ctx, p.ID, portfolio.Upload{
		Filename: "a.png", ContentType: "image/png", Body: strings.NewReader("x"),
	})
	require.NoError(t, err)
	got, err := site.Portfolio.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, got.Media, 1)
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Driver = "sqlite"
	_, err := msquare.New(cfg)
	assert.ErrorContains(t, err, "unknown store driver")
}

func TestSite_MCPOffersContactOnlyWithMailer(t *testing.T) {
	cfg := testConfig(t)
	cfg.Mail.APIKey = ""

	site, err := msquare.New(cfg)
	require.NoError(t, err)
	defer site.Close()
	tools := site.MCP().MCPServer().ListTools()
	assert.Contains(t, tools, "list_projects")
	assert.NotContains(t, tools, "submit_contact")

	site, err = msquare.New(cfg, msquare.WithMailer(&nopMailer{}))
	require.NoError(t, err)
	defer site.Close()
	assert.Contains(t, site.MCP().MCPServer().ListTools(), "submit_contact")

	cfg.Mail.APIKey = "re_test"
	site, err = msquare.New(cfg)
	require.NoError(t, err)
	defer site.Close()
	assert.Contains(t, site.MCP().MCPServer().ListTools(), "submit_contact")
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, strings.TrimSpace(msquare.Version))
}
