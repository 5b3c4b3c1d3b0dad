package portfolio_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/msquare/pkg/adapters/memory"
	"github.com/aretw0/msquare/pkg/domain"
	"github.com/aretw0/msquare/pkg/portfolio"
	"github.com/aretw0/msquare/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

type recordingLocker struct {
	mu     sync.Mutex
	keys   []string
	held   int
	failOn string
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if key == l.failOn {
		return nil, errors.New("lock unavailable")
	}
	l.keys = append(l.keys, key)
	l.held++
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.held--
		return nil
	}, nil
}

type opRecorder struct {
	mu  sync.Mutex
	ops map[string]int
}

func (r *opRecorder) PortfolioOp(op, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ops == nil {
		r.ops = map[string]int{}
	}
	r.ops[op+"/"+result]++
}

func newService(t *testing.T, opts ...portfolio.Option) (*portfolio.Service, *memory.Store, *memory.Bucket) {
	t.Helper()
	store := memory.NewStore()
	bucket := memory.NewBucket("/media")
	clock := &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
	opts = append([]portfolio.Option{portfolio.WithClock(clock.Now)}, opts...)
	return portfolio.NewService(store, bucket, opts...), store, bucket
}

func TestService_Create(t *testing.T) {
	rec := &opRecorder{}
	svc, _, _ := newService(t, portfolio.WithRecorder(rec))
	ctx := context.Background()

	p, err := svc.Create(ctx, portfolio.CreateInput{Title: "  Heritage Brick Restoration ", Category: "Reconstruction"})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Heritage Brick Restoration", p.Title)
	assert.Equal(t, domain.CategoryReconstruction, p.Category)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Title, got.Title)

	_, err = svc.Create(ctx, portfolio.CreateInput{Title: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidProject)
	_, err = svc.Create(ctx, portfolio.CreateInput{Title: "X", Category: "landscaping"})
	assert.ErrorIs(t, err, domain.ErrInvalidProject)

	assert.Equal(t, 1, rec.ops["create/ok"])
	assert.Equal(t, 2, rec.ops["create/error"])
}

func TestService_ListByCategory(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	for _, in := range []portfolio.CreateInput{
		{Title: "Modern Family Home"},
		{Title: "Heritage Brick Restoration", Category: "reconstruction"},
		{Title: "Luxury Kitchen Remodel", Category: "renovation"},
		{Title: "Loft Conversion", Category: "renovation"},
	} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "Loft Conversion", all[0].Title, "newest first")

	all, err = svc.List(ctx, "all")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	reno, err := svc.List(ctx, "renovation")
	require.NoError(t, err)
	require.Len(t, reno, 2)
	assert.Equal(t, "Loft Conversion", reno[0].Title)
	assert.Equal(t, "Luxury Kitchen Remodel", reno[1].Title)

	_, err = svc.List(ctx, "gardens")
	assert.ErrorIs(t, err, domain.ErrInvalidProject)
}

func TestService_UploadMedia(t *testing.T) {
	locker := &recordingLocker{}
	svc, _, bucket := newService(t, portfolio.WithLocker(locker))
	ctx := context.Background()
	p, err := svc.Create(ctx, portfolio.CreateInput{Title: "Modern Family Home"})
	require.NoError(t, err)

	img, err := svc.UploadMedia(ctx, p.ID, portfolio.Upload{Filename: "front.JPG", ContentType: "image/jpeg", Body: strings.NewReader("jpeg")})
	require.NoError(t, err)
	assert.Equal(t, domain.MediaImage, img.Type)
	assert.Regexp(t, `^`+p.ID+`/\d{13}-[0-9a-f]{8}\.jpg$`, img.Path)
	assert.Equal(t, "/media/"+img.Path, img.URL)
	assert.Equal(t, 0, img.DisplayOrder)

	vid, err := svc.UploadMedia(ctx, p.ID, portfolio.Upload{Filename: "walkthrough.mp4", ContentType: "video/mp4", Body: strings.NewReader("mp4")})
	require.NoError(t, err)
	assert.Equal(t, domain.MediaVideo, vid.Type)
	assert.Equal(t, 1, vid.DisplayOrder)
	assert.NotEqual(t, img.Path, vid.Path)

	data, err := bucket.Read(img.Path)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Media, 2)
	assert.Equal(t, img.ID, got.Media[0].ID)

	assert.Equal(t, []string{"project:" + p.ID, "project:" + p.ID}, locker.keys)
	assert.Zero(t, locker.held, "every lock released")
}

func TestService_UploadMedia_SniffsContentType(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	p, err := svc.Create(ctx, portfolio.CreateInput{Title: "Loft"})
	require.NoError(t, err)

	m, err := svc.UploadMedia(ctx, p.ID, portfolio.Upload{Filename: "blob", ContentType: "application/octet-stream", Body: bytes.NewReader(pngHeader)})
	require.NoError(t, err)
	assert.Equal(t, domain.MediaImage, m.Type)
	assert.True(t, strings.HasSuffix(m.Path, ".png"), m.Path)

	_, err = svc.UploadMedia(ctx, p.ID, portfolio.Upload{Filename: "notes.txt", Body: strings.NewReader("plain text")})
	assert.ErrorIs(t, err, portfolio.ErrUnsupportedMedia)
}

func TestService_UploadMedia_Errors(t *testing.T) {
	locker := &recordingLocker{}
	svc, _, bucket := newService(t, portfolio.WithLocker(locker))
	ctx := context.Background()

	_, err := svc.UploadMedia(ctx, "ghost", portfolio.Upload{Filename: "a.jpg", ContentType: "image/jpeg", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)

	p, err := svc.Create(ctx, portfolio.CreateInput{Title: "Locked"})
	require.NoError(t, err)
	locker.failOn = "project:" + p.ID
	_, err = svc.UploadMedia(ctx, p.ID, portfolio.Upload{Filename: "a.jpg", ContentType: "image/jpeg", Body: strings.NewReader("x")})
	assert.ErrorContains(t, err, "lock unavailable")
	assert.Zero(t, bucket.Len())
}

func TestService_ConcurrentUploadsKeepOrder(t *testing.T) {
	svc, _, bucket := newService(t, portfolio.WithLocker(&recordingLocker{}))
	ctx := context.Background()
	p, err := svc.Create(ctx, portfolio.CreateInput{Title: "Gallery"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.UploadMedia(ctx, p.ID, portfolio.Upload{Filename: "x.png", ContentType: "image/png", Body: bytes.NewReader(pngHeader)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Media, 10)
	for i, m := range got.Media {
		assert.Equal(t, i, m.DisplayOrder)
	}
	assert.Equal(t, 10, bucket.Len(), "every upload has its own object path")
}

func TestService_UploadMedia_SameMillisecond(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	svc, _, bucket := newService(t, portfolio.WithClock(func() time.Time { return fixed }))
	ctx := context.Background()
	p, err := svc.Create(ctx, portfolio.CreateInput{Title: "Burst"})
	require.NoError(t, err)

	a, err := svc.UploadMedia(ctx, p.ID, portfolio.Upload{Filename: "a.png", ContentType: "image/png", Body: strings.NewReader("AAAA")})
	require.NoError(t, err)
	b, err := svc.UploadMedia(ctx, p.ID, portfolio.Upload{Filename: "b.png", ContentType: "image/png", Body: strings.NewReader("BBBB")})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a.Path, p.ID+"/1700000000000-"), a.Path)
	assert.NotEqual(t, a.Path, b.Path)
	assert.Equal(t, 2, bucket.Len())

	require.NoError(t, svc.DeleteMedia(ctx, p.ID, b.ID))
	data, err := bucket.Read(a.Path)
	require.NoError(t, err)
	assert.Equal(t, "AAAA", string(data))
}

func TestService_DeleteMedia(t *testing.T) {
	svc, _, bucket := newService(t)
	ctx := context.Background()
	p, err := svc.Create(ctx, portfolio.CreateInput{Title: "Kitchen"})
	require.NoError(t, err)
	m, err := svc.UploadMedia(ctx, p.ID, portfolio.Upload{Filename: "a.jpg", ContentType: "image/jpeg", Body: strings.NewReader("x")})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteMedia(ctx, p.ID, m.ID))
	assert.Zero(t, bucket.Len())
	assert.ErrorIs(t, svc.DeleteMedia(ctx, p.ID, m.ID), domain.ErrMediaNotFound)
}

func TestService_Delete(t *testing.T) {
	rec := &opRecorder{}
	svc, store, bucket := newService(t, portfolio.WithRecorder(rec))
	ctx := context.Background()
	p, err := svc.Create(ctx, portfolio.CreateInput{Title: "Demolished"})
	require.NoError(t, err)
	for _, name := range []string{"a.jpg", "b.jpg", "c.mp4"} {
		ct := "image/jpeg"
		if strings.HasSuffix(name, ".mp4") {
			ct = "video/mp4"
		}
		_, err := svc.UploadMedia(ctx, p.ID, portfolio.Upload{Filename: name, ContentType: ct, Body: strings.NewReader(name)})
		require.NoError(t, err)
	}
	require.Equal(t, 3, bucket.Len())

	require.NoError(t, svc.Delete(ctx, p.ID))
	assert.Zero(t, bucket.Len())
	_, err = store.GetProject(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, p.ID), domain.ErrProjectNotFound)
	assert.Equal(t, 1, rec.ops["delete/ok"])
	assert.Equal(t, 1, rec.ops["delete/error"])
	assert.Equal(t, 3, rec.ops["upload/ok"])
}
