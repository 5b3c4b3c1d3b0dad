package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/msquare/pkg/adapters/memory"
	"github.com/aretw0/msquare/pkg/domain"
	"github.com/aretw0/msquare/pkg/portfolio"
)

type recordingContact struct {
	forms []domain.ContactForm
}

func (r *recordingContact) Submit(ctx context.Context, form domain.ContactForm) error {
	if err := form.Validate(); err != nil {
		return err
	}
	r.forms = append(r.forms, form)
	return nil
}

func newTestServer(t *testing.T) (*Server, *portfolio.Service, *recordingContact) {
	t.Helper()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	svc := portfolio.NewService(memory.NewStore(), memory.NewBucket("/media"), portfolio.WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}))
	c := &recordingContact{}
	return NewServer(svc, c, "test"), svc, c
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func TestListProjects(t *testing.T) {
	s, svc, _ := newTestServer(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, portfolio.CreateInput{Title: "Old", Category: "construction"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, portfolio.CreateInput{Title: "New", Category: "renovation"})
	require.NoError(t, err)

	all, err := s.handleListProjects(ctx, callRequest(nil), map[string]interface{}{})
	require.NoError(t, err)
	require.Equal(t, 2, all.Count)
	assert.Equal(t, "New", all.Projects[0].Title)

	filtered, err := s.handleListProjects(ctx, callRequest(nil), map[string]interface{}{"category": "construction"})
	require.NoError(t, err)
	require.Equal(t, 1, filtered.Count)
	assert.Equal(t, "Old", filtered.Projects[0].Title)
}

func TestGetProject(t *testing.T) {
	s, svc, _ := newTestServer(t)
	ctx := context.Background()
	p, err := svc.Create(ctx, portfolio.CreateInput{Title: "Villa"})
	require.NoError(t, err)

	res, err := s.handleGetProject(ctx, callRequest(map[string]any{"id": p.ID}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	var got domain.Project
	require.NoError(t, json.Unmarshal([]byte(text.Text), &got))
	assert.Equal(t, "Villa", got.Title)

	res, err = s.handleGetProject(ctx, callRequest(map[string]any{"id": "missing"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleGetProject(ctx, callRequest(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestSubmitContact(t *testing.T) {
	s, _, c := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleSubmitContact(ctx, callRequest(nil), map[string]interface{}{
		"name": "Jane", "email": "jane@example.com", "message": "Quote please",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.Len(t, c.forms, 1)

	res, err = s.handleSubmitContact(ctx, callRequest(nil), map[string]interface{}{
		"name": "Jane", "email": "not-an-address", "message": "Quote please",
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "invalid email")
}

func TestReadProjectsResource(t *testing.T) {
	s, svc, _ := newTestServer(t)
	ctx := context.Background()

	contents, err := s.readProjects(ctx, mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text := contents[0].(mcp.TextResourceContents)
	assert.Equal(t, ProjectsURI, text.URI)
	assert.JSONEq(t, "[]", text.Text)

	_, err = svc.Create(ctx, portfolio.CreateInput{Title: "Villa"})
	require.NoError(t, err)
	contents, err = s.readProjects(ctx, mcp.ReadResourceRequest{})
	require.NoError(t, err)
	assert.Contains(t, contents[0].(mcp.TextResourceContents).Text, `"title":"Villa"`)
}
