package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/msquare/pkg/contact"
	"github.com/aretw0/msquare/pkg/domain"
)

// ProjectsURI is the resource listing every published project.
const ProjectsURI = "msquare://projects"

// Portfolio is the read side of the portfolio service.
type Portfolio interface {
	List(ctx context.Context, category string) ([]domain.Project, error)
	Get(ctx context.Context, id string) (domain.Project, error)
}

// Contact is the contact form use case.
type Contact interface {
	Submit(ctx context.Context, form domain.ContactForm) error
}

// ProjectList is the structured result of list_projects.
type ProjectList struct {
	Projects []domain.Project `json:"projects" jsonschema_description:"Projects, newest first"`
	Count    int              `json:"count" jsonschema_description:"Number of projects returned"`
}

// ContactResult is the structured result of submit_contact.
type ContactResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty" jsonschema_description:"Why the form was rejected"`
}

// Server exposes the portfolio and the contact form as MCP tools.
type Server struct {
	portfolio Portfolio
	contact   Contact
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a new MCP Server instance. contactSvc may be nil, in which case submit_contact is not offered.
func NewServer(portfolioSvc Portfolio, contactSvc Contact, version string, opts ...Option) *Server {
	s := &Server{
		portfolio: portfolioSvc,
		contact:   contactSvc,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		mcpServer: server.NewMCPServer("msquare-mcp", version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server, mainly for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop MCP server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_projects",
		mcp.WithDescription("List portfolio projects, newest first, optionally filtered by category."),
		mcp.WithString("category",
			mcp.Description("construction, reconstruction, renovation or all"),
			mcp.Enum("all", "construction", "reconstruction", "renovation"),
		),
		mcp.WithOutputSchema[ProjectList](),
	), mcp.NewStructuredToolHandler(s.handleListProjects))

	s.mcpServer.AddTool(mcp.NewTool("get_project",
		mcp.WithDescription("Get one project with its ordered media."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Project ID")),
	), s.handleGetProject)

	if s.contact == nil {
		return
	}
	s.mcpServer.AddTool(mcp.NewTool("submit_contact",
		mcp.WithDescription("Send an enquiry to the studio through the contact form."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Sender name")),
		mcp.WithString("email", mcp.Required(), mcp.Description("Reply address")),
		mcp.WithString("phone", mcp.Description("Optional phone number")),
		mcp.WithString("message", mcp.Required(), mcp.Description("Enquiry text")),
		mcp.WithOutputSchema[ContactResult](),
	), mcp.NewStructuredToolHandler(s.handleSubmitContact))
}

func (s *Server) handleListProjects(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ProjectList, error) {
	category, _ := args["category"].(string)
	projects, err := s.portfolio.List(ctx, category)
	if err != nil {
		return ProjectList{}, fmt.Errorf("list failed: %w", err)
	}
	if projects == nil {
		projects = []domain.Project{}
	}
	return ProjectList{Projects: projects, Count: len(projects)}, nil
}

func (s *Server) handleGetProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.portfolio.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(p)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// handleSubmitContact reports rejected forms in the result so the model can correct them.
func (s *Server) handleSubmitContact(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ContactResult, error) {
	var form domain.ContactForm
	form.Name, _ = args["name"].(string)
	form.Email, _ = args["email"].(string)
	form.Phone, _ = args["phone"].(string)
	form.Message, _ = args["message"].(string)

	if err := s.contact.Submit(ctx, form); err != nil {
		if contact.IsValidation(err) {
			return ContactResult{Success: false, Error: err.Error()}, nil
		}
		s.logger.Error("MCP submit_contact failed", "err", err)
		return ContactResult{}, err
	}
	return ContactResult{Success: true}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ProjectsURI, "Portfolio Projects",
		mcp.WithResourceDescription("Every project with its media, newest first"),
		mcp.WithMIMEType("application/json"),
	), s.readProjects)
}

func (s *Server) readProjects(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	projects, err := s.portfolio.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	if projects == nil {
		projects = []domain.Project{}
	}
	jsonBytes, _ := json.Marshal(projects)
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ProjectsURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
