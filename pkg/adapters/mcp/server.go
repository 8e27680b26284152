package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/srag"
	"github.com/aretw0/srag/internal/presentation/graph"
	"github.com/aretw0/srag/pkg/domain"
	"github.com/aretw0/srag/pkg/runner"
)

// GraphURI is the resource exposing the node graph.
const GraphURI = "srag://graph"

// Agent is the part of srag.Agent exposed as MCP tools.
type Agent interface {
	Run(ctx context.Context, initial domain.State) (*srag.Result, error)
	RunFrom(ctx context.Context, entry string, initial domain.State) (*srag.Result, error)
}

// AskArgs are the arguments of the ask tool.
type AskArgs struct {
	Question string `json:"question"`
}

// Answer is the structured output of every tool.
type Answer struct {
	RequestID string   `json:"request_id" jsonschema_description:"Correlation id of the run"`
	Answer    string   `json:"answer" jsonschema_description:"Final answer shown to the user"`
	Path      []string `json:"path" jsonschema_description:"Nodes executed, in order"`
}

// Server exposes an Agent as an MCP server.
type Server struct {
	agent        Agent
	logger       *slog.Logger
	maxInputSize int
	mcpServer    *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithMaxInputSize bounds the question accepted by the ask tool.
// Zero or less keeps runner.DefaultMaxInputSize.
func WithMaxInputSize(n int) Option {
	return func(s *Server) { s.maxInputSize = n }
}

// NewServer creates a new MCP Server instance.
func NewServer(agent Agent, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		agent:     agent,
		logger:    logger,
		mcpServer: server.NewMCPServer("srag-mcp", strings.TrimSpace(srag.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over SSE on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

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
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	askTool := mcp.NewTool("ask",
		mcp.WithDescription("Answer a question about SRAG surveillance: case counts, concepts or recent news."),
		mcp.WithString("question", mcp.Required(), mcp.Description("Question in natural language")),
		mcp.WithOutputSchema[Answer](),
	)
	s.mcpServer.AddTool(askTool, mcp.NewStructuredToolHandler(s.handleAsk))

	summaryTool := mcp.NewTool("executive_summary",
		mcp.WithDescription("Produce the executive summary combining recent metrics and news."),
		mcp.WithOutputSchema[Answer](),
	)
	s.mcpServer.AddTool(summaryTool, mcp.NewStructuredToolHandler(s.handleSummary))
}

func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest, args AskArgs) (Answer, error) {
	clean, err := runner.SanitizeInputLimit(args.Question, s.maxInputSize)
	if err != nil {
		s.logger.Warn("mcp ask: input rejected", "error", err, "size", len(args.Question))
		return Answer{}, fmt.Errorf("input rejected: %w", err)
	}

	res, err := s.agent.Run(ctx, domain.NewState(clean))
	if err != nil {
		return Answer{}, fmt.Errorf("ask failed: %w", err)
	}
	return toAnswer(res), nil
}

func (s *Server) handleSummary(ctx context.Context, request mcp.CallToolRequest, args struct{}) (Answer, error) {
	res, err := s.agent.RunFrom(ctx, domain.NodeSummary, domain.State{})
	if err != nil {
		return Answer{}, fmt.Errorf("summary failed: %w", err)
	}
	return toAnswer(res), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "SRAG node graph",
		mcp.WithResourceDescription("Mermaid flowchart of the routing machine"),
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GraphURI,
				MIMEType: "text/plain",
				Text:     graph.GenerateMermaid(nil),
			},
		}, nil
	})
}

func toAnswer(res *srag.Result) Answer {
	return Answer{RequestID: res.RequestID, Answer: res.Answer, Path: res.Path}
}
