package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/gashu"
	"github.com/aretw0/gashu/internal/logging"
	"github.com/aretw0/gashu/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

// SessionsURI is the resource listing stored session ids.
const SessionsURI = "gashu://sessions"

// Engine defines the interface required by the MCP server to interact with gashu.
type Engine interface {
	HandleTurn(ctx context.Context, req gashu.TurnRequest) (gashu.Reply, error)
	Init(ctx context.Context, req gashu.TurnRequest) (gashu.Reply, error)
	Reset(ctx context.Context, userID string) error
	Session(ctx context.Context, userID string) (*domain.Session, error)
	List(ctx context.Context) ([]string, error)
}

// Server wraps the gashu Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance. A nil logger discards output.
func NewServer(engine Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("gashu-mcp", strings.TrimSpace(gashu.Version)),
		logger:    logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops it when
// ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func (s *Server) registerTools() {
	// TOOL: send_message
	sendTool := mcp.NewTool("send_message",
		mcp.WithDescription("Send one user utterance to the transit assistant and get its reply."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Conversation owner")),
		mcp.WithString("message", mcp.Required(), mcp.Description("User utterance")),
		mcp.WithNumber("lon", mcp.Description("Device longitude (optional)")),
		mcp.WithNumber("lat", mcp.Description("Device latitude (optional)")),
		mcp.WithOutputSchema[gashu.Reply](),
	)
	s.mcpServer.AddTool(sendTool, mcp.NewStructuredToolHandler(s.handleSendMessage))

	// TOOL: init_session
	initTool := mcp.NewTool("init_session",
		mcp.WithDescription("Start a fresh conversation, optionally with a first utterance."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Conversation owner")),
		mcp.WithString("message", mcp.Description("First utterance (optional)")),
		mcp.WithNumber("lon", mcp.Description("Device longitude (optional)")),
		mcp.WithNumber("lat", mcp.Description("Device latitude (optional)")),
		mcp.WithOutputSchema[gashu.Reply](),
	)
	s.mcpServer.AddTool(initTool, mcp.NewStructuredToolHandler(s.handleInit))

	// TOOL: get_session
	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get the stored dialogue slots of a user."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Conversation owner")),
	), s.handleGetSession)

	// TOOL: reset_session
	s.mcpServer.AddTool(mcp.NewTool("reset_session",
		mcp.WithDescription("Delete the stored session of a user."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Conversation owner")),
	), s.handleResetSession)
}

// Handler methods for structured tools

func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (gashu.Reply, error) {
	req, err := turnRequest(args)
	if err != nil {
		return gashu.Reply{}, err
	}
	reply, err := s.engine.HandleTurn(ctx, req)
	if err != nil {
		s.logger.Warn("MCP send_message failed", "err", err, "user_id", req.UserID)
		return gashu.Reply{}, fmt.Errorf("send_message failed: %w", err)
	}
	return reply, nil
}

func (s *Server) handleInit(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (gashu.Reply, error) {
	req, err := turnRequest(args)
	if err != nil {
		return gashu.Reply{}, err
	}
	reply, err := s.engine.Init(ctx, req)
	if err != nil {
		return gashu.Reply{}, fmt.Errorf("init_session failed: %w", err)
	}
	return reply, nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := stringArg(request.GetArguments(), "user_id")
	if userID == "" {
		return mcp.NewToolResultError("user_id is required"), nil
	}
	sess, err := s.engine.Session(ctx, userID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("no session for %q", userID)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(sess)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleResetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := stringArg(request.GetArguments(), "user_id")
	if userID == "" {
		return mcp.NewToolResultError("user_id is required"), nil
	}
	if err := s.engine.Reset(ctx, userID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reset failed: %v", err)), nil
	}
	return mcp.NewToolResultText("session reset"), nil
}

func (s *Server) registerResources() {
	// EXPOSE: gashu://sessions
	s.mcpServer.AddResource(mcp.NewResource(SessionsURI, "Stored Sessions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.engine.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		if ids == nil {
			ids = []string{}
		}
		jsonBytes, _ := json.Marshal(ids)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      SessionsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func turnRequest(args map[string]interface{}) (gashu.TurnRequest, error) {
	req := gashu.TurnRequest{
		UserID:  stringArg(args, "user_id"),
		Message: stringArg(args, "message"),
	}
	if req.UserID == "" {
		return req, errors.New("user_id is required")
	}
	lon, okLon := args["lon"].(float64)
	lat, okLat := args["lat"].(float64)
	if okLon && okLat {
		req.GPS = &domain.Coord{Lon: lon, Lat: lat}
	}
	return req, nil
}

func stringArg(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return v
}
