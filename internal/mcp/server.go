package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/bookmarks/internal/catalog"
	"github.com/Aman-CERP/bookmarks/internal/config"
	bmerrors "github.com/Aman-CERP/bookmarks/internal/errors"
	"github.com/Aman-CERP/bookmarks/internal/ingest"
	"github.com/Aman-CERP/bookmarks/internal/record"
	"github.com/Aman-CERP/bookmarks/pkg/version"
)

// ServerName is reported to MCP clients.
const ServerName = "bookmarks"

// Searcher is the read side of the catalog.
type Searcher interface {
	Search(ctx context.Context, q string, page int) (*catalog.SearchResult, error)
	ListTags(ctx context.Context) ([]string, error)
	Lookup(ctx context.Context, id string) (*record.Record, error)
}

// Importer writes records.
type Importer interface {
	Import(ctx context.Context, recs []record.Record) (int, error)
}

// Builder turns submitted fields into a record.
type Builder interface {
	BuildFromFields(ctx context.Context, fields map[string][]string) (*ingest.Result, error)
}

// Server is the MCP server for the bookmark catalog.
// It lets AI clients search, browse and (when writes are allowed) add bookmarks.
type Server struct {
	mcp      *mcp.Server
	searcher Searcher
	importer Importer
	builder  Builder
	config   *config.Config
	logger   *slog.Logger

	mu sync.RWMutex
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

var tools = []ToolInfo{
	{
		Name:        "search_bookmarks",
		Description: "Full-text search over bookmarked pages. Supports query-string syntax: +must, -exclude, \"phrases\", and field queries such as tag:go or domain:example.com. Returns one page of results with domain and tag tallies and a highlighted excerpt of the matching page text.",
	},
	{
		Name:        "list_tags",
		Description: "List every tag used by any bookmark, sorted.",
	},
	{
		Name:        "get_bookmark",
		Description: "Look up one bookmark by its url (the first url of a collection).",
	},
	{
		Name:        "add_bookmark",
		Description: "Add or replace a bookmark. Page text is fetched from the urls unless content is given. Only available when the server allows writes.",
	},
}

// NewServer creates a new MCP server. importer and builder may be nil when
// writes are disabled.
func NewServer(searcher Searcher, importer Importer, builder Builder, cfg *config.Config) (*Server, error) {
	if searcher == nil {
		return nil, errors.New("searcher is required")
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if cfg.Server.AllowWrites && (importer == nil || builder == nil) {
		return nil, errors.New("importer and builder are required when writes are allowed")
	}

	s := &Server{
		searcher: searcher,
		importer: importer,
		builder:  builder,
		config:   cfg,
		logger:   slog.Default(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: version.Version,
		},
		nil, // capabilities are inferred from registered tools/resources
	)

	s.registerTools()
	s.registerResources()

	return s, nil
}

// SetLogger replaces the server's logger.
func (s *Server) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return ServerName, version.Version
}

// Capabilities returns whether tools and resources are enabled.
func (s *Server) Capabilities() (hasTools, hasResources bool) {
	return true, true
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	out := make([]ToolInfo, len(tools))
	copy(out, tools)
	return out
}

// CallTool invokes a tool by name with JSON-shaped arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "search_bookmarks":
		var in SearchInput
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		_, out, err := s.mcpSearchHandler(ctx, nil, in)
		return out, err
	case "list_tags":
		_, out, err := s.mcpListTagsHandler(ctx, nil, ListTagsInput{})
		return out, err
	case "get_bookmark":
		var in GetBookmarkInput
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		_, out, err := s.mcpGetBookmarkHandler(ctx, nil, in)
		return out, err
	case "add_bookmark":
		var in AddBookmarkInput
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		_, out, err := s.mcpAddBookmarkHandler(ctx, nil, in)
		return out, err
	default:
		return nil, NewMethodNotFoundError(name)
	}
}

// decodeArgs converts loosely typed arguments into a tool input.
func decodeArgs(args map[string]any, into any) error {
	if args == nil {
		return nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return NewInvalidParamsError(err.Error())
	}
	if err := json.Unmarshal(data, into); err != nil {
		return NewInvalidParamsError(fmt.Sprintf("invalid arguments: %v", err))
	}
	return nil
}

// registerTools registers all MCP tools with the SDK server.
func (s *Server) registerTools() {
	s.log().Debug("registering_tools")

	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[0].Name, Description: tools[0].Description}, s.mcpSearchHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[1].Name, Description: tools[1].Description}, s.mcpListTagsHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[2].Name, Description: tools[2].Description}, s.mcpGetBookmarkHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[3].Name, Description: tools[3].Description}, s.mcpAddBookmarkHandler)

	s.log().Info("tools_registered", slog.Int("count", len(tools)))
}

// mcpSearchHandler is the MCP SDK handler for the search_bookmarks tool.
func (s *Server) mcpSearchHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (
	*mcp.CallToolResult,
	SearchOutput,
	error,
) {
	page := input.Page
	if page == 0 {
		page = 1
	}
	if page < 0 {
		return nil, SearchOutput{}, NewInvalidParamsError("page must be 1 or greater")
	}

	start := time.Now()
	requestID := generateRequestID()
	logger := s.log().With(slog.String("request_id", requestID))
	logger.Info("search_started",
		slog.String("query", input.Query),
		slog.Int("page", page))

	res, err := s.searcher.Search(ctx, strings.TrimSpace(input.Query), page)
	if err != nil {
		logger.Error("search_failed",
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()))
		return nil, SearchOutput{}, MapError(err)
	}

	logger.Info("search_completed",
		slog.Duration("duration", time.Since(start)),
		slog.Int("total", res.Total))

	return nil, ToSearchOutput(input.Query, res, s.config.Search.PageSize), nil
}

// mcpListTagsHandler is the MCP SDK handler for the list_tags tool.
func (s *Server) mcpListTagsHandler(ctx context.Context, _ *mcp.CallToolRequest, _ ListTagsInput) (
	*mcp.CallToolResult,
	ListTagsOutput,
	error,
) {
	tags, err := s.searcher.ListTags(ctx)
	if err != nil {
		return nil, ListTagsOutput{}, MapError(err)
	}
	if tags == nil {
		tags = []string{}
	}
	return nil, ListTagsOutput{Tags: tags}, nil
}

// mcpGetBookmarkHandler is the MCP SDK handler for the get_bookmark tool.
func (s *Server) mcpGetBookmarkHandler(ctx context.Context, _ *mcp.CallToolRequest, input GetBookmarkInput) (
	*mcp.CallToolResult,
	BookmarkOutput,
	error,
) {
	url := strings.TrimSpace(input.URL)
	if url == "" {
		return nil, BookmarkOutput{}, NewInvalidParamsError("url parameter is required")
	}

	rec, err := s.searcher.Lookup(ctx, url)
	if err != nil {
		return nil, BookmarkOutput{}, MapError(err)
	}
	if rec == nil {
		return nil, BookmarkOutput{}, MapError(ErrBookmarkNotFound)
	}
	return nil, ToBookmarkOutput(*rec, ""), nil
}

// mcpAddBookmarkHandler is the MCP SDK handler for the add_bookmark tool.
func (s *Server) mcpAddBookmarkHandler(ctx context.Context, _ *mcp.CallToolRequest, input AddBookmarkInput) (
	*mcp.CallToolResult,
	AddBookmarkOutput,
	error,
) {
	if !s.config.Server.AllowWrites {
		return nil, AddBookmarkOutput{}, MapError(
			bmerrors.New(bmerrors.ErrCodeWritesBlocked, "Adding bookmarks is disabled", nil).
				WithSuggestion("Set server.allow_writes to true"))
	}

	if timeout := s.config.Ingest.FetchTimeout; timeout > 0 {
		// Fetches are bounded per page; leave room for the write itself.
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 2*timeout)
		defer cancel()
	}

	built, err := s.builder.BuildFromFields(ctx, input.fields())
	if err != nil {
		return nil, AddBookmarkOutput{}, MapError(err)
	}

	if _, err := s.importer.Import(ctx, []record.Record{built.Record}); err != nil {
		s.log().Error("add_bookmark_failed",
			slog.String("id", built.Record.ID()),
			slog.String("error", err.Error()))
		return nil, AddBookmarkOutput{}, MapError(err)
	}

	s.log().Info("bookmark_added",
		slog.String("id", built.Record.ID()),
		slog.Bool("fetched", built.Fetched),
		slog.Int("fetch_failures", built.FetchFailures))

	return nil, AddBookmarkOutput{
		Bookmark:      ToBookmarkOutput(built.Record, ""),
		Fetched:       built.Fetched,
		FetchFailures: built.FetchFailures,
	}, nil
}

// Serve starts the server with the specified transport.
func (s *Server) Serve(ctx context.Context, transport string) error {
	logger := s.log()
	logger.Info("mcp_server_starting", slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("mcp_server_stopped", slog.String("error", err.Error()))
		} else {
			logger.Info("mcp_server_stopped")
		}
		return err
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

func (s *Server) log() *slog.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logger
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
