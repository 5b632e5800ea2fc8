package mcp

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/mpdspl/mpdspl/internal/database"
	"github.com/mpdspl/mpdspl/internal/keyword"
	"github.com/mpdspl/mpdspl/internal/library"
	"github.com/mpdspl/mpdspl/internal/playlist"
	"github.com/mpdspl/mpdspl/internal/rule"
	"github.com/mpdspl/mpdspl/internal/usecase"
)

// Server wraps the MCP server with playlist query tools
type Server struct {
	server *mcp.Server
	dbCtx  *database.Context
	logger zerolog.Logger

	load     func(ctx context.Context) (*library.Database, error)
	mu       sync.Mutex
	snapshot *library.Database
}

// Options configures where the server reads the library and registry from.
type Options struct {
	Library      usecase.LoadInput
	RegistryPath string
	Version      string
	Logger       zerolog.Logger
}

// NewServer creates a new MCP server instance. The library is loaded on the
// first query and reused afterwards.
func NewServer(opts Options) (*Server, error) {
	dbCtx, err := database.CreateDatabase(opts.RegistryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	libraryUC := usecase.NewLibrary(opts.Logger)
	s := newServer(dbCtx, opts.Version, opts.Logger, func(ctx context.Context) (*library.Database, error) {
		res, err := libraryUC.Load(ctx, opts.Library)
		if err != nil {
			return nil, err
		}
		return res.Database, nil
	})
	return s, nil
}

func newServer(dbCtx *database.Context, version string, logger zerolog.Logger, load func(context.Context) (*library.Database, error)) *Server {
	if version == "" {
		version = "dev"
	}
	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "mpdspl",
		Version: version,
	}, nil)

	s := &Server{
		server: mcpServer,
		dbCtx:  dbCtx,
		logger: logger,
		load:   load,
	}

	s.registerTools()

	return s
}

// Run starts the MCP server with stdio transport
func (s *Server) Run(ctx context.Context) error {
	defer func() {
		_ = database.CloseDatabase(s.dbCtx)
	}()
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "mpdspl_query",
		Description: "List the files of the music library matching a smart playlist ruleset, in playlist order",
	}, s.handleQuery)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "mpdspl_keywords",
		Description: "List the track attributes a ruleset can refer to",
	}, s.handleKeywords)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "mpdspl_playlists",
		Description: "List the saved smart playlists",
	}, s.handlePlaylists)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "mpdspl_validate",
		Description: "Check a ruleset and show how each rule was understood",
	}, s.handleValidate)
}

type QueryInput struct {
	Ruleset string `json:"ruleset" jsonschema:"Comma separated rules such as ar=/(Fred|George)/i,ra>=#4#"`
	Limit   *int   `json:"limit,omitempty" jsonschema:"Maximum number of files to return"`
}

type QueryOutput struct {
	Count int      `json:"count"`
	Files []string `json:"files"`
}

type KeywordsInput struct{}

type KeywordsOutput struct {
	Keywords []KeywordEntry `json:"keywords"`
}

type KeywordEntry struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type PlaylistsInput struct{}

type PlaylistsOutput struct {
	Playlists []PlaylistEntry `json:"playlists"`
}

type PlaylistEntry struct {
	Name        string `json:"name"`
	Ruleset     string `json:"ruleset"`
	Tracks      int64  `json:"tracks"`
	ListPath    string `json:"listPath,omitempty"`
	EvaluatedAt string `json:"evaluatedAt,omitempty"`
}

type ValidateInput struct {
	Ruleset string `json:"ruleset" jsonschema:"The ruleset to check"`
}

type ValidateOutput struct {
	Valid bool        `json:"valid"`
	Error string      `json:"error,omitempty"`
	Rules []RuleEntry `json:"rules,omitempty"`
}

type RuleEntry struct {
	Text      string `json:"text"`
	Rule      string `json:"rule"`
	Attribute string `json:"attribute"`
	Operator  string `json:"operator"`
	Kind      string `json:"kind"`
	Value     string `json:"value"`
	Operand   string `json:"operand"`
	Since     string `json:"since,omitempty"`
	Flags     string `json:"flags,omitempty"`
	Negate    bool   `json:"negate,omitempty"`
}

func (s *Server) libraryDB(ctx context.Context) (*library.Database, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot != nil {
		return s.snapshot, nil
	}
	db, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.snapshot = db
	return db, nil
}

func (s *Server) handleQuery(ctx context.Context, req *mcp.CallToolRequest, input QueryInput) (*mcp.CallToolResult, QueryOutput, error) {
	rs, err := rule.ParseRuleset(input.Ruleset)
	if err != nil {
		return nil, QueryOutput{}, err
	}

	db, err := s.libraryDB(ctx)
	if err != nil {
		return nil, QueryOutput{}, fmt.Errorf("failed to load library: %w", err)
	}

	tracks := playlist.Evaluate(rs, db)
	out := QueryOutput{Count: len(tracks), Files: make([]string, 0, len(tracks))}
	if input.Limit != nil && *input.Limit >= 0 && *input.Limit < len(tracks) {
		tracks = tracks[:*input.Limit]
	}
	for _, t := range tracks {
		out.Files = append(out.Files, t.File())
	}
	s.logger.Debug().Str("ruleset", input.Ruleset).Int("matches", out.Count).Msg("query")
	return nil, out, nil
}

func (s *Server) handleKeywords(ctx context.Context, req *mcp.CallToolRequest, input KeywordsInput) (*mcp.CallToolResult, KeywordsOutput, error) {
	all := keyword.All()
	out := KeywordsOutput{Keywords: make([]KeywordEntry, len(all))}
	for i, kw := range all {
		out.Keywords[i] = KeywordEntry{Code: kw.Code, Name: kw.Canonical, Description: kw.Description}
	}
	return nil, out, nil
}

func (s *Server) handlePlaylists(ctx context.Context, req *mcp.CallToolRequest, input PlaylistsInput) (*mcp.CallToolResult, PlaylistsOutput, error) {
	records, err := usecase.NewPlaylists(s.dbCtx, s.logger).List(ctx)
	if err != nil {
		return nil, PlaylistsOutput{}, fmt.Errorf("failed to list playlists: %w", err)
	}

	out := PlaylistsOutput{Playlists: make([]PlaylistEntry, len(records))}
	for i, rec := range records {
		entry := PlaylistEntry{
			Name:     rec.Name,
			Ruleset:  rec.Ruleset,
			Tracks:   rec.TrackCount,
			ListPath: rec.ListPath,
		}
		if rec.Evaluated() {
			entry.EvaluatedAt = rec.EvaluatedAt.Format(time.RFC3339)
		}
		out.Playlists[i] = entry
	}
	return nil, out, nil
}

func (s *Server) handleValidate(ctx context.Context, req *mcp.CallToolRequest, input ValidateInput) (*mcp.CallToolResult, ValidateOutput, error) {
	rs, err := rule.ParseRuleset(input.Ruleset)
	if err != nil {
		return nil, ValidateOutput{Valid: false, Error: err.Error()}, nil
	}

	out := ValidateOutput{Valid: true, Rules: make([]RuleEntry, len(rs))}
	for i, r := range rs {
		entry := RuleEntry{
			Text:      r.Text(),
			Rule:      r.String(),
			Attribute: r.Key(),
			Operator:  r.Op().String(),
			Kind:      r.Kind().String(),
			Value:     r.Value(),
			Flags:     r.Flags(),
			Negate:    r.Negate(),
		}
		switch r.Kind() {
		case rule.KindNumber:
			entry.Operand = strconv.FormatFloat(r.Number(), 'g', -1, 64)
		case rule.KindTimeDelta:
			entry.Operand = r.Delta().String()
			entry.Since = r.Now().Add(-r.Delta()).UTC().Format(time.RFC3339)
		case rule.KindTimeStamp:
			entry.Operand = r.Date().Format(time.DateOnly)
		default:
			entry.Operand = r.Value()
		}
		out.Rules[i] = entry
	}
	return nil, out, nil
}
