// Package mcpserver exposes transcript analysis and reader settings as MCP
// tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/jwulff/wpm/internal/db"
	"github.com/jwulff/wpm/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
)

// Server holds the tool handlers and their dependencies.
type Server struct {
	store *db.Store
	log   logrus.FieldLogger
}

// New returns a server backed by store.
func New(store *db.Store, log logrus.FieldLogger) *Server {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Server{store: store, log: log.WithField("component", "mcp")}
}

// MCPServer builds the mcp-go server with every tool registered.
func (s *Server) MCPServer(version string) *server.MCPServer {
	srv := server.NewMCPServer("wpm", version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	srv.AddTool(mcp.NewTool("analyze_transcript",
		mcp.WithDescription("Count the words and unique words in a transcript. "+
			"Words are separated by single spaces and compared case-insensitively. "+
			"Pass seconds to also get words per minute."),
		mcp.WithString("transcript", mcp.Required(), mcp.Description("Transcript text")),
		mcp.WithNumber("seconds", mcp.Description("How long the reading took, in seconds")),
	), s.handleAnalyze)

	srv.AddTool(mcp.NewTool("get_settings",
		mcp.WithDescription("Return the saved timer length and colors."),
	), s.handleGetSettings)

	srv.AddTool(mcp.NewTool("set_duration",
		mcp.WithDescription("Set the reading timer length in whole seconds (1-60)."),
		mcp.WithNumber("seconds", mcp.Required(), mcp.Description("Timer length in seconds")),
	), s.handleSetDuration)

	srv.AddTool(mcp.NewTool("reset_settings",
		mcp.WithDescription("Restore the default 60 second timer and colors."),
	), s.handleResetSettings)

	return srv
}

// ServeStdio runs the server on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio(version string) error {
	s.log.Info("serving MCP on stdio")
	return server.ServeStdio(s.MCPServer(version))
}

type analysis struct {
	Words          int     `json:"words"`
	UniqueWords    int     `json:"unique_words"`
	Seconds        float64 `json:"seconds,omitempty"`
	WordsPerMinute float64 `json:"words_per_minute,omitempty"`
}

func (s *Server) handleAnalyze(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("transcript")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	seconds := req.GetFloat("seconds", 0)
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return mcp.NewToolResultError("seconds must be a positive number"), nil
	}

	counts := session.Analyze(text)
	out := analysis{Words: counts.WordCount, UniqueWords: counts.UniqueWordCount}
	if seconds > 0 {
		r := session.Result{Counts: counts, Elapsed: time.Duration(seconds * float64(time.Second))}
		out.Seconds = seconds
		out.WordsPerMinute = math.Round(r.WordsPerMinute()*100) / 100
	}
	return jsonResult(out)
}

type settingsView struct {
	TimerSeconds        int    `json:"timer_seconds"`
	RingColor           string `json:"ring_color"`
	RingCardColor       string `json:"ring_card_color"`
	TranscriptCardColor string `json:"transcript_card_color"`
	UpdatedAt           string `json:"updated_at,omitempty"`
}

func viewOf(st db.Settings) settingsView {
	v := settingsView{
		TimerSeconds:        int(st.TimerLength / time.Second),
		RingColor:           st.RingColor,
		RingCardColor:       st.RingCardColor,
		TranscriptCardColor: st.TranscriptCardColor,
	}
	if !st.UpdatedAt.IsZero() {
		v.UpdatedAt = st.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return v
}

func (s *Server) handleGetSettings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.store.Settings(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load settings: %v", err)), nil
	}
	return jsonResult(viewOf(st))
}

func (s *Server) handleSetDuration(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	seconds, err := req.RequireFloat("seconds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d := time.Duration(seconds * float64(time.Second))
	if seconds != math.Trunc(seconds) || d < session.MinDuration || d > session.MaxDuration {
		return mcp.NewToolResultError(fmt.Sprintf("seconds must be a whole number between %d and %d",
			int(session.MinDuration/time.Second), int(session.MaxDuration/time.Second))), nil
	}

	st, err := s.store.Settings(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load settings: %v", err)), nil
	}
	st.TimerLength = d
	saved, err := s.store.SaveSettings(ctx, st)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("save settings: %v", err)), nil
	}
	s.log.WithField("duration", d).Info("timer length updated")
	return jsonResult(viewOf(saved))
}

func (s *Server) handleResetSettings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.store.ResetSettings(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reset settings: %v", err)), nil
	}
	s.log.Info("settings reset")
	return jsonResult(viewOf(st))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
