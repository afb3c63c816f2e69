package mcpserver

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jwulff/wpm/internal/db"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *db.Store) {
	t.Helper()
	store, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return New(store, nil), store
}

func callReq(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	tc, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok, "expected text content")
	return tc.Text
}

func TestAnalyzeTranscript(t *testing.T) {
	s, _ := newTestServer(t)

	res, err := s.handleAnalyze(context.Background(), callReq("analyze_transcript", map[string]any{
		"transcript": "The cat saw the dog",
		"seconds":    30.0,
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var got analysis
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &got))
	assert.Equal(t, 5, got.Words)
	assert.Equal(t, 4, got.UniqueWords)
	assert.Equal(t, 30.0, got.Seconds)
	assert.Equal(t, 10.0, got.WordsPerMinute)
}

func TestAnalyzeWithoutSeconds(t *testing.T) {
	s, _ := newTestServer(t)

	res, err := s.handleAnalyze(context.Background(), callReq("analyze_transcript", map[string]any{
		"transcript": "",
	}))
	require.NoError(t, err)
	text := resultText(t, res)
	assert.JSONEq(t, `{"words":0,"unique_words":0}`, text)
}

func TestAnalyzeRequiresTranscript(t *testing.T) {
	s, _ := newTestServer(t)

	res, err := s.handleAnalyze(context.Background(), callReq("analyze_transcript", nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestAnalyzeRejectsNegativeSeconds(t *testing.T) {
	s, _ := newTestServer(t)

	res, err := s.handleAnalyze(context.Background(), callReq("analyze_transcript", map[string]any{
		"transcript": "a b",
		"seconds":    -1.0,
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestGetSettingsDefaults(t *testing.T) {
	s, _ := newTestServer(t)

	res, err := s.handleGetSettings(context.Background(), callReq("get_settings", nil))
	require.NoError(t, err)

	var got settingsView
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &got))
	assert.Equal(t, 60, got.TimerSeconds)
	assert.Equal(t, "blue", got.RingColor)
	assert.Equal(t, "green", got.RingCardColor)
	assert.Equal(t, "blue", got.TranscriptCardColor)
}

func TestSetDuration(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleSetDuration(ctx, callReq("set_duration", map[string]any{"seconds": 25.0}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	st, err := store.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 25*time.Second, st.TimerLength)
	assert.Equal(t, "blue", st.RingColor, "colors are kept")
}

func TestSetDurationRejectsInvalid(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()

	for _, v := range []any{0.0, 61.0, 2.5, "ten"} {
		res, err := s.handleSetDuration(ctx, callReq("set_duration", map[string]any{"seconds": v}))
		require.NoError(t, err)
		assert.True(t, res.IsError, "seconds=%v", v)
	}

	st, err := store.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, st.TimerLength)
}

func TestResetSettings(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleSetDuration(ctx, callReq("set_duration", map[string]any{"seconds": 10.0}))
	require.NoError(t, err)

	res, err := s.handleResetSettings(ctx, callReq("reset_settings", nil))
	require.NoError(t, err)
	require.False(t, res.IsError)

	st, err := store.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, st.TimerLength)
}

func TestToolsListed(t *testing.T) {
	s, _ := newTestServer(t)
	srv := s.MCPServer("test")

	msg := srv.HandleMessage(context.Background(), json.RawMessage(
		`{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`))
	data, err := json.Marshal(msg)
	require.NoError(t, err)

	for _, name := range []string{"analyze_transcript", "get_settings", "set_duration", "reset_settings"} {
		assert.Contains(t, string(data), name)
	}
}
