package ytserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

type stubCaptions struct {
	tracks []engine.CaptionTrack
	cues   []engine.Cue
	err    error
}

func (s *stubCaptions) ListTracks(ctx context.Context, videoID string) ([]engine.CaptionTrack, error) {
	return s.tracks, s.err
}

func (s *stubCaptions) FetchCues(ctx context.Context, track engine.CaptionTrack) ([]engine.Cue, error) {
	return s.cues, s.err
}

type stubMetadata struct {
	info *engine.VideoInfo
}

func (s *stubMetadata) Fetch(ctx context.Context, videoID string) (*engine.VideoInfo, error) {
	return s.info, nil
}

func newTestSession(t *testing.T, captions *stubCaptions, metadata *stubMetadata) *mcp.ClientSession {
	t.Helper()

	cache, err := engine.OpenCache(filepath.Join(t.TempDir(), "mcp.sqlite3"), engine.SchemaVersion)
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	cfg := engine.Config{
		CacheTTLDays: 14,
		AllowAuto:    true,
		TargetChars:  1000,
		OverlapChars: 100,

		RejectPrivateOrUnlisted: true,
	}
	server := NewServer(engine.NewService(cfg, captions, metadata, cache), "test")

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(context.Background(), serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0"}, nil)
	session, err := client.Connect(context.Background(), clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func happyStubs() (*stubCaptions, *stubMetadata) {
	captions := &stubCaptions{
		tracks: []engine.CaptionTrack{{Info: engine.CaptionTrackInfo{Lang: "en"}, BaseURL: "https://example.test/en"}},
		cues:   []engine.Cue{{Text: "hello world", Start: 0, Dur: 2}},
	}
	metadata := &stubMetadata{
		info: &engine.VideoInfo{ID: "abcdefghijk", URL: engine.WatchURL("abcdefghijk"), Title: "A Video"},
	}
	return captions, metadata
}

func TestToolRegistration(t *testing.T) {
	captions, metadata := happyStubs()
	session := newTestSession(t, captions, metadata)

	tools, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make(map[string]bool, len(tools.Tools))
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{
		"youtube.get_transcript",
		"youtube.search_captions",
		"youtube.get_metadata",
		"youtube.healthcheck",
	} {
		assert.True(t, names[want], "tool %s not registered", want)
	}
}

func TestGetTranscriptTool(t *testing.T) {
	captions, metadata := happyStubs()
	session := newTestSession(t, captions, metadata)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "youtube.get_transcript",
		Arguments: map[string]any{"url": "https://youtu.be/abcdefghijk"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	raw, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	var resp engine.TranscriptResponse
	require.NoError(t, json.Unmarshal(raw, &resp))

	assert.Equal(t, "A Video", resp.Video.Title)
	require.NotEmpty(t, resp.Segments)
	assert.Equal(t, "hello world", resp.Segments[0].Text)
	assert.NotEmpty(t, resp.Chunks)
	assert.NotEmpty(t, resp.Hash)
}

func TestToolDomainError(t *testing.T) {
	captions := &stubCaptions{err: engine.E(engine.CodeVideoUnavailable, "gone")}
	session := newTestSession(t, captions, &stubMetadata{})

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "youtube.get_transcript",
		Arguments: map[string]any{"url": "abcdefghijk"},
	})
	require.NoError(t, err, "domain failures are tool errors, not protocol errors")
	require.True(t, result.IsError)

	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)

	var derr engine.Error
	require.NoError(t, json.Unmarshal([]byte(text.Text), &derr))
	assert.Equal(t, engine.CodeVideoUnavailable, derr.Code)
	assert.Equal(t, "gone", derr.Message)
}

func TestHealthcheckTool(t *testing.T) {
	captions, metadata := happyStubs()
	session := newTestSession(t, captions, metadata)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "youtube.healthcheck",
		Arguments: map[string]any{},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	raw, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	var health engine.HealthResponse
	require.NoError(t, json.Unmarshal(raw, &health))
	assert.True(t, health.OK)
	assert.Equal(t, "test", health.Version)
}
