// Package ytserver exposes the transcript service as MCP tools over stdio.
package ytserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// TranscriptInput is the argument shape for youtube.get_transcript.
type TranscriptInput struct {
	URL        string `json:"url" jsonschema:"video URL or 11-character video ID"`
	Lang       string `json:"lang,omitempty" jsonschema:"preferred caption language (BCP-47, e.g. en or pt-BR)"`
	PreferAuto bool   `json:"prefer_auto,omitempty" jsonschema:"prefer the auto-generated track over manual ones"`
}

// TracksInput is the argument shape for youtube.search_captions.
type TracksInput struct {
	URL string `json:"url" jsonschema:"video URL or 11-character video ID"`
}

// MetadataInput is the argument shape for youtube.get_metadata.
type MetadataInput struct {
	URL string `json:"url" jsonschema:"video URL or 11-character video ID"`
}

// HealthInput is the (empty) argument shape for youtube.healthcheck.
type HealthInput struct{}

// NewServer builds an MCP server with all transcript tools registered.
func NewServer(svc *engine.Service, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_transcript",
		Version: version,
	}, nil)
	RegisterTools(server, svc, version)
	return server
}

// RegisterTools wires the transcript service into an MCP server. Every tool
// is read-only; domain failures come back as tool errors carrying the
// {code, message, details} payload so callers can branch on the code.
func RegisterTools(server *mcp.Server, svc *engine.Service, version string) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "youtube.get_transcript",
		Description: "Fetch a YouTube video transcript as timed segments and overlapping chunks with citation URLs.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input TranscriptInput) (*mcp.CallToolResult, *engine.TranscriptResponse, error) {
		resp, err := svc.GetTranscript(ctx, input.URL, input.Lang, input.PreferAuto)
		if err != nil {
			return errorResult(err), nil, nil
		}
		return nil, resp, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "youtube.search_captions",
		Description: "List the caption tracks available for a YouTube video, manual tracks first.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input TracksInput) (*mcp.CallToolResult, *engine.TracksResponse, error) {
		tracks, err := svc.ListTracks(ctx, input.URL)
		if err != nil {
			return errorResult(err), nil, nil
		}
		return nil, &engine.TracksResponse{Tracks: tracks}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "youtube.get_metadata",
		Description: "Fetch title and channel for a YouTube video without downloading the transcript.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input MetadataInput) (*mcp.CallToolResult, *engine.VideoInfo, error) {
		resp, err := svc.GetMetadata(ctx, input.URL)
		if err != nil {
			return errorResult(err), nil, nil
		}
		return nil, resp, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "youtube.healthcheck",
		Description: "Report server liveness and version.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input HealthInput) (*mcp.CallToolResult, *engine.HealthResponse, error) {
		return nil, &engine.HealthResponse{OK: true, Version: version}, nil
	})
}

// ServeStdio runs the MCP server over stdin/stdout until the context is
// canceled or the client disconnects.
func ServeStdio(ctx context.Context, svc *engine.Service, version string) error {
	server := NewServer(svc, version)
	slog.Info("mcp server starting", slog.String("version", version))
	err := server.Run(ctx, &mcp.StdioTransport{})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// errorResult renders a domain error as a tool error so the code survives
// the protocol boundary.
func errorResult(err error) *mcp.CallToolResult {
	derr := engine.Normalize(err)
	payload, merr := json.Marshal(derr)
	if merr != nil {
		payload = []byte(`{"code":"NetworkError","message":"internal error"}`)
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
	}
}
