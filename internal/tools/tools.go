package tools

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		&mcp.Tool{
			Name:        "playback",
			Description: "Manage the current playback: get the current track, start or resume playing a Spotify URI, pause, or skip tracks.",
			InputSchema: playbackInputSchema,
		},
		s.wrapPlayback,
	)

	s.mcpServer.AddTool(
		&mcp.Tool{
			Name:        "search",
			Description: "Search the Spotify catalog for tracks, albums, artists, or playlists.",
			InputSchema: searchInputSchema,
		},
		s.wrapSearch,
	)

	s.mcpServer.AddTool(
		&mcp.Tool{
			Name:        "queue",
			Description: "Get the playback queue or add a track to it.",
			InputSchema: queueInputSchema,
		},
		s.wrapQueue,
	)

	s.mcpServer.AddTool(
		&mcp.Tool{
			Name:        "get_info",
			Description: "Get detailed information about a track, album, artist, or playlist by its Spotify URI. Artists include top tracks; playlists include their tracks.",
			InputSchema: getInfoInputSchema,
		},
		s.wrapGetInfo,
	)

	s.mcpServer.AddTool(
		&mcp.Tool{
			Name:        "playlist",
			Description: "Manage playlists: list the user's playlists, fetch tracks (one page or all with pagination), add or remove tracks, or change name and description.",
			InputSchema: playlistInputSchema,
		},
		s.wrapPlaylist,
	)

	s.mcpServer.AddTool(
		&mcp.Tool{
			Name:        "authentication",
			Description: "Check whether the Spotify account is authenticated and the client credentials are configured.",
			InputSchema: authenticationInputSchema,
		},
		s.wrapAuthentication,
	)

	s.mcpServer.AddTool(
		&mcp.Tool{
			Name:        "enhanced_search",
			Description: "Search Spotify and enrich the top results with Last.fm and MusicBrainz metadata (tags, play counts, recording details). External lookups are capped per call.",
			InputSchema: enhancedSearchInputSchema,
		},
		s.wrapEnhancedSearch,
	)

	s.mcpServer.AddTool(
		&mcp.Tool{
			Name:        "similar_artists",
			Description: "Find artists similar to a given artist using Last.fm, ordered by match score. Requires a Last.fm API key.",
			InputSchema: similarArtistsInputSchema,
		},
		s.wrapSimilarArtists,
	)
}

// Wrapper handlers that parse JSON manually and call the typed handlers.

func (s *Server) wrapPlayback(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input PlaybackInput
	if err := json.Unmarshal(req.Params.Arguments, &input); err != nil {
		return nil, err
	}

	output, err := s.handlePlayback(ctx, input)
	if err != nil {
		return errorResult(err), nil
	}
	return toCallToolResult(output)
}

func (s *Server) wrapSearch(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input SearchInput
	if err := json.Unmarshal(req.Params.Arguments, &input); err != nil {
		return nil, err
	}

	output, err := s.handleSearch(ctx, input)
	if err != nil {
		return errorResult(err), nil
	}
	return toCallToolResult(output)
}

func (s *Server) wrapQueue(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input QueueInput
	if err := json.Unmarshal(req.Params.Arguments, &input); err != nil {
		return nil, err
	}

	output, err := s.handleQueue(ctx, input)
	if err != nil {
		return errorResult(err), nil
	}
	return toCallToolResult(output)
}

func (s *Server) wrapGetInfo(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input GetInfoInput
	if err := json.Unmarshal(req.Params.Arguments, &input); err != nil {
		return nil, err
	}

	output, err := s.handleGetInfo(ctx, input)
	if err != nil {
		return errorResult(err), nil
	}
	return toCallToolResult(output)
}

func (s *Server) wrapPlaylist(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input PlaylistInput
	if err := json.Unmarshal(req.Params.Arguments, &input); err != nil {
		return nil, err
	}

	output, err := s.handlePlaylist(ctx, input)
	if err != nil {
		return errorResult(err), nil
	}
	return toCallToolResult(output)
}

func (s *Server) wrapAuthentication(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input AuthenticationInput
	if err := json.Unmarshal(req.Params.Arguments, &input); err != nil {
		return nil, err
	}

	output, err := s.handleAuthentication(ctx, input)
	if err != nil {
		return errorResult(err), nil
	}
	return toCallToolResult(output)
}

func (s *Server) wrapEnhancedSearch(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input EnhancedSearchInput
	if err := json.Unmarshal(req.Params.Arguments, &input); err != nil {
		return nil, err
	}

	output, err := s.handleEnhancedSearch(ctx, input)
	if err != nil {
		return errorResult(err), nil
	}
	return toCallToolResult(output)
}

func (s *Server) wrapSimilarArtists(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input SimilarArtistsInput
	if err := json.Unmarshal(req.Params.Arguments, &input); err != nil {
		return nil, err
	}

	output, err := s.handleSimilarArtists(ctx, input)
	if err != nil {
		return errorResult(err), nil
	}
	return toCallToolResult(output)
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}

// toCallToolResult converts any output to a CallToolResult with JSON text content.
func toCallToolResult(output any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(output)
	if err != nil {
		return errorResult(err), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil
}
