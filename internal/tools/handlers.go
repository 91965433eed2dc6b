package tools

import (
	"context"
	"fmt"

	"github.com/desertthunder/sptx/internal/metadata"
	"github.com/desertthunder/sptx/internal/services"
	"github.com/desertthunder/sptx/internal/shared"
)

// PlaybackInput is the input for the playback tool.
type PlaybackInput struct {
	Action     string `json:"action"`
	SpotifyURI string `json:"spotify_uri,omitempty"`
	NumSkips   int    `json:"num_skips,omitempty"`
}

// SearchInput is the input for the search tool.
type SearchInput struct {
	Query string `json:"query"`
	Qtype string `json:"qtype,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// QueueInput is the input for the queue tool.
type QueueInput struct {
	Action  string `json:"action"`
	TrackID string `json:"track_id,omitempty"`
}

// GetInfoInput is the input for the get_info tool.
type GetInfoInput struct {
	ItemURI string `json:"item_uri"`
}

// PlaylistInput is the input for the playlist tool.
type PlaylistInput struct {
	Action      string   `json:"action"`
	PlaylistID  string   `json:"playlist_id,omitempty"`
	TrackIDs    []string `json:"track_ids,omitempty"`
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Limit       int      `json:"limit,omitempty"`
	Offset      int      `json:"offset,omitempty"`
	Position    *int     `json:"position,omitempty"`
}

// AuthenticationInput is the input for the authentication tool.
type AuthenticationInput struct {
	Action string `json:"action,omitempty"`
}

// EnhancedSearchInput is the input for the enhanced_search tool.
type EnhancedSearchInput struct {
	Query string `json:"query"`
	Qtype string `json:"qtype,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// SimilarArtistsInput is the input for the similar_artists tool.
type SimilarArtistsInput struct {
	Artist string `json:"artist"`
	Limit  int    `json:"limit,omitempty"`
}

// statusOutput is the generic acknowledgement payload for write operations.
type statusOutput struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func okStatus(format string, args ...any) statusOutput {
	return statusOutput{Status: "success", Message: fmt.Sprintf(format, args...)}
}

func (s *Server) handlePlayback(ctx context.Context, input PlaybackInput) (any, error) {
	switch input.Action {
	case "get":
		track, err := s.spotify.CurrentTrack(ctx)
		if err != nil {
			return nil, err
		}
		if track == nil {
			return statusOutput{Status: "success", Message: "no track playing"}, nil
		}
		return track, nil

	case "start":
		if err := s.spotify.StartPlayback(ctx, input.SpotifyURI, ""); err != nil {
			return nil, err
		}
		return okStatus("playback starting"), nil

	case "pause":
		if err := s.spotify.PausePlayback(ctx, ""); err != nil {
			return nil, err
		}
		return okStatus("playback paused"), nil

	case "skip":
		n := input.NumSkips
		if n < 1 {
			n = 1
		}
		if err := s.spotify.SkipTrack(ctx, n); err != nil {
			return nil, err
		}
		return okStatus("skipped %d track(s)", n), nil
	}

	return nil, fmt.Errorf("%w: unknown playback action %q", shared.ErrInvalidInput, input.Action)
}

func (s *Server) handleSearch(ctx context.Context, input SearchInput) (any, error) {
	return s.spotify.Search(ctx, input.Query, input.Qtype, input.Limit)
}

func (s *Server) handleQueue(ctx context.Context, input QueueInput) (any, error) {
	switch input.Action {
	case "get":
		return s.spotify.Queue(ctx)

	case "add":
		if input.TrackID == "" {
			return nil, fmt.Errorf("%w: track_id is required for add", shared.ErrInvalidInput)
		}
		if err := s.spotify.AddToQueue(ctx, input.TrackID, ""); err != nil {
			return nil, err
		}
		return okStatus("track added to queue"), nil
	}

	return nil, fmt.Errorf("%w: unknown queue action %q", shared.ErrInvalidInput, input.Action)
}

func (s *Server) handleGetInfo(ctx context.Context, input GetInfoInput) (any, error) {
	if input.ItemURI == "" {
		return nil, fmt.Errorf("%w: item_uri is required", shared.ErrInvalidInput)
	}
	return s.spotify.ItemInfo(ctx, input.ItemURI)
}

func (s *Server) handlePlaylist(ctx context.Context, input PlaylistInput) (any, error) {
	switch input.Action {
	case "get":
		return s.spotify.CurrentUserPlaylists(ctx, input.Limit, input.Offset)

	case "get_tracks":
		if input.PlaylistID == "" {
			return nil, fmt.Errorf("%w: playlist_id is required for get_tracks", shared.ErrInvalidInput)
		}
		return s.spotify.PlaylistTracks(ctx, input.PlaylistID, input.Limit, input.Offset)

	case "get_all_tracks":
		if input.PlaylistID == "" {
			return nil, fmt.Errorf("%w: playlist_id is required for get_all_tracks", shared.ErrInvalidInput)
		}
		return s.spotify.AllPlaylistTracks(ctx, input.PlaylistID)

	case "add_tracks":
		if err := s.spotify.AddTracksToPlaylist(ctx, input.PlaylistID, input.TrackIDs, input.Position); err != nil {
			return nil, err
		}
		return okStatus("added %d track(s)", len(input.TrackIDs)), nil

	case "remove_tracks":
		if err := s.spotify.RemoveTracksFromPlaylist(ctx, input.PlaylistID, input.TrackIDs); err != nil {
			return nil, err
		}
		return okStatus("removed %d track(s)", len(input.TrackIDs)), nil

	case "change_details":
		if err := s.spotify.ChangePlaylistDetails(ctx, input.PlaylistID, input.Name, input.Description); err != nil {
			return nil, err
		}
		return okStatus("playlist details updated"), nil
	}

	return nil, fmt.Errorf("%w: unknown playlist action %q", shared.ErrInvalidInput, input.Action)
}

// AuthenticationOutput reports the state of the Spotify connection.
type AuthenticationOutput struct {
	Authenticated    bool   `json:"authenticated"`
	ClientConfigured bool   `json:"client_configured"`
	RedirectURI      string `json:"redirect_uri,omitempty"`
	LastFMConfigured bool   `json:"lastfm_configured"`
	Message          string `json:"message"`
}

func (s *Server) handleAuthentication(ctx context.Context, input AuthenticationInput) (any, error) {
	if input.Action != "" && input.Action != "check_auth" {
		return nil, fmt.Errorf("%w: unknown authentication action %q", shared.ErrInvalidInput, input.Action)
	}

	output := AuthenticationOutput{
		Authenticated:    s.auth.IsAuthenticated(ctx),
		ClientConfigured: s.auth.IsConfigured(),
		RedirectURI:      s.auth.RedirectURI(),
		LastFMConfigured: s.metadata.HasLastFM(),
	}

	switch {
	case output.Authenticated:
		output.Message = "authenticated with Spotify"
	case output.ClientConfigured:
		output.Message = "client configured but not logged in; run `sptx auth login`"
	default:
		output.Message = "Spotify client credentials are not configured; run `sptx setup`"
	}

	return output, nil
}

// EnhancedSearchOutput is Spotify search results plus external metadata for
// the top hits.
type EnhancedSearchOutput struct {
	Results        *services.SearchResults      `json:"results"`
	TrackMetadata  []*metadata.TrackEnrichment  `json:"track_metadata,omitempty"`
	ArtistMetadata []*metadata.ArtistEnrichment `json:"artist_metadata,omitempty"`
}

func (s *Server) handleEnhancedSearch(ctx context.Context, input EnhancedSearchInput) (any, error) {
	results, err := s.spotify.Search(ctx, input.Query, input.Qtype, input.Limit)
	if err != nil {
		return nil, err
	}

	output := &EnhancedSearchOutput{Results: results}

	budget := s.externalCallLimit
	for i := range results.Tracks {
		if budget <= 0 {
			break
		}
		track := results.Tracks[i]
		output.TrackMetadata = append(output.TrackMetadata, s.metadata.EnhancedTrackInfo(ctx, track.Artist, track.Name))
		budget--
	}
	for i := range results.Artists {
		if budget <= 0 {
			break
		}
		output.ArtistMetadata = append(output.ArtistMetadata, s.metadata.EnhancedArtistInfo(ctx, results.Artists[i].Name))
		budget--
	}

	return output, nil
}

func (s *Server) handleSimilarArtists(ctx context.Context, input SimilarArtistsInput) (any, error) {
	if input.Artist == "" {
		return nil, fmt.Errorf("%w: artist is required", shared.ErrInvalidInput)
	}

	artists := s.metadata.SimilarArtists(ctx, input.Artist, input.Limit)
	if artists == nil {
		artists = []metadata.SimilarArtist{}
	}

	output := map[string]any{"artist": input.Artist, "similar": artists}
	if !s.metadata.HasLastFM() {
		output["message"] = "similar artists require a Last.fm API key; set credentials.lastfm.api_key in config.toml"
	}

	return output, nil
}
