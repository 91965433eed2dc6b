package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sptx/internal/auth"
	"github.com/desertthunder/sptx/internal/shared"
)

const spotifyBaseURL = "https://api.spotify.com/v1"

// SpotifyClient wraps the Spotify Web API. Every request obtains a bearer
// token from the [auth.Manager], which refreshes transparently.
type SpotifyClient struct {
	auth       *auth.Manager
	httpClient *http.Client
	logger     *log.Logger
	baseURL    string

	maxRetries int
	backoff    shared.BackoffFunc
}

// NewSpotifyClient creates a client backed by the given token manager.
func NewSpotifyClient(manager *auth.Manager, client *http.Client, logger *log.Logger) *SpotifyClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &SpotifyClient{
		auth:       manager,
		httpClient: client,
		logger:     logger,
		baseURL:    spotifyBaseURL,
		maxRetries: pageMaxAttempts,
		backoff:    shared.ExponentialBackoff(time.Second),
	}
}

func (s *SpotifyClient) Name() string {
	return "Spotify"
}

// doRequest performs an authenticated request against the Spotify API and
// decodes the JSON response into result when provided. A 204 leaves result
// untouched.
func (s *SpotifyClient) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	token, err := s.auth.GetValidToken(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		return shared.ErrNotAuthenticated
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, string(respBody))
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyClient) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentTrack returns the currently playing track, or nil when nothing is
// playing or the playing item is not a track.
func (s *SpotifyClient) CurrentTrack(ctx context.Context) (*TrackSummary, error) {
	var current spotifyCurrentlyPlaying
	if err := s.doRequest(ctx, http.MethodGet, "/me/player/currently-playing", nil, &current); err != nil {
		return nil, err
	}

	if current.Item == nil || (current.CurrentlyPlayingType != "" && current.CurrentlyPlayingType != "track") {
		return nil, nil
	}

	track := parseTrack(current.Item)
	playing := current.IsPlaying
	track.IsPlaying = &playing
	return &track, nil
}

// StartPlayback starts playing the given URI, or resumes current playback
// when the URI is empty. Track URIs are queued directly; album, artist, and
// playlist URIs become the playback context.
func (s *SpotifyClient) StartPlayback(ctx context.Context, spotifyURI, deviceID string) error {
	body := map[string]any{}
	if spotifyURI != "" {
		if strings.HasPrefix(spotifyURI, "spotify:track:") {
			body["uris"] = []string{spotifyURI}
		} else {
			body["context_uri"] = spotifyURI
		}
	}

	endpoint := "/me/player/play"
	if deviceID != "" {
		endpoint += "?device_id=" + url.QueryEscape(deviceID)
	}

	return s.doRequest(ctx, http.MethodPut, endpoint, body, nil)
}

// PausePlayback pauses playback when a session is active.
func (s *SpotifyClient) PausePlayback(ctx context.Context, deviceID string) error {
	endpoint := "/me/player/pause"
	if deviceID != "" {
		endpoint += "?device_id=" + url.QueryEscape(deviceID)
	}
	return s.doRequest(ctx, http.MethodPut, endpoint, nil, nil)
}

// SkipTrack advances playback by n tracks.
func (s *SpotifyClient) SkipTrack(ctx context.Context, n int) error {
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		if err := s.doRequest(ctx, http.MethodPost, "/me/player/next", nil, nil); err != nil {
			return err
		}
	}
	return nil
}

// PreviousTrack returns playback to the previous track.
func (s *SpotifyClient) PreviousTrack(ctx context.Context) error {
	return s.doRequest(ctx, http.MethodPost, "/me/player/previous", nil, nil)
}

// SeekToPosition seeks within the current track.
func (s *SpotifyClient) SeekToPosition(ctx context.Context, positionMS int) error {
	endpoint := fmt.Sprintf("/me/player/seek?position_ms=%d", positionMS)
	return s.doRequest(ctx, http.MethodPut, endpoint, nil, nil)
}

// SetVolume sets the playback volume percentage.
func (s *SpotifyClient) SetVolume(ctx context.Context, volumePercent int) error {
	if volumePercent < 0 || volumePercent > 100 {
		return fmt.Errorf("%w: volume_percent must be 0-100", shared.ErrInvalidArgument)
	}
	endpoint := fmt.Sprintf("/me/player/volume?volume_percent=%d", volumePercent)
	return s.doRequest(ctx, http.MethodPut, endpoint, nil, nil)
}

// AddToQueue appends a track to the playback queue.
func (s *SpotifyClient) AddToQueue(ctx context.Context, trackID, deviceID string) error {
	if trackID == "" {
		return fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}

	endpoint := "/me/player/queue?uri=" + url.QueryEscape(ensureTrackURI(trackID))
	if deviceID != "" {
		endpoint += "&device_id=" + url.QueryEscape(deviceID)
	}

	return s.doRequest(ctx, http.MethodPost, endpoint, nil, nil)
}

// Queue returns the playback queue with the currently playing track.
func (s *SpotifyClient) Queue(ctx context.Context) (*QueueDump, error) {
	var raw spotifyQueue
	if err := s.doRequest(ctx, http.MethodGet, "/me/player/queue", nil, &raw); err != nil {
		return nil, err
	}

	dump := &QueueDump{Queue: make([]TrackSummary, 0, len(raw.Queue))}
	if raw.CurrentlyPlaying != nil {
		current := parseTrack(raw.CurrentlyPlaying)
		dump.CurrentlyPlaying = &current
	}
	for i := range raw.Queue {
		dump.Queue = append(dump.Queue, parseTrack(&raw.Queue[i]))
	}

	return dump, nil
}

// Devices lists the user's available playback devices.
func (s *SpotifyClient) Devices(ctx context.Context) ([]SpotifyDevice, error) {
	var response struct {
		Devices []SpotifyDevice `json:"devices"`
	}
	if err := s.doRequest(ctx, http.MethodGet, "/me/player/devices", nil, &response); err != nil {
		return nil, err
	}
	return response.Devices, nil
}

// Search queries the catalog. qtype is one or more of track, album, artist,
// playlist, comma separated.
func (s *SpotifyClient) Search(ctx context.Context, query, qtype string, limit int) (*SearchResults, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}
	if qtype == "" {
		qtype = "track"
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/search?q=%s&type=%s&limit=%d",
		url.QueryEscape(query), url.QueryEscape(qtype), limit)

	var raw spotifySearchResponse
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &raw); err != nil {
		return nil, err
	}

	results := &SearchResults{}
	if raw.Tracks != nil {
		for i := range raw.Tracks.Items {
			results.Tracks = append(results.Tracks, parseTrack(&raw.Tracks.Items[i]))
		}
	}
	if raw.Albums != nil {
		for i := range raw.Albums.Items {
			results.Albums = append(results.Albums, parseAlbum(&raw.Albums.Items[i]))
		}
	}
	if raw.Artists != nil {
		for i := range raw.Artists.Items {
			results.Artists = append(results.Artists, parseArtist(&raw.Artists.Items[i]))
		}
	}
	if raw.Playlists != nil {
		for i := range raw.Playlists.Items {
			results.Playlists = append(results.Playlists, parsePlaylist(&raw.Playlists.Items[i]))
		}
	}

	return results, nil
}

// ItemInfo returns details for a spotify:{track,album,artist,playlist}:id URI.
// Artists include their top tracks; playlists include their first page of
// tracks.
func (s *SpotifyClient) ItemInfo(ctx context.Context, itemURI string) (any, error) {
	parts := strings.Split(itemURI, ":")
	if len(parts) != 3 || parts[0] != "spotify" {
		return nil, fmt.Errorf("%w: expected spotify:<type>:<id>, got %q", shared.ErrInvalidArgument, itemURI)
	}

	qtype, id := parts[1], parts[2]
	switch qtype {
	case "track":
		var track SpotifyTrack
		if err := s.doRequest(ctx, http.MethodGet, "/tracks/"+id, nil, &track); err != nil {
			return nil, err
		}
		return parseTrack(&track), nil

	case "album":
		var album SpotifyAlbum
		if err := s.doRequest(ctx, http.MethodGet, "/albums/"+id, nil, &album); err != nil {
			return nil, err
		}
		return parseAlbum(&album), nil

	case "artist":
		var artist SpotifyArtist
		if err := s.doRequest(ctx, http.MethodGet, "/artists/"+id, nil, &artist); err != nil {
			return nil, err
		}

		info := struct {
			ArtistSummary
			TopTracks []TrackSummary `json:"top_tracks,omitempty"`
		}{ArtistSummary: parseArtist(&artist)}

		var top struct {
			Tracks []SpotifyTrack `json:"tracks"`
		}
		if err := s.doRequest(ctx, http.MethodGet, "/artists/"+id+"/top-tracks", nil, &top); err == nil {
			for i := range top.Tracks {
				info.TopTracks = append(info.TopTracks, parseTrack(&top.Tracks[i]))
			}
		}
		return info, nil

	case "playlist":
		var playlist SpotifyPlaylist
		if err := s.doRequest(ctx, http.MethodGet, "/playlists/"+id, nil, &playlist); err != nil {
			return nil, err
		}

		info := struct {
			PlaylistSummary
			Tracks []TrackSummary `json:"tracks"`
		}{
			PlaylistSummary: PlaylistSummary{
				ID:          playlist.ID,
				Name:        playlist.Name,
				Description: playlist.Description,
				Owner:       playlist.Owner.DisplayName,
				TrackCount:  playlist.Tracks.Total,
				Public:      playlist.Public,
				URI:         playlist.URI,
			},
			Tracks: parseTracks(playlist.Tracks.Items),
		}
		return info, nil
	}

	return nil, fmt.Errorf("%w: unknown item type %q", shared.ErrInvalidArgument, qtype)
}

// CurrentUserPlaylists retrieves one page of the user's playlists.
func (s *SpotifyClient) CurrentUserPlaylists(ctx context.Context, limit, offset int) ([]PlaylistSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)

	var response SpotifyPaginatedPlaylists
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	playlists := make([]PlaylistSummary, 0, len(response.Items))
	for i := range response.Items {
		playlists = append(playlists, parsePlaylist(&response.Items[i]))
	}

	return playlists, nil
}

// PlaylistTracks retrieves one page of a playlist's tracks.
func (s *SpotifyClient) PlaylistTracks(ctx context.Context, playlistID string, limit, offset int) ([]TrackSummary, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	page, err := s.playlistTracksPage(ctx, playlistID, limit, offset)
	if err != nil {
		return nil, err
	}

	return parseTracks(page.Items), nil
}

func (s *SpotifyClient) playlistTracksPage(ctx context.Context, playlistID string, limit, offset int) (*SpotifyPaginatedPlaylistTracks, error) {
	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", playlistID, limit, offset)

	var page SpotifyPaginatedPlaylistTracks
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
		return nil, err
	}

	return &page, nil
}

// AddTracksToPlaylist appends tracks to a playlist, optionally at a position.
func (s *SpotifyClient) AddTracksToPlaylist(ctx context.Context, playlistID string, trackIDs []string, position *int) error {
	if playlistID == "" {
		return fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	if len(trackIDs) == 0 {
		return fmt.Errorf("%w: track ids", shared.ErrMissingArgument)
	}

	body := map[string]any{"uris": trackURIs(trackIDs)}
	if position != nil {
		body["position"] = *position
	}

	return s.doRequest(ctx, http.MethodPost, "/playlists/"+playlistID+"/tracks", body, nil)
}

// RemoveTracksFromPlaylist removes all occurrences of the given tracks.
func (s *SpotifyClient) RemoveTracksFromPlaylist(ctx context.Context, playlistID string, trackIDs []string) error {
	if playlistID == "" {
		return fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	if len(trackIDs) == 0 {
		return fmt.Errorf("%w: track ids", shared.ErrMissingArgument)
	}

	tracks := make([]map[string]string, 0, len(trackIDs))
	for _, uri := range trackURIs(trackIDs) {
		tracks = append(tracks, map[string]string{"uri": uri})
	}

	return s.doRequest(ctx, http.MethodDelete, "/playlists/"+playlistID+"/tracks", map[string]any{"tracks": tracks}, nil)
}

// ChangePlaylistDetails updates a playlist's name and/or description.
func (s *SpotifyClient) ChangePlaylistDetails(ctx context.Context, playlistID, name, description string) error {
	if playlistID == "" {
		return fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	if name == "" && description == "" {
		return fmt.Errorf("%w: at least one of name or description", shared.ErrMissingArgument)
	}

	body := map[string]any{}
	if name != "" {
		body["name"] = name
	}
	if description != "" {
		body["description"] = description
	}

	return s.doRequest(ctx, http.MethodPut, "/playlists/"+playlistID, body, nil)
}

func ensureTrackURI(id string) string {
	if strings.HasPrefix(id, "spotify:") {
		return id
	}
	return "spotify:track:" + id
}

func trackURIs(ids []string) []string {
	uris := make([]string, 0, len(ids))
	for _, id := range ids {
		uris = append(uris, ensureTrackURI(id))
	}
	return uris
}
