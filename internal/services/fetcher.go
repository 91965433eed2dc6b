package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/sptx/internal/shared"
)

const (
	pageSize        = 100
	pageMaxAttempts = 3
)

// PlaylistTracksDump is the complete contents of a playlist, fetched page by
// page. Warning is set when some pages could not be retrieved.
type PlaylistTracksDump struct {
	PlaylistID  string         `json:"playlist_id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Owner       string         `json:"owner,omitempty"`
	TotalTracks int            `json:"total_tracks"`
	Tracks      []TrackSummary `json:"tracks"`
	Warning     string         `json:"warning,omitempty"`
}

// AllPlaylistTracks fetches every track in a playlist, paging through the API
// in batches of 100. Each page is retried with exponential backoff; when a
// page still fails the accumulated tracks are returned with a warning rather
// than an error.
func (s *SpotifyClient) AllPlaylistTracks(ctx context.Context, playlistID string) (*PlaylistTracksDump, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	var meta struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Owner       Owner  `json:"owner"`
		Tracks      struct {
			Total int `json:"total"`
		} `json:"tracks"`
	}
	endpoint := "/playlists/" + playlistID + "?fields=name,description,owner,tracks.total"
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &meta); err != nil {
		return nil, err
	}

	dump := &PlaylistTracksDump{
		PlaylistID:  playlistID,
		Name:        meta.Name,
		Description: meta.Description,
		Owner:       meta.Owner.DisplayName,
		TotalTracks: meta.Tracks.Total,
		Tracks:      []TrackSummary{},
	}

	if meta.Tracks.Total == 0 {
		return dump, nil
	}

	for offset := 0; offset < meta.Tracks.Total; offset += pageSize {
		var page *SpotifyPaginatedPlaylistTracks
		err := shared.WithRetry(ctx, s.maxRetries, s.backoff, func() error {
			var pageErr error
			page, pageErr = s.playlistTracksPage(ctx, playlistID, pageSize, offset)
			return pageErr
		})
		if err != nil {
			s.logger.Warn("giving up on playlist page", "playlist", playlistID, "offset", offset, "error", err)
			dump.Warning = fmt.Sprintf("only fetched %d of %d tracks due to API errors",
				len(dump.Tracks), meta.Tracks.Total)
			return dump, nil
		}

		// An empty page before the reported total means the playlist shrank
		// mid-fetch. Stop with what we have, no warning: nothing failed.
		if len(page.Items) == 0 {
			break
		}

		dump.Tracks = append(dump.Tracks, parseTracks(page.Items)...)
	}

	return dump, nil
}

// withBackoff overrides page retry pacing, used to keep tests fast.
func (s *SpotifyClient) withBackoff(backoff shared.BackoffFunc) *SpotifyClient {
	s.backoff = backoff
	return s
}
