package services

import "strings"

// TrackSummary is the flattened track record returned to tool callers.
type TrackSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Artist     string `json:"artist"`
	Album      string `json:"album,omitempty"`
	DurationMS int    `json:"duration_ms,omitempty"`
	ISRC       string `json:"isrc,omitempty"`
	URI        string `json:"uri,omitempty"`
	IsPlaying  *bool  `json:"is_playing,omitempty"`
}

// AlbumSummary is the flattened album record returned to tool callers.
type AlbumSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Artist      string `json:"artist"`
	ReleaseDate string `json:"release_date,omitempty"`
	TotalTracks int    `json:"total_tracks,omitempty"`
	URI         string `json:"uri,omitempty"`
}

// ArtistSummary is the flattened artist record returned to tool callers.
type ArtistSummary struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Genres    []string `json:"genres,omitempty"`
	Followers int      `json:"followers,omitempty"`
	URI       string   `json:"uri,omitempty"`
}

// PlaylistSummary is the flattened playlist record returned to tool callers.
type PlaylistSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Owner       string `json:"owner,omitempty"`
	TrackCount  int    `json:"track_count"`
	Public      bool   `json:"public"`
	URI         string `json:"uri,omitempty"`
}

// SearchResults groups flattened records by item type. Only requested types
// are populated.
type SearchResults struct {
	Tracks    []TrackSummary    `json:"tracks,omitempty"`
	Albums    []AlbumSummary    `json:"albums,omitempty"`
	Artists   []ArtistSummary   `json:"artists,omitempty"`
	Playlists []PlaylistSummary `json:"playlists,omitempty"`
}

// QueueDump is the playback queue with the currently playing track resolved.
type QueueDump struct {
	CurrentlyPlaying *TrackSummary  `json:"currently_playing"`
	Queue            []TrackSummary `json:"queue"`
}

func parseTrack(t *SpotifyTrack) TrackSummary {
	summary := TrackSummary{
		ID:         t.ID,
		Name:       t.Name,
		Album:      t.Album.Name,
		DurationMS: t.DurationMS,
		ISRC:       t.ExternalIDs.ISRC,
		URI:        t.URI,
	}

	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	summary.Artist = strings.Join(names, ", ")

	return summary
}

func parseTracks(items []SpotifyPlaylistTrack) []TrackSummary {
	tracks := make([]TrackSummary, 0, len(items))
	for _, item := range items {
		// Local files and removed tracks come back with a null track object.
		if item.Track == nil {
			continue
		}
		tracks = append(tracks, parseTrack(item.Track))
	}
	return tracks
}

func parseAlbum(a *SpotifyAlbum) AlbumSummary {
	summary := AlbumSummary{
		ID:          a.ID,
		Name:        a.Name,
		ReleaseDate: a.ReleaseDate,
		TotalTracks: a.TotalTracks,
		URI:         a.URI,
	}
	if len(a.Artists) > 0 {
		summary.Artist = a.Artists[0].Name
	}
	return summary
}

func parseArtist(a *SpotifyArtist) ArtistSummary {
	return ArtistSummary{
		ID:        a.ID,
		Name:      a.Name,
		Genres:    a.Genres,
		Followers: a.Followers.Total,
		URI:       a.URI,
	}
}

func parsePlaylist(p *SpotifySimplePlaylist) PlaylistSummary {
	return PlaylistSummary{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Owner:       p.Owner.DisplayName,
		TrackCount:  p.Tracks.Total,
		Public:      p.Public,
		URI:         p.URI,
	}
}
