// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Followers   followers      `json:"followers"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type externalIDs struct {
	ISRC string `json:"isrc"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	Album       SpotifyAlbum    `json:"album"`
	DurationMS  int             `json:"duration_ms"`
	Explicit    bool            `json:"explicit"`
	ExternalIDs externalIDs     `json:"external_ids"`
	Popularity  int             `json:"popularity"`
	URI         string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Genres    []string       `json:"genres"`
	Followers followers      `json:"followers"`
	Images    []SpotifyImage `json:"images"`
	URI       string         `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	TotalTracks int             `json:"total_tracks"`
	Images      []SpotifyImage  `json:"images"`
	URI         string          `json:"uri"`
}

// Owner identifies the user that owns a playlist.
type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type playlistTracks struct {
	Total int                    `json:"total"`
	Items []SpotifyPlaylistTrack `json:"items"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Owner       Owner          `json:"owner"`
	Public      bool           `json:"public"`
	Tracks      playlistTracks `json:"tracks"`
	Images      []SpotifyImage `json:"images"`
	URI         string         `json:"uri"`
}

// SpotifyPlaylistTrack represents a track within a playlist context.
type SpotifyPlaylistTrack struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifyPaginatedPlaylistTracks represents one page of a playlist's tracks.
type SpotifyPaginatedPlaylistTracks struct {
	Items    []SpotifyPlaylistTrack `json:"items"`
	Total    int                    `json:"total"`
	Limit    int                    `json:"limit"`
	Offset   int                    `json:"offset"`
	Next     *string                `json:"next"`
	Previous *string                `json:"previous"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items    []SpotifySimplePlaylist `json:"items"`
	Total    int                     `json:"total"`
	Limit    int                     `json:"limit"`
	Offset   int                     `json:"offset"`
	Next     *string                 `json:"next"`
	Previous *string                 `json:"previous"`
}

type simplePlaylistTracks struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Owner       Owner                `json:"owner"`
	Public      bool                 `json:"public"`
	Tracks      simplePlaylistTracks `json:"tracks"`
	Images      []SpotifyImage       `json:"images"`
	URI         string               `json:"uri"`
}

// SpotifyDevice represents a Spotify Connect playback device.
type SpotifyDevice struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	IsActive      bool   `json:"is_active"`
	VolumePercent int    `json:"volume_percent"`
}

// spotifyCurrentlyPlaying mirrors the /me/player/currently-playing payload.
type spotifyCurrentlyPlaying struct {
	IsPlaying            bool          `json:"is_playing"`
	CurrentlyPlayingType string        `json:"currently_playing_type"`
	ProgressMS           int           `json:"progress_ms"`
	Item                 *SpotifyTrack `json:"item"`
}

// spotifyQueue mirrors the /me/player/queue payload.
type spotifyQueue struct {
	CurrentlyPlaying *SpotifyTrack  `json:"currently_playing"`
	Queue            []SpotifyTrack `json:"queue"`
}

// spotifySearchResponse mirrors the /search payload.
type spotifySearchResponse struct {
	Tracks *struct {
		Items []SpotifyTrack `json:"items"`
	} `json:"tracks"`
	Albums *struct {
		Items []SpotifyAlbum `json:"items"`
	} `json:"albums"`
	Artists *struct {
		Items []SpotifyArtist `json:"items"`
	} `json:"artists"`
	Playlists *struct {
		Items []SpotifySimplePlaylist `json:"items"`
	} `json:"playlists"`
}
