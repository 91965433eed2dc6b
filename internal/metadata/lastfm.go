package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sptx/internal/shared"
)

const lastFMBaseURL = "https://ws.audioscrobbler.com/2.0/"

// LastFMTrackInfo is the subset of Last.fm track metadata worth surfacing.
type LastFMTrackInfo struct {
	Name      string   `json:"name"`
	Artist    string   `json:"artist"`
	Album     string   `json:"album,omitempty"`
	Listeners string   `json:"listeners,omitempty"`
	Playcount string   `json:"playcount,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Summary   string   `json:"summary,omitempty"`
}

// LastFMArtistInfo is the subset of Last.fm artist metadata worth surfacing.
type LastFMArtistInfo struct {
	Name      string   `json:"name"`
	Listeners string   `json:"listeners,omitempty"`
	Playcount string   `json:"playcount,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Summary   string   `json:"summary,omitempty"`
	Similar   []string `json:"similar,omitempty"`
}

// SimilarArtist is one entry from Last.fm's similar artist listing.
type SimilarArtist struct {
	Name       string `json:"name"`
	MatchScore string `json:"match_score"`
	URL        string `json:"url,omitempty"`
	Image      string `json:"image,omitempty"`
}

// lastFMClient talks to the Last.fm API. Calls made without an API key
// return empty results instead of errors so enrichment degrades quietly.
type lastFMClient struct {
	apiKey     string
	httpClient *http.Client
	logger     *log.Logger
	baseURL    string
}

func newLastFMClient(apiKey string, client *http.Client, logger *log.Logger) *lastFMClient {
	return &lastFMClient{
		apiKey:     apiKey,
		httpClient: client,
		logger:     logger,
		baseURL:    lastFMBaseURL,
	}
}

func (l *lastFMClient) configured() bool {
	return l.apiKey != ""
}

func (l *lastFMClient) get(ctx context.Context, method string, params url.Values, result any) error {
	params.Set("method", method)
	params.Set("api_key", l.apiKey)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

func (l *lastFMClient) TrackInfo(ctx context.Context, artist, track string) (*LastFMTrackInfo, error) {
	if !l.configured() {
		return nil, nil
	}

	var raw struct {
		Track *struct {
			Name   string `json:"name"`
			Artist struct {
				Name string `json:"name"`
			} `json:"artist"`
			Album *struct {
				Title string `json:"title"`
			} `json:"album"`
			Listeners string `json:"listeners"`
			Playcount string `json:"playcount"`
			TopTags   struct {
				Tag []struct {
					Name string `json:"name"`
				} `json:"tag"`
			} `json:"toptags"`
			Wiki *struct {
				Summary string `json:"summary"`
			} `json:"wiki"`
		} `json:"track"`
	}

	params := url.Values{"artist": {artist}, "track": {track}}
	if err := l.get(ctx, "track.getInfo", params, &raw); err != nil {
		return nil, err
	}
	if raw.Track == nil {
		return nil, nil
	}

	info := &LastFMTrackInfo{
		Name:      raw.Track.Name,
		Artist:    raw.Track.Artist.Name,
		Listeners: raw.Track.Listeners,
		Playcount: raw.Track.Playcount,
	}
	if raw.Track.Album != nil {
		info.Album = raw.Track.Album.Title
	}
	for _, tag := range raw.Track.TopTags.Tag {
		info.Tags = append(info.Tags, tag.Name)
	}
	if raw.Track.Wiki != nil {
		info.Summary = raw.Track.Wiki.Summary
	}

	return info, nil
}

func (l *lastFMClient) ArtistInfo(ctx context.Context, artist string) (*LastFMArtistInfo, error) {
	if !l.configured() {
		return nil, nil
	}

	var raw struct {
		Artist *struct {
			Name  string `json:"name"`
			Stats struct {
				Listeners string `json:"listeners"`
				Playcount string `json:"playcount"`
			} `json:"stats"`
			Tags struct {
				Tag []struct {
					Name string `json:"name"`
				} `json:"tag"`
			} `json:"tags"`
			Bio *struct {
				Summary string `json:"summary"`
			} `json:"bio"`
			Similar struct {
				Artist []struct {
					Name string `json:"name"`
				} `json:"artist"`
			} `json:"similar"`
		} `json:"artist"`
	}

	params := url.Values{"artist": {artist}}
	if err := l.get(ctx, "artist.getInfo", params, &raw); err != nil {
		return nil, err
	}
	if raw.Artist == nil {
		return nil, nil
	}

	info := &LastFMArtistInfo{
		Name:      raw.Artist.Name,
		Listeners: raw.Artist.Stats.Listeners,
		Playcount: raw.Artist.Stats.Playcount,
	}
	for _, tag := range raw.Artist.Tags.Tag {
		info.Tags = append(info.Tags, tag.Name)
	}
	if raw.Artist.Bio != nil {
		info.Summary = raw.Artist.Bio.Summary
	}
	for _, similar := range raw.Artist.Similar.Artist {
		info.Similar = append(info.Similar, similar.Name)
	}

	return info, nil
}

func (l *lastFMClient) SimilarArtists(ctx context.Context, artist string, limit int) ([]SimilarArtist, error) {
	if !l.configured() {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	var raw struct {
		SimilarArtists struct {
			Artist []struct {
				Name  string `json:"name"`
				Match string `json:"match"`
				URL   string `json:"url"`
				Image []struct {
					Text string `json:"#text"`
					Size string `json:"size"`
				} `json:"image"`
			} `json:"artist"`
		} `json:"similarartists"`
	}

	params := url.Values{"artist": {artist}, "limit": {strconv.Itoa(limit)}}
	if err := l.get(ctx, "artist.getSimilar", params, &raw); err != nil {
		return nil, err
	}

	artists := make([]SimilarArtist, 0, len(raw.SimilarArtists.Artist))
	for _, entry := range raw.SimilarArtists.Artist {
		similar := SimilarArtist{Name: entry.Name, MatchScore: entry.Match, URL: entry.URL}
		// The image array is often empty or holds blank placeholder URLs.
		for i := len(entry.Image) - 1; i >= 0; i-- {
			if entry.Image[i].Text != "" {
				similar.Image = entry.Image[i].Text
				break
			}
		}
		artists = append(artists, similar)
	}

	return artists, nil
}
