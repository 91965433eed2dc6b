package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sptx/internal/shared"
)

const (
	musicBrainzBaseURL = "https://musicbrainz.org/ws/2"

	// MusicBrainz requires a descriptive User-Agent and caps anonymous
	// clients at one request per second.
	musicBrainzUserAgent = "sptx/1.0 (https://github.com/desertthunder/sptx)"
	musicBrainzInterval  = time.Second
)

// MusicBrainzRecording is a recording search hit.
type MusicBrainzRecording struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Artist           string `json:"artist,omitempty"`
	LengthMS         int    `json:"length_ms,omitempty"`
	FirstReleaseDate string `json:"first_release_date,omitempty"`
	Score            int    `json:"score,omitempty"`
}

// MusicBrainzArtist is an artist search hit.
type MusicBrainzArtist struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Type    string   `json:"type,omitempty"`
	Country string   `json:"country,omitempty"`
	Begin   string   `json:"begin,omitempty"`
	End     string   `json:"end,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	Score   int      `json:"score,omitempty"`
}

// musicBrainzClient talks to the MusicBrainz API. It needs no key but every
// request waits on the shared limiter first.
type musicBrainzClient struct {
	httpClient *http.Client
	limiter    *Limiter
	logger     *log.Logger
	baseURL    string
}

func newMusicBrainzClient(client *http.Client, limiter *Limiter, logger *log.Logger) *musicBrainzClient {
	return &musicBrainzClient{
		httpClient: client,
		limiter:    limiter,
		logger:     logger,
		baseURL:    musicBrainzBaseURL,
	}
}

func (m *musicBrainzClient) get(ctx context.Context, endpoint string, params url.Values, result any) error {
	if err := m.limiter.WaitIfNeeded(ctx); err != nil {
		return err
	}

	params.Set("fmt", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", musicBrainzUserAgent)

	resp, err := m.httpClient.Do(req)
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

// SearchRecording looks up the best recording match for an artist and title.
func (m *musicBrainzClient) SearchRecording(ctx context.Context, artist, track string) (*MusicBrainzRecording, error) {
	var raw struct {
		Recordings []struct {
			ID           string `json:"id"`
			Title        string `json:"title"`
			Length       int    `json:"length"`
			Score        int    `json:"score"`
			FirstRelease string `json:"first-release-date"`
			ArtistCredit []struct {
				Name string `json:"name"`
			} `json:"artist-credit"`
		} `json:"recordings"`
	}

	query := fmt.Sprintf(`artist:%q AND recording:%q`, artist, track)
	params := url.Values{"query": {query}, "limit": {"1"}}
	if err := m.get(ctx, "/recording", params, &raw); err != nil {
		return nil, err
	}
	if len(raw.Recordings) == 0 {
		return nil, nil
	}

	hit := raw.Recordings[0]
	recording := &MusicBrainzRecording{
		ID:               hit.ID,
		Title:            hit.Title,
		LengthMS:         hit.Length,
		FirstReleaseDate: hit.FirstRelease,
		Score:            hit.Score,
	}
	if len(hit.ArtistCredit) > 0 {
		recording.Artist = hit.ArtistCredit[0].Name
	}

	return recording, nil
}

// SearchArtist looks up the best artist match for a name.
func (m *musicBrainzClient) SearchArtist(ctx context.Context, artist string) (*MusicBrainzArtist, error) {
	var raw struct {
		Artists []struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			Type     string `json:"type"`
			Country  string `json:"country"`
			Score    int    `json:"score"`
			LifeSpan struct {
				Begin string `json:"begin"`
				End   string `json:"end"`
			} `json:"life-span"`
			Tags []struct {
				Name string `json:"name"`
			} `json:"tags"`
		} `json:"artists"`
	}

	params := url.Values{"query": {fmt.Sprintf("artist:%q", artist)}, "limit": {"1"}}
	if err := m.get(ctx, "/artist", params, &raw); err != nil {
		return nil, err
	}
	if len(raw.Artists) == 0 {
		return nil, nil
	}

	hit := raw.Artists[0]
	result := &MusicBrainzArtist{
		ID:      hit.ID,
		Name:    hit.Name,
		Type:    hit.Type,
		Country: hit.Country,
		Begin:   hit.LifeSpan.Begin,
		End:     hit.LifeSpan.End,
		Score:   hit.Score,
	}
	for _, tag := range hit.Tags {
		result.Tags = append(result.Tags, tag.Name)
	}

	return result, nil
}
