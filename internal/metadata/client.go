package metadata

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sptx/internal/shared"
)

// LookupCache stores raw enrichment payloads keyed by source, kind, and the
// query terms. Get reports a miss for entries older than maxAge.
type LookupCache interface {
	Get(ctx context.Context, source, kind, artist, track string, maxAge time.Duration) ([]byte, bool, error)
	Put(ctx context.Context, source, kind, artist, track string, payload []byte) error
}

// TrackEnrichment carries per-source track metadata. A source that failed or
// is not configured contributes a nil field.
type TrackEnrichment struct {
	Artist      string                `json:"artist"`
	Track       string                `json:"track"`
	LastFM      *LastFMTrackInfo      `json:"lastfm,omitempty"`
	MusicBrainz *MusicBrainzRecording `json:"musicbrainz,omitempty"`
}

// ArtistEnrichment carries per-source artist metadata.
type ArtistEnrichment struct {
	Artist      string             `json:"artist"`
	LastFM      *LastFMArtistInfo  `json:"lastfm,omitempty"`
	MusicBrainz *MusicBrainzArtist `json:"musicbrainz,omitempty"`
}

// Client merges metadata from Last.fm and MusicBrainz. Source failures are
// logged and isolated so one bad upstream never empties the whole result.
type Client struct {
	lastfm      *lastFMClient
	musicbrainz *musicBrainzClient
	cache       LookupCache
	cacheMaxAge time.Duration
	logger      *log.Logger
}

// NewClient builds an enrichment client. lastFMKey may be empty, which
// silently disables the Last.fm source. interval paces MusicBrainz requests.
func NewClient(lastFMKey string, interval time.Duration, client *http.Client, logger *log.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if interval <= 0 {
		interval = musicBrainzInterval
	}

	return &Client{
		lastfm:      newLastFMClient(lastFMKey, client, logger),
		musicbrainz: newMusicBrainzClient(client, NewLimiter(interval), logger),
		logger:      logger,
	}
}

// WithCache consults cache before the network and stores fresh results.
func (c *Client) WithCache(cache LookupCache, maxAge time.Duration) *Client {
	c.cache = cache
	c.cacheMaxAge = maxAge
	return c
}

// HasLastFM reports whether the Last.fm source is configured.
func (c *Client) HasLastFM() bool {
	return c.lastfm.configured()
}

// EnhancedTrackInfo returns track metadata from every configured source.
func (c *Client) EnhancedTrackInfo(ctx context.Context, artist, track string) *TrackEnrichment {
	enrichment := &TrackEnrichment{Artist: artist, Track: track}

	if c.lastfm.configured() {
		var info *LastFMTrackInfo
		err := c.cached(ctx, "lastfm", "track_info", artist, track, &info, func() (any, error) {
			return c.lastfm.TrackInfo(ctx, artist, track)
		})
		if err != nil {
			c.logger.Warn("lastfm track lookup failed", "artist", artist, "track", track, "error", err)
		} else {
			enrichment.LastFM = info
		}
	}

	var recording *MusicBrainzRecording
	err := c.cached(ctx, "musicbrainz", "track_info", artist, track, &recording, func() (any, error) {
		return c.musicbrainz.SearchRecording(ctx, artist, track)
	})
	if err != nil {
		c.logger.Warn("musicbrainz recording lookup failed", "artist", artist, "track", track, "error", err)
	} else {
		enrichment.MusicBrainz = recording
	}

	return enrichment
}

// EnhancedArtistInfo returns artist metadata from every configured source.
func (c *Client) EnhancedArtistInfo(ctx context.Context, artist string) *ArtistEnrichment {
	enrichment := &ArtistEnrichment{Artist: artist}

	if c.lastfm.configured() {
		var info *LastFMArtistInfo
		err := c.cached(ctx, "lastfm", "artist_info", artist, "", &info, func() (any, error) {
			return c.lastfm.ArtistInfo(ctx, artist)
		})
		if err != nil {
			c.logger.Warn("lastfm artist lookup failed", "artist", artist, "error", err)
		} else {
			enrichment.LastFM = info
		}
	}

	var mbArtist *MusicBrainzArtist
	err := c.cached(ctx, "musicbrainz", "artist_info", artist, "", &mbArtist, func() (any, error) {
		return c.musicbrainz.SearchArtist(ctx, artist)
	})
	if err != nil {
		c.logger.Warn("musicbrainz artist lookup failed", "artist", artist, "error", err)
	} else {
		enrichment.MusicBrainz = mbArtist
	}

	return enrichment
}

// SimilarArtists returns artists similar to the given one, ordered by match
// score. An unconfigured Last.fm source yields nil; a failing lookup is logged
// and yields an empty list.
func (c *Client) SimilarArtists(ctx context.Context, artist string, limit int) []SimilarArtist {
	if !c.lastfm.configured() {
		return nil
	}

	var artists []SimilarArtist
	err := c.cached(ctx, "lastfm", "similar_artists", artist, "", &artists, func() (any, error) {
		return c.lastfm.SimilarArtists(ctx, artist, limit)
	})
	if err != nil {
		c.logger.Warn("lastfm similar artists lookup failed", "artist", artist, "error", err)
		return []SimilarArtist{}
	}

	if limit > 0 && len(artists) > limit {
		artists = artists[:limit]
	}
	return artists
}

// cached runs fetch through the lookup cache when one is attached. Cache
// errors downgrade to a log line and the network result.
func (c *Client) cached(ctx context.Context, source, kind, artist, track string, result any, fetch func() (any, error)) error {
	if c.cache != nil {
		payload, ok, err := c.cache.Get(ctx, source, kind, artist, track, c.cacheMaxAge)
		if err != nil {
			c.logger.Warn("lookup cache read failed", "source", source, "kind", kind, "error", err)
		} else if ok {
			if err := json.Unmarshal(payload, result); err == nil {
				return nil
			}
			c.logger.Warn("discarding unreadable cache entry", "source", source, "kind", kind)
		}
	}

	fresh, err := fetch()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(fresh)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, result); err != nil {
		return err
	}

	if c.cache != nil {
		if err := c.cache.Put(ctx, source, kind, artist, track, payload); err != nil {
			c.logger.Warn("lookup cache write failed", "source", source, "kind", kind, "error", err)
		}
	}

	return nil
}
