package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/desertthunder/sptx/internal/auth"
	"github.com/desertthunder/sptx/internal/metadata"
	"github.com/desertthunder/sptx/internal/services"
	"github.com/desertthunder/sptx/internal/shared"
	tu "github.com/desertthunder/sptx/internal/testing"
)

// redirectTo rewrites outgoing requests to a test server, keeping the path
// and query intact.
func redirectTo(srv *httptest.Server) tu.RoundTripFunc {
	return func(r *http.Request) (*http.Response, error) {
		target, err := url.Parse(srv.URL)
		if err != nil {
			return nil, err
		}
		r.URL.Scheme = target.Scheme
		r.URL.Host = target.Host
		return http.DefaultTransport.RoundTrip(r)
	}
}

func newTestManager(t *testing.T, creds auth.Credentials) *auth.Manager {
	t.Helper()

	t.Setenv("SPOTIFY_CLIENT_ID", "")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "")
	t.Setenv("SPOTIFY_REDIRECT_URI", "")

	store := auth.NewStore(filepath.Join(t.TempDir(), "credentials.json"), auth.Credentials{})
	if _, err := store.Load(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	if err := store.Save(&creds); err != nil {
		t.Fatalf("failed to seed credentials: %v", err)
	}

	manager, err := auth.NewManager(store, nil, nil)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	return manager
}

func authenticatedCreds() auth.Credentials {
	return auth.Credentials{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://127.0.0.1:8888/callback",
		AccessToken:  "test-token",
		RefreshToken: "test-refresh",
		ExpiresAt:    time.Now().Add(time.Hour).Format(time.RFC3339),
	}
}

// newTestServer wires a tool server to httptest backends for Spotify and the
// metadata sources.
func newTestServer(t *testing.T, spotifyHandler http.HandlerFunc, metadataHandler http.HandlerFunc, lastFMKey string) *Server {
	t.Helper()

	spotifySrv := httptest.NewServer(spotifyHandler)
	t.Cleanup(spotifySrv.Close)

	metadataSrv := httptest.NewServer(metadataHandler)
	t.Cleanup(metadataSrv.Close)

	manager := newTestManager(t, authenticatedCreds())
	spotify := services.NewSpotifyClient(manager, &http.Client{Transport: redirectTo(spotifySrv)}, nil)
	enrichment := metadata.NewClient(lastFMKey, time.Millisecond, &http.Client{Transport: redirectTo(metadataSrv)}, nil)

	return New(spotify, enrichment, manager, nil)
}

func noSpotify(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected Spotify request: %s %s", r.Method, r.URL.Path)
	}
}

func noMetadata(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected metadata request: %s", r.URL)
	}
}

func TestHandlePlayback(t *testing.T) {
	ctx := context.Background()

	t.Run("get reports when nothing is playing", func(t *testing.T) {
		s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}, noMetadata(t), "")

		output, err := s.handlePlayback(ctx, PlaybackInput{Action: "get"})
		if err != nil {
			t.Fatalf("handlePlayback failed: %v", err)
		}

		status, ok := output.(statusOutput)
		if !ok {
			t.Fatalf("expected statusOutput, got %T", output)
		}
		if status.Message != "no track playing" {
			t.Errorf("unexpected message: %q", status.Message)
		}
	})

	t.Run("get returns the current track", func(t *testing.T) {
		s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"is_playing": true, "currently_playing_type": "track",
				"item": {"id": "t1", "name": "Creep", "artists": [{"name": "Radiohead"}]}}`)
		}, noMetadata(t), "")

		output, err := s.handlePlayback(ctx, PlaybackInput{Action: "get"})
		if err != nil {
			t.Fatalf("handlePlayback failed: %v", err)
		}

		track, ok := output.(*services.TrackSummary)
		if !ok {
			t.Fatalf("expected TrackSummary, got %T", output)
		}
		if track.Name != "Creep" || track.Artist != "Radiohead" {
			t.Errorf("unexpected track: %+v", track)
		}
	})

	t.Run("skip repeats the configured number of times", func(t *testing.T) {
		var skips atomic.Int32
		s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/me/player/next") {
				skips.Add(1)
			}
			w.WriteHeader(http.StatusNoContent)
		}, noMetadata(t), "")

		output, err := s.handlePlayback(ctx, PlaybackInput{Action: "skip", NumSkips: 3})
		if err != nil {
			t.Fatalf("handlePlayback failed: %v", err)
		}
		if skips.Load() != 3 {
			t.Errorf("expected 3 skip requests, got %d", skips.Load())
		}

		status := output.(statusOutput)
		if status.Status != "success" {
			t.Errorf("unexpected status: %+v", status)
		}
	})

	t.Run("rejects an unknown action", func(t *testing.T) {
		s := newTestServer(t, noSpotify(t), noMetadata(t), "")

		_, err := s.handlePlayback(ctx, PlaybackInput{Action: "shuffle"})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestHandleQueue(t *testing.T) {
	ctx := context.Background()

	t.Run("add requires a track id", func(t *testing.T) {
		s := newTestServer(t, noSpotify(t), noMetadata(t), "")

		_, err := s.handleQueue(ctx, QueueInput{Action: "add"})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("add normalizes a bare track id", func(t *testing.T) {
		var gotURI string
		s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			gotURI = r.URL.Query().Get("uri")
			w.WriteHeader(http.StatusNoContent)
		}, noMetadata(t), "")

		if _, err := s.handleQueue(ctx, QueueInput{Action: "add", TrackID: "abc123"}); err != nil {
			t.Fatalf("handleQueue failed: %v", err)
		}
		if gotURI != "spotify:track:abc123" {
			t.Errorf("expected a track URI, got %q", gotURI)
		}
	})
}

func TestHandlePlaylist(t *testing.T) {
	ctx := context.Background()

	t.Run("get_tracks requires a playlist id", func(t *testing.T) {
		s := newTestServer(t, noSpotify(t), noMetadata(t), "")

		_, err := s.handlePlaylist(ctx, PlaylistInput{Action: "get_tracks"})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("rejects an unknown action", func(t *testing.T) {
		s := newTestServer(t, noSpotify(t), noMetadata(t), "")

		_, err := s.handlePlaylist(ctx, PlaylistInput{Action: "shuffle"})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("change_details acknowledges success", func(t *testing.T) {
		s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}, noMetadata(t), "")

		output, err := s.handlePlaylist(ctx, PlaylistInput{Action: "change_details", PlaylistID: "p1", Name: "New Name"})
		if err != nil {
			t.Fatalf("handlePlaylist failed: %v", err)
		}
		if status := output.(statusOutput); status.Status != "success" {
			t.Errorf("unexpected status: %+v", status)
		}
	})
}

func TestHandleAuthentication(t *testing.T) {
	ctx := context.Background()

	t.Run("reports an authenticated session", func(t *testing.T) {
		s := newTestServer(t, noSpotify(t), noMetadata(t), "lastfm-key")

		output, err := s.handleAuthentication(ctx, AuthenticationInput{Action: "check_auth"})
		if err != nil {
			t.Fatalf("handleAuthentication failed: %v", err)
		}

		status := output.(AuthenticationOutput)
		if !status.Authenticated || !status.ClientConfigured || !status.LastFMConfigured {
			t.Errorf("unexpected output: %+v", status)
		}
		if status.Message != "authenticated with Spotify" {
			t.Errorf("unexpected message: %q", status.Message)
		}
	})

	t.Run("points a configured client at login", func(t *testing.T) {
		creds := authenticatedCreds()
		creds.ClearTokens()
		manager := newTestManager(t, creds)
		s := New(services.NewSpotifyClient(manager, nil, nil), metadata.NewClient("", 0, nil, nil), manager, nil)

		output, err := s.handleAuthentication(ctx, AuthenticationInput{})
		if err != nil {
			t.Fatalf("handleAuthentication failed: %v", err)
		}

		status := output.(AuthenticationOutput)
		if status.Authenticated {
			t.Error("expected unauthenticated")
		}
		if !strings.Contains(status.Message, "auth login") {
			t.Errorf("unexpected message: %q", status.Message)
		}
	})

	t.Run("points an unconfigured client at setup", func(t *testing.T) {
		manager := newTestManager(t, auth.Credentials{RedirectURI: "http://127.0.0.1:8888/callback"})
		s := New(services.NewSpotifyClient(manager, nil, nil), metadata.NewClient("", 0, nil, nil), manager, nil)

		output, err := s.handleAuthentication(ctx, AuthenticationInput{})
		if err != nil {
			t.Fatalf("handleAuthentication failed: %v", err)
		}

		status := output.(AuthenticationOutput)
		if status.ClientConfigured {
			t.Error("expected unconfigured client")
		}
		if !strings.Contains(status.Message, "setup") {
			t.Errorf("unexpected message: %q", status.Message)
		}
	})

	t.Run("rejects an unknown action", func(t *testing.T) {
		s := newTestServer(t, noSpotify(t), noMetadata(t), "")

		_, err := s.handleAuthentication(ctx, AuthenticationInput{Action: "refresh"})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestHandleEnhancedSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("caps external lookups across tracks and artists", func(t *testing.T) {
		var metadataCalls atomic.Int32
		s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{
				"tracks": {"items": [
					{"id": "t1", "name": "One", "artists": [{"name": "A"}]},
					{"id": "t2", "name": "Two", "artists": [{"name": "B"}]},
					{"id": "t3", "name": "Three", "artists": [{"name": "C"}]},
					{"id": "t4", "name": "Four", "artists": [{"name": "D"}]}
				]},
				"artists": {"items": [{"id": "a1", "name": "A"}, {"id": "a2", "name": "B"}]}
			}`)
		}, func(w http.ResponseWriter, r *http.Request) {
			metadataCalls.Add(1)
			fmt.Fprint(w, `{"recordings": [], "artists": []}`)
		}, "")

		output, err := s.handleEnhancedSearch(ctx, EnhancedSearchInput{Query: "test", Qtype: "track,artist"})
		if err != nil {
			t.Fatalf("handleEnhancedSearch failed: %v", err)
		}

		result := output.(*EnhancedSearchOutput)
		if len(result.Results.Tracks) != 4 {
			t.Errorf("expected 4 search hits, got %d", len(result.Results.Tracks))
		}
		if len(result.TrackMetadata) != 3 {
			t.Errorf("expected 3 enriched tracks, got %d", len(result.TrackMetadata))
		}
		if len(result.ArtistMetadata) != 0 {
			t.Errorf("expected no enriched artists after the cap, got %d", len(result.ArtistMetadata))
		}
		// One MusicBrainz lookup per enriched track, no Last.fm key.
		if metadataCalls.Load() != 3 {
			t.Errorf("expected 3 external calls, got %d", metadataCalls.Load())
		}
	})

	t.Run("spends leftover budget on artists", func(t *testing.T) {
		var metadataCalls atomic.Int32
		s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{
				"tracks": {"items": [{"id": "t1", "name": "One", "artists": [{"name": "A"}]}]},
				"artists": {"items": [{"id": "a1", "name": "A"}]}
			}`)
		}, func(w http.ResponseWriter, r *http.Request) {
			metadataCalls.Add(1)
			fmt.Fprint(w, `{"recordings": [], "artists": []}`)
		}, "")

		output, err := s.handleEnhancedSearch(ctx, EnhancedSearchInput{Query: "test", Qtype: "track,artist"})
		if err != nil {
			t.Fatalf("handleEnhancedSearch failed: %v", err)
		}

		result := output.(*EnhancedSearchOutput)
		if len(result.TrackMetadata) != 1 || len(result.ArtistMetadata) != 1 {
			t.Errorf("expected 1 track and 1 artist enrichment, got %d and %d",
				len(result.TrackMetadata), len(result.ArtistMetadata))
		}
	})
}

func TestHandleSimilarArtists(t *testing.T) {
	ctx := context.Background()

	t.Run("requires an artist", func(t *testing.T) {
		s := newTestServer(t, noSpotify(t), noMetadata(t), "lastfm-key")

		_, err := s.handleSimilarArtists(ctx, SimilarArtistsInput{})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("returns an empty list when Last.fm is not configured", func(t *testing.T) {
		s := newTestServer(t, noSpotify(t), noMetadata(t), "")

		output, err := s.handleSimilarArtists(ctx, SimilarArtistsInput{Artist: "Radiohead"})
		if err != nil {
			t.Fatalf("handleSimilarArtists failed: %v", err)
		}

		result := output.(map[string]any)
		similar := result["similar"].([]metadata.SimilarArtist)
		if len(similar) != 0 {
			t.Errorf("expected empty listing, got %+v", similar)
		}
		if msg, _ := result["message"].(string); !strings.Contains(msg, "Last.fm API key") {
			t.Errorf("expected configuration guidance, got %q", msg)
		}
	})

	t.Run("returns an empty list when the source fails", func(t *testing.T) {
		s := newTestServer(t, noSpotify(t), func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}, "lastfm-key")

		output, err := s.handleSimilarArtists(ctx, SimilarArtistsInput{Artist: "Radiohead"})
		if err != nil {
			t.Fatalf("handleSimilarArtists failed: %v", err)
		}

		similar := output.(map[string]any)["similar"].([]metadata.SimilarArtist)
		if len(similar) != 0 {
			t.Errorf("expected empty listing on source failure, got %+v", similar)
		}
	})

	t.Run("returns the similar artist listing", func(t *testing.T) {
		s := newTestServer(t, noSpotify(t), func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"similarartists": {"artist": [{"name": "Portishead", "match": "0.9", "image": []}]}}`)
		}, "lastfm-key")

		output, err := s.handleSimilarArtists(ctx, SimilarArtistsInput{Artist: "Radiohead", Limit: 5})
		if err != nil {
			t.Fatalf("handleSimilarArtists failed: %v", err)
		}

		result := output.(map[string]any)
		if result["artist"] != "Radiohead" {
			t.Errorf("unexpected artist: %v", result["artist"])
		}
		similar := result["similar"].([]metadata.SimilarArtist)
		if len(similar) != 1 || similar[0].Name != "Portishead" {
			t.Errorf("unexpected listing: %+v", similar)
		}
	})
}

func TestToolResults(t *testing.T) {
	t.Run("handler errors become error results", func(t *testing.T) {
		s := newTestServer(t, noSpotify(t), noMetadata(t), "")

		req := &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Arguments: []byte(`{"action": "shuffle"}`)}}
		result, err := s.wrapPlayback(context.Background(), req)
		if err != nil {
			t.Fatalf("wrapPlayback failed: %v", err)
		}

		if !result.IsError {
			t.Fatal("expected an error result")
		}
		text := result.Content[0].(*mcp.TextContent).Text
		if !strings.Contains(text, "shuffle") {
			t.Errorf("unexpected error text: %q", text)
		}
	})

	t.Run("outputs are serialized as JSON text", func(t *testing.T) {
		result, err := toCallToolResult(statusOutput{Status: "success", Message: "done"})
		if err != nil {
			t.Fatalf("toCallToolResult failed: %v", err)
		}

		text := result.Content[0].(*mcp.TextContent).Text
		if text != `{"status":"success","message":"done"}` {
			t.Errorf("unexpected JSON: %s", text)
		}
	})
}
