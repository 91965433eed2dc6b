package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/sptx/internal/shared"
	"github.com/desertthunder/sptx/internal/tools"
	"github.com/urfave/cli/v3"
)

// Search queries the Spotify catalog, optionally enriched with external
// metadata for the top results.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	qtype := cmd.String("type")
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	r.logger.Infof("searching spotify for %q (%s)", query, qtype)

	results, err := r.spotify.Search(ctx, query, qtype, limit)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("enhanced") {
		output := tools.EnhancedSearchOutput{Results: results}
		for i, track := range results.Tracks {
			if i >= 3 {
				break
			}
			output.TrackMetadata = append(output.TrackMetadata, r.metadata.EnhancedTrackInfo(ctx, track.Artist, track.Name))
		}
		return r.writeJSON(output, true)
	}

	if useJSON {
		return r.writeJSON(results, pretty)
	}

	if len(results.Tracks) > 0 {
		r.writePlain("Tracks:\n")
		for i, track := range results.Tracks {
			r.writePlain("%d. %s - %s (%s)\n", i+1, track.Artist, track.Name, track.URI)
		}
		r.writePlain("\n")
	}
	if len(results.Albums) > 0 {
		r.writePlain("Albums:\n")
		for i, album := range results.Albums {
			r.writePlain("%d. %s - %s (%s)\n", i+1, album.Artist, album.Name, album.URI)
		}
		r.writePlain("\n")
	}
	if len(results.Artists) > 0 {
		r.writePlain("Artists:\n")
		for i, artist := range results.Artists {
			r.writePlain("%d. %s (%s)\n", i+1, artist.Name, artist.URI)
		}
		r.writePlain("\n")
	}
	if len(results.Playlists) > 0 {
		r.writePlain("Playlists:\n")
		for i, playlist := range results.Playlists {
			r.writePlain("%d. %s by %s (%s)\n", i+1, playlist.Name, playlist.Owner, playlist.URI)
		}
		r.writePlain("\n")
	}

	return nil
}

// PlaylistList lists the user's playlists with an optional limit.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	r.logger.Infof("listing spotify playlists with limit %v", limit)

	playlists, err := r.spotify.CurrentUserPlaylists(ctx, limit, 0)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if useJSON {
		return r.writeJSON(playlists, pretty)
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		if p.Description != "" {
			r.writePlain("   Description: %s\n", p.Description)
		}
		r.writePlain("   ID: %s\n", p.ID)
		r.writePlain("   Tracks: %d\n", p.TrackCount)
		if p.Public {
			r.writePlain("   Visibility: Public\n")
		} else {
			r.writePlain("   Visibility: Private\n")
		}
		r.writePlain("\n")
	}

	return nil
}

// PlaylistTracks shows one page of a playlist's tracks.
func (r *Runner) PlaylistTracks(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.String("id")
	limit := cmd.Int("limit")
	offset := cmd.Int("offset")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	tracks, err := r.spotify.PlaylistTracks(ctx, playlistID, limit, offset)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if useJSON {
		return r.writeJSON(tracks, pretty)
	}

	for i, track := range tracks {
		r.writePlain("%d. %s - %s\n", offset+i+1, track.Artist, track.Name)
	}

	return nil
}

// PlaylistExport exports a playlist with all tracks to JSON, paging through
// the whole playlist.
func (r *Runner) PlaylistExport(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.String("id")
	outputFile := cmd.String("output")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	r.logger.Infof("exporting spotify playlist %v", playlistID)

	dump, err := r.spotify.AllPlaylistTracks(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if dump.Warning != "" {
		r.writePlain("⚠ %s\n", dump.Warning)
	}

	if outputFile == "" && !useJSON {
		outputFile = fmt.Sprintf("spotify_%s.json", dump.Name)
	}

	if outputFile != "" {
		data, err := shared.MarshalJSON(dump, true)
		if err != nil {
			return fmt.Errorf("failed to marshal export: %w", err)
		}
		if err := os.WriteFile(outputFile, data, 0644); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}

		r.logger.Infof("playlist exported to %v with %v tracks", outputFile, len(dump.Tracks))

		r.writePlain("✓ Playlist exported to %s\n", outputFile)
		r.writePlain("  Playlist: %s\n", dump.Name)
		r.writePlain("  Tracks: %d of %d\n", len(dump.Tracks), dump.TotalTracks)
		return nil
	}

	return r.writeJSON(dump, pretty)
}

// Similar finds artists similar to the given artist via Last.fm.
func (r *Runner) Similar(ctx context.Context, cmd *cli.Command) error {
	artist := cmd.StringArg("artist")
	if artist == "" {
		return fmt.Errorf("%w: artist name", shared.ErrMissingArgument)
	}

	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	similar := r.metadata.SimilarArtists(ctx, artist, limit)
	if similar == nil {
		return fmt.Errorf("%w: similar artists require a Last.fm API key in config.toml", shared.ErrMissingConfig)
	}

	if useJSON {
		return r.writeJSON(similar, pretty)
	}

	r.writePlain("Artists similar to %s:\n\n", artist)
	for i, entry := range similar {
		r.writePlain("%d. %s (match: %s)\n", i+1, entry.Name, entry.MatchScore)
		if entry.URL != "" {
			r.writePlain("   %s\n", entry.URL)
		}
	}

	return nil
}
