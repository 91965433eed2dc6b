package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/sptx/internal/shared"
	"github.com/urfave/cli/v3"
)

// PlaybackNow shows the currently playing track.
func (r *Runner) PlaybackNow(ctx context.Context, cmd *cli.Command) error {
	track, err := r.spotify.CurrentTrack(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if track == nil {
		return r.writePlain("Nothing playing\n")
	}

	if cmd.Bool("json") {
		return r.writeJSON(track, true)
	}

	state := "Paused"
	if track.IsPlaying != nil && *track.IsPlaying {
		state = "Playing"
	}

	r.writePlain("%s: %s - %s\n", state, track.Artist, track.Name)
	if track.Album != "" {
		r.writePlain("Album: %s\n", track.Album)
	}
	r.writePlain("URI: %s\n", track.URI)

	return nil
}

// PlaybackPlay starts or resumes playback.
func (r *Runner) PlaybackPlay(ctx context.Context, cmd *cli.Command) error {
	uri := cmd.StringArg("uri")
	device := cmd.String("device")

	if err := r.spotify.StartPlayback(ctx, uri, device); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if uri != "" {
		return r.writePlain("✓ Playing %s\n", uri)
	}
	return r.writePlain("✓ Playback resumed\n")
}

// PlaybackPause pauses playback.
func (r *Runner) PlaybackPause(ctx context.Context, cmd *cli.Command) error {
	if err := r.spotify.PausePlayback(ctx, ""); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writePlain("✓ Playback paused\n")
}

// PlaybackSkip skips ahead one or more tracks.
func (r *Runner) PlaybackSkip(ctx context.Context, cmd *cli.Command) error {
	n := cmd.Int("n")

	if err := r.spotify.SkipTrack(ctx, n); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writePlain("✓ Skipped %d track(s)\n", n)
}
