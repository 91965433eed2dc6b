// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// authCommand handles the Spotify OAuth lifecycle
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Spotify authorization",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authenticate with Spotify using OAuth2",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorization URL instead of opening a browser",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show authentication state and token expiry",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Discard stored access and refresh tokens",
				Action: r.AuthLogout,
			},
			{
				Name:   "url",
				Usage:  "Print the authorization URL without starting a server",
				Action: r.AuthURL,
			},
		},
	}
}

// serveCommand runs the MCP agent server
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the MCP server so agents can control Spotify",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "http",
				Usage: "Serve over HTTP/SSE on this address instead of stdio",
			},
		},
		Action: r.Serve,
	}
}

// playbackCommand handles playback operations
func playbackCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playback",
		Aliases: []string{"pb"},
		Usage:   "Control the active playback session",
		Commands: []*cli.Command{
			{
				Name:  "now",
				Usage: "Show the currently playing track",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlaybackNow,
			},
			{
				Name:  "play",
				Usage: "Start or resume playback, optionally for a Spotify URI",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "uri",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "device",
						Usage: "Device ID to play on",
					},
				},
				Action: r.PlaybackPlay,
			},
			{
				Name:   "pause",
				Usage:  "Pause playback",
				Action: r.PlaybackPause,
			},
			{
				Name:  "skip",
				Usage: "Skip ahead one or more tracks",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "n",
						Usage: "Number of tracks to skip",
						Value: 1,
					},
				},
				Action: r.PlaybackSkip,
			},
		},
	}
}

// searchCommand searches the Spotify catalog
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search Spotify for tracks, albums, artists, or playlists",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "type",
				Usage: "Comma separated item types (track, album, artist, playlist)",
				Value: "track",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum results per type",
				Value: 10,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
			&cli.BoolFlag{
				Name:  "enhanced",
				Usage: "Enrich top results with Last.fm and MusicBrainz metadata",
			},
		},
		Action: r.Search,
	}
}

// playlistCommand handles playlist operations
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Spotify playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List your playlists",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of playlists to return",
						Value: 50,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.PlaylistList,
			},
			{
				Name:  "tracks",
				Usage: "Show one page of a playlist's tracks",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist ID",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Page size",
						Value: 50,
					},
					&cli.IntFlag{
						Name:  "offset",
						Usage: "Page offset",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.PlaylistTracks,
			},
			{
				Name:  "export",
				Usage: "Export a playlist with all tracks to JSON",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist ID to export",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.PlaylistExport,
			},
		},
	}
}

// similarCommand finds related artists via Last.fm
func similarCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "similar",
		Usage: "Find artists similar to a given artist",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "artist",
			},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of similar artists",
				Value: 10,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Similar,
	}
}

// setupCommand handles setup operations for configuration and the cache database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml and initialize the lookup cache database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}
