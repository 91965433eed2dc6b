package tools

import "encoding/json"

// Input schemas are written by hand rather than generated from the input
// structs, keeping them compatible with strict MCP client validators.

var playbackInputSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"action": {
			"type": "string",
			"enum": ["get", "start", "pause", "skip"],
			"description": "Playback operation: get current track, start, pause, or skip"
		},
		"spotify_uri": {
			"type": "string",
			"description": "Spotify URI to play (track, album, artist, or playlist). Omit to resume the current context"
		},
		"num_skips": {
			"type": "integer",
			"description": "Number of tracks to skip (default: 1)"
		}
	},
	"required": ["action"],
	"additionalProperties": false
}`)

var searchInputSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"query": {
			"type": "string",
			"description": "Search term"
		},
		"qtype": {
			"type": "string",
			"description": "Comma separated item types: track, album, artist, playlist (default: track)"
		},
		"limit": {
			"type": "integer",
			"description": "Maximum results per type (default: 10, max: 50)"
		}
	},
	"required": ["query"],
	"additionalProperties": false
}`)

var queueInputSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"action": {
			"type": "string",
			"enum": ["get", "add"],
			"description": "Queue operation"
		},
		"track_id": {
			"type": "string",
			"description": "Track ID or URI to add (required for add)"
		}
	},
	"required": ["action"],
	"additionalProperties": false
}`)

var getInfoInputSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"item_uri": {
			"type": "string",
			"description": "Spotify URI of the item, e.g. spotify:track:... or spotify:playlist:..."
		}
	},
	"required": ["item_uri"],
	"additionalProperties": false
}`)

var playlistInputSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"action": {
			"type": "string",
			"enum": ["get", "get_tracks", "get_all_tracks", "add_tracks", "remove_tracks", "change_details"],
			"description": "Playlist operation. get lists the user's playlists; get_all_tracks fetches every track with pagination"
		},
		"playlist_id": {
			"type": "string",
			"description": "Playlist ID (required for everything except get)"
		},
		"track_ids": {
			"type": "array",
			"items": {"type": "string"},
			"description": "Track IDs for add_tracks and remove_tracks"
		},
		"name": {
			"type": "string",
			"description": "New playlist name for change_details"
		},
		"description": {
			"type": "string",
			"description": "New playlist description for change_details"
		},
		"limit": {
			"type": "integer",
			"description": "Page size for get and get_tracks"
		},
		"offset": {
			"type": "integer",
			"description": "Page offset for get and get_tracks"
		},
		"position": {
			"type": "integer",
			"description": "Insert position for add_tracks"
		}
	},
	"required": ["action"],
	"additionalProperties": false
}`)

var authenticationInputSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"action": {
			"type": "string",
			"enum": ["check_auth"],
			"description": "Authentication operation (default: check_auth)"
		}
	},
	"additionalProperties": false
}`)

var enhancedSearchInputSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"query": {
			"type": "string",
			"description": "Search term"
		},
		"qtype": {
			"type": "string",
			"description": "Comma separated item types: track, album, artist, playlist (default: track)"
		},
		"limit": {
			"type": "integer",
			"description": "Maximum results per type (default: 10, max: 50)"
		}
	},
	"required": ["query"],
	"additionalProperties": false
}`)

var similarArtistsInputSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"artist": {
			"type": "string",
			"description": "Artist name to find similar artists for"
		},
		"limit": {
			"type": "integer",
			"description": "Maximum number of similar artists (default: 10)"
		}
	},
	"required": ["artist"],
	"additionalProperties": false
}`)
