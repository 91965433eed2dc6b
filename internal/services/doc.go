// package services implements the Spotify Web API client used by the CLI
// commands and the agent tool surface. Response payloads are parsed into
// compact summary types so callers never deal with raw API shapes.
package services
