// package metadata enriches Spotify results with data from Last.fm and
// MusicBrainz. Last.fm needs an API key and is skipped without one;
// MusicBrainz is keyless but rate limited to one request per second.
package metadata
