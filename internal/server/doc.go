// Package server provides HTTP routing, middleware, and the one-shot OAuth
// callback used during login.
//
// The [Router] interface defines routing with middleware support;
// [BasicRouter] implements it on top of [http.ServeMux] with method
// filtering. [Middleware] wraps handlers in reverse order (last added
// executes first), following the standard Go pattern.
//
// [CallbackHandler] receives the Spotify authorization redirect. It
// validates the state parameter (CSRF protection), captures the code or the
// provider's error, and delivers exactly one [CallbackResult] through a
// channel. It deliberately does not exchange the code; token exchange and
// persistence belong to the auth manager. The handler processes one callback
// only, so a replayed redirect cannot overwrite a completed login.
package server
