package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/sptx/internal/server"
	"github.com/desertthunder/sptx/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin performs the OAuth2 authorization code flow.
//
// Starts a local HTTP server, opens the browser for user authorization, and
// exchanges the captured code for tokens.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if !r.auth.IsConfigured() {
		return fmt.Errorf("%w: set client_id and client_secret in config.toml or SPOTIFY_CLIENT_ID/SPOTIFY_CLIENT_SECRET", shared.ErrMissingCredentials)
	}

	state := shared.GenerateID()
	authURL := r.auth.AuthURL(state)

	callbackHandler := server.NewCallbackHandler(state)
	router := server.NewBasicRouter()
	router.Use(server.Logging(r.logger))
	router.Handler(callbackHandler)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL in your browser:\n%s\n\n", authURL)
	} else {
		r.writePlain("→ Opening browser for Spotify authorization...\n")
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warnf("failed to open browser automatically %v", err)
			r.writePlainln("⚠ Could not open browser automatically.")
			r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
		}
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.CallbackResult

	select {
	case result = <-callbackHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return fmt.Errorf("authorization failed: %w", result.Error())
	}

	if _, err := r.auth.ExchangeCode(ctx, result.Code); err != nil {
		return fmt.Errorf("token exchange failed: %w", err)
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n\n", r.auth.StorePath())
	r.writePlain("You can now use: sptx playback now\n")

	return nil
}

// AuthStatus shows the current authentication state.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	creds := r.auth.Credentials()

	if creds.IsConfigured() {
		r.writePlain("Client: ✓ Configured\n")
	} else {
		r.writePlain("Client: ✗ Not configured\n")
	}

	if !creds.HasTokens() {
		r.writePlain("Authentication: ✗ Not authenticated\n")
		r.writePlain("Run 'sptx auth login' to connect your Spotify account\n")
		return nil
	}

	if r.auth.IsAuthenticated(ctx) {
		r.writePlain("Authentication: ✓ Authenticated\n")
	} else {
		r.writePlain("Authentication: ✗ Token expired and refresh failed\n")
	}

	if creds.ExpiresAt != "" {
		r.writePlain("Token expires: %s\n", creds.ExpiresAt)
	}

	return nil
}

// AuthLogout clears stored tokens, keeping the client identity.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.auth.ClearTokens(); err != nil {
		return fmt.Errorf("failed to clear tokens: %w", err)
	}

	r.logger.Info("tokens cleared")
	return r.writePlain("✓ Logged out\n")
}

// AuthURL prints the authorization URL without starting a callback server.
func (r *Runner) AuthURL(ctx context.Context, cmd *cli.Command) error {
	if !r.auth.IsConfigured() {
		return fmt.Errorf("%w: set client_id and client_secret in config.toml or SPOTIFY_CLIENT_ID/SPOTIFY_CLIENT_SECRET", shared.ErrMissingCredentials)
	}

	return r.writePlain("%s\n", r.auth.AuthURL(shared.GenerateID()))
}
