package main

import (
	"context"

	"github.com/desertthunder/sptx/internal/tools"
	"github.com/urfave/cli/v3"
)

// Serve runs the MCP server over stdio, or over HTTP/SSE when --http is set.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	srv := tools.New(r.spotify, r.metadata, r.auth, r.logger)

	if addr := cmd.String("http"); addr != "" {
		return srv.RunHTTP(ctx, addr)
	}

	return srv.RunStdio(ctx)
}
