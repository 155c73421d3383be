package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/urfave/cli/v3"

	"github.com/pengyanjia146-a11y/wyy/internal/server"
)

// Serve starts the aggregation HTTP server and blocks until the
// context is cancelled or the listener fails.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	host := r.config.Server.Host
	if v := cmd.String("host"); v != "" {
		host = v
	}
	port := r.config.Server.Port
	if v := cmd.Int("port"); v != 0 {
		port = int(v)
	}

	router := server.NewBasicRouter()
	router.Use(server.RequestID(), server.Logging(r.logger), server.CORS())

	api := &server.API{
		Aggregator:  r.aggregator,
		Resolver:    r.resolver,
		Diagnostics: r.diagnostics,
		Netease:     r.netease,
		YouTube:     r.youtube,
		Registry:    r.registry,
		Library:     r.lib,
		Invidious:   r.invidious,
		Credential:  r.config.Credentials.Netease.Cookie,
		HTTPClient:  r.httpClient,
		Logger:      r.logger,
	}
	api.Register(router)

	// The relay client carries no timeout: relayed media streams run as
	// long as the song plays.
	router.Handler(server.NewRelayHandler(&http.Client{}, r.logger))

	addr := fmt.Sprintf("%s:%d", host, port)
	srv := &http.Server{Addr: addr, Handler: router}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	r.logger.Info("server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
