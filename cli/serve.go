package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ViniZap4/paper-server/auth"
	paperhttp "github.com/ViniZap4/paper-server/http"
	"github.com/ViniZap4/paper-server/ws"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the todo panel, startup screen and JSON API",
		Long: `Serve the presentation surfaces over HTTP and WebSocket.

Every request must carry the token in the X-Paper-Token header or the
token query parameter, unless both PAPER_TOKEN and PAPER_TOKEN_HASH are
empty.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}

	cmd.Flags().String("addr", ":8080", "address to listen on")
	_ = a.v.BindPFlag("addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	hub := ws.NewHub(a.log)
	go hub.Run(ctx)

	bridge := ws.NewBridge(a.ws, hub, a.log)
	a.ws.Watch(ctx)

	authCfg := auth.Config{Token: a.settings.Token, TokenHash: a.settings.TokenHash}
	if authCfg.Open() {
		a.log.Warn().Msg("no token configured, API is open to anyone who can reach it")
	}

	server := paperhttp.NewServer(a.ws, bridge, a.log)
	fiberApp := paperhttp.NewApp(server, authCfg)

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().
			Str("addr", a.settings.Addr).
			Str("folder", a.ws.Directory()).
			Msg("server starting")
		errCh <- fiberApp.Listen(a.settings.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	return fiberApp.ShutdownWithTimeout(shutdownTimeout)
}
