package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/Comcast/sweep/sio"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var listen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve sessions over WebSockets",
	Long: `serve accepts WebSocket connections at /ws/api.  Each connection
gets its own session, and each text frame is host source whose
evaluation is answered with a JSON reply.  /ws/ui is a small test
page.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("listen") {
			cfg.Listen = listen
		}

		c, release, err := newCrew()
		if err != nil {
			return err
		}
		defer release()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ws := sio.NewWebSockets(cfg.Listen, c, logger.Named("ws"))

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return ws.Run(ctx)
		})
		g.Go(func() error {
			<-ctx.Done()
			logger.Info("shutting down", zap.Strings("sessions", c.Ids()))
			return c.CloseAll()
		})
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().StringVarP(&listen, "listen", "l", ":8080", "address to listen on")
}
