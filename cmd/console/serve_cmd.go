package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpserver "github.com/garyjia/payroll-console/internal/interfaces/http"
)

func newServeCmd(c *cli) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the logged-in console as a local JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := c.app.RequireSession(ctx); err != nil {
				return failed("checking the session", err)
			}
			ws, err := c.app.OpenWorkspace(true)
			if err != nil {
				return err
			}
			defer ws.Console.Close()

			if err := ws.Console.Start(ctx); err != nil {
				// the server still starts; the browser can retry through /api/refresh
				c.logger.Warn("Initial load failed", zap.Error(err))
			}

			cfg := c.app.Config.Server
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			server := httpserver.NewServer(httpserver.ServerConfig{
				Host:         cfg.Host,
				Port:         cfg.Port,
				ReadTimeout:  cfg.ReadTimeout,
				WriteTimeout: cfg.WriteTimeout,
			}, ws.Console, ws.Mutations, c.app.Notifier, c.app.Clock, c.logger)

			fmt.Fprintf(c.out, "Serving %s console on http://%s\n", ws.Role, server.Address())
			return server.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Override server.port")
	return cmd
}
