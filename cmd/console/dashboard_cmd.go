package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/payroll-console/internal/apperr"
	"github.com/garyjia/payroll-console/internal/console"
	"github.com/garyjia/payroll-console/internal/domain/event"
)

func newDashboardCmd(c *cli) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show stats and spending breakdowns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !watch {
				l, err := c.load(cmd.Context())
				if err != nil {
					return err
				}
				return c.printDashboard(l.view(console.Filters{}))
			}
			return c.watchDashboard(cmd)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Keep refreshing until interrupted")
	return cmd
}

// watchDashboard redraws on every view change until the context ends or the session expires
func (c *cli) watchDashboard(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if _, err := c.app.RequireSession(ctx); err != nil {
		return failed("checking the session", err)
	}
	ws, err := c.app.OpenWorkspace(true)
	if err != nil {
		return err
	}
	con := ws.Console
	defer con.Close()

	expired := make(chan struct{})
	var once sync.Once
	stopExpired := c.app.Events.Subscribe(event.TypeSessionExpired, "cli.watch", func(context.Context, *event.Event) error {
		once.Do(func() { close(expired) })
		return nil
	})
	defer stopExpired()

	redraw := make(chan struct{}, 1)
	unsubscribe := con.Subscribe(func() {
		select {
		case redraw <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	if err := con.Start(ctx); err != nil {
		c.logger.Warn("Initial dashboard load failed", zap.Error(err))
		fmt.Fprintln(c.errOut, "Error:", failed("loading data", err))
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-expired:
			return &apperr.Error{Kind: apperr.KindUnauthorized}
		case <-redraw:
			if con.Closed() {
				return nil
			}
			fmt.Fprintln(c.out, "----")
			if err := c.printDashboard(con.View()); err != nil {
				return err
			}
		}
	}
}
