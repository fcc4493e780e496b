package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/artisansally/ally/app/routes"
	"github.com/artisansally/ally/pkg/app"
)

func application() *app.Application {
	return app.New().Routes(routes.RegisterAPI)
}

// ally serve
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run"},
	Short:   "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := application()
		if err := a.Boot(); err != nil {
			return err
		}
		if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
			if err := app.Migrate(os.Stdout); err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return a.Serve(ctx)
	},
}

// ally route:list
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List every registered route",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.PrintRoutes(cmd.OutOrStdout(), application().RouteList())
	},
}

func init() {
	serveCmd.Flags().Bool("migrate", false, "run pending migrations before serving")
}
