package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"stencil/app"
)

var port int

var runTornadoCmd = &cobra.Command{
	Use:     "run_tornado",
	Aliases: []string{"serve"},
	Short:   "Runs the application",
	Long:    "Runs the application on net/http until interrupted. --port defaults to PORT.",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error { return runServer(cmd, a) })
	},
}

var runGeventCmd = &cobra.Command{
	Use:   "run_gevent",
	Short: "Runs the application",
	Long:  "Runs the application on net/http until interrupted. --port defaults to PORT.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error { return runServer(cmd, a) })
	},
}

func runServer(cmd *cobra.Command, a *app.App) error {
	p := port
	if p == 0 {
		p = a.Config().Port
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.ListenAndServe(ctx, fmt.Sprintf(":%d", p))
}

func init() {
	for _, c := range []*cobra.Command{runTornadoCmd, runGeventCmd} {
		c.Flags().IntVarP(&port, "port", "p", 0, "port to listen on")
		RootCmd.AddCommand(c)
	}
}
