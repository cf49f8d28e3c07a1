package cmd

import (
	"bufio"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/spf13/cobra"

	"stencil/app"
	"stencil/app/store"
)

var shellCmd = &cobra.Command{
	Use:     "ipython",
	Aliases: []string{"shell"},
	Short:   "Expression shell with the application loaded",
	Long: `Evaluates expr-lang expressions against the application, one per line.

Names: app, config, models, routes, count(table). "exit" quits.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			return runShell(cmd.InOrStdin(), cmd.OutOrStdout(), a)
		})
	},
}

func shellEnv(a *app.App) map[string]any {
	return map[string]any{
		"app":    a,
		"config": a.Config(),
		"models": store.Models(),
		"routes": a.Routes(),
		"count": func(table string) (int, error) {
			return store.CountRows(a.DB(), table)
		},
	}
}

func runShell(in io.Reader, out io.Writer, a *app.App) error {
	debug := ""
	if a.Config().Debug {
		debug = " [debug]"
	}
	fmt.Fprintf(out, "Go %s on %s/%s\nApp: stencil%s\nEnv: %s\n",
		runtime.Version(), runtime.GOOS, runtime.GOARCH, debug, a.Config().Env)

	env := shellEnv(a)
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, ">>> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		program, err := expr.Compile(line, expr.Env(env))
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		result, err := expr.Run(program, env)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "%+v\n", result)
	}
}

func init() {
	RootCmd.AddCommand(shellCmd)
}
