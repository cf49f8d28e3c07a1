package cmd

import (
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"stencil/app"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Lists the route table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetAutoWrapText(false)
			table.SetHeader([]string{"Endpoint", "Methods", "Path"})
			for _, r := range a.Routes() {
				methods := strings.Join(r.Methods, ",")
				if methods == "" {
					methods = "ANY"
				}
				table.Append([]string{r.Name, methods, r.Path})
			}
			table.Render()
			return nil
		})
	},
}

func init() {
	RootCmd.AddCommand(routesCmd)
}
