package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"stencil/scaffold"
)

var (
	fields        string
	withScaffold  bool
	fieldsExample = "'name:String(80) post_id:Integer'"
)

func generator(cmd *cobra.Command) *scaffold.Generator {
	return scaffold.New(projectDir, cmd.OutOrStdout())
}

var createBlueprintCmd = &cobra.Command{
	Use:   "create_blueprint NAME",
	Short: "Creates the blueprint folder structure, optionally with a scaffold",
	Example: `  # Create blueprint with scaffold.
  stencil create_blueprint post -s -f 'name:String(80) title:String(200) content:Text'

  # Create blueprint without scaffold.
  stencil create_blueprint post`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if err := generator(cmd).CreateBlueprint(name, withScaffold, fields); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nMount it in settings.Load: %s\n",
			color.New(color.Bold, color.FgHiCyan).Sprintf(`{Blueprint: %s.New(cfg), URLPrefix: "/%s"}`,
				scaffold.PackageName(name), name))
		return nil
	},
}

var createModelCmd = &cobra.Command{
	Use:   "create_model NAME",
	Short: "Creates model scaffold and the model form",
	Example: `  # Create top level model.
  stencil create_model tag -f ` + fieldsExample + `

  # Create model within a blueprint.
  stencil create_model post/tag -f ` + fieldsExample,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return generator(cmd).CreateModel(args[0], fields)
	},
}

var createRoutesCmd = &cobra.Command{
	Use:   "create_routes NAME",
	Short: "Creates routes scaffold",
	Example: `  # Top level routes.
  stencil create_routes tag

  # Blueprint routes.
  stencil create_routes post/tag`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return generator(cmd).CreateRoutes(args[0])
	},
}

var createModelFormCmd = &cobra.Command{
	Use:     "create_model_form NAME",
	Short:   "Creates model form scaffold",
	Example: `  stencil create_model_form post/tag -f ` + fieldsExample,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return generator(cmd).CreateModelForm(args[0], fields)
	},
}

var createViewCmd = &cobra.Command{
	Use:   "create_view NAME",
	Short: "Creates view scaffold. It also creates the templates",
	Example: `  # Top level views.
  stencil create_view comment -f 'commenter body post_id:Integer'

  # Blueprint views.
  stencil create_view post/comment -f 'commenter body post_id:Integer'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return generator(cmd).CreateView(args[0], fields)
	},
}

var createTemplatesCmd = &cobra.Command{
	Use:     "create_templates NAME",
	Short:   "Creates templates",
	Example: `  stencil create_templates post/comment -f 'commenter body post_id:Integer'`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return generator(cmd).CreateTemplates(args[0], fields)
	},
}

var createScaffoldCmd = &cobra.Command{
	Use:     "create_scaffold NAME",
	Short:   "Creates scaffold: model, model form, views, templates and routes",
	Example: `  stencil create_scaffold post/tag -f ` + fieldsExample,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return generator(cmd).CreateScaffold(args[0], fields)
	},
}

func init() {
	createBlueprintCmd.Flags().BoolVarP(&withScaffold, "scaffold", "s", false, "scaffold models, forms, views and templates")
	for _, c := range []*cobra.Command{
		createBlueprintCmd, createModelCmd, createModelFormCmd,
		createViewCmd, createTemplatesCmd, createScaffoldCmd,
	} {
		c.Flags().StringVarP(&fields, "fields", "f", "", "space separated name[:Type] list")
		RootCmd.AddCommand(c)
	}
	RootCmd.AddCommand(createRoutesCmd)
}
