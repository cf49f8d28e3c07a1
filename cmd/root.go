// Package cmd is the stencil command line: serving the app, managing the
// database and generating scaffolds.
package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"stencil/app"
	"stencil/config"
)

// SettingsFunc builds the application settings for a loaded configuration.
type SettingsFunc func(cfg *config.Config) app.Settings

var (
	settingsFunc SettingsFunc
	loadConfig   = config.LoadConfig
	osExit       = os.Exit

	// projectDir is the root the scaffold commands write into.
	projectDir = "."
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:           "stencil [command] [flags]",
	Short:         "stencil: web application template and scaffold generator",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command line with the application built by fn.
func Execute(fn SettingsFunc) {
	settingsFunc = fn
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(RootCmd.ErrOrStderr(), color.New(color.FgHiRed, color.Bold).Sprint("Error:"), err)
		osExit(1)
	}
}

func newApp() (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	var s app.Settings
	if settingsFunc != nil {
		s = settingsFunc(cfg)
	}
	return app.New(cfg, s)
}

// withApp builds the application, runs fn and closes it again.
func withApp(fn func(a *app.App) error) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
