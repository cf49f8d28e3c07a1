// Command stencil serves the application, manages its database and
// generates scaffolds. Run "stencil help" for the command list.
package main

import (
	"stencil/app"
	"stencil/cmd"
	"stencil/config"
	"stencil/settings"
)

func main() {
	cmd.Execute(loadSettings)
}

// loadSettings adds the project level routes to the settings.
func loadSettings(cfg *config.Config) app.Settings {
	s := settings.Load(cfg)
	s.Routes = append(s.Routes, Routes...)
	return s
}
