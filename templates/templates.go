// Package templates embeds the application's layout, macros and pages.
package templates

import "embed"

//go:embed *.html */*.html
var FS embed.FS
