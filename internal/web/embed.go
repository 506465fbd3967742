package web

import "embed"

// templateFS embeds the HTML views.
//
//go:embed templates/*.html
var templateFS embed.FS
