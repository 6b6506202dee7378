// Package web embeds the browser client served by the API process.
package web

import "embed"

// Static embeds the login and management pages plus shared assets.
//
//go:embed static
var Static embed.FS
