// Package appfs embeds the files the app ships with: SQL migrations and email templates.
package appfs

import "embed"

//go:embed migrations/*.sql all:templates
var FS embed.FS
