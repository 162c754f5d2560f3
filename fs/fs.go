// Package appfs embeds the files shipped with the binaries: goose migrations and assets.
package appfs

import "embed"

//go:embed migrations/*.sql all:assets
var FS embed.FS
