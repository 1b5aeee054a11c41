// Package migrations embebe los archivos SQL para correrlos con el binario
// cmd/migrate.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
