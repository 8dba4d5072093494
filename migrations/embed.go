// Package migrations holds the SQL schema of the pricing tables
package migrations

import "embed"

// FS contains every *.sql migration in this directory
//
//go:embed *.sql
var FS embed.FS
