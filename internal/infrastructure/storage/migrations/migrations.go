// Package migrations holds the schema migrations applied by goose.
//
// SQL migrations are embedded; Go migrations register themselves in init.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
