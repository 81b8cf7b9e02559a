// Package migrations embeds the versioned SQL migration files applied by
// cmd/migrate (§10.4). The engine itself never runs DDL; it only checks for
// the sentinel table these migrations create (internal/store.VerifySchema).
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
