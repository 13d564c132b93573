package sql

import "embed"

// Migrations holds the schema migrations for the saved-market and
// facility-tag configuration tables, applied in filename order.
//
//go:embed migrations
var Migrations embed.FS
