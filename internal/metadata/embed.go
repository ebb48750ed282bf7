package metadata

import "embed"

// migrationFS bundles the ordered, versioned SQL migrations spec.md
// §4.C requires directly into the binary, so an operator never has to
// ship a separate migrations directory alongside the metadata
// database.
//
//go:embed migrations/*.sql
var migrationFS embed.FS
