// Package schema holds the Postgres schema shared by the console services.
package schema

import _ "embed"

// SQL creates every table idempotently.
//
//go:embed schema.sql
var SQL string
