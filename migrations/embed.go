// Package migrations embeds the SQL migrations for the booking-events ledger.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
