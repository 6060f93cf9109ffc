// Package sqlassets embeds the DDL applied by the CLI bootstrap and the integration
// test helpers.
package sqlassets

import _ "embed"

//go:embed schema/cards.sql
var CardsSQL string

//go:embed schema/collection_entries.sql
var CollectionEntriesSQL string
