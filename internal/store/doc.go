// Package store defines interfaces for persistence and notification dependencies
// of the enrichment service. Implementations live in other packages; this package
// must not import database drivers or concrete clients.
package store
