// Package store defines interfaces for persistence dependencies (sentiment
// record repositories and the job audit trail). Implementations live in other
// packages; this package must not import database drivers or concrete clients.
package store
