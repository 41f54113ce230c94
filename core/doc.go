// Package core contains the shipbridge domain model, store and client
// contracts, error taxonomy, and configuration. Provider clients, stores and
// the HTTP boundary depend on this package; core depends on none of them.
package core
