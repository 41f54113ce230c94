// Package transport contains the outbound HTTP adapters used by provider
// clients: a REST adapter with bounded response reads and a GraphQL adapter
// layered on top of it.
package transport
