// Package shiphero is the fulfillment platform GraphQL client and the
// webhook registration service built on it.
package shiphero
