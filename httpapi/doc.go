// Package httpapi is the gin HTTP boundary: webhook intake, health and
// metrics endpoints.
package httpapi
