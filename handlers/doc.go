// Package handlers holds the webhook event handlers run by the worker pool.
// Handlers log domain and downstream failures and only return errors for
// infrastructure failures.
package handlers
