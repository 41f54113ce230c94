// Package webhooks authenticates inbound webhook deliveries. Each provider
// has its own trust model: a droplet UUID gate for installation events, a
// shared or per-company token for other commerce events, and an HMAC body
// signature for fulfillment events.
package webhooks
