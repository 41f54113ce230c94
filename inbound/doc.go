// Package inbound turns verified webhook bodies into canonical events and
// routes them to registered handlers through a job queue.
package inbound
