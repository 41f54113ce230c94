// Package shipbridge bridges commerce platform webhooks to a fulfillment
// platform. The root package exposes the embedded migrations and the core
// types most callers need; wiring lives in the app package.
package shipbridge

import "github.com/goliatone/go-shipbridge/core"

type Config = core.Config
type Company = core.Company
type Envelope = core.Envelope
type Handler = core.Handler
type HandlerFunc = core.HandlerFunc
type Provider = core.Provider

const (
	ProviderFluid    = core.ProviderFluid
	ProviderShipHero = core.ProviderShipHero
)

var (
	DefaultConfig      = core.DefaultConfig
	LoadConfig         = core.LoadConfig
	NewEnvConfigLoader = core.NewEnvConfigLoader
	MapError           = core.MapError
	IsNotFound         = core.IsNotFound
)
