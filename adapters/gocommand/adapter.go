package gocommand

import (
	"context"
	"strings"
	"time"

	gocmd "github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	goerrors "github.com/goliatone/go-errors"
	shipcommand "github.com/goliatone/go-shipbridge/command"
	"github.com/goliatone/go-shipbridge/core"
	"github.com/goliatone/go-shipbridge/providers/shiphero"
	shipquery "github.com/goliatone/go-shipbridge/query"
)

// WebhookOperations is the ShipHero webhook service behind the admin
// commands and queries.
type WebhookOperations interface {
	shipcommand.WebhookAdministrator
	shipquery.WebhookReader
}

// Bus owns the go-command registry and the dispatcher subscriptions for the
// ShipHero webhook admin operations.
type Bus struct {
	registry *gocmd.Registry
	timeout  time.Duration
	subs     []commanddispatcher.Subscription
}

// NewBus returns a bus whose handlers run under timeout. Zero keeps the
// go-command default.
func NewBus(timeout time.Duration) *Bus {
	return &Bus{registry: gocmd.NewRegistry(), timeout: timeout}
}

func (b *Bus) Registry() *gocmd.Registry {
	return b.registry
}

// RegisterWebhookOperations subscribes setup, delete, list and check against
// service and initializes the registry. On failure nothing stays subscribed.
func (b *Bus) RegisterWebhookOperations(service WebhookOperations, companies core.CompanyStore, webhookBaseURL string) error {
	if service == nil || companies == nil {
		return core.NewError("gocommand: webhook service and company store are required", goerrors.CategoryInternal, core.ErrorInternal, nil)
	}
	err := subscribeCommand[shipcommand.SetupWebhookMessage](b, shipcommand.NewSetupWebhookCommand(service, companies, webhookBaseURL))
	if err == nil {
		err = subscribeCommand[shipcommand.DeleteWebhookMessage](b, shipcommand.NewDeleteWebhookCommand(service, companies))
	}
	if err == nil {
		err = subscribeQuery[shipquery.ListWebhooksMessage, []core.ShipHeroWebhook](b, shipquery.NewListWebhooksQuery(service, companies))
	}
	if err == nil {
		err = subscribeQuery[shipquery.CheckWebhookMessage, shiphero.CheckResult](b, shipquery.NewCheckWebhookQuery(service, companies))
	}
	if err == nil {
		err = b.registry.Initialize()
	}
	if err != nil {
		b.Close()
		return err
	}
	return nil
}

// Close drops every subscription made through the bus.
func (b *Bus) Close() {
	if b == nil {
		return
	}
	for _, sub := range b.subs {
		if sub != nil {
			sub.Unsubscribe()
		}
	}
	b.subs = nil
}

func (b *Bus) runnerOptions() []runner.Option {
	if b.timeout <= 0 {
		return nil
	}
	return []runner.Option{runner.WithTimeout(b.timeout)}
}

func subscribeCommand[T any](b *Bus, cmd gocmd.Commander[T]) error {
	sub := commanddispatcher.SubscribeCommand(cmd, b.runnerOptions()...)
	b.subs = append(b.subs, sub)
	return b.registry.RegisterCommand(cmd)
}

func subscribeQuery[T any, R any](b *Bus, qry gocmd.Querier[T, R]) error {
	sub := commanddispatcher.SubscribeQuery(qry, b.runnerOptions()...)
	b.subs = append(b.subs, sub)
	return b.registry.RegisterCommand(qry)
}

// SetupWebhook dispatches a setup command and returns what the handler
// reported, which may be partial when err is set.
func SetupWebhook(ctx context.Context, msg shipcommand.SetupWebhookMessage) (shiphero.SetupResult, error) {
	collector := gocmd.NewResult[shiphero.SetupResult]()
	err := dispatch(gocmd.ContextWithResult(ctx, collector), msg)
	result, _ := collector.Load()
	return result, err
}

func DeleteWebhook(ctx context.Context, msg shipcommand.DeleteWebhookMessage) error {
	return dispatch(ctx, msg)
}

func ListWebhooks(ctx context.Context, msg shipquery.ListWebhooksMessage) ([]core.ShipHeroWebhook, error) {
	return query[shipquery.ListWebhooksMessage, []core.ShipHeroWebhook](ctx, msg)
}

func CheckWebhook(ctx context.Context, msg shipquery.CheckWebhookMessage) (shiphero.CheckResult, error) {
	return query[shipquery.CheckWebhookMessage, shiphero.CheckResult](ctx, msg)
}

func dispatch[T gocmd.Message](ctx context.Context, msg T) error {
	if err := validateMessage(msg); err != nil {
		return err
	}
	return commanddispatcher.Dispatch(ctx, msg)
}

func query[T gocmd.Message, R any](ctx context.Context, msg T) (R, error) {
	if err := validateMessage(msg); err != nil {
		var zero R
		return zero, err
	}
	return commanddispatcher.Query[T, R](ctx, msg)
}

// validateMessage rejects a message before any handler sees it. The result
// is a bad input error carrying the message type.
func validateMessage(msg gocmd.Message) error {
	messageType := strings.TrimSpace(msg.Type())
	if messageType == "" {
		return core.NewError("gocommand: message type is required", goerrors.CategoryBadInput, core.ErrorBadInput, nil)
	}
	if err := gocmd.ValidateMessage(msg); err != nil {
		return core.WrapError(err, goerrors.CategoryBadInput, "gocommand: invalid "+messageType+" message", core.ErrorBadInput, map[string]any{
			"message_type": messageType,
		})
	}
	return nil
}
