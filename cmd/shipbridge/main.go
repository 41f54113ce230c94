package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-shipbridge/adapters/gocommand"
	"github.com/goliatone/go-shipbridge/app"
	shipcommand "github.com/goliatone/go-shipbridge/command"
	"github.com/goliatone/go-shipbridge/core"
	"github.com/goliatone/go-shipbridge/providers/shiphero"
	shipquery "github.com/goliatone/go-shipbridge/query"
)

const shutdownTimeout = 30 * time.Second

const usage = `usage: shipbridge <command> [flags]

commands:
  serve            run the webhook receiver and workers
  setup-webhooks   create the shipment update webhook for a company
  list-webhooks    list the fulfillment webhooks of a company
  check-webhook    report whether the shipment update webhook is configured
  delete-webhook   delete a fulfillment webhook by name
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "shipbridge:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errors.New("a command is required")
	}

	name, rest := args[0], args[1:]
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	envFile := flags.String("env-file", ".env", "dotenv file read before the process environment")
	companyID := flags.String("company", "", "fluid company id")
	webhookURL := flags.String("url", "", "webhook url, defaults to SHIPHERO_WEBHOOK_URL with company_id appended")
	webhookName := flags.String("name", shiphero.WebhookShipmentUpdate, "webhook name to delete")
	shopName := flags.String("shop", "", "webhook shop name to delete")
	if err := flags.Parse(rest); err != nil {
		return err
	}

	cfg, err := core.LoadConfig(ctx, core.NewEnvConfigLoader(*envFile), core.Config{})
	if err != nil {
		return err
	}

	switch name {
	case "serve":
		return serve(ctx, cfg)
	case "setup-webhooks":
		return withApp(ctx, cfg, func(ctx context.Context) error {
			result, err := gocommand.SetupWebhook(ctx, shipcommand.SetupWebhookMessage{
				FluidCompanyID: *companyID,
				URL:            *webhookURL,
			})
			if err != nil && result.Message == "" && result.Webhook.Name == "" {
				return err
			}
			result.Webhook.SharedSignatureSecret = redact(result.Webhook.SharedSignatureSecret)
			return errors.Join(err, writeJSON(out, result))
		})
	case "list-webhooks":
		return withApp(ctx, cfg, func(ctx context.Context) error {
			items, err := gocommand.ListWebhooks(ctx, shipquery.ListWebhooksMessage{
				FluidCompanyID: *companyID,
			})
			if err != nil {
				return err
			}
			for i := range items {
				items[i].SharedSignatureSecret = redact(items[i].SharedSignatureSecret)
			}
			return writeJSON(out, items)
		})
	case "check-webhook":
		target := *webhookURL
		if target == "" && cfg.ShipHero.WebhookURL != "" {
			target, err = shiphero.WebhookURLForCompany(cfg.ShipHero.WebhookURL, *companyID)
			if err != nil {
				return err
			}
		}
		return withApp(ctx, cfg, func(ctx context.Context) error {
			result, err := gocommand.CheckWebhook(ctx, shipquery.CheckWebhookMessage{
				FluidCompanyID: *companyID,
				URL:            target,
			})
			if err != nil {
				return err
			}
			if result.Webhook != nil {
				result.Webhook.SharedSignatureSecret = redact(result.Webhook.SharedSignatureSecret)
			}
			for i := range result.All {
				result.All[i].SharedSignatureSecret = redact(result.All[i].SharedSignatureSecret)
			}
			return writeJSON(out, result)
		})
	case "delete-webhook":
		return withApp(ctx, cfg, func(ctx context.Context) error {
			return gocommand.DeleteWebhook(ctx, shipcommand.DeleteWebhookMessage{
				FluidCompanyID: *companyID,
				Name:           *webhookName,
				ShopName:       *shopName,
			})
		})
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q", name)
	}
}

func serve(ctx context.Context, cfg core.Config) error {
	bridge, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	return bridge.Serve(ctx, shutdownTimeout)
}

func withApp(ctx context.Context, cfg core.Config, fn func(context.Context) error) error {
	bridge, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		_ = bridge.Shutdown(shutdownCtx)
	}()
	return fn(ctx)
}

func writeJSON(out io.Writer, value any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "[redacted]"
}
