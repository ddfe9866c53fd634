// Package app wires the configuration into the clients, handlers and router
// shared by the Lambda entry point and the local runner.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/pricofy/slack-translator/internal/config"
	"github.com/pricofy/slack-translator/internal/deepl"
	"github.com/pricofy/slack-translator/internal/handler"
	"github.com/pricofy/slack-translator/internal/logging"
	"github.com/pricofy/slack-translator/internal/membership"
	"github.com/pricofy/slack-translator/internal/router"
	"github.com/pricofy/slack-translator/internal/slackapi"
	"github.com/pricofy/slack-translator/internal/telemetry"
	"github.com/pricofy/slack-translator/internal/translation"
	"github.com/pricofy/slack-translator/internal/triggers"
)

const serviceName = "slack-translator"

// App holds the wired components.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Slack    *slackapi.Client
	Pipeline *translation.Pipeline
	Handler  *handler.Handler
	Router   *router.Router

	tracer *sdktrace.TracerProvider
}

// New builds an App from cfg.
func New(cfg *config.Config) (*App, error) {
	logger, err := logging.New(cfg.Environment, cfg.EffectiveLogLevel())
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger}
	if cfg.TracingEnabled {
		tracer, err := telemetry.InitTracer(serviceName, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to init tracing: %w", err)
		}
		a.tracer = tracer
	}

	httpClient := telemetry.HTTPClient(cfg.HTTPTimeout, cfg.TracingEnabled)

	a.Slack = slackapi.New(cfg.SlackBotToken, slackapi.Options{
		APIURL:     cfg.SlackAPIURL,
		HTTPClient: httpClient,
		Logger:     logger.With().Str("component", "slack").Logger(),
	})

	translator := deepl.New(
		deepl.WithHTTPClient(httpClient),
		deepl.WithEndpoint(cfg.DeepLAPIURL),
		deepl.WithLogger(logger.With().Str("component", "deepl").Logger()),
	)
	a.Pipeline = translation.NewPipeline(a.Slack, translator, cfg.DeepLAuthKey, logger.With().Str("component", "translation").Logger())

	joiner := membership.NewJoiner(a.Slack, logger.With().Str("component", "membership").Logger())
	triggerLogger := logger.With().Str("component", "triggers").Logger()

	a.Handler = handler.New(handler.Deps{
		Translator:                a.Pipeline,
		Locator:                   triggers.NewLocator(a.Slack, triggerLogger),
		Reconciler:                triggers.NewReconciler(a.Slack, joiner, triggerLogger),
		Joiner:                    joiner,
		Modals:                    a.Slack,
		Completer:                 a.Slack,
		DefaultWorkflowCallbackID: cfg.WorkflowCallbackID,
		Logger:                    logger.With().Str("component", "handler").Logger(),
	})
	a.Router = router.New(a.Handler, a.Slack, logger.With().Str("component", "router").Logger())

	return a, nil
}

// Flush exports the spans batched so far and keeps tracing on.
func (a *App) Flush(ctx context.Context) error {
	if a.tracer == nil {
		return nil
	}
	return a.tracer.ForceFlush(ctx)
}

// Shutdown flushes pending spans and stops the tracer provider.
func (a *App) Shutdown(ctx context.Context) error {
	if a.tracer == nil {
		return nil
	}
	return a.tracer.Shutdown(ctx)
}
