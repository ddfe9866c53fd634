package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"github.com/spf13/cobra"

	"github.com/pricofy/slack-translator/internal/app"
	"github.com/pricofy/slack-translator/internal/logging"
	"github.com/pricofy/slack-translator/internal/router"
)

func socketCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "socket",
		Short: "Serve function executions and modals over Socket Mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer func() { _ = a.Shutdown(context.Background()) }()
			if err := a.Config.ValidateSocketMode(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			api := slack.New(a.Config.SlackBotToken, slack.OptionAppLevelToken(a.Config.SlackAppToken))
			client := socketmode.New(api)
			go serveSocket(ctx, a, client)

			a.Logger.Info().Msg("socket mode runner starting")
			return client.RunContext(ctx)
		},
	}
}

func serveSocket(ctx context.Context, a *app.App, client *socketmode.Client) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-client.Events:
			handleSocketEvent(ctx, a, client, evt)
		}
	}
}

func handleSocketEvent(ctx context.Context, a *app.App, client *socketmode.Client, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		a.Logger.Info().Msg("connecting to Slack")
	case socketmode.EventTypeConnected:
		a.Logger.Info().Msg("connected to Slack")
	case socketmode.EventTypeConnectionError:
		a.Logger.Warn().Msg("connection failed, retrying")
	case socketmode.EventTypeEventsAPI:
		client.Ack(*evt.Request)
		ev, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			return
		}
		executed, ok := ev.InnerEvent.Data.(*slackevents.FunctionExecutedEvent)
		if !ok {
			return
		}
		ctx, logger := logging.WithInvocation(ctx, a.Logger, "socket")
		go dispatchCall(ctx, logger, a.Router, router.CallFromEvent(executed))
	case socketmode.EventTypeInteractive:
		cb, ok := evt.Data.(slack.InteractionCallback)
		if !ok {
			client.Ack(*evt.Request)
			return
		}
		ctx, logger := logging.WithInvocation(ctx, a.Logger, "interaction")
		resp, err := a.Handler.HandleInteraction(ctx, cb)
		if err != nil {
			logger.Error().Err(err).Msg("interaction failed")
		}
		if resp != nil {
			client.Ack(*evt.Request, resp)
			return
		}
		client.Ack(*evt.Request)
	}
}

func dispatchCall(ctx context.Context, logger zerolog.Logger, r *router.Router, call router.Call) {
	if err := r.Dispatch(ctx, call); err != nil {
		logger.Error().Err(err).Str("callback_id", call.CallbackID).Msg("dispatch failed")
	}
}
