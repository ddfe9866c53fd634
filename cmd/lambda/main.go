// Package main is the entry point for the translator Lambda function.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/pricofy/slack-translator/internal/app"
	"github.com/pricofy/slack-translator/internal/config"
	"github.com/pricofy/slack-translator/internal/dispatch"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := cfg.ValidateLambda(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize")
	}

	s := &server{
		router:        a.Router,
		handler:       a.Handler,
		signingSecret: cfg.SlackSigningSecret,
		logger:        a.Logger,
		flush:         a.Flush,
	}
	if cfg.FunctionName != "" {
		invoker, err := dispatch.NewFromEnvironment(context.Background(), cfg.FunctionName, a.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create the Lambda client")
		}
		s.invoker = invoker
	}

	lambda.Start(s.handleRequest)
}
