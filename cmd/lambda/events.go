package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/pricofy/slack-translator/internal/dispatch"
	"github.com/pricofy/slack-translator/internal/handler"
	"github.com/pricofy/slack-translator/internal/logging"
	"github.com/pricofy/slack-translator/internal/router"
)

const (
	scheduleSource     = "aws.events"
	scheduleDetailType = "Scheduled Event"
)

type dispatcher interface {
	Dispatch(ctx context.Context, call router.Call) error
}

type functionHandler interface {
	HandleInteraction(ctx context.Context, cb slack.InteractionCallback) (*slack.ViewSubmissionResponse, error)
	MaintainMembership(ctx context.Context, req handler.MaintainRequest) (*handler.Response, error)
}

type selfInvoker interface {
	EnqueueEvent(ctx context.Context, event json.RawMessage) error
	Fanout(ctx context.Context, payload any, count int) error
}

type server struct {
	router        dispatcher
	handler       functionHandler
	invoker       selfInvoker
	signingSecret string
	logger        zerolog.Logger
	// flush exports batched spans before Lambda freezes the environment.
	flush func(context.Context) error
}

// eventShape holds the fields that tell the event types apart.
type eventShape struct {
	Source         string          `json:"source"`
	DetailType     string          `json:"detail-type"`
	RequestContext json.RawMessage `json:"requestContext"`
}

func (s *server) handleRequest(ctx context.Context, event json.RawMessage) (any, error) {
	if s.flush != nil {
		defer func() {
			if err := s.flush(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn().Err(err).Msg("failed to flush spans")
			}
		}()
	}

	var shape eventShape
	if err := json.Unmarshal(event, &shape); err != nil {
		return nil, fmt.Errorf("unrecognized event: %w", err)
	}

	switch {
	case shape.Source == scheduleSource && shape.DetailType == scheduleDetailType:
		ctx, logger := logging.WithInvocation(ctx, s.logger, "schedule")
		return s.maintain(ctx, logger)
	case shape.Source == dispatch.EnvelopeSource:
		ctx, logger := logging.WithInvocation(ctx, s.logger, "dispatch")
		return nil, s.dispatchEnvelope(ctx, logger, event)
	case len(shape.RequestContext) > 0:
		var req events.LambdaFunctionURLRequest
		if err := json.Unmarshal(event, &req); err != nil {
			return nil, fmt.Errorf("invalid function URL request: %w", err)
		}
		ctx, logger := logging.WithInvocation(ctx, s.logger, "http")
		return s.serveHTTP(ctx, logger, req), nil
	}

	if warmup, ok := dispatch.IsWarmupEvent(event); ok {
		var fanout dispatch.Fanouter
		if s.invoker != nil {
			fanout = s.invoker
		}
		return map[string]any{
			"statusCode": http.StatusOK,
			"body":       dispatch.Warm(ctx, fanout, warmup),
		}, nil
	}

	return nil, fmt.Errorf("unrecognized event (source %q)", shape.Source)
}

func (s *server) maintain(ctx context.Context, logger zerolog.Logger) (*handler.Response, error) {
	resp, err := s.handler.MaintainMembership(ctx, handler.MaintainRequest{})
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		logger.Error().Str("error", resp.Error).Msg("maintenance failed")
		return resp, fmt.Errorf("%s", resp.Error)
	}
	logger.Info().Msg("maintenance done")
	return resp, nil
}

func (s *server) dispatchEnvelope(ctx context.Context, logger zerolog.Logger, event json.RawMessage) error {
	var env dispatch.Envelope
	if err := json.Unmarshal(event, &env); err != nil {
		return fmt.Errorf("invalid dispatch envelope: %w", err)
	}
	call, ok, err := functionCall(env.Event)
	if err != nil {
		return err
	}
	if !ok {
		logger.Warn().Msg("envelope carries no function_executed event")
		return nil
	}
	return s.router.Dispatch(ctx, call)
}

// functionCall extracts the function_executed call from an Events API body.
func functionCall(body []byte) (router.Call, bool, error) {
	ev, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		return router.Call{}, false, fmt.Errorf("failed to parse event: %w", err)
	}
	if ev.Type != slackevents.CallbackEvent {
		return router.Call{}, false, nil
	}
	executed, ok := ev.InnerEvent.Data.(*slackevents.FunctionExecutedEvent)
	if !ok {
		return router.Call{}, false, nil
	}
	return router.CallFromEvent(executed), true, nil
}

func (s *server) serveHTTP(ctx context.Context, logger zerolog.Logger, req events.LambdaFunctionURLRequest) events.LambdaFunctionURLResponse {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return textResponse(http.StatusBadRequest, "invalid body")
		}
		body = decoded
	}

	header := http.Header{}
	for k, v := range req.Headers {
		header.Set(k, v)
	}
	if err := s.verify(header, body); err != nil {
		logger.Warn().Err(err).Msg("request signature rejected")
		return textResponse(http.StatusUnauthorized, "invalid signature")
	}

	if isForm(header.Get("Content-Type"), body) {
		return s.serveInteraction(ctx, logger, body)
	}
	return s.serveEvent(ctx, logger, body)
}

func (s *server) verify(header http.Header, body []byte) error {
	sv, err := slack.NewSecretsVerifier(header, s.signingSecret)
	if err != nil {
		return err
	}
	if _, err := sv.Write(body); err != nil {
		return err
	}
	return sv.Ensure()
}

func isForm(contentType string, body []byte) bool {
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		return true
	}
	return strings.HasPrefix(string(body), "payload=")
}

func (s *server) serveInteraction(ctx context.Context, logger zerolog.Logger, body []byte) events.LambdaFunctionURLResponse {
	form, err := url.ParseQuery(string(body))
	if err != nil || form.Get("payload") == "" {
		return textResponse(http.StatusBadRequest, "missing payload")
	}
	var cb slack.InteractionCallback
	if err := json.Unmarshal([]byte(form.Get("payload")), &cb); err != nil {
		return textResponse(http.StatusBadRequest, "invalid payload")
	}

	logger.Debug().Str("type", string(cb.Type)).Str("callback_id", cb.View.CallbackID).Msg("interaction received")
	resp, err := s.handler.HandleInteraction(ctx, cb)
	if err != nil {
		logger.Error().Err(err).Msg("interaction failed")
		return textResponse(http.StatusInternalServerError, "interaction failed")
	}
	if resp == nil {
		return textResponse(http.StatusOK, "")
	}
	out, err := json.Marshal(resp)
	if err != nil {
		return textResponse(http.StatusInternalServerError, "interaction failed")
	}
	return events.LambdaFunctionURLResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(out),
	}
}

func (s *server) serveEvent(ctx context.Context, logger zerolog.Logger, body []byte) events.LambdaFunctionURLResponse {
	ev, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		return textResponse(http.StatusBadRequest, "invalid event")
	}

	switch ev.Type {
	case slackevents.URLVerification:
		challenge, ok := ev.Data.(*slackevents.EventsAPIURLVerificationEvent)
		if !ok {
			return textResponse(http.StatusBadRequest, "invalid challenge")
		}
		return textResponse(http.StatusOK, challenge.Challenge)
	case slackevents.CallbackEvent:
		executed, ok := ev.InnerEvent.Data.(*slackevents.FunctionExecutedEvent)
		if !ok {
			logger.Debug().Str("event", ev.InnerEvent.Type).Msg("ignored event")
			return textResponse(http.StatusOK, "")
		}
		call := router.CallFromEvent(executed)
		if s.invoker != nil {
			err := s.invoker.EnqueueEvent(ctx, body)
			if err == nil {
				logger.Debug().Str("callback_id", call.CallbackID).Msg("function execution enqueued")
				return textResponse(http.StatusOK, "")
			}
			logger.Warn().Err(err).Msg("self-dispatch failed, running inline")
		}
		if err := s.router.Dispatch(ctx, call); err != nil {
			logger.Error().Err(err).Msg("dispatch failed")
		}
		return textResponse(http.StatusOK, "")
	default:
		return textResponse(http.StatusOK, "")
	}
}

func textResponse(status int, body string) events.LambdaFunctionURLResponse {
	return events.LambdaFunctionURLResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "text/plain"},
		Body:       body,
	}
}
