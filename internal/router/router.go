// Package router routes function_executed calls to their handlers and
// completes the executions.
package router

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack/slackevents"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/pricofy/slack-translator/internal/handler"
	"github.com/pricofy/slack-translator/internal/telemetry"
)

// Callback ids of the custom functions.
const (
	DetectLang         = "detect-lang"
	Translate          = "translate"
	Configure          = "configure"
	MaintainMembership = "maintain-membership"
)

// Call is one function execution.
type Call struct {
	ExecutionID string         `json:"executionId"`
	CallbackID  string         `json:"callbackId"`
	Inputs      map[string]any `json:"inputs"`
}

// CallFromEvent converts a function_executed event into a Call.
func CallFromEvent(ev *slackevents.FunctionExecutedEvent) Call {
	return Call{
		ExecutionID: ev.FunctionExecutionID,
		CallbackID:  ev.Function.CallbackID,
		Inputs:      ev.Inputs,
	}
}

// Completer reports the result of an execution back to Slack.
type Completer interface {
	CompleteSuccess(ctx context.Context, executionID string, outputs map[string]string) error
	CompleteError(ctx context.Context, executionID, message string) error
}

type route func(ctx context.Context, call Call) (*handler.Response, error)

// Router routes calls to the handler registered for their callback id.
type Router struct {
	routes    map[string]route
	completer Completer
	logger    zerolog.Logger
}

// New creates a Router serving every function of h.
func New(h *handler.Handler, completer Completer, logger zerolog.Logger) *Router {
	return &Router{
		routes: map[string]route{
			DetectLang:         typed(h.DetectLang),
			Translate:          typed(h.Translate),
			MaintainMembership: typed(h.MaintainMembership),
			Configure: func(ctx context.Context, call Call) (*handler.Response, error) {
				var req handler.ConfigureRequest
				if err := decodeInputs(call.Inputs, &req); err != nil {
					return nil, err
				}
				req.ExecutionID = call.ExecutionID
				return h.Configure(ctx, req)
			},
		},
		completer: completer,
		logger:    logger,
	}
}

func typed[T any](fn func(context.Context, T) (*handler.Response, error)) route {
	return func(ctx context.Context, call Call) (*handler.Response, error) {
		var req T
		if err := decodeInputs(call.Inputs, &req); err != nil {
			return nil, err
		}
		return fn(ctx, req)
	}
}

// decodeInputs maps the loosely typed inputs onto a request struct.
func decodeInputs(inputs map[string]any, out any) error {
	raw, err := json.Marshal(inputs)
	if err != nil {
		return fmt.Errorf("failed to marshal inputs: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode inputs: %w", err)
	}
	return nil
}

// Dispatch runs the handler of the call and completes the execution unless
// the handler left it pending. The returned error is only set when the
// completion itself failed.
func (r *Router) Dispatch(ctx context.Context, call Call) error {
	ctx, span := telemetry.StartSpan(ctx, "function "+call.CallbackID,
		attribute.String("slack.function.callback_id", call.CallbackID),
		attribute.String("slack.function.execution_id", call.ExecutionID),
	)
	defer span.End()

	logger := r.logger.With().Str("callback_id", call.CallbackID).Str("execution_id", call.ExecutionID).Logger()

	fn, ok := r.routes[call.CallbackID]
	if !ok {
		logger.Warn().Msg("no handler for callback id")
		span.SetStatus(codes.Error, "unknown callback id")
		return r.completer.CompleteError(ctx, call.ExecutionID, fmt.Sprintf("unknown function %q", call.CallbackID))
	}

	resp, err := fn(ctx, call)
	if err != nil {
		logger.Error().Err(err).Msg("handler failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return r.completer.CompleteError(ctx, call.ExecutionID, err.Error())
	}

	switch {
	case resp.Pending:
		logger.Debug().Msg("execution left open")
		return nil
	case resp.Error != "":
		logger.Info().Str("error", resp.Error).Msg("function completed with error")
		span.SetStatus(codes.Error, "function error")
		if err := r.completer.CompleteError(ctx, call.ExecutionID, resp.Error); err != nil {
			return fmt.Errorf("complete error: %w", err)
		}
		return nil
	default:
		logger.Debug().Interface("outputs", resp.Outputs).Msg("function completed")
		if err := r.completer.CompleteSuccess(ctx, call.ExecutionID, resp.Outputs); err != nil {
			return fmt.Errorf("complete success: %w", err)
		}
		return nil
	}
}
