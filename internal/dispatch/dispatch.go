// Package dispatch hands work to asynchronous invocations of this Lambda
// function: function executions that must outlive Slack's ack window, and
// warmup fan-out.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/rs/zerolog"
)

// Source values that mark the events this package produces.
const (
	EnvelopeSource = "slack.function"
	WarmupSource   = "warmup"
)

// Envelope wraps a Slack function_executed event for a self-invocation.
type Envelope struct {
	Source string          `json:"source"`
	Event  json.RawMessage `json:"event"`
}

// WarmupEvent is the payload of scheduled and fanned-out warmup invocations.
type WarmupEvent struct {
	Source      string `json:"source"`
	Concurrency int    `json:"concurrency"`
}

// LambdaAPI is the part of the Lambda client used here.
type LambdaAPI interface {
	Invoke(ctx context.Context, in *lambdasdk.InvokeInput, optFns ...func(*lambdasdk.Options)) (*lambdasdk.InvokeOutput, error)
}

// Invoker invokes one Lambda function asynchronously.
type Invoker struct {
	client       LambdaAPI
	functionName string
	logger       zerolog.Logger
}

// NewInvoker creates an Invoker for functionName.
func NewInvoker(client LambdaAPI, functionName string, logger zerolog.Logger) *Invoker {
	return &Invoker{client: client, functionName: functionName, logger: logger}
}

// NewFromEnvironment creates an Invoker with the default AWS configuration.
func NewFromEnvironment(ctx context.Context, functionName string, logger zerolog.Logger) (*Invoker, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewInvoker(lambdasdk.NewFromConfig(cfg), functionName, logger), nil
}

// Enqueue invokes the function once with payload and returns as soon as
// Lambda accepted the event.
func (i *Invoker) Enqueue(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	result, err := i.client.Invoke(ctx, &lambdasdk.InvokeInput{
		FunctionName:   aws.String(i.functionName),
		InvocationType: types.InvocationTypeEvent,
		Payload:        body,
	})
	if err != nil {
		return fmt.Errorf("failed to invoke %s: %w", i.functionName, err)
	}
	if result.FunctionError != nil {
		return fmt.Errorf("lambda error: %s", *result.FunctionError)
	}
	return nil
}

// EnqueueEvent wraps a raw function_executed event into an Envelope and
// enqueues it.
func (i *Invoker) EnqueueEvent(ctx context.Context, event json.RawMessage) error {
	return i.Enqueue(ctx, Envelope{Source: EnvelopeSource, Event: event})
}

// Fanout invokes the function count times in parallel and returns the first
// error. Every invocation is attempted.
func (i *Invoker) Fanout(ctx context.Context, payload any, count int) error {
	var wg sync.WaitGroup
	var invokeErr error
	var errMu sync.Mutex

	for n := 0; n < count; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := i.Enqueue(ctx, payload); err != nil {
				errMu.Lock()
				if invokeErr == nil {
					invokeErr = err
				}
				errMu.Unlock()
			}
		}()
	}

	wg.Wait()
	if invokeErr != nil {
		i.logger.Warn().Err(invokeErr).Int("count", count).Msg("warmup fan-out incomplete")
	}
	return invokeErr
}
