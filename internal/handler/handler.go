// Package handler implements the Slack custom functions of the translator
// and the interactivity of the configurator modal.
package handler

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"

	"github.com/pricofy/slack-translator/internal/domain"
	"github.com/pricofy/slack-translator/internal/translation"
	"github.com/pricofy/slack-translator/internal/triggers"
)

// Response is the result of one function execution. A non-empty Error
// completes the execution with that message. Pending keeps the execution
// open until the modal it opened is closed.
type Response struct {
	Outputs map[string]string `json:"outputs,omitempty"`
	Error   string            `json:"error,omitempty"`
	Pending bool              `json:"-"`
}

// ReactionTranslator runs the reaction path for one message.
type ReactionTranslator interface {
	Run(ctx context.Context, in translation.Input) (translation.Result, error)
}

// TriggerLocator finds the reaction_added trigger of a workflow.
type TriggerLocator interface {
	Locate(ctx context.Context, workflowCallbackID string) (domain.Trigger, bool, error)
}

// TriggerReconciler applies a configured channel scope.
type TriggerReconciler interface {
	Reconcile(ctx context.Context, plan triggers.Plan) (domain.Trigger, error)
}

// ChannelJoiner joins the bot user to channels.
type ChannelJoiner interface {
	JoinAll(ctx context.Context, channelIDs []string) domain.JoinSummary
}

// ModalOpener opens a modal from an interactivity pointer.
type ModalOpener interface {
	OpenModal(ctx context.Context, interactivityPointer string, view slack.ModalViewRequest) error
}

// ExecutionCompleter completes a pending function execution.
type ExecutionCompleter interface {
	CompleteSuccess(ctx context.Context, executionID string, outputs map[string]string) error
}

// Deps are the collaborators of a Handler.
type Deps struct {
	Translator ReactionTranslator
	Locator    TriggerLocator
	Reconciler TriggerReconciler
	Joiner     ChannelJoiner
	Modals     ModalOpener
	Completer  ExecutionCompleter

	// DefaultWorkflowCallbackID is used when a request names no workflow,
	// as the scheduled maintenance run does.
	DefaultWorkflowCallbackID string
	Logger                    zerolog.Logger
}

// Handler serves the function executions.
type Handler struct {
	deps   Deps
	logger zerolog.Logger
}

// New creates a Handler.
func New(deps Deps) *Handler {
	return &Handler{deps: deps, logger: deps.Logger}
}

func success(outputs map[string]string) *Response {
	if outputs == nil {
		outputs = map[string]string{}
	}
	return &Response{Outputs: outputs}
}

func (h *Handler) workflow(requested string) string {
	if requested != "" {
		return requested
	}
	return h.deps.DefaultWorkflowCallbackID
}
