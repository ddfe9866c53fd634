package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/pricofy/slack-translator/internal/domain"
	"github.com/pricofy/slack-translator/internal/lang"
	"github.com/pricofy/slack-translator/internal/triggers"
)

const (
	// ModalCallbackID identifies the configurator modal in interactivity payloads.
	ModalCallbackID = "configure-workflow"

	channelsBlockID   = "block"
	channelsActionID  = "channels"
	reactionsBlockID  = "reactions_block"
	reactionsActionID = "reactions"

	modalTitle     = "DeepL Translator"
	successMessage = "*You're all set!*\n\nThis translator is now available for the channels :white_check_mark:"
)

// ConfigureRequest is the input of the configure function.
type ConfigureRequest struct {
	InteractivityPointer string `json:"interactivityPointer"`
	WorkflowCallbackID   string `json:"reacjilatorWorkflowCallbackId"`
	ExecutionID          string `json:"-"`
}

type modalMetadata struct {
	ExecutionID        string `json:"executionId"`
	WorkflowCallbackID string `json:"workflowCallbackId"`
}

// Configure opens the configurator modal prefilled with the current trigger
// scope. The execution stays pending until the modal is closed.
func (h *Handler) Configure(ctx context.Context, req ConfigureRequest) (*Response, error) {
	if req.InteractivityPointer == "" {
		return &Response{Error: "interactivityPointer is required"}, nil
	}
	workflow := h.workflow(req.WorkflowCallbackID)

	current, _, err := h.deps.Locator.Locate(ctx, workflow)
	if err != nil {
		return &Response{Error: fmt.Sprintf("failed to look up the trigger: %v", err)}, nil
	}
	h.logger.Debug().Str("trigger_id", current.ID).Strs("channel_ids", current.ChannelIDs).Msg("trigger to update")

	meta, err := json.Marshal(modalMetadata{ExecutionID: req.ExecutionID, WorkflowCallbackID: workflow})
	if err != nil {
		return nil, fmt.Errorf("marshal modal metadata: %w", err)
	}

	view := configureView(current.ChannelIDs, current.Reactions, string(meta))
	if err := h.deps.Modals.OpenModal(ctx, req.InteractivityPointer, view); err != nil {
		reason := domain.APIErrorCode(err)
		if reason == "" {
			reason = err.Error()
		}
		return &Response{Error: fmt.Sprintf(
			"Failed to open a modal in the configurator workflow. Contact the app maintainers with the following information - (error: %s)",
			reason)}, nil
	}
	return &Response{Pending: true}, nil
}

// HandleInteraction answers view_submission and view_closed payloads of the
// configurator modal. A nil response means an empty 200 answer.
func (h *Handler) HandleInteraction(ctx context.Context, cb slack.InteractionCallback) (*slack.ViewSubmissionResponse, error) {
	if cb.View.CallbackID != ModalCallbackID {
		return nil, fmt.Errorf("unknown view %q", cb.View.CallbackID)
	}

	var meta modalMetadata
	if cb.View.PrivateMetadata != "" {
		if err := json.Unmarshal([]byte(cb.View.PrivateMetadata), &meta); err != nil {
			return nil, fmt.Errorf("decode modal metadata: %w", err)
		}
	}

	switch cb.Type {
	case slack.InteractionTypeViewSubmission:
		return h.submit(ctx, meta, cb.View.State)
	case slack.InteractionTypeViewClosed:
		h.logger.Info().Str("execution_id", meta.ExecutionID).Msg("configurator modal closed")
		if meta.ExecutionID == "" {
			return nil, nil
		}
		return nil, h.deps.Completer.CompleteSuccess(ctx, meta.ExecutionID, nil)
	default:
		return nil, fmt.Errorf("unsupported interaction %q", cb.Type)
	}
}

func (h *Handler) submit(ctx context.Context, meta modalMetadata, state *slack.ViewState) (*slack.ViewSubmissionResponse, error) {
	channelIDs, reactions := selections(state)

	if err := triggers.ValidateReactions(reactions); err != nil {
		var validation *domain.ValidationError
		if errors.As(err, &validation) {
			return slack.NewErrorsViewSubmissionResponse(map[string]string{reactionsBlockID: validation.Message}), nil
		}
		return nil, err
	}

	message := successMessage
	_, err := h.deps.Reconciler.Reconcile(ctx, triggers.Plan{
		WorkflowCallbackID: h.workflow(meta.WorkflowCallbackID),
		ChannelIDs:         channelIDs,
		Reactions:          reactions,
	})
	if err != nil {
		h.logger.Warn().Err(err).Strs("channel_ids", channelIDs).Msg("reconcile failed")
		message = err.Error()
	}
	return slack.NewUpdateViewSubmissionResponse(resultView(message, meta)), nil
}

func selections(state *slack.ViewState) (channelIDs, reactions []string) {
	if state == nil {
		return nil, nil
	}
	channelIDs = state.Values[channelsBlockID][channelsActionID].SelectedChannels
	for _, opt := range state.Values[reactionsBlockID][reactionsActionID].SelectedOptions {
		reactions = append(reactions, opt.Value)
	}
	return channelIDs, reactions
}

func configureView(channelIDs, reactions []string, privateMetadata string) slack.ModalViewRequest {
	channels := slack.NewOptionsMultiSelectBlockElement(
		slack.MultiOptTypeChannels,
		slack.NewTextBlockObject(slack.PlainTextType, "Select channels to add", false, false),
		channelsActionID,
	)
	if len(channelIDs) > 0 {
		channels = channels.WithInitialChannels(channelIDs...)
	}

	var options []*slack.OptionBlockObject
	byValue := map[string]*slack.OptionBlockObject{}
	for _, r := range lang.TopReactions() {
		opt := reactionOption(r)
		options = append(options, opt)
		byValue[r] = opt
	}
	reactionSelect := slack.NewOptionsMultiSelectBlockElement(
		slack.MultiOptTypeStatic,
		slack.NewTextBlockObject(slack.PlainTextType, "Any language reaction", false, false),
		reactionsActionID,
		options...,
	)
	var initial []*slack.OptionBlockObject
	for _, r := range reactions {
		opt, ok := byValue[r]
		if !ok {
			opt = reactionOption(r)
		}
		initial = append(initial, opt)
	}
	if len(initial) > 0 {
		reactionSelect = reactionSelect.WithInitialOptions(initial...)
	}

	return slack.ModalViewRequest{
		Type:            slack.VTModal,
		CallbackID:      ModalCallbackID,
		Title:           slack.NewTextBlockObject(slack.PlainTextType, modalTitle, false, false),
		Submit:          slack.NewTextBlockObject(slack.PlainTextType, "Confirm", false, false),
		NotifyOnClose:   true,
		PrivateMetadata: privateMetadata,
		Blocks: slack.Blocks{BlockSet: []slack.Block{
			slack.NewInputBlock(channelsBlockID,
				slack.NewTextBlockObject(slack.PlainTextType, "Channels to enable translator", false, false),
				nil, channels),
			slack.NewInputBlock(reactionsBlockID,
				slack.NewTextBlockObject(slack.PlainTextType, "Reactions to translate (all when empty)", false, false),
				slack.NewTextBlockObject(slack.PlainTextType, fmt.Sprintf("Up to %d reactions", triggers.MaxReactions), false, false),
				reactionSelect).WithOptional(true),
		}},
	}
}

func reactionOption(reaction string) *slack.OptionBlockObject {
	text := slack.NewTextBlockObject(slack.PlainTextType, fmt.Sprintf(":%s: %s", reaction, reaction), true, false)
	return slack.NewOptionBlockObject(reaction, text, nil)
}

func resultView(message string, meta modalMetadata) *slack.ModalViewRequest {
	privateMetadata, _ := json.Marshal(meta)
	return &slack.ModalViewRequest{
		Type:            slack.VTModal,
		CallbackID:      ModalCallbackID,
		Title:           slack.NewTextBlockObject(slack.PlainTextType, modalTitle, false, false),
		NotifyOnClose:   true,
		PrivateMetadata: string(privateMetadata),
		Blocks: slack.Blocks{BlockSet: []slack.Block{
			slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, message, false, false), nil, nil),
		}},
	}
}
