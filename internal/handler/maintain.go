package handler

import (
	"context"
	"fmt"
	"strings"
)

// MaintainRequest is the input of the maintain-membership function.
type MaintainRequest struct {
	WorkflowCallbackID string `json:"reacjilatorWorkflowCallbackId"`
}

// MaintainMembership re-joins every channel in the current trigger scope so
// newly converted or re-created channels keep working.
func (h *Handler) MaintainMembership(ctx context.Context, req MaintainRequest) (*Response, error) {
	workflow := h.workflow(req.WorkflowCallbackID)

	current, found, err := h.deps.Locator.Locate(ctx, workflow)
	if err != nil {
		return &Response{Error: fmt.Sprintf("Maintenance job failed! Could not look up the trigger due to %v.", err)}, nil
	}
	if !found || len(current.ChannelIDs) == 0 {
		h.logger.Info().Str("workflow", workflow).Msg("no channels to maintain")
		return success(nil), nil
	}

	summary := h.deps.Joiner.JoinAll(ctx, current.ChannelIDs)
	if err := summary.FirstFailure(); err != nil {
		return &Response{Error: fmt.Sprintf(
			"Maintenance job failed! An error occurred when joining any of the channels (%s) due to %v.",
			strings.Join(current.ChannelIDs, ","), err)}, nil
	}

	h.logger.Info().Int("channels", len(current.ChannelIDs)).Msg("membership maintained")
	return success(nil), nil
}
