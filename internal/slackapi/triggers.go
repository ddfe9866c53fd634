package slackapi

import (
	"context"
	"strings"

	"github.com/pricofy/slack-translator/internal/domain"
)

const (
	filterVersion    = 1
	filterOperatorOR = "OR"
	reactionVariable = "{{data.reaction}}"
)

type triggerPayload struct {
	TriggerID string                `json:"trigger_id,omitempty"`
	Type      string                `json:"type"`
	Name      string                `json:"name"`
	Workflow  string                `json:"workflow"`
	Event     triggerEvent          `json:"event"`
	Inputs    map[string]inputValue `json:"inputs"`
}

type triggerEvent struct {
	EventType  string         `json:"event_type"`
	ChannelIDs []string       `json:"channel_ids"`
	Filter     *triggerFilter `json:"filter,omitempty"`
}

type inputValue struct {
	Value string `json:"value"`
}

type triggerFilter struct {
	Version int        `json:"version"`
	Root    filterNode `json:"root"`
}

type filterNode struct {
	Operator  string       `json:"operator,omitempty"`
	Inputs    []filterNode `json:"inputs,omitempty"`
	Statement string       `json:"statement,omitempty"`
}

type triggerRecord struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	Name       string   `json:"name"`
	EventType  string   `json:"event_type"`
	ChannelIDs []string `json:"channel_ids"`
	Workflow   struct {
		CallbackID string `json:"callback_id"`
	} `json:"workflow"`
	Filter *triggerFilter `json:"filter,omitempty"`
}

type listTriggersResponse struct {
	Triggers         []triggerRecord `json:"triggers"`
	ResponseMetadata struct {
		NextCursor string `json:"next_cursor"`
	} `json:"response_metadata"`
}

type triggerResponse struct {
	Trigger triggerRecord `json:"trigger"`
}

// ListOwnedTriggers pages through workflows.triggers.list with is_owner set.
func (c *Client) ListOwnedTriggers(ctx context.Context) ([]domain.Trigger, error) {
	var (
		out    []domain.Trigger
		cursor string
	)
	for {
		req := map[string]any{"is_owner": true}
		if cursor != "" {
			req["cursor"] = cursor
		}
		var resp listTriggersResponse
		if err := c.call(ctx, "workflows.triggers.list", req, &resp); err != nil {
			return nil, err
		}
		for _, rec := range resp.Triggers {
			out = append(out, rec.toDomain())
		}
		cursor = resp.ResponseMetadata.NextCursor
		if cursor == "" {
			return out, nil
		}
	}
}

// CreateTrigger calls workflows.triggers.create.
func (c *Client) CreateTrigger(ctx context.Context, req domain.TriggerRequest) (domain.Trigger, error) {
	var resp triggerResponse
	if err := c.call(ctx, "workflows.triggers.create", newTriggerPayload(req), &resp); err != nil {
		return domain.Trigger{}, err
	}
	return resp.Trigger.toDomain(), nil
}

// UpdateTrigger calls workflows.triggers.update. The trigger is replaced
// as a whole.
func (c *Client) UpdateTrigger(ctx context.Context, req domain.TriggerRequest) (domain.Trigger, error) {
	var resp triggerResponse
	if err := c.call(ctx, "workflows.triggers.update", newTriggerPayload(req), &resp); err != nil {
		return domain.Trigger{}, err
	}
	return resp.Trigger.toDomain(), nil
}

func newTriggerPayload(req domain.TriggerRequest) triggerPayload {
	inputs := make(map[string]inputValue, len(req.Inputs))
	for name, value := range req.Inputs {
		inputs[name] = inputValue{Value: value}
	}
	channelIDs := req.ChannelIDs
	if channelIDs == nil {
		channelIDs = []string{}
	}
	return triggerPayload{
		TriggerID: req.TriggerID,
		Type:      req.Type,
		Name:      req.Name,
		Workflow:  "#/workflows/" + req.WorkflowCallbackID,
		Event: triggerEvent{
			EventType:  req.EventType,
			ChannelIDs: channelIDs,
			Filter:     reactionFilter(req.Reactions),
		},
		Inputs: inputs,
	}
}

// reactionFilter matches any of the reactions, or returns nil for none.
func reactionFilter(reactions []string) *triggerFilter {
	if len(reactions) == 0 {
		return nil
	}
	f := &triggerFilter{Version: filterVersion, Root: filterNode{Operator: filterOperatorOR}}
	for _, r := range reactions {
		f.Root.Inputs = append(f.Root.Inputs, filterNode{Statement: reactionVariable + " == " + r})
	}
	return f
}

func (r triggerRecord) toDomain() domain.Trigger {
	return domain.Trigger{
		ID:                 r.ID,
		Type:               r.Type,
		Name:               r.Name,
		WorkflowCallbackID: r.Workflow.CallbackID,
		EventType:          r.EventType,
		ChannelIDs:         r.ChannelIDs,
		Reactions:          r.Filter.reactions(),
	}
}

func (f *triggerFilter) reactions() []string {
	if f == nil {
		return nil
	}
	var out []string
	var walk func(n filterNode)
	walk = func(n filterNode) {
		if name, ok := strings.CutPrefix(n.Statement, reactionVariable+" == "); ok {
			out = append(out, strings.TrimSpace(name))
		}
		for _, child := range n.Inputs {
			walk(child)
		}
	}
	walk(f.Root)
	return out
}
