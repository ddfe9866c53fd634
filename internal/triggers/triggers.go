// Package triggers keeps the reaction_added event trigger of a workflow in
// line with the channels users configure.
package triggers

import (
	"context"
	"fmt"

	"github.com/pricofy/slack-translator/internal/domain"
)

const (
	// TriggerType is the Slack trigger type this package manages.
	TriggerType = "event"
	// TriggerName is the display name of the managed trigger.
	TriggerName = "reaction_added event trigger"
	// MaxReactions is the most reactions a trigger filter may list.
	MaxReactions = 9
)

// Store is the Slack trigger API. ListOwnedTriggers must return only the
// triggers owned by the calling app, in listing order.
type Store interface {
	ListOwnedTriggers(ctx context.Context) ([]domain.Trigger, error)
	CreateTrigger(ctx context.Context, req domain.TriggerRequest) (domain.Trigger, error)
	UpdateTrigger(ctx context.Context, req domain.TriggerRequest) (domain.Trigger, error)
}

// Inputs returns the workflow input bindings of the managed trigger.
func Inputs() map[string]string {
	return map[string]string{
		"channelId": "{{data.channel_id}}",
		"messageTs": "{{data.message_ts}}",
		"reaction":  "{{data.reaction}}",
	}
}

// ValidateReactions rejects reaction filters Slack cannot hold.
func ValidateReactions(reactions []string) error {
	if len(reactions) > MaxReactions {
		return &domain.ValidationError{
			Field:   "reactions",
			Message: fmt.Sprintf("You can select up to %d reactions", MaxReactions),
		}
	}
	return nil
}
