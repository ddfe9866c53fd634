package triggers

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pricofy/slack-translator/internal/domain"
)

// Find returns the trigger for a workflow and event type. When several
// match, the last one in listing order wins.
func Find(owned []domain.Trigger, workflowCallbackID, eventType string) (domain.Trigger, bool) {
	var (
		found domain.Trigger
		ok    bool
	)
	for _, t := range owned {
		if t.WorkflowCallbackID == workflowCallbackID && t.EventType == eventType {
			found, ok = t, true
		}
	}
	return found, ok
}

// Locator reads the current trigger of a workflow from the store. Nothing
// is cached between calls.
type Locator struct {
	store  Store
	logger zerolog.Logger
}

// NewLocator creates a Locator.
func NewLocator(store Store, logger zerolog.Logger) *Locator {
	return &Locator{store: store, logger: logger}
}

// Locate finds the reaction_added trigger of a workflow.
func (l *Locator) Locate(ctx context.Context, workflowCallbackID string) (domain.Trigger, bool, error) {
	owned, err := l.store.ListOwnedTriggers(ctx)
	if err != nil {
		return domain.Trigger{}, false, fmt.Errorf("list triggers: %w", err)
	}

	trigger, ok := Find(owned, workflowCallbackID, domain.ReactionAddedEventType)
	l.logger.Debug().
		Str("workflow", workflowCallbackID).
		Int("owned", len(owned)).
		Bool("found", ok).
		Str("trigger_id", trigger.ID).
		Msg("located trigger")
	return trigger, ok, nil
}
