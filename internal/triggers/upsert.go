package triggers

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pricofy/slack-translator/internal/domain"
)

// Upserter creates or replaces the managed trigger.
type Upserter struct {
	store  Store
	logger zerolog.Logger
}

// NewUpserter creates an Upserter.
func NewUpserter(store Store, logger zerolog.Logger) *Upserter {
	return &Upserter{store: store, logger: logger}
}

// Upsert creates the trigger when existing is nil and otherwise replaces the
// channel scope and filter of existing, keeping its id.
func (u *Upserter) Upsert(ctx context.Context, workflowCallbackID string, channelIDs, reactions []string, existing *domain.Trigger) (domain.Trigger, error) {
	req := domain.TriggerRequest{
		Type:               TriggerType,
		Name:               TriggerName,
		WorkflowCallbackID: workflowCallbackID,
		EventType:          domain.ReactionAddedEventType,
		ChannelIDs:         append([]string(nil), channelIDs...),
		Reactions:          append([]string(nil), reactions...),
		Inputs:             Inputs(),
	}

	if existing == nil {
		created, err := u.store.CreateTrigger(ctx, req)
		if err != nil {
			return domain.Trigger{}, fmt.Errorf("create trigger: %w", err)
		}
		u.logger.Info().Str("trigger_id", created.ID).Strs("channel_ids", channelIDs).Msg("trigger created")
		return created, nil
	}

	req.TriggerID = existing.ID
	updated, err := u.store.UpdateTrigger(ctx, req)
	if err != nil {
		return domain.Trigger{}, fmt.Errorf("update trigger %s: %w", existing.ID, err)
	}
	u.logger.Info().Str("trigger_id", updated.ID).Strs("channel_ids", channelIDs).Msg("trigger updated")
	return updated, nil
}
