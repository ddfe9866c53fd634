package triggers

import (
	"context"
	"fmt"

	"github.com/pricofy/slack-translator/internal/domain"
)

// memStore keeps triggers in listing order.
type memStore struct {
	triggers []domain.Trigger
	listErr  error
	writeErr error
	writes   int
}

func (m *memStore) ListOwnedTriggers(context.Context) ([]domain.Trigger, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]domain.Trigger, len(m.triggers))
	copy(out, m.triggers)
	return out, nil
}

func (m *memStore) CreateTrigger(_ context.Context, req domain.TriggerRequest) (domain.Trigger, error) {
	if m.writeErr != nil {
		return domain.Trigger{}, m.writeErr
	}
	m.writes++
	t := fromRequest(fmt.Sprintf("Ft%04d", len(m.triggers)+1), req)
	m.triggers = append(m.triggers, t)
	return t, nil
}

func (m *memStore) UpdateTrigger(_ context.Context, req domain.TriggerRequest) (domain.Trigger, error) {
	if m.writeErr != nil {
		return domain.Trigger{}, m.writeErr
	}
	m.writes++
	for i, t := range m.triggers {
		if t.ID == req.TriggerID {
			m.triggers[i] = fromRequest(t.ID, req)
			return m.triggers[i], nil
		}
	}
	return domain.Trigger{}, &domain.APIError{Method: "workflows.triggers.update", Code: "trigger_not_found"}
}

func (m *memStore) matching(workflowCallbackID string) []domain.Trigger {
	var out []domain.Trigger
	for _, t := range m.triggers {
		if t.WorkflowCallbackID == workflowCallbackID && t.EventType == domain.ReactionAddedEventType {
			out = append(out, t)
		}
	}
	return out
}

func fromRequest(id string, req domain.TriggerRequest) domain.Trigger {
	return domain.Trigger{
		ID:                 id,
		Type:               req.Type,
		Name:               req.Name,
		WorkflowCallbackID: req.WorkflowCallbackID,
		EventType:          req.EventType,
		ChannelIDs:         req.ChannelIDs,
		Reactions:          req.Reactions,
	}
}
