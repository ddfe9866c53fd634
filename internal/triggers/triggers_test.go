package triggers

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pricofy/slack-translator/internal/domain"
)

type fakeJoiner struct {
	failing map[string]bool
	calls   [][]string
}

func (f *fakeJoiner) JoinAll(_ context.Context, channelIDs []string) domain.JoinSummary {
	f.calls = append(f.calls, channelIDs)
	var summary domain.JoinSummary
	for _, id := range channelIDs {
		if f.failing[id] {
			summary.Outcomes = append(summary.Outcomes, domain.ChannelJoinOutcome{
				ChannelID: id, Status: domain.JoinFailed, Reason: "channel_not_found", ActorUserID: "UBOT",
			})
			continue
		}
		summary.Outcomes = append(summary.Outcomes, domain.ChannelJoinOutcome{ChannelID: id, Status: domain.Joined})
	}
	return summary
}

func TestFind(t *testing.T) {
	owned := []domain.Trigger{
		{ID: "Ft1", WorkflowCallbackID: "reacjilator", EventType: domain.ReactionAddedEventType},
		{ID: "Ft2", WorkflowCallbackID: "other", EventType: domain.ReactionAddedEventType},
		{ID: "Ft3", WorkflowCallbackID: "reacjilator", EventType: "slack#/events/message_posted"},
		{ID: "Ft4", WorkflowCallbackID: "reacjilator", EventType: domain.ReactionAddedEventType},
		{ID: "Ft5", WorkflowCallbackID: "configurator", EventType: ""},
	}

	tests := []struct {
		name       string
		owned      []domain.Trigger
		workflow   string
		expectedID string
		found      bool
	}{
		{"duplicates keep the last one", owned, "reacjilator", "Ft4", true},
		{"single match", owned, "other", "Ft2", true},
		{"no match", owned, "missing", "", false},
		{"no triggers", nil, "reacjilator", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, found := Find(tt.owned, tt.workflow, domain.ReactionAddedEventType)
			if found != tt.found || result.ID != tt.expectedID {
				t.Errorf("Find(%q) = %q, %v, want %q, %v", tt.workflow, result.ID, found, tt.expectedID, tt.found)
			}
		})
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	store := &memStore{}
	r := NewReconciler(store, &fakeJoiner{}, zerolog.Nop())
	plan := Plan{WorkflowCallbackID: "reacjilator", ChannelIDs: []string{"C1", "C2"}}

	first, err := r.Reconcile(context.Background(), plan)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	second, err := r.Reconcile(context.Background(), plan)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	matching := store.matching("reacjilator")
	if len(matching) != 1 {
		t.Fatalf("store holds %d matching triggers, want 1", len(matching))
	}
	if first.ID != second.ID {
		t.Errorf("trigger id changed from %s to %s", first.ID, second.ID)
	}
	if !reflect.DeepEqual(matching[0].ChannelIDs, []string{"C1", "C2"}) {
		t.Errorf("ChannelIDs = %v", matching[0].ChannelIDs)
	}
}

func TestReconcileReplacesScope(t *testing.T) {
	store := &memStore{}
	r := NewReconciler(store, &fakeJoiner{}, zerolog.Nop())

	if _, err := r.Reconcile(context.Background(), Plan{WorkflowCallbackID: "reacjilator", ChannelIDs: []string{"C1", "C2"}, Reactions: []string{"jp"}}); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	updated, err := r.Reconcile(context.Background(), Plan{WorkflowCallbackID: "reacjilator", ChannelIDs: []string{"C3"}})
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	if !reflect.DeepEqual(updated.ChannelIDs, []string{"C3"}) {
		t.Errorf("ChannelIDs = %v, want [C3] not a union", updated.ChannelIDs)
	}
	if len(updated.Reactions) != 0 {
		t.Errorf("Reactions = %v, want the filter dropped", updated.Reactions)
	}
	if updated.Name != TriggerName || updated.Type != TriggerType {
		t.Errorf("trigger = %+v", updated)
	}
}

func TestReconcileUpdatesLastDuplicate(t *testing.T) {
	store := &memStore{triggers: []domain.Trigger{
		{ID: "Ft1", WorkflowCallbackID: "reacjilator", EventType: domain.ReactionAddedEventType, ChannelIDs: []string{"C1"}},
		{ID: "Ft2", WorkflowCallbackID: "reacjilator", EventType: domain.ReactionAddedEventType, ChannelIDs: []string{"C2"}},
	}}
	r := NewReconciler(store, &fakeJoiner{}, zerolog.Nop())

	updated, err := r.Reconcile(context.Background(), Plan{WorkflowCallbackID: "reacjilator", ChannelIDs: []string{"C9"}})
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if updated.ID != "Ft2" {
		t.Errorf("updated %s, want Ft2", updated.ID)
	}
	if !reflect.DeepEqual(store.triggers[0].ChannelIDs, []string{"C1"}) {
		t.Errorf("Ft1 was modified: %v", store.triggers[0].ChannelIDs)
	}
}

func TestReconcileJoinsBeforeScopeChange(t *testing.T) {
	store := &memStore{triggers: []domain.Trigger{
		{ID: "Ft1", WorkflowCallbackID: "reacjilator", EventType: domain.ReactionAddedEventType, ChannelIDs: []string{"C0"}},
	}}
	joiner := &fakeJoiner{failing: map[string]bool{"C2": true}}
	r := NewReconciler(store, joiner, zerolog.Nop())

	_, err := r.Reconcile(context.Background(), Plan{WorkflowCallbackID: "reacjilator", ChannelIDs: []string{"C1", "C2"}})

	var permErr *domain.PermissionError
	if !errors.As(err, &permErr) || permErr.ChannelID != "C2" {
		t.Fatalf("Reconcile() error = %v, want a permission error for C2", err)
	}
	if !reflect.DeepEqual(store.triggers[0].ChannelIDs, []string{"C0"}) {
		t.Errorf("ChannelIDs = %v, want the pre-call scope [C0]", store.triggers[0].ChannelIDs)
	}
	if store.writes != 0 {
		t.Errorf("store saw %d writes, want 0", store.writes)
	}
}

func TestReconcileRejectsTooManyReactions(t *testing.T) {
	store := &memStore{}
	joiner := &fakeJoiner{}
	r := NewReconciler(store, joiner, zerolog.Nop())

	reactions := []string{"jp", "us", "fr", "de", "es", "it", "kr", "cn", "pt", "ru"}
	_, err := r.Reconcile(context.Background(), Plan{WorkflowCallbackID: "reacjilator", ChannelIDs: []string{"C1"}, Reactions: reactions})

	var validationErr *domain.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Reconcile() error = %v, want *domain.ValidationError", err)
	}
	if len(joiner.calls) != 0 || store.writes != 0 {
		t.Error("validation failure must not call Slack")
	}
}

func TestReconcilePropagatesStoreErrors(t *testing.T) {
	storeErr := &domain.APIError{Method: "workflows.triggers.create", Code: "invalid_channel_id"}
	store := &memStore{writeErr: storeErr}
	r := NewReconciler(store, &fakeJoiner{}, zerolog.Nop())

	_, err := r.Reconcile(context.Background(), Plan{WorkflowCallbackID: "reacjilator", ChannelIDs: []string{"C1"}})
	if !errors.Is(err, storeErr) {
		t.Errorf("Reconcile() error = %v, want %v", err, storeErr)
	}

	store = &memStore{listErr: errors.New("boom")}
	r = NewReconciler(store, &fakeJoiner{}, zerolog.Nop())
	if _, err := r.Reconcile(context.Background(), Plan{WorkflowCallbackID: "reacjilator", ChannelIDs: []string{"C1"}}); err == nil {
		t.Error("Reconcile() expected list error")
	}
}

func TestUpsertSendsInputBindings(t *testing.T) {
	var got domain.TriggerRequest
	store := &recordingStore{memStore: &memStore{}, onWrite: func(req domain.TriggerRequest) { got = req }}
	u := NewUpserter(store, zerolog.Nop())

	if _, err := u.Upsert(context.Background(), "reacjilator", []string{"C1"}, nil, nil); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	expected := map[string]string{
		"channelId": "{{data.channel_id}}",
		"messageTs": "{{data.message_ts}}",
		"reaction":  "{{data.reaction}}",
	}
	if !reflect.DeepEqual(got.Inputs, expected) {
		t.Errorf("Inputs = %v", got.Inputs)
	}
	if got.EventType != domain.ReactionAddedEventType || got.TriggerID != "" {
		t.Errorf("request = %+v", got)
	}
}

type recordingStore struct {
	*memStore
	onWrite func(domain.TriggerRequest)
}

func (r *recordingStore) CreateTrigger(ctx context.Context, req domain.TriggerRequest) (domain.Trigger, error) {
	r.onWrite(req)
	return r.memStore.CreateTrigger(ctx, req)
}
