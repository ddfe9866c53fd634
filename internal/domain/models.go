// Package domain contains the core domain types for the Slack translator.
package domain

// ReactionAddedEventType is the event type of the trigger this app manages.
const ReactionAddedEventType = "slack#/events/reaction_added"

// Message is a Slack message identified by channel and timestamp.
type Message struct {
	ChannelID string `json:"channelId"`
	Ts        string `json:"ts"`
	ThreadTs  string `json:"threadTs,omitempty"`
	Text      string `json:"text"`
}

// ThreadRoot returns the timestamp replies to this message are posted under.
// A reply to a thread answers in the parent thread.
func (m Message) ThreadRoot() string {
	if m.ThreadTs != "" {
		return m.ThreadTs
	}
	return m.Ts
}

// Trigger is an event trigger persisted by Slack.
type Trigger struct {
	ID                 string   `json:"id"`
	Type               string   `json:"type"`
	Name               string   `json:"name"`
	WorkflowCallbackID string   `json:"workflowCallbackId"`
	EventType          string   `json:"eventType"`
	ChannelIDs         []string `json:"channelIds"`
	Reactions          []string `json:"reactions,omitempty"`
}

// TriggerRequest is the payload of a trigger create or update.
// TriggerID is empty on create.
type TriggerRequest struct {
	TriggerID          string
	Type               string
	Name               string
	WorkflowCallbackID string
	EventType          string
	ChannelIDs         []string
	Reactions          []string
	Inputs             map[string]string
}

// JoinStatus is the result kind of one channel join.
type JoinStatus int

const (
	// Joined means conversations.join succeeded.
	Joined JoinStatus = iota
	// AlreadyMemberViaPrivateChannel means the join is unsupported for the
	// channel type but the channel is readable by the actor.
	AlreadyMemberViaPrivateChannel
	// JoinFailed means the actor cannot operate in the channel.
	JoinFailed
)

func (s JoinStatus) String() string {
	switch s {
	case Joined:
		return "joined"
	case AlreadyMemberViaPrivateChannel:
		return "already_member"
	case JoinFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ChannelJoinOutcome is the per-channel result of a join fan-out.
type ChannelJoinOutcome struct {
	ChannelID   string
	Status      JoinStatus
	Reason      string
	ActorUserID string
}

// Err returns nil unless the join failed. A rejected bot token is an
// *AuthenticationError, any other failure a *PermissionError.
func (o ChannelJoinOutcome) Err() error {
	if o.Status != JoinFailed {
		return nil
	}
	if IsSlackAuthCode(o.Reason) {
		return &AuthenticationError{Service: "slack", Reason: o.Reason}
	}
	return &PermissionError{ChannelID: o.ChannelID, ActorUserID: o.ActorUserID, Reason: o.Reason}
}

// JoinSummary holds every outcome of a join fan-out in input order.
type JoinSummary struct {
	Outcomes []ChannelJoinOutcome
}

// FirstFailure returns the error of the first failed outcome in input
// order, or nil when every channel is usable.
func (s JoinSummary) FirstFailure() error {
	for _, o := range s.Outcomes {
		if err := o.Err(); err != nil {
			return err
		}
	}
	return nil
}

// Failures returns the failed outcomes in input order.
func (s JoinSummary) Failures() []ChannelJoinOutcome {
	var failed []ChannelJoinOutcome
	for _, o := range s.Outcomes {
		if o.Status == JoinFailed {
			failed = append(failed, o)
		}
	}
	return failed
}
