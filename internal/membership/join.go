// Package membership joins the bot user to the channels a trigger covers.
package membership

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pricofy/slack-translator/internal/domain"
)

// ErrMethodNotSupported is the Slack error code conversations.join returns
// for private channels and DMs.
const ErrMethodNotSupported = "method_not_supported_for_channel_type"

// Conversations is the Slack surface the joiner needs.
type Conversations interface {
	JoinConversation(ctx context.Context, channelID string) error
	ConversationInfo(ctx context.Context, channelID string) error
	ActorUserID(ctx context.Context) (string, error)
}

// Joiner joins channels concurrently.
type Joiner struct {
	conversations Conversations
	logger        zerolog.Logger
}

// NewJoiner creates a Joiner.
func NewJoiner(conversations Conversations, logger zerolog.Logger) *Joiner {
	return &Joiner{conversations: conversations, logger: logger}
}

// JoinAll attempts every channel, one goroutine each, and waits for all of
// them. Outcomes keep the input order.
func (j *Joiner) JoinAll(ctx context.Context, channelIDs []string) domain.JoinSummary {
	outcomes := make([]domain.ChannelJoinOutcome, len(channelIDs))

	// The actor is only needed for failure messages; resolve it once
	actor := sync.OnceValues(func() (string, error) {
		return j.conversations.ActorUserID(ctx)
	})

	var wg sync.WaitGroup
	for i, channelID := range channelIDs {
		wg.Add(1)
		go func(i int, channelID string) {
			defer wg.Done()
			outcomes[i] = j.join(ctx, channelID, actor)
		}(i, channelID)
	}
	wg.Wait()

	summary := domain.JoinSummary{Outcomes: outcomes}
	for _, failed := range summary.Failures() {
		j.logger.Warn().Str("channel_id", failed.ChannelID).Str("reason", failed.Reason).Msg("failed to join channel")
	}
	return summary
}

func (j *Joiner) join(ctx context.Context, channelID string, actor func() (string, error)) domain.ChannelJoinOutcome {
	err := j.conversations.JoinConversation(ctx, channelID)
	if err == nil {
		return domain.ChannelJoinOutcome{ChannelID: channelID, Status: domain.Joined}
	}

	reason := domain.APIErrorCode(err)
	if reason == "" {
		reason = err.Error()
	}

	if reason == ErrMethodNotSupported {
		infoErr := j.conversations.ConversationInfo(ctx, channelID)
		if infoErr == nil {
			return domain.ChannelJoinOutcome{ChannelID: channelID, Status: domain.AlreadyMemberViaPrivateChannel}
		}
		j.logger.Debug().Err(infoErr).Str("channel_id", channelID).Msg("conversations.info failed")
	}

	if domain.IsSlackAuthCode(reason) {
		return domain.ChannelJoinOutcome{ChannelID: channelID, Status: domain.JoinFailed, Reason: reason}
	}

	actorUserID, actorErr := actor()
	if actorErr != nil {
		j.logger.Warn().Err(actorErr).Msg("failed to resolve the bot user")
	}
	return domain.ChannelJoinOutcome{
		ChannelID:   channelID,
		Status:      domain.JoinFailed,
		Reason:      reason,
		ActorUserID: actorUserID,
	}
}
