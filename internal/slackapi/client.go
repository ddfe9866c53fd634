// Package slackapi adapts the Slack Web API to the interfaces of the
// translation, membership and trigger packages.
package slackapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"

	"github.com/pricofy/slack-translator/internal/domain"
)

const serviceName = "slack"

// Client wraps a slack-go client. Methods slack-go lacks, such as the
// workflow trigger API, are called directly with the same token.
type Client struct {
	api        *slack.Client
	httpClient *http.Client
	apiURL     string
	token      string
	logger     zerolog.Logger
}

// Options configures a Client.
type Options struct {
	// APIURL overrides https://slack.com/api/. It must end with a slash.
	APIURL     string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// New creates a Client for a bot token.
func New(token string, opts Options) *Client {
	apiURL := strings.TrimSpace(opts.APIURL)
	if apiURL == "" {
		apiURL = slack.APIURL
	}
	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		api:        slack.New(token, slack.OptionAPIURL(apiURL), slack.OptionHTTPClient(httpClient)),
		httpClient: httpClient,
		apiURL:     apiURL,
		token:      token,
		logger:     opts.Logger,
	}
}

// JoinConversation joins the bot user to a channel.
func (c *Client) JoinConversation(ctx context.Context, channelID string) error {
	_, warning, _, err := c.api.JoinConversationContext(ctx, channelID)
	c.logger.Debug().Str("channel_id", channelID).Str("warning", warning).Err(err).Msg("conversations.join")
	return wrapError("conversations.join", err)
}

// ConversationInfo succeeds when the bot user can read the channel.
func (c *Client) ConversationInfo(ctx context.Context, channelID string) error {
	_, err := c.api.GetConversationInfoContext(ctx, &slack.GetConversationInfoInput{ChannelID: channelID})
	c.logger.Debug().Str("channel_id", channelID).Err(err).Msg("conversations.info")
	return wrapError("conversations.info", err)
}

// ActorUserID returns the bot user id behind the token.
func (c *Client) ActorUserID(ctx context.Context) (string, error) {
	resp, err := c.api.AuthTestContext(ctx)
	if err != nil {
		return "", wrapError("auth.test", err)
	}
	return resp.UserID, nil
}

// FetchMessage loads one message. A thread reply is looked up in its thread
// when threadTs is known, and in the thread rooted at ts otherwise.
func (c *Client) FetchMessage(ctx context.Context, channelID, ts, threadTs string) (domain.Message, error) {
	if threadTs != "" && threadTs != ts {
		return c.findInThread(ctx, channelID, threadTs, ts)
	}

	history, err := c.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Latest:    ts,
		Oldest:    ts,
		Inclusive: true,
		Limit:     1,
	})
	if err != nil {
		return domain.Message{}, wrapError("conversations.history", err)
	}
	for _, m := range history.Messages {
		if m.Timestamp == ts {
			return toMessage(channelID, m), nil
		}
	}

	// Thread replies are not part of the channel history
	return c.findInThread(ctx, channelID, ts, ts)
}

func (c *Client) findInThread(ctx context.Context, channelID, threadTs, ts string) (domain.Message, error) {
	msgs, _, _, err := c.api.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
		ChannelID: channelID,
		Timestamp: threadTs,
		Oldest:    ts,
		Inclusive: true,
	})
	if err != nil {
		if errorCode(err) == "thread_not_found" {
			return domain.Message{}, &domain.NotFoundError{Resource: "message", ID: ts}
		}
		return domain.Message{}, wrapError("conversations.replies", err)
	}
	for _, m := range msgs {
		if m.Timestamp == ts {
			return toMessage(channelID, m), nil
		}
	}
	return domain.Message{}, &domain.NotFoundError{Resource: "message", ID: ts}
}

// ThreadReplies returns every message of a thread, parent included.
func (c *Client) ThreadReplies(ctx context.Context, channelID, threadTs string) ([]domain.Message, error) {
	var (
		out    []domain.Message
		cursor string
	)
	for {
		msgs, hasMore, next, err := c.api.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
			ChannelID: channelID,
			Timestamp: threadTs,
			Cursor:    cursor,
		})
		if err != nil {
			if errorCode(err) == "thread_not_found" {
				return nil, nil
			}
			return nil, wrapError("conversations.replies", err)
		}
		for _, m := range msgs {
			out = append(out, toMessage(channelID, m))
		}
		if !hasMore || next == "" {
			return out, nil
		}
		cursor = next
	}
}

// PostReply posts text in a thread and returns the reply timestamp.
func (c *Client) PostReply(ctx context.Context, channelID, threadTs, text string) (string, error) {
	_, ts, err := c.api.PostMessageContext(ctx, channelID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionTS(threadTs),
	)
	if err != nil {
		return "", wrapError("chat.postMessage", err)
	}
	return ts, nil
}

// OpenModal opens a modal from a workflow interactivity pointer.
func (c *Client) OpenModal(ctx context.Context, interactivityPointer string, view slack.ModalViewRequest) error {
	payload := struct {
		InteractivityPointer string                 `json:"interactivity_pointer"`
		View                 slack.ModalViewRequest `json:"view"`
	}{interactivityPointer, view}
	return c.call(ctx, "views.open", payload, nil)
}

// CompleteSuccess completes a function execution. outputs may be empty.
func (c *Client) CompleteSuccess(ctx context.Context, executionID string, outputs map[string]string) error {
	if outputs == nil {
		outputs = map[string]string{}
	}
	payload := struct {
		FunctionExecutionID string            `json:"function_execution_id"`
		Outputs             map[string]string `json:"outputs"`
	}{executionID, outputs}
	return c.call(ctx, "functions.completeSuccess", payload, nil)
}

// CompleteError fails a function execution with a user-facing message.
func (c *Client) CompleteError(ctx context.Context, executionID, message string) error {
	return wrapError("functions.completeError", c.api.FunctionCompleteErrorContext(ctx, executionID, message))
}

// call POSTs a JSON payload to a Web API method and decodes the response
// into out when it is not nil.
func (c *Client) call(ctx context.Context, method string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send %s request: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}
	c.logger.Debug().Str("method", method).Int("status", resp.StatusCode).Bytes("body", respBody).Msg("slack api response")

	if resp.StatusCode != http.StatusOK {
		return &domain.UpstreamError{Service: serviceName, Status: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	var envelope struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return &domain.UpstreamError{Service: serviceName, Status: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	if !envelope.OK {
		return &domain.APIError{Method: method, Code: envelope.Error}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode %s response: %w", method, err)
		}
	}
	return nil
}

// wrapError turns slack-go API errors into *domain.APIError.
func wrapError(method string, err error) error {
	if err == nil {
		return nil
	}
	var slackErr slack.SlackErrorResponse
	if errors.As(err, &slackErr) {
		return &domain.APIError{Method: method, Code: slackErr.Err}
	}
	var rateLimited *slack.RateLimitedError
	if errors.As(err, &rateLimited) {
		return &domain.UpstreamError{Service: serviceName, Status: http.StatusTooManyRequests, Body: rateLimited.Error()}
	}
	return fmt.Errorf("%s: %w", method, err)
}

func errorCode(err error) string {
	var slackErr slack.SlackErrorResponse
	if errors.As(err, &slackErr) {
		return slackErr.Err
	}
	return ""
}

func toMessage(channelID string, m slack.Message) domain.Message {
	return domain.Message{
		ChannelID: channelID,
		Ts:        m.Timestamp,
		ThreadTs:  m.ThreadTimestamp,
		Text:      m.Text,
	}
}
