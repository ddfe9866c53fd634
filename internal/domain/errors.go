package domain

import (
	"errors"
	"fmt"
)

// previewLength is how much of a source text is echoed back in messages.
const previewLength = 30

// Preview truncates text to its first runes for logs and user messages.
func Preview(text string) string {
	r := []rune(text)
	if len(r) <= previewLength {
		return text
	}
	return string(r[:previewLength]) + "..."
}

// ValidationError is a rejected user input. Field names the form block.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// AuthenticationError is a credential rejected by an upstream service.
// Reason carries the Slack error code when the service answers 200 with
// ok=false.
type AuthenticationError struct {
	Service string
	Status  int
	Reason  string
}

func (e *AuthenticationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s rejected the credentials (error: %s)", e.Service, e.Reason)
	}
	return fmt.Sprintf("%s rejected the credentials (status: %d)", e.Service, e.Status)
}

// slackAuthCodes are the Slack error codes of an unusable bot token.
var slackAuthCodes = map[string]bool{
	"invalid_auth":     true,
	"not_authed":       true,
	"token_revoked":    true,
	"token_expired":    true,
	"account_inactive": true,
}

// IsSlackAuthCode reports whether a Slack error code means the bot token
// itself was rejected.
func IsSlackAuthCode(code string) bool {
	return slackAuthCodes[code]
}

// SlackAuthError returns an *AuthenticationError when err carries a Slack
// token failure, and nil otherwise.
func SlackAuthError(err error) *AuthenticationError {
	var authErr *AuthenticationError
	if errors.As(err, &authErr) && authErr.Service == "slack" {
		return authErr
	}
	if code := APIErrorCode(err); IsSlackAuthCode(code) {
		return &AuthenticationError{Service: "slack", Reason: code}
	}
	return nil
}

// PermissionError means the bot user cannot operate in a channel.
// Its message is shown to Slack users as is.
type PermissionError struct {
	ChannelID   string
	ActorUserID string
	Reason      string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("*:warning: Failed to join <#%s> due to \"%s\" error!*\n\n"+
		"This workflow is unable to add <@%s> to private channels and DMs. "+
		"For those conversations, please invite the bot user in advance :bow:",
		e.ChannelID, e.Reason, e.ActorUserID)
}

// NotFoundError is a missing Slack resource.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// UpstreamError is any other failed or malformed upstream response.
type UpstreamError struct {
	Service string
	Status  int
	Body    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s request failed (status: %d, body: %s)", e.Service, e.Status, e.Body)
}

// APIError is a Slack Web API response with ok=false.
type APIError struct {
	Method string
	Code   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Method, e.Code)
}

// APIErrorCode returns the Slack error code carried by err, or "".
func APIErrorCode(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}
