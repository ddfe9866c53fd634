package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/pricofy/slack-translator/internal/domain"
	"github.com/pricofy/slack-translator/internal/lang"
	"github.com/pricofy/slack-translator/internal/translation"
)

// DetectLangRequest is the input of the detect-lang function.
type DetectLangRequest struct {
	Reaction string `json:"reaction"`
}

// TranslateRequest is the input of the translate function.
type TranslateRequest struct {
	ChannelID string `json:"channelId"`
	MessageTs string `json:"messageTs"`
	ThreadTs  string `json:"threadTs,omitempty"`
	Lang      string `json:"lang,omitempty"`
	Reaction  string `json:"reaction,omitempty"`
}

// DetectLang maps a reaction to a target language. Unknown reactions
// succeed without a lang output.
func (h *Handler) DetectLang(ctx context.Context, req DetectLangRequest) (*Response, error) {
	code, ok := lang.FromReaction(req.Reaction)
	if !ok {
		h.logger.Debug().Str("reaction", req.Reaction).Msg("reaction is not a language")
		return success(nil), nil
	}
	return success(map[string]string{"lang": code}), nil
}

// Translate translates the reacted message into its thread.
func (h *Handler) Translate(ctx context.Context, req TranslateRequest) (*Response, error) {
	if err := validateTranslateRequest(req); err != nil {
		return &Response{Error: err.Error()}, nil
	}

	target := req.Lang
	if target == "" {
		target, _ = lang.FromReaction(req.Reaction)
	}
	if target == "" {
		h.logger.Info().Str("reaction", req.Reaction).Msg("skipped: no target language")
		return success(nil), nil
	}

	result, err := h.deps.Translator.Run(ctx, translation.Input{
		ChannelID: req.ChannelID,
		MessageTs: req.MessageTs,
		ThreadTs:  req.ThreadTs,
		Lang:      target,
	})
	if err != nil {
		return &Response{Error: translateFailure(err, result.Source)}, nil
	}

	h.logger.Info().Str("status", result.Status.String()).Str("lang", target).Msg("translate done")
	if result.Status != translation.Posted {
		return success(nil), nil
	}
	return success(map[string]string{"ts": result.Ts}), nil
}

func validateTranslateRequest(req TranslateRequest) error {
	if req.ChannelID == "" {
		return fmt.Errorf("channelId is required")
	}
	if req.MessageTs == "" {
		return fmt.Errorf("messageTs is required")
	}
	return nil
}

func translateFailure(err error, source string) string {
	var authErr *domain.AuthenticationError
	if errors.As(err, &authErr) && authErr.Service == "slack" {
		return fmt.Sprintf("Reading the message failed! Please make sure if the SLACK_BOT_TOKEN is correct. - (error: %s)", authErr.Reason)
	}
	if authErr != nil {
		return fmt.Sprintf("Translating a message failed! Please make sure if the DEEPL_AUTH_KEY is correct. - (status: %d, target text: %s)",
			authErr.Status, domain.Preview(source))
	}
	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) && upstream.Service == "deepl" {
		return fmt.Sprintf("Translation failed for some reason! - (status: %d, body: %s, target text: %s)",
			upstream.Status, upstream.Body, domain.Preview(source))
	}
	return fmt.Sprintf("translation failed: %v", err)
}
