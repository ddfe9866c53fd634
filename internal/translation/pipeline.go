// Package translation runs the reaction path: fetch a message, translate it
// with its markup protected, and reply in its thread once.
package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pricofy/slack-translator/internal/chunker"
	"github.com/pricofy/slack-translator/internal/deepl"
	"github.com/pricofy/slack-translator/internal/domain"
	"github.com/pricofy/slack-translator/internal/markup"
)

// Messages is the Slack surface of the reaction path.
type Messages interface {
	FetchMessage(ctx context.Context, channelID, ts, threadTs string) (domain.Message, error)
	ThreadReplies(ctx context.Context, channelID, threadTs string) ([]domain.Message, error)
	PostReply(ctx context.Context, channelID, threadTs, text string) (string, error)
}

// Translator translates one escaped text.
type Translator interface {
	Translate(ctx context.Context, req deepl.Request) (string, error)
}

// Status is how a run ended.
type Status int

const (
	Posted Status = iota
	SkippedNotFound
	SkippedEmpty
	SkippedDuplicate
)

func (s Status) String() string {
	switch s {
	case Posted:
		return "posted"
	case SkippedNotFound:
		return "skipped_not_found"
	case SkippedEmpty:
		return "skipped_empty"
	case SkippedDuplicate:
		return "skipped_duplicate"
	default:
		return "unknown"
	}
}

// Input identifies the reacted message and the target language.
type Input struct {
	ChannelID string
	MessageTs string
	ThreadTs  string
	Lang      string
}

// Result is the outcome of one run. Ts is set when a reply was posted.
type Result struct {
	Status Status
	Ts     string
	Source string
	Text   string
}

// Pipeline translates reacted messages.
type Pipeline struct {
	messages      Messages
	translator    Translator
	authKey       string
	maxChunkBytes int
	logger        zerolog.Logger
}

// NewPipeline creates a Pipeline.
func NewPipeline(messages Messages, translator Translator, authKey string, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		messages:      messages,
		translator:    translator,
		authKey:       authKey,
		maxChunkBytes: chunker.DefaultMaxBytes,
		logger:        logger,
	}
}

// Run translates the message and posts the translation in its thread unless
// the thread already has it. A missing or unreadable message is a skip, not
// an error. A rejected bot token is returned as *domain.AuthenticationError.
func (p *Pipeline) Run(ctx context.Context, in Input) (Result, error) {
	logger := p.logger.With().Str("channel_id", in.ChannelID).Str("message_ts", in.MessageTs).Str("lang", in.Lang).Logger()

	msg, err := p.messages.FetchMessage(ctx, in.ChannelID, in.MessageTs, in.ThreadTs)
	if err != nil {
		if authErr := domain.SlackAuthError(err); authErr != nil {
			return Result{}, fmt.Errorf("fetch message: %w", authErr)
		}
		if unreadable(err) {
			logger.Info().Err(err).Msg("message not readable, perhaps the bot user needs to be invited to the channel")
			return Result{Status: SkippedNotFound}, nil
		}
		return Result{}, fmt.Errorf("fetch message: %w", err)
	}
	if strings.TrimSpace(msg.Text) == "" {
		logger.Info().Msg("message has no text")
		return Result{Status: SkippedEmpty}, nil
	}

	translated, err := p.Translate(ctx, msg.Text, in.Lang)
	if err != nil {
		return Result{Source: msg.Text}, err
	}

	threadTs := msg.ThreadRoot()
	replies, err := p.messages.ThreadReplies(ctx, in.ChannelID, threadTs)
	if err != nil {
		return Result{Source: msg.Text}, fmt.Errorf("fetch thread replies: %w", err)
	}
	if AlreadyPosted(replies, translated) {
		logger.Info().Str("text", domain.Preview(translated)).Msg("translation already posted")
		return Result{Status: SkippedDuplicate, Source: msg.Text, Text: translated}, nil
	}

	ts, err := p.messages.PostReply(ctx, in.ChannelID, threadTs, translated)
	if err != nil {
		return Result{Source: msg.Text, Text: translated}, fmt.Errorf("post translation: %w", err)
	}
	logger.Debug().Str("reply_ts", ts).Msg("translation posted")
	return Result{Status: Posted, Ts: ts, Source: msg.Text, Text: translated}, nil
}

// unreadableCodes are the Slack errors of a message the bot cannot see.
var unreadableCodes = map[string]bool{
	"not_in_channel":    true,
	"channel_not_found": true,
	"thread_not_found":  true,
	"message_not_found": true,
}

func unreadable(err error) bool {
	var notFound *domain.NotFoundError
	if errors.As(err, &notFound) {
		return true
	}
	return unreadableCodes[domain.APIErrorCode(err)]
}

// Translate escapes text, translates it in size-bounded requests and
// restores the Slack markup.
func (p *Pipeline) Translate(ctx context.Context, text, lang string) (string, error) {
	pieces := markup.EncodeEach(markup.Parse(text))

	var b strings.Builder
	for _, chunk := range chunker.Texts(pieces, p.maxChunkBytes) {
		translated, err := p.translator.Translate(ctx, deepl.Request{
			Text:       chunk,
			TargetLang: lang,
			AuthKey:    p.authKey,
		})
		if err != nil {
			return "", err
		}
		b.WriteString(translated)
	}

	return markup.Restore(b.String()), nil
}
