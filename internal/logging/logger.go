// Package logging builds the zerolog logger shared by every entry point.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pricofy/slack-translator/internal/config"
)

const serviceName = "slack-translator"

func New(environment, level string) (zerolog.Logger, error) {
	return NewWithWriter(os.Stdout, environment, level)
}

// NewWithWriter is New with an explicit output.
func NewWithWriter(out io.Writer, environment, level string) (zerolog.Logger, error) {
	parsedLevel, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("parse LOG_LEVEL=%q: %w", level, err)
	}

	writer := out
	if strings.EqualFold(strings.TrimSpace(environment), config.EnvironmentLocal) {
		writer = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	logger := zerolog.New(writer).
		Level(parsedLevel).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()

	return logger, nil
}

// WithInvocation tags every log line of one invocation with a fresh id and
// stores the logger in the returned context.
func WithInvocation(ctx context.Context, logger zerolog.Logger, kind string) (context.Context, zerolog.Logger) {
	l := logger.With().
		Str("invocation_id", uuid.NewString()).
		Str("invocation", kind).
		Logger()
	return l.WithContext(ctx), l
}
