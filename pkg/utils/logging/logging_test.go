package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/homedocks/homedocks-bot/pkg/utils/logging"
	"github.com/m-mizutani/gt"
)

func TestFrom(t *testing.T) {
	t.Run("falls back to default logger", func(t *testing.T) {
		gt.Value(t, logging.From(context.Background())).Equal(logging.Default())
	})

	t.Run("returns logger stored in context", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil)).With("event_id", "ev-1")
		ctx := logging.With(t.Context(), logger)

		logging.From(ctx).Info("hello")
		gt.B(t, strings.Contains(buf.String(), "event_id=ev-1")).True()
	})
}

func TestSetDefault(t *testing.T) {
	orig := logging.Default()
	defer logging.SetDefault(orig)

	var buf bytes.Buffer
	logging.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	logging.Default().Info("replaced")
	gt.B(t, strings.Contains(buf.String(), "replaced")).True()

	logging.SetDefault(nil)
	gt.Value(t, logging.Default()).NotNil()
}
