package errutil_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/homedocks/homedocks-bot/pkg/utils/errutil"
	"github.com/homedocks/homedocks-bot/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

func TestHandle(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.With(t.Context(), slog.New(slog.NewJSONHandler(&buf, nil)))

	t.Run("logs values and returns the error", func(t *testing.T) {
		buf.Reset()
		err := goerr.New("channel vanished", goerr.V("channel_id", "820"))

		got := errutil.Handle(ctx, err, "reconcile failed")
		gt.Value(t, got).Equal(err)
		gt.String(t, buf.String()).Contains("reconcile failed")
		gt.String(t, buf.String()).Contains("820")
	})

	t.Run("nil is ignored", func(t *testing.T) {
		buf.Reset()
		gt.NoError(t, errutil.Handle(ctx, nil, "nothing"))
		gt.Value(t, buf.Len()).Equal(0)
	})
}

func TestHandleHTTP(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.With(t.Context(), slog.New(slog.NewJSONHandler(&buf, nil)))

	rec := httptest.NewRecorder()
	errutil.HandleHTTP(ctx, rec, goerr.New("backend down"), http.StatusServiceUnavailable)

	gt.Value(t, rec.Code).Equal(http.StatusServiceUnavailable)
	gt.String(t, rec.Body.String()).Contains("backend down")
	gt.String(t, buf.String()).Contains("HTTP error")
}
