package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	server "github.com/homedocks/homedocks-bot/pkg/controller/http"
	"github.com/homedocks/homedocks-bot/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

type statusFunc func(ctx context.Context) (*usecase.Status, error)

func (f statusFunc) Status(ctx context.Context) (*usecase.Status, error) {
	return f(ctx)
}

func TestHealth(t *testing.T) {
	srv := server.New(server.WithVersion("v1.2.3"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	gt.Value(t, rec.Code).Equal(http.StatusOK)
	var body map[string]string
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body)).Required()
	gt.Value(t, body["status"]).Equal("ok")
	gt.Value(t, body["version"]).Equal("v1.2.3")
}

func TestStatus(t *testing.T) {
	t.Run("serves the snapshot", func(t *testing.T) {
		srv := server.New(server.WithStatus(statusFunc(func(ctx context.Context) (*usecase.Status, error) {
			return &usecase.Status{
				GuildID:         "800",
				AnchorMessageID: "42",
				Postings: []usecase.PostingStatus{
					{Key: "rules", ChannelID: "1", MessageID: "10", Synced: true},
				},
			}, nil
		})))

		req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		gt.Value(t, rec.Code).Equal(http.StatusOK)
		gt.Value(t, rec.Header().Get("Content-Type")).Equal("application/json")

		var status usecase.Status
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status)).Required()
		gt.Value(t, status.AnchorMessageID).Equal("42")
		gt.Array(t, status.Postings).Length(1).Required()
		gt.B(t, status.Postings[0].Synced).True()
	})

	t.Run("provider failure is a server error", func(t *testing.T) {
		srv := server.New(server.WithStatus(statusFunc(func(ctx context.Context) (*usecase.Status, error) {
			return nil, goerr.New("repository unavailable")
		})))

		req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		gt.Value(t, rec.Code).Equal(http.StatusInternalServerError)
	})

	t.Run("not routed without a provider", func(t *testing.T) {
		srv := server.New()

		req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		gt.Value(t, rec.Code).Equal(http.StatusNotFound)
	})
}
