package model_test

import (
	"encoding/json"
	"testing"

	"github.com/homedocks/homedocks-bot/pkg/domain/model"
	"github.com/m-mizutani/gt"
)

func TestSnowflake_JSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    model.Snowflake
		wantErr bool
	}{
		{name: "string", input: `"1382766275717234828"`, want: "1382766275717234828"},
		{name: "legacy integer", input: `1382766275717234828`, want: "1382766275717234828"},
		{name: "null", input: `null`, want: ""},
		{name: "negative integer", input: `-1`, wantErr: true},
		{name: "float", input: `1.5`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s model.Snowflake
			err := json.Unmarshal([]byte(tt.input), &s)
			if tt.wantErr {
				gt.Error(t, err)
				return
			}
			gt.NoError(t, err).Required()
			gt.Value(t, s).Equal(tt.want)
		})
	}

	t.Run("empty snowflake encodes as null", func(t *testing.T) {
		data, err := json.Marshal(model.Posting{})
		gt.NoError(t, err).Required()
		gt.Value(t, string(data)).Equal(`{"message_id":null,"content_hash":""}`)
	})
}

func TestPosting_Invalidate(t *testing.T) {
	p := &model.Posting{Key: model.NewPostingKey(model.PostingDocRules), MessageID: "1", ContentHash: "abc"}
	cp := p.Clone()
	p.Invalidate()

	gt.B(t, p.MessageID.IsZero()).True()
	gt.Value(t, p.ContentHash).Equal("")
	gt.Value(t, cp.MessageID).Equal(model.Snowflake("1"))
}

func TestPostingKey_String(t *testing.T) {
	gt.Value(t, model.NewPostingKey("rules").String()).Equal("rules")
	gt.Value(t, model.NewTicketPanelKey("42").String()).Equal("tickets/42")
}
