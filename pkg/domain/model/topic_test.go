package model_test

import (
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/homedocks/homedocks-bot/pkg/domain/model"
	"github.com/m-mizutani/gt"
)

func TestTicketTopic_RoundTrip(t *testing.T) {
	ids := []uint64{1, 111, 1382054051130118327, math.MaxInt64, math.MaxUint64}

	for _, id := range ids {
		t.Run(strconv.FormatUint(id, 10), func(t *testing.T) {
			topic := model.TicketTopic{
				CreatorName: "Alice",
				CreatorID:   strconv.FormatUint(id, 10),
				Problem:     "Web Problem",
			}

			parsed, err := model.ParseTicketTopic(topic.String())
			gt.NoError(t, err).Required()
			gt.Value(t, parsed).Equal(topic)
		})
	}
}

func TestTicketTopic_String(t *testing.T) {
	topic := model.TicketTopic{CreatorName: "Alice", CreatorID: "111", Problem: "Web Problem"}
	gt.Value(t, topic.String()).Equal("Support ticket for Alice (ID: 111) regarding a Web Problem.")
}

func TestParseTicketTopic(t *testing.T) {
	t.Run("display name containing the marker cannot spoof the creator", func(t *testing.T) {
		topic := model.TicketTopic{CreatorName: "Mallory (ID: 999)", CreatorID: "222", Problem: "App Problem"}

		parsed, err := model.ParseTicketTopic(topic.String())
		gt.NoError(t, err).Required()
		gt.Value(t, parsed.CreatorID).Equal("222")
		gt.Value(t, parsed.CreatorName).Equal("Mallory (ID: 999)")
	})

	t.Run("id only topic decodes the creator", func(t *testing.T) {
		parsed, err := model.ParseTicketTopic("legacy (ID: 333)")
		gt.NoError(t, err).Required()
		gt.Value(t, parsed.CreatorID).Equal("333")
		gt.Value(t, parsed.CreatorName).Equal("")
	})

	malformed := []struct {
		name  string
		topic string
	}{
		{name: "empty", topic: ""},
		{name: "no marker", topic: "Support ticket for Alice regarding a Web Problem."},
		{name: "non numeric", topic: "Support ticket for Alice (ID: abc) regarding a Web Problem."},
		{name: "missing colon", topic: "Support ticket for Alice (ID 111) regarding a Web Problem."},
		{name: "zero", topic: "Support ticket for Alice (ID: 0) regarding a Web Problem."},
		{name: "overflow", topic: "Support ticket for Alice (ID: 99999999999999999999) regarding a Web Problem."},
	}

	for _, tt := range malformed {
		t.Run("creator unknown when "+tt.name, func(t *testing.T) {
			_, err := model.ParseTicketTopic(tt.topic)
			gt.Error(t, err)
			gt.B(t, errors.Is(err, model.ErrTopicCreatorUnknown)).True()
		})
	}
}
