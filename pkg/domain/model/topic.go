package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// TicketTopic is the structured data kept in a ticket channel's topic.
// The topic is the only link between a ticket channel and its creator.
type TicketTopic struct {
	CreatorName string
	CreatorID   string
	Problem     string
}

const (
	topicPrefix   = "Support ticket for "
	topicProblem  = " regarding a "
	topicIDPrefix = " (ID: "
)

var topicIDPattern = regexp.MustCompile(`\(ID: ([0-9]+)\)`)

// ErrTopicCreatorUnknown is returned when a topic carries no decodable creator id
var ErrTopicCreatorUnknown = goerr.New("ticket topic has no creator id")

// String encodes the topic, e.g.
// "Support ticket for Alice (ID: 111) regarding a Web Problem."
func (t TicketTopic) String() string {
	return fmt.Sprintf("%s%s%s%s)%s%s.", topicPrefix, t.CreatorName, topicIDPrefix, t.CreatorID, topicProblem, t.Problem)
}

// ParseTicketTopic decodes a topic produced by TicketTopic.String. The last
// "(ID: <n>)" marker wins so that a display name containing the marker cannot
// spoof the creator. A missing or non-numeric id yields ErrTopicCreatorUnknown.
func ParseTicketTopic(topic string) (TicketTopic, error) {
	matches := topicIDPattern.FindAllStringSubmatchIndex(topic, -1)
	if len(matches) == 0 {
		return TicketTopic{}, goerr.Wrap(ErrTopicCreatorUnknown, "no id marker", goerr.V("topic", topic))
	}
	last := matches[len(matches)-1]
	rawID := topic[last[2]:last[3]]

	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil || id == 0 {
		return TicketTopic{}, goerr.Wrap(ErrTopicCreatorUnknown, "invalid creator id", goerr.V("topic", topic))
	}

	result := TicketTopic{CreatorID: strconv.FormatUint(id, 10)}

	head := topic[:last[0]]
	if strings.HasPrefix(head, topicPrefix) {
		result.CreatorName = strings.TrimSuffix(strings.TrimPrefix(head, topicPrefix), " ")
	}

	tail := topic[last[1]:]
	if strings.HasPrefix(tail, topicProblem) {
		result.Problem = strings.TrimSuffix(strings.TrimPrefix(tail, topicProblem), ".")
	}

	return result, nil
}
