package model

import (
	"encoding/json"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
)

// Snowflake is a Discord identifier. It is kept as a decimal string to avoid
// float precision loss; the JSON form also accepts legacy integer values.
type Snowflake string

// IsZero reports whether the snowflake is unset
func (s Snowflake) IsZero() bool {
	return s == ""
}

func (s Snowflake) String() string {
	return string(s)
}

// MarshalJSON encodes an empty snowflake as null
func (s Snowflake) MarshalJSON() ([]byte, error) {
	if s == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

// UnmarshalJSON accepts null, a quoted decimal string or a bare integer
func (s *Snowflake) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return goerr.Wrap(err, "failed to decode snowflake string")
		}
		*s = Snowflake(str)
		return nil
	}

	if _, err := strconv.ParseUint(string(data), 10, 64); err != nil {
		return goerr.Wrap(err, "snowflake is not an unsigned integer", goerr.V("raw", string(data)))
	}
	*s = Snowflake(data)
	return nil
}

// PostingKey identifies a managed posting. Document names the backing
// document (rules, tickets, ...) and Entry selects a record inside it.
// Single-record documents use the document name as the entry.
type PostingKey struct {
	Document string
	Entry    string
}

// NewPostingKey returns the key of a single-record document
func NewPostingKey(document string) PostingKey {
	return PostingKey{Document: document, Entry: document}
}

// NewTicketPanelKey returns the key of the ticket panel in a support channel
func NewTicketPanelKey(channelID string) PostingKey {
	return PostingKey{Document: PostingDocTickets, Entry: channelID}
}

func (k PostingKey) String() string {
	if k.Entry == k.Document {
		return k.Document
	}
	return k.Document + "/" + k.Entry
}

// Well-known posting documents
const (
	PostingDocRules         = "rules"
	PostingDocResources     = "resources"
	PostingDocTicketInfo    = "ticket_info"
	PostingDocReactionRoles = "reaction_roles"
	PostingDocTickets       = "tickets"
)

// Posting is the stored state of one managed message
type Posting struct {
	Key         PostingKey `json:"-"`
	MessageID   Snowflake  `json:"message_id"`
	ContentHash string     `json:"content_hash"`
}

// Invalidate drops the stored message reference and hash
func (p *Posting) Invalidate() {
	p.MessageID = ""
	p.ContentHash = ""
}

// Clone returns a copy of the posting
func (p *Posting) Clone() *Posting {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}
