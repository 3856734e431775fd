package model

import (
	"encoding/hex"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/m-mizutani/goerr/v2"
	"github.com/zeebo/blake3"
)

// Field is one embed field of a managed posting
type Field struct {
	Name   string `yaml:"name"`
	Value  string `yaml:"value"`
	Inline bool   `yaml:"inline,omitempty"`
}

// Button is an interactive control attached to a managed posting
type Button struct {
	CustomID string `yaml:"custom_id"`
	Label    string `yaml:"label"`
	Emoji    string `yaml:"emoji,omitempty"`
	Style    string `yaml:"style,omitempty"`
}

// Content is the static payload of a managed posting. The "Last updated"
// footer is rendered separately and never hashed.
type Content struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Color       int      `yaml:"color"`
	Fields      []Field  `yaml:"fields,omitempty"`
	Buttons     []Button `yaml:"buttons,omitempty"`
}

var (
	hashEncMode     cbor.EncMode
	hashEncModeErr  error
	hashEncModeOnce sync.Once
)

func canonicalEncMode() (cbor.EncMode, error) {
	hashEncModeOnce.Do(func() {
		hashEncMode, hashEncModeErr = cbor.CoreDetEncOptions().EncMode()
	})
	return hashEncMode, hashEncModeErr
}

// Hash returns the hex encoded BLAKE3-256 digest of the canonical CBOR
// encoding of the content. Map keys are sorted by the core deterministic
// encoding, so only semantic changes alter the hash.
func (c *Content) Hash() (string, error) {
	em, err := canonicalEncMode()
	if err != nil {
		return "", goerr.Wrap(err, "failed to build canonical CBOR encoder")
	}

	data, err := em.Marshal(c.canonical())
	if err != nil {
		return "", goerr.Wrap(err, "failed to encode content", goerr.V("title", c.Title))
	}

	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// canonical converts the content into generic maps so the encoding does not
// depend on Go struct layout.
func (c *Content) canonical() map[string]any {
	fields := make([]any, len(c.Fields))
	for i, f := range c.Fields {
		fields[i] = map[string]any{
			"name":   f.Name,
			"value":  f.Value,
			"inline": f.Inline,
		}
	}

	buttons := make([]any, len(c.Buttons))
	for i, b := range c.Buttons {
		buttons[i] = map[string]any{
			"custom_id": b.CustomID,
			"label":     b.Label,
			"emoji":     b.Emoji,
			"style":     b.Style,
		}
	}

	return map[string]any{
		"title":       c.Title,
		"description": c.Description,
		"color":       c.Color,
		"fields":      fields,
		"buttons":     buttons,
	}
}

// Validate checks the content against platform limits
func (c *Content) Validate() error {
	if c.Title == "" && c.Description == "" {
		return goerr.New("content requires a title or a description")
	}
	if len(c.Title) > 256 {
		return goerr.New("title exceeds 256 characters", goerr.V("title", c.Title))
	}
	if len(c.Description) > 4096 {
		return goerr.New("description exceeds 4096 characters", goerr.V("title", c.Title))
	}
	if len(c.Fields) > 25 {
		return goerr.New("too many fields", goerr.V("title", c.Title), goerr.V("count", len(c.Fields)))
	}
	if len(c.Buttons) > 5 {
		return goerr.New("too many buttons", goerr.V("title", c.Title), goerr.V("count", len(c.Buttons)))
	}
	for i, f := range c.Fields {
		if f.Name == "" || f.Value == "" {
			return goerr.New("field name and value are required", goerr.V("title", c.Title), goerr.V("index", i))
		}
	}
	for i, b := range c.Buttons {
		if b.CustomID == "" || b.Label == "" {
			return goerr.New("button custom_id and label are required", goerr.V("title", c.Title), goerr.V("index", i))
		}
	}
	return nil
}
