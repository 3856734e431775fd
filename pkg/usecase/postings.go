package usecase

import (
	"embed"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/homedocks/homedocks-bot/pkg/domain/model"
	"github.com/homedocks/homedocks-bot/pkg/service/discord"
	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

//go:embed templates/*.yaml
var defaultTemplates embed.FS

// Template file names, shared by the embedded defaults and the override
// directory
const (
	TemplateRules         = "rules.yaml"
	TemplateResources     = "resources.yaml"
	TemplateTicketInfo    = "ticket_info.yaml"
	TemplateTicketPanel   = "ticket_panel.yaml"
	TemplateReactionRoles = "reaction_roles.yaml"
)

var templateNames = []string{
	TemplateRules,
	TemplateResources,
	TemplateTicketInfo,
	TemplateTicketPanel,
	TemplateReactionRoles,
}

type postingTemplate struct {
	AdoptMarker   string `yaml:"adopt_marker"`
	model.Content `yaml:",inline"`
}

// Templates holds the content of every managed posting
type Templates struct {
	templates map[string]*postingTemplate
}

// LoadTemplates reads the embedded templates. Files found in dir replace the
// embedded file of the same name; an empty dir uses the defaults only.
func LoadTemplates(dir string) (*Templates, error) {
	t := &Templates{templates: make(map[string]*postingTemplate, len(templateNames))}

	for _, name := range templateNames {
		data, err := defaultTemplates.ReadFile("templates/" + name)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read embedded template", goerr.V("template", name))
		}

		if dir != "" {
			path := filepath.Join(dir, name)
			override, err := os.ReadFile(filepath.Clean(path))
			switch {
			case err == nil:
				data = override
			case errors.Is(err, fs.ErrNotExist):
			default:
				return nil, goerr.Wrap(err, "failed to read template override", goerr.V("path", path))
			}
		}

		var tmpl postingTemplate
		if err := yaml.Unmarshal(data, &tmpl); err != nil {
			return nil, goerr.Wrap(errors.Join(ErrInvalidTemplate, err), "failed to parse template", goerr.V("template", name))
		}
		t.templates[name] = &tmpl
	}

	return t, nil
}

func (t *Templates) content(name string) *model.Content {
	tmpl, ok := t.templates[name]
	if !ok {
		return &model.Content{}
	}
	return cloneContent(&tmpl.Content)
}

func (t *Templates) adoptMarker(name string) string {
	if tmpl, ok := t.templates[name]; ok {
		return tmpl.AdoptMarker
	}
	return ""
}

// TicketPanel renders the ticket creation panel of a support channel
func (t *Templates) TicketPanel(channelName string) *model.Content {
	c := t.content(TemplateTicketPanel)
	r := strings.NewReplacer("{name}", channelName, "{NAME}", strings.ToUpper(channelName))
	c.Title = r.Replace(c.Title)
	c.Description = r.Replace(c.Description)
	c.Buttons = append(c.Buttons, discord.TicketPanelButtons()...)
	return c
}

// Anchor renders the role selection message with one field per binding
func (t *Templates) Anchor(bindings model.RoleBindings) *model.Content {
	c := t.content(TemplateReactionRoles)
	for _, b := range bindings {
		c.Fields = append(c.Fields, model.Field{
			Name:   b.Emoji + " " + b.Label,
			Value:  "React with " + b.Emoji + " to get the **" + b.Label + "** role.",
			Inline: true,
		})
	}
	return c
}

// Targets builds the managed postings of the guild, except the role anchor
// which is owned by RoleUseCase. Every rendered content is validated.
func (t *Templates) Targets(guild *model.Guild) ([]Target, error) {
	var targets []Target

	static := []struct {
		doc       string
		template  string
		channelID string
	}{
		{doc: model.PostingDocRules, template: TemplateRules, channelID: guild.Postings.Rules},
		{doc: model.PostingDocResources, template: TemplateResources, channelID: guild.Postings.Resources},
		{doc: model.PostingDocTicketInfo, template: TemplateTicketInfo, channelID: guild.Postings.TicketInfo},
	}
	for _, s := range static {
		if s.channelID == "" {
			continue
		}
		targets = append(targets, Target{
			Key:         model.NewPostingKey(s.doc),
			ChannelID:   s.channelID,
			Content:     t.content(s.template),
			AdoptMarker: t.adoptMarker(s.template),
		})
	}

	for _, ch := range guild.SupportChannels {
		targets = append(targets, Target{
			Key:         model.NewTicketPanelKey(ch.ChannelID),
			ChannelID:   ch.ChannelID,
			Content:     t.TicketPanel(ch.Name),
			AdoptMarker: t.adoptMarker(TemplateTicketPanel),
		})
	}

	for _, target := range targets {
		if err := target.Content.Validate(); err != nil {
			return nil, goerr.Wrap(errors.Join(ErrInvalidTemplate, err), "invalid posting content",
				goerr.V(PostingKeyKey, target.Key.String()))
		}
	}

	if len(guild.ReactionRoles.Bindings) > 0 {
		if err := t.Anchor(guild.ReactionRoles.Bindings).Validate(); err != nil {
			return nil, goerr.Wrap(errors.Join(ErrInvalidTemplate, err), "invalid role selection content")
		}
	}

	return targets, nil
}

func cloneContent(c *model.Content) *model.Content {
	cp := *c
	cp.Fields = slices.Clone(c.Fields)
	cp.Buttons = slices.Clone(c.Buttons)
	return &cp
}
