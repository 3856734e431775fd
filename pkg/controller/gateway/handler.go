package gateway

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/homedocks/homedocks-bot/pkg/domain/types"
	"github.com/homedocks/homedocks-bot/pkg/service/discord"
	"github.com/homedocks/homedocks-bot/pkg/usecase"
	"github.com/homedocks/homedocks-bot/pkg/utils/async"
	"github.com/homedocks/homedocks-bot/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// StartupNotifier announces that the bot connected
type StartupNotifier interface {
	Startup(ctx context.Context, botName string)
}

// Registrar binds gateway event handlers, implemented by discord.Client
type Registrar interface {
	AddHandler(handler any) func()
}

// Handler routes gateway events to the use cases
type Handler struct {
	svc     discord.Service
	uc      *usecase.UseCases
	startup StartupNotifier
	guildID string
}

// New creates a gateway handler. Events of guilds other than guildID are
// dropped; an empty guildID accepts all.
func New(svc discord.Service, uc *usecase.UseCases, startup StartupNotifier, guildID string) *Handler {
	return &Handler{
		svc:     svc,
		uc:      uc,
		startup: startup,
		guildID: guildID,
	}
}

// Register binds every handler to the gateway. Each event runs in its own
// goroutine with an event scoped logger.
func (h *Handler) Register(r Registrar) {
	r.AddHandler(func(_ *discordgo.Session, e *discordgo.Ready) {
		ctx := eventContext("ready")
		async.Dispatch(ctx, func(ctx context.Context) error {
			return h.HandleReady(ctx, e)
		})
	})
	r.AddHandler(func(_ *discordgo.Session, e *discordgo.InteractionCreate) {
		ctx := eventContext("interaction_create")
		async.Dispatch(ctx, func(ctx context.Context) error {
			return h.HandleInteraction(ctx, e.Interaction)
		})
	})
	r.AddHandler(func(_ *discordgo.Session, e *discordgo.MessageReactionAdd) {
		ctx := eventContext("message_reaction_add")
		async.Dispatch(ctx, func(ctx context.Context) error {
			return h.HandleReactionAdd(ctx, e.MessageReaction)
		})
	})
	r.AddHandler(func(_ *discordgo.Session, e *discordgo.MessageReactionRemove) {
		ctx := eventContext("message_reaction_remove")
		async.Dispatch(ctx, func(ctx context.Context) error {
			return h.HandleReactionRemove(ctx, e.MessageReaction)
		})
	})
}

func eventContext(event string) context.Context {
	logger := logging.Default().With("event", event, "event_id", uuid.NewString())
	return logging.With(context.Background(), logger)
}

// HandleReady announces the connection and reconciles every managed posting.
// Ready is delivered again after a session is re-established, which
// reconciles again.
func (h *Handler) HandleReady(ctx context.Context, e *discordgo.Ready) error {
	name := ""
	if e != nil && e.User != nil {
		name = discord.UserName(e.User)
	}
	logging.From(ctx).Info("Connected to gateway", "bot", name, "guilds", readyGuilds(e))

	if h.startup != nil {
		h.startup.Startup(ctx, name)
	}
	if err := h.uc.Bootstrap(ctx); err != nil {
		return goerr.Wrap(err, "bootstrap finished with failures")
	}
	return nil
}

func readyGuilds(e *discordgo.Ready) int {
	if e == nil {
		return 0
	}
	return len(e.Guilds)
}

// HandleInteraction acknowledges a button click and dispatches it by custom
// id. Unknown components are ignored.
func (h *Handler) HandleInteraction(ctx context.Context, i *discordgo.Interaction) error {
	if i == nil || i.Type != discordgo.InteractionMessageComponent || !h.ownGuild(i.GuildID) {
		return nil
	}

	customID := i.MessageComponentData().CustomID
	route, ok := h.route(customID)
	if !ok {
		logging.From(ctx).Debug("Ignoring component", "custom_id", customID)
		return nil
	}

	logger := logging.From(ctx).With("custom_id", customID, "channel_id", i.ChannelID, "interaction_id", i.ID)
	if i.Member != nil && i.Member.User != nil {
		logger = logger.With("user_id", i.Member.User.ID)
	}
	ctx = logging.With(ctx, logger)
	logger.Info("Handling component interaction")

	if err := h.svc.DeferInteraction(ctx, i); err != nil {
		return goerr.Wrap(err, "failed to acknowledge interaction", goerr.V("custom_id", customID))
	}
	return route(ctx, i)
}

type routeFunc func(ctx context.Context, i *discordgo.Interaction) error

func (h *Handler) route(customID string) (routeFunc, bool) {
	if problem, ok := discord.ProblemTypeFromCustomID(customID); ok {
		return func(ctx context.Context, i *discordgo.Interaction) error {
			return h.uc.Ticket.OpenTicket(ctx, i, problem)
		}, true
	}

	switch customID {
	case discord.CustomIDTicketClose:
		return h.uc.Ticket.RequestClose, true
	case discord.CustomIDTicketSolved:
		return h.confirm(types.TicketStatusSolved), true
	case discord.CustomIDTicketUnresolved:
		return h.confirm(types.TicketStatusUnresolved), true
	default:
		return nil, false
	}
}

func (h *Handler) confirm(status types.TicketStatus) routeFunc {
	return func(ctx context.Context, i *discordgo.Interaction) error {
		return h.uc.Ticket.ConfirmClose(ctx, i, status)
	}
}

// HandleReactionAdd forwards reactions to role selection
func (h *Handler) HandleReactionAdd(ctx context.Context, r *discordgo.MessageReaction) error {
	if r == nil || !h.ownGuild(r.GuildID) {
		return nil
	}
	return h.uc.Role.HandleReactionAdd(ctx, r)
}

// HandleReactionRemove forwards reaction removals to role selection
func (h *Handler) HandleReactionRemove(ctx context.Context, r *discordgo.MessageReaction) error {
	if r == nil || !h.ownGuild(r.GuildID) {
		return nil
	}
	return h.uc.Role.HandleReactionRemove(ctx, r)
}

func (h *Handler) ownGuild(guildID string) bool {
	return h.guildID == "" || guildID == "" || guildID == h.guildID
}
