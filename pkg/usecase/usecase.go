package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/homedocks/homedocks-bot/pkg/domain/interfaces"
	"github.com/homedocks/homedocks-bot/pkg/domain/model"
	"github.com/homedocks/homedocks-bot/pkg/service/auditlog"
	"github.com/homedocks/homedocks-bot/pkg/service/discord"
	"github.com/homedocks/homedocks-bot/pkg/utils/errutil"
	"github.com/m-mizutani/goerr/v2"
)

const (
	DefaultReconcilePacing = time.Second
	DefaultReactionPacing  = 250 * time.Millisecond
)

type UseCases struct {
	guild     *model.Guild
	repo      interfaces.Repository
	templates *Templates

	now             func() time.Time
	reconcilePacing time.Duration
	reactionPacing  time.Duration

	bootstrapMu sync.Mutex

	Reconcile *ReconcileUseCase
	Role      *RoleUseCase
	Ticket    *TicketUseCase
}

type Option func(*UseCases)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

// WithTemplates replaces the embedded posting templates
func WithTemplates(t *Templates) Option {
	return func(uc *UseCases) {
		uc.templates = t
	}
}

// WithPacing sets the minimum interval between reconciled postings
func WithPacing(d time.Duration) Option {
	return func(uc *UseCases) {
		uc.reconcilePacing = d
	}
}

// WithReactionPacing sets the minimum interval between reaction writes
func WithReactionPacing(d time.Duration) Option {
	return func(uc *UseCases) {
		uc.reactionPacing = d
	}
}

func New(svc discord.Service, repo interfaces.Repository, sink auditlog.Sink, guild *model.Guild, opts ...Option) (*UseCases, error) {
	uc := &UseCases{
		guild:           guild,
		repo:            repo,
		now:             time.Now,
		reconcilePacing: DefaultReconcilePacing,
		reactionPacing:  DefaultReactionPacing,
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.templates == nil {
		templates, err := LoadTemplates("")
		if err != nil {
			return nil, goerr.Wrap(err, "failed to load default templates")
		}
		uc.templates = templates
	}

	uc.Reconcile = NewReconcileUseCase(svc, repo.Posting(), sink, uc.now, uc.reconcilePacing)
	uc.Role = NewRoleUseCase(svc, sink, uc.Reconcile, uc.templates, guild, newLimiter(uc.reactionPacing))
	uc.Ticket = NewTicketUseCase(svc, sink, guild, uc.now)

	return uc, nil
}

// Targets returns every managed posting of the guild
func (uc *UseCases) Targets() ([]Target, error) {
	return uc.templates.Targets(uc.guild)
}

// Bootstrap reconciles every managed posting and then prepares the role
// selection message. Failures are logged and joined; none stops the others.
// Overlapping calls run one after the other.
func (uc *UseCases) Bootstrap(ctx context.Context) error {
	uc.bootstrapMu.Lock()
	defer uc.bootstrapMu.Unlock()

	targets, err := uc.Targets()
	if err != nil {
		return err
	}

	var errs []error
	if err := uc.Reconcile.ReconcileAll(ctx, targets); err != nil {
		errs = append(errs, err)
	}
	if err := uc.Role.EnsureAnchor(ctx); err != nil {
		errs = append(errs, errutil.Handle(ctx, err, "failed to prepare role selection message"))
	}
	return errors.Join(errs...)
}

// Close releases timers held by pending ticket confirmations
func (uc *UseCases) Close() {
	uc.Ticket.Close()
}
