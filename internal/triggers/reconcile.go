package triggers

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/pricofy/slack-translator/internal/domain"
)

// Joiner joins the bot user to channels.
type Joiner interface {
	JoinAll(ctx context.Context, channelIDs []string) domain.JoinSummary
}

// Plan is the channel scope and reaction filter a user asked for.
type Plan struct {
	WorkflowCallbackID string
	ChannelIDs         []string
	Reactions          []string
}

// Reconciler applies a Plan: join every channel, then locate and upsert the
// trigger. There is no compare-and-swap between locate and upsert; two
// concurrent reconciles of one workflow race.
type Reconciler struct {
	joiner   Joiner
	locator  *Locator
	upserter *Upserter
	logger   zerolog.Logger
}

// NewReconciler creates a Reconciler.
func NewReconciler(store Store, joiner Joiner, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		joiner:   joiner,
		locator:  NewLocator(store, logger),
		upserter: NewUpserter(store, logger),
		logger:   logger,
	}
}

// Reconcile returns the first join failure in channel order and then leaves
// the trigger untouched. Store failures are returned as is.
func (r *Reconciler) Reconcile(ctx context.Context, plan Plan) (domain.Trigger, error) {
	if err := ValidateReactions(plan.Reactions); err != nil {
		return domain.Trigger{}, err
	}

	summary := r.joiner.JoinAll(ctx, plan.ChannelIDs)
	if err := summary.FirstFailure(); err != nil {
		r.logger.Warn().Int("failed", len(summary.Failures())).Msg("trigger left unchanged after join failures")
		return domain.Trigger{}, err
	}

	existing, found, err := r.locator.Locate(ctx, plan.WorkflowCallbackID)
	if err != nil {
		return domain.Trigger{}, err
	}

	var target *domain.Trigger
	if found {
		target = &existing
	}
	return r.upserter.Upsert(ctx, plan.WorkflowCallbackID, plan.ChannelIDs, plan.Reactions, target)
}
