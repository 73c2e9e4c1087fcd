package order

import (
	"context"
	"time"

	"github.com/ustatop/ustatop-api/internal/audit"
	domain "github.com/ustatop/ustatop-api/internal/domain/order"
	"github.com/ustatop/ustatop-api/internal/models"
	"github.com/ustatop/ustatop-api/internal/principal"
)

type TransitionOrder struct {
	repo  domain.Repository
	audit Auditor
}

func NewTransitionOrder(repo domain.Repository, audit Auditor) *TransitionOrder {
	return &TransitionOrder{
		repo:  repo,
		audit: audit,
	}
}

func (uc *TransitionOrder) Execute(
	ctx context.Context,
	p principal.Principal,
	orderID uint,
	to domain.Status,
) (*models.Order, error) {

	actor := resolveActor(ctx, uc.repo, p)

	o, err := uc.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, lookupErr(err)
	}

	if err := domain.Authorize(actor, o, to); err != nil {
		return nil, err
	}

	from := domain.Status(o.Status)
	now := time.Now().UTC()
	domain.Apply(o, to, now)

	// Check-then-set: the repository swaps the status only if the row
	// still holds `from`; a concurrent winner leaves us with conflict.
	if err := uc.repo.TransitionOrder(ctx, o, from, now); err != nil {
		return nil, err
	}

	if to == domain.StatusCompleted {
		// Best effort; the counter is display-only and recomputable.
		_ = uc.repo.IncrementMasterOrders(ctx, o.MasterID)
	}

	uc.audit.Dispatch(audit.Event{
		ActorID:  &p.UserID,
		Action:   "order_" + string(to),
		Entity:   "order",
		EntityID: &o.ID,
		Metadata: map[string]any{
			"from":           string(from),
			"to":             string(to),
			"actor_role":     p.Role,
			"admin_override": p.Role == models.RoleAdmin,
		},
	})

	return o, nil
}
