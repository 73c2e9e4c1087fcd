package order

import (
	"context"

	"github.com/ustatop/ustatop-api/internal/audit"
	domain "github.com/ustatop/ustatop-api/internal/domain/order"
	"github.com/ustatop/ustatop-api/internal/httperr"
	"github.com/ustatop/ustatop-api/internal/models"
	"github.com/ustatop/ustatop-api/internal/principal"
)

// HardDeleteOrder removes the row outright, bypassing the state
// machine. Admin only; owners cancel instead.
type HardDeleteOrder struct {
	repo  domain.Repository
	audit Auditor
}

func NewHardDeleteOrder(repo domain.Repository, audit Auditor) *HardDeleteOrder {
	return &HardDeleteOrder{
		repo:  repo,
		audit: audit,
	}
}

func (uc *HardDeleteOrder) Execute(
	ctx context.Context,
	p principal.Principal,
	orderID uint,
) error {

	if p.Role != models.RoleAdmin {
		return httperr.ErrBusiness(httperr.CodeForbidden)
	}

	o, err := uc.repo.GetOrder(ctx, orderID)
	if err != nil {
		return lookupErr(err)
	}

	if err := uc.repo.DeleteOrder(ctx, o.ID); err != nil {
		return err
	}

	uc.audit.Dispatch(audit.Event{
		ActorID:  &p.UserID,
		Action:   "order_hard_deleted",
		Entity:   "order",
		EntityID: &o.ID,
		Metadata: map[string]any{
			"status":    o.Status,
			"client_id": o.ClientID,
			"master_id": o.MasterID,
		},
	})

	return nil
}
