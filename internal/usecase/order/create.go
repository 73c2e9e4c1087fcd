package order

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ustatop/ustatop-api/internal/audit"
	domain "github.com/ustatop/ustatop-api/internal/domain/order"
	"github.com/ustatop/ustatop-api/internal/httperr"
	"github.com/ustatop/ustatop-api/internal/models"
	"github.com/ustatop/ustatop-api/internal/principal"
)

// ======================================================
// INPUT
// ======================================================

type CreateOrderInput struct {
	ServiceID     uint
	Description   string
	Address       string
	ScheduledDate *time.Time
}

// ======================================================
// USE CASE
// ======================================================

type CreateOrder struct {
	repo  domain.Repository
	audit Auditor
}

func NewCreateOrder(repo domain.Repository, audit Auditor) *CreateOrder {
	return &CreateOrder{
		repo:  repo,
		audit: audit,
	}
}

func (uc *CreateOrder) Execute(
	ctx context.Context,
	p principal.Principal,
	in CreateOrderInput,
) (*models.Order, error) {

	// Only clients open orders; the client id is always the caller.
	if p.Role != models.RoleClient {
		return nil, httperr.ErrBusiness(httperr.CodeForbidden)
	}

	svc, err := uc.repo.GetService(ctx, in.ServiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.ErrBusinessf(httperr.CodeNotFound, "service not found")
		}
		return nil, lookupErr(err)
	}
	if !svc.IsActive {
		return nil, httperr.ErrBusinessf(httperr.CodeNotFound, "service not found")
	}

	now := time.Now().UTC()

	o := &models.Order{
		ClientID:  p.UserID,
		ServiceID: svc.ID,
		// Ownership snapshot: a later service reassignment must not
		// move this order to another master.
		MasterID:      svc.MasterID,
		Status:        string(domain.InitialStatus()),
		Price:         svc.Price,
		Description:   in.Description,
		Address:       in.Address,
		ScheduledDate: in.ScheduledDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := uc.repo.CreateOrder(ctx, o); err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		ActorID:  &p.UserID,
		Action:   "order_created",
		Entity:   "order",
		EntityID: &o.ID,
	})

	return o, nil
}
