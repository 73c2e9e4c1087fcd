package order

import (
	"context"

	domain "github.com/ustatop/ustatop-api/internal/domain/order"
	"github.com/ustatop/ustatop-api/internal/httperr"
	"github.com/ustatop/ustatop-api/internal/models"
	"github.com/ustatop/ustatop-api/internal/principal"
)

type GetOrder struct {
	repo domain.Repository
}

func NewGetOrder(repo domain.Repository) *GetOrder {
	return &GetOrder{repo: repo}
}

func (uc *GetOrder) Execute(
	ctx context.Context,
	p principal.Principal,
	orderID uint,
) (*models.Order, error) {

	actor := resolveActor(ctx, uc.repo, p)

	o, err := uc.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, lookupErr(err)
	}

	// Invisible orders read as absent so ids do not leak existence.
	if !domain.CanSee(actor, o) {
		return nil, httperr.ErrBusiness(httperr.CodeNotFound)
	}

	return o, nil
}
