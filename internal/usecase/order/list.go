package order

import (
	"context"

	domain "github.com/ustatop/ustatop-api/internal/domain/order"
	"github.com/ustatop/ustatop-api/internal/httperr"
	"github.com/ustatop/ustatop-api/internal/models"
	"github.com/ustatop/ustatop-api/internal/principal"
)

type ListOrdersInput struct {
	Status domain.Status
	Page   int

	// Admin-only narrowing filters; ignored for other roles.
	ClientID uint
	MasterID uint
}

type ListOrders struct {
	repo domain.Repository
}

func NewListOrders(repo domain.Repository) *ListOrders {
	return &ListOrders{repo: repo}
}

func (uc *ListOrders) Execute(
	ctx context.Context,
	p principal.Principal,
	in ListOrdersInput,
) ([]models.Order, error) {

	if in.Status != "" && !in.Status.Valid() {
		return nil, httperr.ErrBusinessf(httperr.CodeValidation, "unknown status "+string(in.Status))
	}

	f := domain.ListFilter{
		Status: in.Status,
		Page:   in.Page,
	}

	switch p.Role {
	case models.RoleClient:
		f.ClientID = p.UserID

	case models.RoleMaster:
		m, err := uc.repo.GetMasterByUserID(ctx, p.UserID)
		if err != nil {
			// A master without a profile owns no orders yet.
			return []models.Order{}, nil
		}
		f.MasterID = m.ID

	case models.RoleAdmin:
		f.ClientID = in.ClientID
		f.MasterID = in.MasterID

	default:
		return nil, httperr.ErrBusiness(httperr.CodeForbidden)
	}

	return uc.repo.ListOrders(ctx, f)
}
