package order

import (
	"context"

	"github.com/ustatop/ustatop-api/internal/audit"
	domain "github.com/ustatop/ustatop-api/internal/domain/order"
	"github.com/ustatop/ustatop-api/internal/models"
	"github.com/ustatop/ustatop-api/internal/principal"
)

// Auditor is satisfied by *audit.Dispatcher.
type Auditor interface {
	Dispatch(ev audit.Event)
}

// resolveActor turns the request principal into a domain actor. For
// masters this resolves the master profile id; a master without a
// profile keeps MasterID == 0 and therefore owns nothing.
func resolveActor(
	ctx context.Context,
	repo domain.Repository,
	p principal.Principal,
) domain.Actor {

	actor := domain.Actor{
		UserID: p.UserID,
		Role:   p.Role,
	}

	if p.Role == models.RoleMaster {
		if m, err := repo.GetMasterByUserID(ctx, p.UserID); err == nil {
			actor.MasterID = m.ID
		}
	}

	return actor
}
