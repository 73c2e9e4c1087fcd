package order

import (
	"fmt"

	"github.com/ustatop/ustatop-api/internal/httperr"
	"github.com/ustatop/ustatop-api/internal/models"
)

// ===============================
// Order Status
// ===============================

type Status string

const (
	StatusPending    Status = "pending"
	StatusAccepted   Status = "accepted"
	StatusRejected   Status = "rejected"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

func InitialStatus() Status {
	return StatusPending
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected,
		StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal statuses admit no further transition, not even by admin.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// ===============================
// Transition table
// ===============================

type transition struct {
	From Status
	To   Status
}

// The owning client may only back out, and only before work starts.
var clientTransitions = map[transition]bool{
	{StatusPending, StatusCancelled}:  true,
	{StatusAccepted, StatusCancelled}: true,
}

// The owning master drives the order forward. An accepted order cannot
// be rejected anymore; the client cancels or an admin overrides.
var masterTransitions = map[transition]bool{
	{StatusPending, StatusAccepted}:     true,
	{StatusPending, StatusRejected}:     true,
	{StatusAccepted, StatusInProgress}:  true,
	{StatusInProgress, StatusCompleted}: true,
}

// ===============================
// Actor & capability check
// ===============================

// Actor is the resolved principal for order operations. MasterID is the
// actor's master profile id, zero for clients and admins.
type Actor struct {
	UserID   uint
	MasterID uint
	Role     string
}

func errInvalidTransition(from, to Status, role string) error {
	return httperr.ErrBusinessf(
		httperr.CodeInvalidTransition,
		fmt.Sprintf("cannot move order from %s to %s as %s", from, to, role),
	)
}

// Authorize checks the transition table for the actor against the
// order's current status. Ownership is checked before transition
// validity, so a stranger always gets forbidden rather than a hint
// about the order's state.
func Authorize(actor Actor, o *models.Order, to Status) error {
	if !to.Valid() {
		return httperr.ErrBusinessf(httperr.CodeValidation, "unknown status "+string(to))
	}

	from := Status(o.Status)

	switch actor.Role {
	case models.RoleAdmin:
		// Admin override: any non-terminal state to any later state.
		// Pending is the entry point and is never revisited.
		if from.Terminal() || to == StatusPending {
			return errInvalidTransition(from, to, actor.Role)
		}
		return nil

	case models.RoleClient:
		if o.ClientID != actor.UserID {
			return httperr.ErrBusiness(httperr.CodeForbidden)
		}
		if !clientTransitions[transition{from, to}] {
			return errInvalidTransition(from, to, actor.Role)
		}
		return nil

	case models.RoleMaster:
		if actor.MasterID == 0 || o.MasterID != actor.MasterID {
			return httperr.ErrBusiness(httperr.CodeForbidden)
		}
		if !masterTransitions[transition{from, to}] {
			return errInvalidTransition(from, to, actor.Role)
		}
		return nil
	}

	return httperr.ErrBusiness(httperr.CodeForbidden)
}

// CanSee reports whether the actor may read the order at all. Callers
// collapse a false result to not_found so that order ids do not leak.
func CanSee(actor Actor, o *models.Order) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleClient:
		return o.ClientID == actor.UserID
	case models.RoleMaster:
		return actor.MasterID != 0 && o.MasterID == actor.MasterID
	}
	return false
}
