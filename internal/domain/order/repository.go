package order

import (
	"context"
	"time"

	"github.com/ustatop/ustatop-api/internal/models"
)

// ListFilter scopes a listing to an owner and optionally a status.
// Zero values mean "no constraint". Page is 1-based.
type ListFilter struct {
	ClientID uint
	MasterID uint
	Status   Status
	Page     int
}

const PageSize = 20

type Repository interface {
	// -------- Catalog (read-only reference resolution) --------
	GetService(
		ctx context.Context,
		serviceID uint,
	) (*models.Service, error)

	GetMasterByUserID(
		ctx context.Context,
		userID uint,
	) (*models.Master, error)

	// -------- Order (create / read) --------
	CreateOrder(
		ctx context.Context,
		o *models.Order,
	) error

	GetOrder(
		ctx context.Context,
		orderID uint,
	) (*models.Order, error)

	ListOrders(
		ctx context.Context,
		f ListFilter,
	) ([]models.Order, error)

	// -------- Order (state change) --------

	// TransitionOrder persists o's move from `from` to its current
	// (already Apply-ed) status with a compare-and-swap on `from`.
	// A lost race yields httperr.CodeConflict; a vanished row yields
	// httperr.CodeNotFound.
	TransitionOrder(
		ctx context.Context,
		o *models.Order,
		from Status,
		now time.Time,
	) error

	// -------- Order (admin hard delete) --------
	DeleteOrder(
		ctx context.Context,
		orderID uint,
	) error

	// -------- Master counters --------
	IncrementMasterOrders(
		ctx context.Context,
		masterID uint,
	) error
}
