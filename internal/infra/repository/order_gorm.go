package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	domain "github.com/ustatop/ustatop-api/internal/domain/order"
	"github.com/ustatop/ustatop-api/internal/httperr"
	"github.com/ustatop/ustatop-api/internal/models"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

// --------------------------------------------------
// Catalog
// --------------------------------------------------

func (r *OrderGormRepository) GetService(
	ctx context.Context,
	serviceID uint,
) (*models.Service, error) {

	var svc models.Service
	if err := r.db.WithContext(ctx).First(&svc, serviceID).Error; err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *OrderGormRepository) GetMasterByUserID(
	ctx context.Context,
	userID uint,
) (*models.Master, error) {

	var m models.Master
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// --------------------------------------------------
// Order (create / read)
// --------------------------------------------------

func (r *OrderGormRepository) CreateOrder(
	ctx context.Context,
	o *models.Order,
) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *OrderGormRepository) GetOrder(
	ctx context.Context,
	orderID uint,
) (*models.Order, error) {

	var o models.Order
	if err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Service").
		Preload("Master").
		Preload("Master.User").
		First(&o, orderID).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderGormRepository) ListOrders(
	ctx context.Context,
	f domain.ListFilter,
) ([]models.Order, error) {

	q := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Service").
		Preload("Master").
		Preload("Master.User")

	if f.ClientID != 0 {
		q = q.Where("client_id = ?", f.ClientID)
	}
	if f.MasterID != 0 {
		q = q.Where("master_id = ?", f.MasterID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}

	page := f.Page
	if page <= 0 {
		page = 1
	}

	var orders []models.Order
	if err := q.
		Order("created_at DESC, id ASC").
		Limit(domain.PageSize).
		Offset((page - 1) * domain.PageSize).
		Find(&orders).Error; err != nil {
		return nil, err
	}

	return orders, nil
}

// --------------------------------------------------
// Order (state change)
// --------------------------------------------------

// TransitionOrder is the atomic check-then-set for the state machine:
// the UPDATE swaps the status only where the row still holds `from`,
// so of two racing transitions exactly one sees RowsAffected == 1.
func (r *OrderGormRepository) TransitionOrder(
	ctx context.Context,
	o *models.Order,
	from domain.Status,
	now time.Time,
) error {

	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", o.ID, string(from)).
		Updates(map[string]any{
			"status":       o.Status,
			"updated_at":   now,
			"completed_at": o.CompletedAt,
			"cancelled_at": o.CancelledAt,
		})

	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		// Either the row is gone or somebody else moved it first.
		var current models.Order
		err := r.db.WithContext(ctx).First(&current, o.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.ErrBusiness(httperr.CodeNotFound)
		}
		return httperr.ErrBusinessf(
			httperr.CodeConflict,
			"order changed concurrently, reload and retry",
		)
	}

	return nil
}

// --------------------------------------------------
// Order (admin hard delete)
// --------------------------------------------------

func (r *OrderGormRepository) DeleteOrder(
	ctx context.Context,
	orderID uint,
) error {
	return r.db.WithContext(ctx).Delete(&models.Order{}, orderID).Error
}

// --------------------------------------------------
// Master counters
// --------------------------------------------------

func (r *OrderGormRepository) IncrementMasterOrders(
	ctx context.Context,
	masterID uint,
) error {
	return r.db.WithContext(ctx).
		Model(&models.Master{}).
		Where("id = ?", masterID).
		UpdateColumn("total_orders", gorm.Expr("total_orders + 1")).Error
}

// Compile-time check
var _ domain.Repository = (*OrderGormRepository)(nil)
