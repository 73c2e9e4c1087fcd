package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	domain "github.com/ustatop/ustatop-api/internal/domain/order"
	"github.com/ustatop/ustatop-api/internal/httperr"
	"github.com/ustatop/ustatop-api/internal/httpresp"
	"github.com/ustatop/ustatop-api/internal/models"
	"github.com/ustatop/ustatop-api/internal/principal"
	ucOrder "github.com/ustatop/ustatop-api/internal/usecase/order"
)

// ======================================================
// HANDLER
// ======================================================

type OrderHandler struct {
	createUC     *ucOrder.CreateOrder
	transitionUC *ucOrder.TransitionOrder
	getUC        *ucOrder.GetOrder
	listUC       *ucOrder.ListOrders
	deleteUC     *ucOrder.HardDeleteOrder

	db *gorm.DB
}

func NewOrderHandler(
	createUC *ucOrder.CreateOrder,
	transitionUC *ucOrder.TransitionOrder,
	getUC *ucOrder.GetOrder,
	listUC *ucOrder.ListOrders,
	deleteUC *ucOrder.HardDeleteOrder,
	db *gorm.DB,
) *OrderHandler {
	return &OrderHandler{
		createUC:     createUC,
		transitionUC: transitionUC,
		getUC:        getUC,
		listUC:       listUC,
		deleteUC:     deleteUC,
		db:           db,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateOrderRequest struct {
	ServiceID     uint   `json:"service_id" binding:"required"`
	Description   string `json:"description"`
	Address       string `json:"address"`
	ScheduledDate string `json:"scheduled_date"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ======================================================
// ERROR MAPPING
// ======================================================

// respondOrderError is the single place where domain error codes turn
// into HTTP statuses, so the contract in the API docs stays exact.
func respondOrderError(c *gin.Context, err error) {
	code := httperr.BusinessCode(err)
	msg := httperr.BusinessMessage(err)

	switch code {
	case httperr.CodeForbidden:
		if msg == "" {
			msg = "Not enough permissions."
		}
		httperr.Forbidden(c, code, msg)
	case httperr.CodeNotFound:
		if msg == "" {
			msg = "Order not found."
		}
		httperr.NotFound(c, code, msg)
	case httperr.CodeInvalidTransition:
		httperr.Unprocessable(c, code, msg)
	case httperr.CodeConflict:
		httperr.Conflict(c, code, msg)
	case httperr.CodeValidation:
		httperr.BadRequest(c, code, msg)
	case httperr.CodeUnavailable:
		httperr.Unavailable(c, code, "Storage temporarily unavailable.")
	default:
		httperr.Internal(c, "internal_error", "Unexpected error.")
	}
}

// ======================================================
// CREATE
// ======================================================

func (h *OrderHandler) Create(c *gin.Context) {
	p := principal.MustFromContext(c)

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, err.Error())
		return
	}

	in := ucOrder.CreateOrderInput{
		ServiceID:   req.ServiceID,
		Description: req.Description,
		Address:     req.Address,
	}

	if req.ScheduledDate != "" {
		t, err := time.Parse(time.RFC3339, req.ScheduledDate)
		if err != nil {
			httperr.BadRequest(c, httperr.CodeValidation, "scheduled_date must be RFC3339.")
			return
		}
		in.ScheduledDate = &t
	}

	o, err := h.createUC.Execute(c.Request.Context(), p, in)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	httpresp.Created(c, o)
}

// ======================================================
// LIST / GET
// ======================================================

func (h *OrderHandler) List(c *gin.Context) {
	p := principal.MustFromContext(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	in := ucOrder.ListOrdersInput{
		Status: domain.Status(c.Query("status")),
		Page:   page,
	}

	if p.IsAdmin() {
		if v, err := strconv.ParseUint(c.Query("client_id"), 10, 64); err == nil {
			in.ClientID = uint(v)
		}
		if v, err := strconv.ParseUint(c.Query("master_id"), 10, 64); err == nil {
			in.MasterID = uint(v)
		}
	}

	orders, err := h.listUC.Execute(c.Request.Context(), p, in)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	httpresp.List(c, orders)
}

func (h *OrderHandler) Get(c *gin.Context) {
	p := principal.MustFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.NotFound(c, httperr.CodeNotFound, "Order not found.")
		return
	}

	o, err := h.getUC.Execute(c.Request.Context(), p, uint(id))
	if err != nil {
		respondOrderError(c, err)
		return
	}

	httpresp.OK(c, o)
}

// ======================================================
// STATUS TRANSITION
// ======================================================

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	p := principal.MustFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.NotFound(c, httperr.CodeNotFound, "Order not found.")
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, err.Error())
		return
	}

	o, err := h.transitionUC.Execute(
		c.Request.Context(),
		p,
		uint(id),
		domain.Status(req.Status),
	)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	httpresp.OK(c, o)
}

// ======================================================
// DELETE
// ======================================================

// Delete is two operations behind one verb: admins hard-delete the
// row (204), owners cancel through the state machine (200).
func (h *OrderHandler) Delete(c *gin.Context) {
	p := principal.MustFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.NotFound(c, httperr.CodeNotFound, "Order not found.")
		return
	}

	if p.IsAdmin() {
		if err := h.deleteUC.Execute(c.Request.Context(), p, uint(id)); err != nil {
			respondOrderError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
		return
	}

	o, err := h.transitionUC.Execute(
		c.Request.Context(),
		p,
		uint(id),
		domain.StatusCancelled,
	)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	httpresp.OK(c, o)
}

// ======================================================
// MASTER STATS
// ======================================================

func (h *OrderHandler) MasterStats(c *gin.Context) {
	p := principal.MustFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.NotFound(c, httperr.CodeNotFound, "Master not found.")
		return
	}
	masterID := uint(id)

	var master models.Master
	if err := h.db.First(&master, masterID).Error; err != nil {
		httperr.NotFound(c, httperr.CodeNotFound, "Master not found.")
		return
	}

	if !p.IsAdmin() && master.UserID != p.UserID {
		httperr.Forbidden(c, httperr.CodeForbidden, "Not enough permissions.")
		return
	}

	countByStatus := func(status string) int64 {
		var n int64
		q := h.db.Model(&models.Order{}).Where("master_id = ?", masterID)
		if status != "" {
			q = q.Where("status = ?", status)
		}
		q.Count(&n)
		return n
	}

	total := countByStatus("")
	completed := countByStatus(string(domain.StatusCompleted))

	stats := gin.H{
		"master_id":          masterID,
		"total_orders":       total,
		"pending_orders":     countByStatus(string(domain.StatusPending)),
		"in_progress_orders": countByStatus(string(domain.StatusInProgress)),
		"completed_orders":   completed,
	}

	if total > 0 {
		stats["completion_rate"] = float64(completed) / float64(total)
	} else {
		stats["completion_rate"] = 0.0
	}

	httpresp.OK(c, stats)
}
