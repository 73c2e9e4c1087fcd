package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ustatop/ustatop-api/internal/httperr"
	"github.com/ustatop/ustatop-api/internal/httpresp"
	"github.com/ustatop/ustatop-api/internal/models"
	"github.com/ustatop/ustatop-api/internal/principal"
)

type ServiceHandler struct {
	db *gorm.DB
}

func NewServiceHandler(db *gorm.DB) *ServiceHandler {
	return &ServiceHandler{db: db}
}

// --------- Requests ---------

type CreateServiceRequest struct {
	CategoryID    uint    `json:"category_id" binding:"required"`
	Name          string  `json:"name" binding:"required"`
	Description   string  `json:"description"`
	Price         float64 `json:"price" binding:"required,gt=0"`
	DurationHours int     `json:"duration_hours"`
}

type UpdateServiceRequest struct {
	Name          *string  `json:"name,omitempty"`
	Description   *string  `json:"description,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	DurationHours *int     `json:"duration_hours,omitempty"`
	IsActive      *bool    `json:"is_active,omitempty"`
}

// --------- Helpers ---------

// masterForUser resolves the caller's master profile, or nil.
func (h *ServiceHandler) masterForUser(userID uint) *models.Master {
	var m models.Master
	if err := h.db.Where("user_id = ?", userID).First(&m).Error; err != nil {
		return nil
	}
	return &m
}

// --------- Handlers ---------

func (h *ServiceHandler) List(c *gin.Context) {
	q := h.db.Where("is_active = ?", true)

	if masterID := c.Query("master_id"); masterID != "" {
		q = q.Where("master_id = ?", masterID)
	}
	if categoryID := c.Query("category_id"); categoryID != "" {
		q = q.Where("category_id = ?", categoryID)
	}
	if minPrice := c.Query("min_price"); minPrice != "" {
		q = q.Where("price >= ?", minPrice)
	}
	if maxPrice := c.Query("max_price"); maxPrice != "" {
		q = q.Where("price <= ?", maxPrice)
	}
	if search := strings.ToLower(strings.TrimSpace(c.Query("search"))); search != "" {
		like := "%" + search + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	limit := 20

	var services []models.Service
	if err := q.
		Order("id ASC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&services).Error; err != nil {
		httperr.Internal(c, "failed_to_list_services", "Could not list services.")
		return
	}

	httpresp.List(c, services)
}

func (h *ServiceHandler) Get(c *gin.Context) {
	id := c.Param("id")

	var svc models.Service
	if err := h.db.
		Preload("Master").
		Preload("Master.User").
		Preload("Category").
		Where("services.id = ? AND services.is_active = ?", id, true).
		First(&svc).Error; err != nil {
		httperr.NotFound(c, httperr.CodeNotFound, "Service not found.")
		return
	}

	httpresp.OK(c, svc)
}

func (h *ServiceHandler) Create(c *gin.Context) {
	p := principal.MustFromContext(c)

	master := h.masterForUser(p.UserID)
	if master == nil {
		httperr.Forbidden(c, httperr.CodeForbidden, "Only masters can offer services.")
		return
	}

	var req CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, err.Error())
		return
	}

	var category models.Category
	if err := h.db.
		Where("id = ? AND is_active = ?", req.CategoryID, true).
		First(&category).Error; err != nil {
		httperr.NotFound(c, httperr.CodeNotFound, "Category not found.")
		return
	}

	duration := req.DurationHours
	if duration <= 0 {
		duration = 1
	}

	svc := models.Service{
		MasterID:      master.ID,
		CategoryID:    category.ID,
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		DurationHours: duration,
		IsActive:      true,
	}

	if err := h.db.Create(&svc).Error; err != nil {
		httperr.Internal(c, "failed_to_create_service", "Could not create service.")
		return
	}

	httpresp.Created(c, svc)
}

func (h *ServiceHandler) Update(c *gin.Context) {
	p := principal.MustFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, "Invalid service id.")
		return
	}

	var svc models.Service
	if err := h.db.First(&svc, uint(id)).Error; err != nil {
		httperr.NotFound(c, httperr.CodeNotFound, "Service not found.")
		return
	}

	if !p.IsAdmin() {
		master := h.masterForUser(p.UserID)
		if master == nil || svc.MasterID != master.ID {
			httperr.Forbidden(c, httperr.CodeForbidden, "You can only update your own services.")
			return
		}
	}

	var req UpdateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, err.Error())
		return
	}

	if req.Name != nil {
		svc.Name = *req.Name
	}
	if req.Description != nil {
		svc.Description = *req.Description
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			httperr.BadRequest(c, httperr.CodeValidation, "Price must be positive.")
			return
		}
		svc.Price = *req.Price
	}
	if req.DurationHours != nil {
		svc.DurationHours = *req.DurationHours
	}
	if req.IsActive != nil {
		svc.IsActive = *req.IsActive
	}

	if err := h.db.Save(&svc).Error; err != nil {
		httperr.Internal(c, "failed_to_update_service", "Could not update service.")
		return
	}

	httpresp.OK(c, svc)
}

// Delete deactivates the service. Existing orders keep their price and
// master snapshots.
func (h *ServiceHandler) Delete(c *gin.Context) {
	p := principal.MustFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, "Invalid service id.")
		return
	}

	var svc models.Service
	if err := h.db.First(&svc, uint(id)).Error; err != nil {
		httperr.NotFound(c, httperr.CodeNotFound, "Service not found.")
		return
	}

	if !p.IsAdmin() {
		master := h.masterForUser(p.UserID)
		if master == nil || svc.MasterID != master.ID {
			httperr.Forbidden(c, httperr.CodeForbidden, "You can only delete your own services.")
			return
		}
	}

	svc.IsActive = false
	if err := h.db.Save(&svc).Error; err != nil {
		httperr.Internal(c, "failed_to_delete_service", "Could not delete service.")
		return
	}

	httpresp.Message(c, "service deactivated")
}
