package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ustatop/ustatop-api/internal/audit"
	"github.com/ustatop/ustatop-api/internal/config"
	"github.com/ustatop/ustatop-api/internal/httperr"
	"github.com/ustatop/ustatop-api/internal/httpresp"
	"github.com/ustatop/ustatop-api/internal/models"
	"github.com/ustatop/ustatop-api/internal/principal"
)

type MasterHandler struct {
	db     *gorm.DB
	config *config.Config
	audit  *audit.Dispatcher
}

func NewMasterHandler(db *gorm.DB, cfg *config.Config, audit *audit.Dispatcher) *MasterHandler {
	return &MasterHandler{db: db, config: cfg, audit: audit}
}

// --------- Requests ---------

type CreateMasterRequest struct {
	CategoryID      uint    `json:"category_id" binding:"required"`
	Specialization  string  `json:"specialization"`
	ExperienceYears int     `json:"experience_years"`
	Description     string  `json:"description"`
	BasePrice       float64 `json:"base_price"`
}

type UpdateMasterRequest struct {
	CategoryID      *uint    `json:"category_id,omitempty"`
	Specialization  *string  `json:"specialization,omitempty"`
	ExperienceYears *int     `json:"experience_years,omitempty"`
	Description     *string  `json:"description,omitempty"`
	BasePrice       *float64 `json:"base_price,omitempty"`
	IsAvailable     *bool    `json:"is_available,omitempty"`
}

// --------- Handlers ---------

func (h *MasterHandler) List(c *gin.Context) {
	q := h.db.
		Preload("User").
		Preload("Category").
		Joins("JOIN users ON users.id = masters.user_id").
		Where("users.is_active = ?", true)

	if categoryID := c.Query("category_id"); categoryID != "" {
		q = q.Where("masters.category_id = ?", categoryID)
	}
	if minRating := c.Query("min_rating"); minRating != "" {
		q = q.Where("masters.rating >= ?", minRating)
	}
	if maxPrice := c.Query("max_price"); maxPrice != "" {
		q = q.Where("masters.base_price <= ?", maxPrice)
	}
	if avail := c.Query("is_available"); avail == "true" || avail == "false" {
		q = q.Where("masters.is_available = ?", avail == "true")
	}
	if search := strings.ToLower(strings.TrimSpace(c.Query("search"))); search != "" {
		like := "%" + search + "%"
		q = q.Where(
			"LOWER(masters.specialization) LIKE ? OR LOWER(masters.description) LIKE ? OR LOWER(users.first_name) LIKE ? OR LOWER(users.last_name) LIKE ?",
			like, like, like, like,
		)
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	limit := 20

	var masters []models.Master
	if err := q.
		Order("masters.rating DESC, masters.id ASC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&masters).Error; err != nil {
		httperr.Internal(c, "failed_to_list_masters", "Could not list masters.")
		return
	}

	httpresp.List(c, masters)
}

func (h *MasterHandler) Get(c *gin.Context) {
	id := c.Param("id")

	var master models.Master
	if err := h.db.
		Preload("User").
		Preload("Category").
		First(&master, "masters.id = ?", id).Error; err != nil {
		httperr.NotFound(c, httperr.CodeNotFound, "Master not found.")
		return
	}

	httpresp.OK(c, master)
}

// Create opens a master profile for the caller and promotes the
// account to the master role. The response carries a fresh token with
// the new role claim.
func (h *MasterHandler) Create(c *gin.Context) {
	p := principal.MustFromContext(c)

	var existing models.Master
	if err := h.db.Where("user_id = ?", p.UserID).First(&existing).Error; err == nil {
		httperr.BadRequest(c, httperr.CodeValidation, "User already has a master profile.")
		return
	}

	var req CreateMasterRequest
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

	var user models.User
	if err := h.db.First(&user, p.UserID).Error; err != nil {
		httperr.Unauthorized(c, httperr.CodeInvalidCredentials, "User no longer exists.")
		return
	}

	master := models.Master{
		UserID:          user.ID,
		CategoryID:      category.ID,
		Specialization:  req.Specialization,
		ExperienceYears: req.ExperienceYears,
		Description:     req.Description,
		BasePrice:       req.BasePrice,
		IsAvailable:     true,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&master).Error; err != nil {
			return err
		}
		if user.Role == models.RoleClient {
			user.Role = models.RoleMaster
			if err := tx.Save(&user).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		httperr.Internal(c, "failed_to_create_master", "Could not create master profile.")
		return
	}

	token, err := mintToken(h.config, &user)
	if err != nil {
		httperr.Internal(c, "failed_to_generate_token", "Could not generate token.")
		return
	}

	h.audit.Dispatch(audit.Event{
		ActorID:  &p.UserID,
		Action:   "master_created",
		Entity:   "master",
		EntityID: &master.ID,
	})

	httpresp.Created(c, gin.H{
		"master": master,
		"token":  token,
	})
}

func (h *MasterHandler) Update(c *gin.Context) {
	p := principal.MustFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, "Invalid master id.")
		return
	}

	var master models.Master
	if err := h.db.First(&master, uint(id)).Error; err != nil {
		httperr.NotFound(c, httperr.CodeNotFound, "Master not found.")
		return
	}

	if master.UserID != p.UserID && !p.IsAdmin() {
		httperr.Forbidden(c, httperr.CodeForbidden, "You can only update your own profile.")
		return
	}

	var req UpdateMasterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, err.Error())
		return
	}

	if req.CategoryID != nil {
		var category models.Category
		if err := h.db.
			Where("id = ? AND is_active = ?", *req.CategoryID, true).
			First(&category).Error; err != nil {
			httperr.NotFound(c, httperr.CodeNotFound, "Category not found.")
			return
		}
		master.CategoryID = *req.CategoryID
	}
	if req.Specialization != nil {
		master.Specialization = *req.Specialization
	}
	if req.ExperienceYears != nil {
		master.ExperienceYears = *req.ExperienceYears
	}
	if req.Description != nil {
		master.Description = *req.Description
	}
	if req.BasePrice != nil {
		master.BasePrice = *req.BasePrice
	}
	if req.IsAvailable != nil {
		master.IsAvailable = *req.IsAvailable
	}

	if err := h.db.Save(&master).Error; err != nil {
		httperr.Internal(c, "failed_to_update_master", "Could not update master profile.")
		return
	}

	httpresp.OK(c, master)
}

func (h *MasterHandler) Verify(c *gin.Context) {
	p := principal.MustFromContext(c)
	if !p.IsAdmin() {
		httperr.Forbidden(c, httperr.CodeForbidden, "Admin only.")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, "Invalid master id.")
		return
	}

	var master models.Master
	if err := h.db.First(&master, uint(id)).Error; err != nil {
		httperr.NotFound(c, httperr.CodeNotFound, "Master not found.")
		return
	}

	master.IsVerified = true
	if err := h.db.Save(&master).Error; err != nil {
		httperr.Internal(c, "failed_to_verify_master", "Could not verify master.")
		return
	}

	h.audit.Dispatch(audit.Event{
		ActorID:  &p.UserID,
		Action:   "master_verified",
		Entity:   "master",
		EntityID: &master.ID,
	})

	httpresp.OK(c, master)
}
