package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ustatop/ustatop-api/internal/cache"
	"github.com/ustatop/ustatop-api/internal/httperr"
	"github.com/ustatop/ustatop-api/internal/httpresp"
	"github.com/ustatop/ustatop-api/internal/models"
	"github.com/ustatop/ustatop-api/internal/principal"
)

type CategoryHandler struct {
	db    *gorm.DB
	cache *cache.Categories
}

func NewCategoryHandler(db *gorm.DB, cache *cache.Categories) *CategoryHandler {
	return &CategoryHandler{db: db, cache: cache}
}

// --------- Requests ---------

type CategoryRequest struct {
	NameUz      string `json:"name_uz" binding:"required"`
	NameRu      string `json:"name_ru" binding:"required"`
	NameEn      string `json:"name_en" binding:"required"`
	Description string `json:"description"`
	IconURL     string `json:"icon_url"`
}

// --------- Handlers ---------

func (h *CategoryHandler) List(c *gin.Context) {
	if cats, ok := h.cache.Get(c.Request.Context()); ok {
		httpresp.List(c, cats)
		return
	}

	var cats []models.Category
	if err := h.db.
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&cats).Error; err != nil {
		httperr.Internal(c, "failed_to_list_categories", "Could not list categories.")
		return
	}

	h.cache.Set(c.Request.Context(), cats)
	httpresp.List(c, cats)
}

func (h *CategoryHandler) Get(c *gin.Context) {
	id := c.Param("id")

	var cat models.Category
	if err := h.db.
		Where("id = ? AND is_active = ?", id, true).
		First(&cat).Error; err != nil {
		httperr.NotFound(c, httperr.CodeNotFound, "Category not found.")
		return
	}

	httpresp.OK(c, cat)
}

func (h *CategoryHandler) Create(c *gin.Context) {
	p := principal.MustFromContext(c)
	if !p.IsAdmin() {
		httperr.Forbidden(c, httperr.CodeForbidden, "Admin only.")
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, err.Error())
		return
	}

	cat := models.Category{
		NameUz:      req.NameUz,
		NameRu:      req.NameRu,
		NameEn:      req.NameEn,
		Description: req.Description,
		IconURL:     req.IconURL,
		IsActive:    true,
	}

	if err := h.db.Create(&cat).Error; err != nil {
		httperr.Internal(c, "failed_to_create_category", "Could not create category.")
		return
	}

	h.cache.Invalidate(c.Request.Context())
	httpresp.Created(c, cat)
}

func (h *CategoryHandler) Update(c *gin.Context) {
	p := principal.MustFromContext(c)
	if !p.IsAdmin() {
		httperr.Forbidden(c, httperr.CodeForbidden, "Admin only.")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, "Invalid category id.")
		return
	}

	var cat models.Category
	if err := h.db.First(&cat, uint(id)).Error; err != nil {
		httperr.NotFound(c, httperr.CodeNotFound, "Category not found.")
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, err.Error())
		return
	}

	cat.NameUz = req.NameUz
	cat.NameRu = req.NameRu
	cat.NameEn = req.NameEn
	cat.Description = req.Description
	cat.IconURL = req.IconURL

	if err := h.db.Save(&cat).Error; err != nil {
		httperr.Internal(c, "failed_to_update_category", "Could not update category.")
		return
	}

	h.cache.Invalidate(c.Request.Context())
	httpresp.OK(c, cat)
}

// Delete is soft: the category disappears from the catalog but stays
// referenced by existing masters and services.
func (h *CategoryHandler) Delete(c *gin.Context) {
	p := principal.MustFromContext(c)
	if !p.IsAdmin() {
		httperr.Forbidden(c, httperr.CodeForbidden, "Admin only.")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, "Invalid category id.")
		return
	}

	var cat models.Category
	if err := h.db.First(&cat, uint(id)).Error; err != nil {
		httperr.NotFound(c, httperr.CodeNotFound, "Category not found.")
		return
	}

	cat.IsActive = false
	if err := h.db.Save(&cat).Error; err != nil {
		httperr.Internal(c, "failed_to_delete_category", "Could not delete category.")
		return
	}

	h.cache.Invalidate(c.Request.Context())
	httpresp.Message(c, "category deactivated")
}
