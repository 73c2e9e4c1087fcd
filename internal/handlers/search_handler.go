package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ustatop/ustatop-api/internal/httperr"
	"github.com/ustatop/ustatop-api/internal/httpresp"
	"github.com/ustatop/ustatop-api/internal/models"
)

// SearchHandler is the public discovery surface: multi-term text
// search with range filters over masters and services.
type SearchHandler struct {
	db *gorm.DB
}

func NewSearchHandler(db *gorm.DB) *SearchHandler {
	return &SearchHandler{db: db}
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	return page, limit
}

func (h *SearchHandler) Masters(c *gin.Context) {
	q := h.db.
		Preload("User").
		Preload("Category").
		Joins("JOIN users ON users.id = masters.user_id").
		Joins("LEFT JOIN categories ON categories.id = masters.category_id").
		Where("users.is_active = ?", true)

	// Every search term must match at least one searchable column.
	if text := strings.TrimSpace(c.Query("q")); text != "" {
		for _, term := range strings.Fields(strings.ToLower(text)) {
			like := "%" + term + "%"
			q = q.Where(
				`LOWER(masters.specialization) LIKE ?
					OR LOWER(masters.description) LIKE ?
					OR LOWER(users.first_name) LIKE ?
					OR LOWER(users.last_name) LIKE ?
					OR LOWER(categories.name_uz) LIKE ?
					OR LOWER(categories.name_ru) LIKE ?
					OR LOWER(categories.name_en) LIKE ?`,
				like, like, like, like, like, like, like,
			)
		}
	}

	if categoryID := c.Query("category_id"); categoryID != "" {
		q = q.Where("masters.category_id = ?", categoryID)
	}
	if minRating := c.Query("min_rating"); minRating != "" {
		q = q.Where("masters.rating >= ?", minRating)
	}
	if maxRating := c.Query("max_rating"); maxRating != "" {
		q = q.Where("masters.rating <= ?", maxRating)
	}
	if minPrice := c.Query("min_price"); minPrice != "" {
		q = q.Where("masters.base_price >= ?", minPrice)
	}
	if maxPrice := c.Query("max_price"); maxPrice != "" {
		q = q.Where("masters.base_price <= ?", maxPrice)
	}
	if minExp := c.Query("min_experience"); minExp != "" {
		q = q.Where("masters.experience_years >= ?", minExp)
	}
	if verified := c.Query("is_verified"); verified == "true" || verified == "false" {
		q = q.Where("masters.is_verified = ?", verified == "true")
	}
	if avail := c.Query("is_available"); avail == "true" || avail == "false" {
		q = q.Where("masters.is_available = ?", avail == "true")
	} else {
		q = q.Where("masters.is_available = ?", true)
	}

	sortColumn := map[string]string{
		"rating":     "masters.rating",
		"price":      "masters.base_price",
		"experience": "masters.experience_years",
		"reviews":    "masters.total_reviews",
	}[c.DefaultQuery("sort_by", "rating")]
	if sortColumn == "" {
		sortColumn = "masters.rating"
	}

	direction := "DESC"
	if c.DefaultQuery("sort_order", "desc") == "asc" {
		direction = "ASC"
	}

	page, limit := pageParams(c)

	var masters []models.Master
	if err := q.
		Order(sortColumn + " " + direction + ", masters.id ASC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&masters).Error; err != nil {
		httperr.Internal(c, "search_failed", "Could not search masters.")
		return
	}

	httpresp.List(c, masters)
}

func (h *SearchHandler) Services(c *gin.Context) {
	q := h.db.
		Preload("Master").
		Preload("Master.User").
		Preload("Category").
		Where("services.is_active = ?", true)

	if text := strings.TrimSpace(c.Query("q")); text != "" {
		for _, term := range strings.Fields(strings.ToLower(text)) {
			like := "%" + term + "%"
			q = q.Where(
				"LOWER(services.name) LIKE ? OR LOWER(services.description) LIKE ?",
				like, like,
			)
		}
	}

	if categoryID := c.Query("category_id"); categoryID != "" {
		q = q.Where("services.category_id = ?", categoryID)
	}
	if minPrice := c.Query("min_price"); minPrice != "" {
		q = q.Where("services.price >= ?", minPrice)
	}
	if maxPrice := c.Query("max_price"); maxPrice != "" {
		q = q.Where("services.price <= ?", maxPrice)
	}

	direction := "ASC"
	if c.DefaultQuery("sort_order", "asc") == "desc" {
		direction = "DESC"
	}

	page, limit := pageParams(c)

	var services []models.Service
	if err := q.
		Order("services.price " + direction + ", services.id ASC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&services).Error; err != nil {
		httperr.Internal(c, "search_failed", "Could not search services.")
		return
	}

	httpresp.List(c, services)
}
