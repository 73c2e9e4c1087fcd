package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	domain "github.com/ustatop/ustatop-api/internal/domain/order"
	"github.com/ustatop/ustatop-api/internal/httperr"
	"github.com/ustatop/ustatop-api/internal/httpresp"
	"github.com/ustatop/ustatop-api/internal/models"
	"github.com/ustatop/ustatop-api/internal/principal"
)

// reviewStore is the slice of storage the create path goes through,
// so the completed-order gate is checkable without postgres. The rest
// of the handler talks to gorm directly.
type reviewStore interface {
	OrderByID(id uint) (*models.Order, error)
	InsertReview(r *models.Review) error
	RefreshMasterRating(masterID uint)
}

type ReviewHandler struct {
	db    *gorm.DB
	store reviewStore
}

func NewReviewHandler(db *gorm.DB) *ReviewHandler {
	return &ReviewHandler{
		db:    db,
		store: gormReviewStore{db: db},
	}
}

// --------- Requests ---------

type ReviewRequest struct {
	OrderID uint   `json:"order_id" binding:"required"`
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

type UpdateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// --------- Handlers ---------

// Create records a review for a completed order. One review per
// order, enforced both here and by the unique index underneath.
func (h *ReviewHandler) Create(c *gin.Context) {
	p := principal.MustFromContext(c)

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, err.Error())
		return
	}

	order, err := h.store.OrderByID(req.OrderID)
	if err != nil {
		httperr.NotFound(c, httperr.CodeNotFound, "Order not found.")
		return
	}

	if order.ClientID != p.UserID {
		httperr.Forbidden(c, httperr.CodeForbidden, "You can only review your own orders.")
		return
	}

	if domain.Status(order.Status) != domain.StatusCompleted {
		httperr.BadRequest(c, httperr.CodeValidation, "Only completed orders can be reviewed.")
		return
	}

	review := models.Review{
		OrderID:  order.ID,
		ClientID: order.ClientID,
		MasterID: order.MasterID,
		Rating:   req.Rating,
		Comment:  req.Comment,
	}

	if err := h.store.InsertReview(&review); err != nil {
		if httperr.IsUniqueViolation(err) {
			httperr.BadRequest(c, httperr.CodeValidation, "Order already reviewed.")
			return
		}
		httperr.Internal(c, "failed_to_create_review", "Could not create review.")
		return
	}

	h.store.RefreshMasterRating(order.MasterID)

	httpresp.Created(c, review)
}

func (h *ReviewHandler) List(c *gin.Context) {
	q := h.db.Preload("Client")

	if masterID := c.Query("master_id"); masterID != "" {
		q = q.Where("master_id = ?", masterID)
	}
	if clientID := c.Query("client_id"); clientID != "" {
		q = q.Where("client_id = ?", clientID)
	}
	if minRating := c.Query("min_rating"); minRating != "" {
		q = q.Where("rating >= ?", minRating)
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	limit := 20

	var reviews []models.Review
	if err := q.
		Order("created_at DESC, id ASC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&reviews).Error; err != nil {
		httperr.Internal(c, "failed_to_list_reviews", "Could not list reviews.")
		return
	}

	httpresp.List(c, reviews)
}

func (h *ReviewHandler) Get(c *gin.Context) {
	id := c.Param("id")

	var review models.Review
	if err := h.db.Preload("Client").First(&review, "reviews.id = ?", id).Error; err != nil {
		httperr.NotFound(c, httperr.CodeNotFound, "Review not found.")
		return
	}

	httpresp.OK(c, review)
}

func (h *ReviewHandler) Update(c *gin.Context) {
	p := principal.MustFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, "Invalid review id.")
		return
	}

	var review models.Review
	if err := h.db.First(&review, uint(id)).Error; err != nil {
		httperr.NotFound(c, httperr.CodeNotFound, "Review not found.")
		return
	}

	if review.ClientID != p.UserID && !p.IsAdmin() {
		httperr.Forbidden(c, httperr.CodeForbidden, "You can only update your own reviews.")
		return
	}

	var req UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, err.Error())
		return
	}

	review.Rating = req.Rating
	review.Comment = req.Comment

	if err := h.db.Save(&review).Error; err != nil {
		httperr.Internal(c, "failed_to_update_review", "Could not update review.")
		return
	}

	h.store.RefreshMasterRating(review.MasterID)

	httpresp.OK(c, review)
}

func (h *ReviewHandler) Delete(c *gin.Context) {
	p := principal.MustFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, "Invalid review id.")
		return
	}

	var review models.Review
	if err := h.db.First(&review, uint(id)).Error; err != nil {
		httperr.NotFound(c, httperr.CodeNotFound, "Review not found.")
		return
	}

	if review.ClientID != p.UserID && !p.IsAdmin() {
		httperr.Forbidden(c, httperr.CodeForbidden, "You can only delete your own reviews.")
		return
	}

	if err := h.db.Delete(&review).Error; err != nil {
		httperr.Internal(c, "failed_to_delete_review", "Could not delete review.")
		return
	}

	h.store.RefreshMasterRating(review.MasterID)

	httpresp.Message(c, "review deleted")
}

func (h *ReviewHandler) MasterStats(c *gin.Context) {
	id := c.Param("id")

	var master models.Master
	if err := h.db.First(&master, "masters.id = ?", id).Error; err != nil {
		httperr.NotFound(c, httperr.CodeNotFound, "Master not found.")
		return
	}

	var reviews []models.Review
	if err := h.db.Where("master_id = ?", master.ID).Find(&reviews).Error; err != nil {
		httperr.Internal(c, "failed_to_load_reviews", "Could not load reviews.")
		return
	}

	distribution := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	sum := 0
	for _, r := range reviews {
		distribution[r.Rating]++
		sum += r.Rating
	}

	avg := 0.0
	if len(reviews) > 0 {
		avg = float64(sum) / float64(len(reviews))
	}

	httpresp.OK(c, gin.H{
		"master_id":           master.ID,
		"total_reviews":       len(reviews),
		"average_rating":      avg,
		"rating_distribution": distribution,
	})
}

// --------- Storage ---------

type gormReviewStore struct {
	db *gorm.DB
}

func (s gormReviewStore) OrderByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := s.db.First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (s gormReviewStore) InsertReview(r *models.Review) error {
	return s.db.Create(r).Error
}

// RefreshMasterRating recomputes the denormalized rating columns from
// the reviews table after any write.
func (s gormReviewStore) RefreshMasterRating(masterID uint) {
	type agg struct {
		Avg   float64
		Total int64
	}

	var a agg
	s.db.Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(id) AS total").
		Where("master_id = ?", masterID).
		Scan(&a)

	s.db.Model(&models.Master{}).
		Where("id = ?", masterID).
		Updates(map[string]any{
			"rating":        a.Avg,
			"total_reviews": a.Total,
		})
}
