package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ustatop/ustatop-api/internal/audit"
	"github.com/ustatop/ustatop-api/internal/httperr"
	"github.com/ustatop/ustatop-api/internal/httpresp"
	"github.com/ustatop/ustatop-api/internal/models"
	"github.com/ustatop/ustatop-api/internal/principal"
)

type UserHandler struct {
	db    *gorm.DB
	audit *audit.Dispatcher
}

func NewUserHandler(db *gorm.DB, audit *audit.Dispatcher) *UserHandler {
	return &UserHandler{db: db, audit: audit}
}

// --------- Requests ---------

type UpdateUserRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`

	// Admin-only fields.
	Role     *string `json:"role,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// --------- Handlers ---------

func (h *UserHandler) List(c *gin.Context) {
	p := principal.MustFromContext(c)
	if !p.IsAdmin() {
		httperr.Forbidden(c, httperr.CodeForbidden, "Admin only.")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	limit := 50

	var users []models.User
	if err := h.db.
		Order("id ASC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&users).Error; err != nil {
		httperr.Internal(c, "failed_to_list_users", "Could not list users.")
		return
	}

	httpresp.List(c, users)
}

func (h *UserHandler) Get(c *gin.Context) {
	p := principal.MustFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, "Invalid user id.")
		return
	}

	if uint(id) != p.UserID && !p.IsAdmin() {
		httperr.Forbidden(c, httperr.CodeForbidden, "You can only view your own profile.")
		return
	}

	var user models.User
	if err := h.db.First(&user, uint(id)).Error; err != nil {
		httperr.NotFound(c, httperr.CodeNotFound, "User not found.")
		return
	}

	httpresp.OK(c, user)
}

func (h *UserHandler) Update(c *gin.Context) {
	p := principal.MustFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, "Invalid user id.")
		return
	}

	if uint(id) != p.UserID && !p.IsAdmin() {
		httperr.Forbidden(c, httperr.CodeForbidden, "You can only update your own profile.")
		return
	}

	var user models.User
	if err := h.db.First(&user, uint(id)).Error; err != nil {
		httperr.NotFound(c, httperr.CodeNotFound, "User not found.")
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, err.Error())
		return
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.AvatarURL != nil {
		user.AvatarURL = *req.AvatarURL
	}

	// Role and activation are admin levers only; self-service requests
	// silently keep the current values.
	if p.IsAdmin() {
		if req.Role != nil {
			switch *req.Role {
			case models.RoleClient, models.RoleMaster, models.RoleAdmin:
				user.Role = *req.Role
			default:
				httperr.BadRequest(c, httperr.CodeValidation, "Unknown role.")
				return
			}
		}
		if req.IsActive != nil {
			user.IsActive = *req.IsActive
		}
	}

	if err := h.db.Save(&user).Error; err != nil {
		httperr.Internal(c, "failed_to_update_user", "Could not update user.")
		return
	}

	httpresp.OK(c, user)
}

// Delete hard-removes a user. Admin only, and refused while the user
// still has non-terminal orders on either side of the marketplace.
func (h *UserHandler) Delete(c *gin.Context) {
	p := principal.MustFromContext(c)
	if !p.IsAdmin() {
		httperr.Forbidden(c, httperr.CodeForbidden, "Admin only.")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, "Invalid user id.")
		return
	}

	var user models.User
	if err := h.db.First(&user, uint(id)).Error; err != nil {
		httperr.NotFound(c, httperr.CodeNotFound, "User not found.")
		return
	}

	activeStatuses := []string{"pending", "accepted", "in_progress"}

	var active int64
	h.db.Model(&models.Order{}).
		Where("client_id = ? AND status IN ?", user.ID, activeStatuses).
		Count(&active)

	if user.Role == models.RoleMaster {
		var master models.Master
		if err := h.db.Where("user_id = ?", user.ID).First(&master).Error; err == nil {
			var masterActive int64
			h.db.Model(&models.Order{}).
				Where("master_id = ? AND status IN ?", master.ID, activeStatuses).
				Count(&masterActive)
			active += masterActive
		}
	}

	if active > 0 {
		httperr.Conflict(c, httperr.CodeConflict, "User still has active orders.")
		return
	}

	if err := h.db.Delete(&user).Error; err != nil {
		httperr.Internal(c, "failed_to_delete_user", "Could not delete user.")
		return
	}

	userID := uint(id)
	h.audit.Dispatch(audit.Event{
		ActorID:  &p.UserID,
		Action:   "user_deleted",
		Entity:   "user",
		EntityID: &userID,
	})

	c.Status(http.StatusNoContent)
}
