package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ustatop/ustatop-api/internal/httperr"
	"github.com/ustatop/ustatop-api/internal/models"
	"github.com/ustatop/ustatop-api/internal/principal"
)

type MeHandler struct {
	db *gorm.DB
}

func NewMeHandler(db *gorm.DB) *MeHandler {
	return &MeHandler{db: db}
}

func (h *MeHandler) GetMe(c *gin.Context) {
	p := principal.MustFromContext(c)

	var user models.User
	if err := h.db.First(&user, p.UserID).Error; err != nil {
		httperr.Unauthorized(c, httperr.CodeInvalidCredentials, "User no longer exists.")
		return
	}

	resp := gin.H{"user": user}

	if user.Role == models.RoleMaster {
		var master models.Master
		if err := h.db.
			Preload("Category").
			Where("user_id = ?", user.ID).
			First(&master).Error; err == nil {
			resp["master"] = master
		}
	}

	c.JSON(http.StatusOK, resp)
}
