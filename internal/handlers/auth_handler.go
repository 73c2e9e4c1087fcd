package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ustatop/ustatop-api/internal/config"
	"github.com/ustatop/ustatop-api/internal/httperr"
	"github.com/ustatop/ustatop-api/internal/httpresp"
	"github.com/ustatop/ustatop-api/internal/models"
	"github.com/ustatop/ustatop-api/internal/principal"
	"github.com/ustatop/ustatop-api/internal/validators"
)

type AuthHandler struct {
	db     *gorm.DB
	config *config.Config
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{db: db, config: cfg}
}

// --------- Requests ---------

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// --------- Handlers ---------

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, err.Error())
		return
	}

	email := validators.NormalizeEmail(req.Email)

	if !validators.EmailDomainResolves(email) {
		httperr.BadRequest(c, httperr.CodeValidation, "email domain does not resolve")
		return
	}

	var count int64
	h.db.Model(&models.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		httperr.BadRequest(c, httperr.CodeValidation, "email already registered")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httperr.Internal(c, "failed_to_hash_password", "Could not process password.")
		return
	}

	user := models.User{
		Email:        email,
		PasswordHash: string(hashed),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		// Everybody starts as a client; a master profile promotes later.
		Role:     models.RoleClient,
		IsActive: true,
	}

	if err := h.db.Create(&user).Error; err != nil {
		httperr.Internal(c, "failed_to_create_user", "Could not create user.")
		return
	}

	token, err := mintToken(h.config, &user)
	if err != nil {
		httperr.Internal(c, "failed_to_generate_token", "Could not generate token.")
		return
	}

	httpresp.Created(c, gin.H{
		"user":  user,
		"token": token,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, err.Error())
		return
	}

	email := validators.NormalizeEmail(req.Email)

	var user models.User
	if err := h.db.Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			httperr.Unauthorized(c, httperr.CodeInvalidCredentials, "Incorrect email or password.")
			return
		}
		httperr.Internal(c, "internal_error", "Could not load user.")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		httperr.Unauthorized(c, httperr.CodeInvalidCredentials, "Incorrect email or password.")
		return
	}

	if !user.IsActive {
		httperr.Forbidden(c, httperr.CodeForbidden, "Account is deactivated.")
		return
	}

	token, err := mintToken(h.config, &user)
	if err != nil {
		httperr.Internal(c, "failed_to_generate_token", "Could not generate token.")
		return
	}

	httpresp.OK(c, gin.H{
		"user":  user,
		"token": token,
	})
}

// RefreshToken re-issues a token for the authenticated user with the
// current role, so a freshly promoted master picks up its new claims.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	p := principal.MustFromContext(c)

	var user models.User
	if err := h.db.First(&user, p.UserID).Error; err != nil {
		httperr.Unauthorized(c, httperr.CodeInvalidCredentials, "User no longer exists.")
		return
	}

	token, err := mintToken(h.config, &user)
	if err != nil {
		httperr.Internal(c, "failed_to_generate_token", "Could not generate token.")
		return
	}

	httpresp.OK(c, gin.H{"token": token})
}

// --------- JWT ---------

func mintToken(cfg *config.Config, user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
		"iat":  time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}
