package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-mgmt/internal/repository"
	"user-mgmt/internal/service"
)

// ProfileHandler mantiene dependencias para endpoints de perfil.
type ProfileHandler struct {
	logger      *zap.Logger
	accountServ *service.AccountService
}

func NewProfileHandler(logger *zap.Logger, accountServ *service.AccountService) *ProfileHandler {
	return &ProfileHandler{
		logger:      logger,
		accountServ: accountServ,
	}
}

// GetProfile maneja GET /users/profile.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	user, profile, err := h.accountServ.GetProfile(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("get profile failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "profile": profile})
}

const birthDateLayout = "2006-01-02"

// UpdateProfile maneja PUT /users/profile.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	var req struct {
		Email       string `json:"email" binding:"omitempty,email"`
		Username    string `json:"username"`
		FirstName   string `json:"first_name"`
		LastName    string `json:"last_name"`
		Avatar      string `json:"avatar"`
		Bio         string `json:"bio"`
		BirthDate   string `json:"birth_date"`
		PhoneNumber string `json:"phone_number"`
		Address     string `json:"address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid update profile request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	input := service.UpdateProfileInput{
		Email:       req.Email,
		Username:    req.Username,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Avatar:      req.Avatar,
		Bio:         req.Bio,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
	}
	if req.BirthDate != "" {
		birthDate, err := time.Parse(birthDateLayout, req.BirthDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"birth_date": "expected YYYY-MM-DD"}})
			return
		}
		input.BirthDate = &birthDate
	}

	user, profile, err := h.accountServ.UpdateProfile(c.Request.Context(), claims.UserID, input)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			c.JSON(http.StatusConflict, gin.H{"errors": gin.H{"email": "already registered"}})
			return
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		default:
			h.logger.Error("update profile failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update profile"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "profile": profile})
}
