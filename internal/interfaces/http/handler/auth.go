// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"autopen-api/internal/config"
	"autopen-api/internal/domain/entity"
	"autopen-api/internal/domain/repository"
	"autopen-api/internal/interfaces/http/dto"
	"autopen-api/pkg/errors"
	"autopen-api/pkg/logger"
	"autopen-api/pkg/utils"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	jwtManager *utils.JWTManager
	jwtCfg     *config.JWTConfig
	userRepo   repository.UserRepository
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(cfg *config.Config, userRepo repository.UserRepository) *AuthHandler {
	return &AuthHandler{
		jwtManager: utils.NewJWTManager(cfg.Security.JWT.Secret, cfg.Security.JWT.Issuer),
		jwtCfg:     &cfg.Security.JWT,
		userRepo:   userRepo,
	}
}

// Register 注册
// @Summary 用户注册
// @Description 创建新用户并返回双 Token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body dto.RegisterRequest true "注册信息"
// @Success 201 {object} dto.Response[dto.AuthResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	// 检查邮箱是否已注册
	existing, err := h.userRepo.GetByEmail(ctx, req.Email)
	if err != nil && !errors.IsCode(err, errors.CodeNotFound) {
		logger.Error(ctx, "failed to check email existence", err)
		dto.InternalError(c, "registration failed")
		return
	}
	if existing != nil {
		dto.Conflict(c, "email already registered")
		return
	}

	user, err := entity.NewUser(req.Email, req.Password, req.DisplayName)
	if err != nil {
		logger.Error(ctx, "failed to hash password", err)
		dto.InternalError(c, "registration failed")
		return
	}

	if err := h.userRepo.Create(ctx, user); err != nil {
		logger.Error(ctx, "failed to create user", err)
		dto.InternalError(c, "registration failed")
		return
	}

	pair, err := h.jwtManager.GenerateTokenPair(user.ID, user.Email, h.jwtCfg.Expiration, h.jwtCfg.RefreshExpiration)
	if err != nil {
		logger.Error(ctx, "failed to generate tokens", err)
		dto.InternalError(c, "user created but failed to generate tokens")
		return
	}

	dto.Created(c, dto.ToAuthResponse(user, pair))
}

// Login 登录
// @Summary 用户登录
// @Description 验证邮箱密码并返回双 Token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "登录信息"
// @Success 200 {object} dto.Response[dto.AuthResponse]
// @Failure 401 {object} dto.ErrorResponse
// @Router /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	user, err := h.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.IsCode(err, errors.CodeNotFound) {
			dto.Unauthorized(c, "invalid email or password")
			return
		}
		logger.Error(ctx, "failed to get user by email", err)
		dto.InternalError(c, "login failed")
		return
	}

	if !user.CheckPassword(req.Password) {
		dto.Unauthorized(c, "invalid email or password")
		return
	}

	pair, err := h.jwtManager.GenerateTokenPair(user.ID, user.Email, h.jwtCfg.Expiration, h.jwtCfg.RefreshExpiration)
	if err != nil {
		logger.Error(ctx, "failed to generate tokens", err)
		dto.InternalError(c, "login failed")
		return
	}

	dto.Success(c, dto.ToAuthResponse(user, pair))
}

// RefreshToken 刷新令牌
// @Summary 刷新令牌
// @Description 使用 RefreshToken 换取新的双 Token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body dto.RefreshTokenRequest true "刷新令牌"
// @Success 200 {object} dto.Response[dto.TokenResponse]
// @Failure 401 {object} dto.ErrorResponse
// @Router /v1/auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	claims, err := h.jwtManager.ParseToken(req.RefreshToken)
	if err != nil {
		msg := "invalid refresh token"
		if err == utils.ErrExpiredToken {
			msg = "refresh token expired"
		}
		dto.Unauthorized(c, msg)
		return
	}
	if claims.Type != "refresh" {
		dto.Unauthorized(c, "invalid token type")
		return
	}

	// 确认用户仍然存在
	user, err := h.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.IsCode(err, errors.CodeNotFound) {
			dto.Unauthorized(c, "user no longer exists")
			return
		}
		logger.Error(ctx, "failed to get user", err)
		dto.InternalError(c, "token refresh failed")
		return
	}

	pair, err := h.jwtManager.GenerateTokenPair(user.ID, user.Email, h.jwtCfg.Expiration, h.jwtCfg.RefreshExpiration)
	if err != nil {
		logger.Error(ctx, "failed to generate tokens", err)
		dto.InternalError(c, "token refresh failed")
		return
	}

	dto.Success(c, &dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}
