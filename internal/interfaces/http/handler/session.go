// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"autopen-api/internal/application/workflow"
	"autopen-api/internal/domain/repository"
	"autopen-api/internal/interfaces/http/dto"
	"autopen-api/internal/interfaces/http/middleware"
)

// SessionHandler 创作会话处理器，负责进度保存与断点恢复
type SessionHandler struct {
	resumer     *workflow.Resumer
	projectRepo repository.ProjectRepository
}

// NewSessionHandler 创建创作会话处理器
func NewSessionHandler(resumer *workflow.Resumer, projectRepo repository.ProjectRepository) *SessionHandler {
	return &SessionHandler{
		resumer:     resumer,
		projectRepo: projectRepo,
	}
}

// SaveProgress 保存创作进度
// @Summary 保存创作进度
// @Description 保存项目当前步骤，返回恢复令牌
// @Tags Sessions
// @Accept json
// @Produce json
// @Param body body dto.SaveProgressRequest true "进度信息"
// @Success 201 {object} dto.Response[dto.SessionTokenResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/sessions/progress [post]
func (h *SessionHandler) SaveProgress(c *gin.Context) {
	ctx := c.Request.Context()
	ownerID := middleware.GetUserIDFromGin(c)

	var req dto.SaveProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	step, err := workflow.ParseStep(req.Step)
	if err != nil {
		respondError(c, err, "invalid workflow step")
		return
	}

	// 校验项目归属
	if _, err := h.projectRepo.GetByIDForOwner(ctx, req.ProjectID, ownerID); err != nil {
		respondError(c, err, "failed to get project")
		return
	}

	token, err := h.resumer.SaveProgress(ctx, req.ProjectID, step)
	if err != nil {
		respondError(c, err, "failed to save progress")
		return
	}

	dto.Created(c, &dto.SessionTokenResponse{Token: token})
}

// SavePendingProject 保存未落库项目
// @Summary 保存未落库项目
// @Description 将尚未创建的项目草稿保存到会话，恢复时再落库
// @Tags Sessions
// @Accept json
// @Produce json
// @Param body body dto.SavePendingProjectRequest true "项目草稿"
// @Success 201 {object} dto.Response[dto.SessionTokenResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/sessions/pending-project [post]
func (h *SessionHandler) SavePendingProject(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.SavePendingProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	token, err := h.resumer.SavePendingProject(ctx, req.Title, req.Description)
	if err != nil {
		respondError(c, err, "failed to save pending project")
		return
	}

	dto.Created(c, &dto.SessionTokenResponse{Token: token})
}

// Resume 恢复创作会话
// @Summary 恢复创作会话
// @Description 根据恢复令牌恢复创作进度，必要时创建项目
// @Tags Sessions
// @Accept json
// @Produce json
// @Param body body dto.ResumeRequest true "恢复令牌"
// @Success 200 {object} dto.Response[dto.ResumeResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/sessions/resume [post]
func (h *SessionHandler) Resume(c *gin.Context) {
	ctx := c.Request.Context()
	ownerID := middleware.GetUserIDFromGin(c)

	var req dto.ResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	result, err := h.resumer.Resume(ctx, req.Token, ownerID)
	if err != nil {
		respondError(c, err, "failed to resume session")
		return
	}

	dto.Success(c, dto.ToResumeResponse(result))
}
