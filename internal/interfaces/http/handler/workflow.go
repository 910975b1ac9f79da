// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"autopen-api/internal/application/workflow"
	"autopen-api/internal/domain/repository"
	"autopen-api/internal/interfaces/http/dto"
	"autopen-api/internal/interfaces/http/middleware"
	"autopen-api/pkg/logger"
)

// WorkflowHandler 创作流程处理器
type WorkflowHandler struct {
	machine  *workflow.Machine
	ideaRepo repository.IdeaRepository
}

// NewWorkflowHandler 创建创作流程处理器
func NewWorkflowHandler(machine *workflow.Machine, ideaRepo repository.IdeaRepository) *WorkflowHandler {
	return &WorkflowHandler{
		machine:  machine,
		ideaRepo: ideaRepo,
	}
}

// GetStep 解析当前步骤
// @Summary 解析当前步骤
// @Description 根据项目状态解析用户应处于的创作步骤
// @Tags Workflow
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Success 200 {object} dto.Response[dto.StepStateResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/workflow/step [get]
func (h *WorkflowHandler) GetStep(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)
	ownerID := middleware.GetUserIDFromGin(c)

	state, err := h.machine.ResolveStep(ctx, projectID, ownerID)
	if err != nil {
		respondError(c, err, "failed to resolve workflow step")
		return
	}

	dto.Success(c, dto.ToStepStateResponse(state))
}

// Transition 步骤跳转
// @Summary 步骤跳转
// @Description 向前或向后跳转创作步骤，向前跳转受步骤门禁约束
// @Tags Workflow
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param body body dto.TransitionRequest true "目标步骤"
// @Success 200 {object} dto.Response[dto.StepStateResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/workflow/transition [post]
func (h *WorkflowHandler) Transition(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)
	ownerID := middleware.GetUserIDFromGin(c)

	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	target, err := workflow.ParseStep(req.Target)
	if err != nil {
		respondError(c, err, "invalid target step")
		return
	}

	state, err := h.machine.Transition(ctx, projectID, ownerID, target)
	if err != nil {
		respondError(c, err, "failed to transition workflow step")
		return
	}

	dto.Success(c, dto.ToStepStateResponse(state))
}

// ListIdeas 获取构思列表
// @Summary 获取构思列表
// @Description 获取分析产出的电子书构思
// @Tags Workflow
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Success 200 {object} dto.Response[dto.IdeaListResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/ideas [get]
func (h *WorkflowHandler) ListIdeas(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)
	ownerID := middleware.GetUserIDFromGin(c)

	// 通过步骤解析校验归属
	if _, err := h.machine.ResolveStep(ctx, projectID, ownerID); err != nil {
		respondError(c, err, "failed to resolve project")
		return
	}

	ideas, err := h.ideaRepo.ListByProject(ctx, projectID)
	if err != nil {
		logger.Error(ctx, "failed to list ideas", err)
		dto.InternalError(c, "failed to list ideas")
		return
	}

	dto.Success(c, dto.ToIdeaListResponse(ideas))
}

// CommitIdea 提交构思
// @Summary 提交构思
// @Description 选定或自定义构思，生成电子书结构并进入写作步骤
// @Tags Workflow
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param body body dto.CommitIdeaRequest true "构思选择"
// @Success 201 {object} dto.Response[dto.EbookResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/workflow/commit-idea [post]
func (h *WorkflowHandler) CommitIdea(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)
	ownerID := middleware.GetUserIDFromGin(c)

	var req dto.CommitIdeaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	ebook, err := h.machine.CommitIdea(ctx, projectID, ownerID, &workflow.CommitIdeaInput{
		IdeaID:            req.IdeaID,
		CustomTitle:       req.CustomTitle,
		CustomDescription: req.CustomDescription,
		Provider:          req.Provider,
		Model:             req.Model,
	})
	if err != nil {
		respondError(c, err, "failed to commit idea")
		return
	}

	dto.Created(c, dto.ToEbookResponse(ebook))
}

// Finalize 完成创作
// @Summary 完成创作
// @Description 所有章节生成完毕后定稿电子书并完成项目
// @Tags Workflow
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Success 200 {object} dto.Response[dto.EbookResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/workflow/finalize [post]
func (h *WorkflowHandler) Finalize(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)
	ownerID := middleware.GetUserIDFromGin(c)

	ebook, err := h.machine.Finalize(ctx, projectID, ownerID)
	if err != nil {
		respondError(c, err, "failed to finalize ebook")
		return
	}

	dto.Success(c, dto.ToEbookResponse(ebook))
}
