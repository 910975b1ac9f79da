// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"autopen-api/internal/domain/entity"
	"autopen-api/internal/domain/repository"
	"autopen-api/internal/interfaces/http/dto"
	"autopen-api/internal/interfaces/http/middleware"
)

// JobHandler 生成任务处理器
type JobHandler struct {
	jobRepo     repository.JobRepository
	projectRepo repository.ProjectRepository
}

// NewJobHandler 创建生成任务处理器
func NewJobHandler(jobRepo repository.JobRepository, projectRepo repository.ProjectRepository) *JobHandler {
	return &JobHandler{
		jobRepo:     jobRepo,
		projectRepo: projectRepo,
	}
}

// GetJob 获取任务详情
// @Summary 获取任务详情
// @Description 获取生成任务的状态与进度
// @Tags Jobs
// @Accept json
// @Produce json
// @Param jid path string true "任务 ID"
// @Success 200 {object} dto.Response[dto.JobResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/jobs/{jid} [get]
func (h *JobHandler) GetJob(c *gin.Context) {
	ctx := c.Request.Context()
	jobID := dto.BindJobID(c)
	ownerID := middleware.GetUserIDFromGin(c)

	job, err := h.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		respondError(c, err, "failed to get job")
		return
	}

	if _, err := h.projectRepo.GetByIDForOwner(ctx, job.ProjectID, ownerID); err != nil {
		respondError(c, err, "failed to get project")
		return
	}

	dto.Success(c, dto.ToJobResponse(job))
}

// CancelJob 取消任务
// @Summary 取消任务
// @Description 取消等待中或执行中的生成任务；执行中的任务在下一检查点停止
// @Tags Jobs
// @Accept json
// @Produce json
// @Param jid path string true "任务 ID"
// @Success 200 {object} dto.Response[dto.JobResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/jobs/{jid}/cancel [post]
func (h *JobHandler) CancelJob(c *gin.Context) {
	ctx := c.Request.Context()
	jobID := dto.BindJobID(c)
	ownerID := middleware.GetUserIDFromGin(c)

	job, err := h.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		respondError(c, err, "failed to get job")
		return
	}

	if _, err := h.projectRepo.GetByIDForOwner(ctx, job.ProjectID, ownerID); err != nil {
		respondError(c, err, "failed to get project")
		return
	}

	if !job.CanCancel() {
		dto.Conflict(c, "job already finished")
		return
	}

	job.Cancel()
	if err := h.jobRepo.Update(ctx, job); err != nil {
		respondError(c, err, "failed to cancel job")
		return
	}

	dto.Success(c, dto.ToJobResponse(job))
}

// ListProjectJobs 获取项目任务列表
// @Summary 获取项目任务列表
// @Description 分页获取项目的生成任务，可按类型与状态过滤
// @Tags Jobs
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页条数" default(20)
// @Param job_type query string false "任务类型过滤"
// @Param status query string false "任务状态过滤"
// @Success 200 {object} dto.Response[dto.JobListResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/jobs [get]
func (h *JobHandler) ListProjectJobs(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)
	ownerID := middleware.GetUserIDFromGin(c)

	if _, err := h.projectRepo.GetByIDForOwner(ctx, projectID, ownerID); err != nil {
		respondError(c, err, "failed to get project")
		return
	}

	pageReq := dto.BindPage(c)

	var filter *repository.JobFilter
	if c.Query("job_type") != "" || c.Query("status") != "" {
		filter = &repository.JobFilter{
			JobType: entity.JobType(c.Query("job_type")),
			Status:  entity.JobStatus(c.Query("status")),
		}
	}

	result, err := h.jobRepo.ListByProject(ctx, projectID, filter, repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		respondError(c, err, "failed to list jobs")
		return
	}

	resp := dto.ToJobListResponse(result.Items)
	meta := dto.NewPageMeta(pageReq.Page, pageReq.PageSize, int(result.Total))
	dto.SuccessWithPage(c, resp, meta)
}
