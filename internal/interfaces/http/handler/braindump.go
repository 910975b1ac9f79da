// Package handler 提供 HTTP 请求处理器
package handler

import (
	"io"

	"github.com/gin-gonic/gin"

	"autopen-api/internal/application/braindump"
	"autopen-api/internal/domain/entity"
	"autopen-api/internal/domain/repository"
	"autopen-api/internal/interfaces/http/dto"
	"autopen-api/internal/interfaces/http/middleware"
	"autopen-api/pkg/logger"
)

// maxUploadSize 素材文件大小上限 (10MB)
const maxUploadSize = 10 << 20

// BrainDumpHandler 素材处理器
type BrainDumpHandler struct {
	svc      *braindump.Service
	dumpRepo repository.BrainDumpRepository
}

// NewBrainDumpHandler 创建素材处理器
func NewBrainDumpHandler(svc *braindump.Service, dumpRepo repository.BrainDumpRepository) *BrainDumpHandler {
	return &BrainDumpHandler{
		svc:      svc,
		dumpRepo: dumpRepo,
	}
}

// respondBrainDump 组装附带文件与链接的完整素材响应
func (h *BrainDumpHandler) respondBrainDump(c *gin.Context, dump *entity.BrainDump) {
	ctx := c.Request.Context()

	files, err := h.dumpRepo.ListFiles(ctx, dump.ID)
	if err != nil {
		logger.Error(ctx, "failed to list brain dump files", err)
		dto.InternalError(c, "failed to load brain dump")
		return
	}
	links, err := h.dumpRepo.ListLinks(ctx, dump.ID)
	if err != nil {
		logger.Error(ctx, "failed to list brain dump links", err)
		dto.InternalError(c, "failed to load brain dump")
		return
	}

	dto.Success(c, dto.ToBrainDumpResponse(dump, files, links))
}

// GetBrainDump 获取素材
// @Summary 获取素材
// @Description 获取项目素材，不存在时延迟创建空素材
// @Tags BrainDump
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Success 200 {object} dto.Response[dto.BrainDumpResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/braindump [get]
func (h *BrainDumpHandler) GetBrainDump(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)
	ownerID := middleware.GetUserIDFromGin(c)

	dump, err := h.svc.GetOrCreate(ctx, projectID, ownerID)
	if err != nil {
		respondError(c, err, "failed to get brain dump")
		return
	}

	h.respondBrainDump(c, dump)
}

// SaveContent 保存素材正文
// @Summary 保存素材正文
// @Description 覆盖式保存素材自由文本
// @Tags BrainDump
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param body body dto.SaveBrainDumpRequest true "素材正文"
// @Success 200 {object} dto.Response[dto.BrainDumpResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/braindump/content [put]
func (h *BrainDumpHandler) SaveContent(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)
	ownerID := middleware.GetUserIDFromGin(c)

	var req dto.SaveBrainDumpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	dump, err := h.svc.SaveContent(ctx, projectID, ownerID, req.Content)
	if err != nil {
		respondError(c, err, "failed to save brain dump content")
		return
	}

	h.respondBrainDump(c, dump)
}

// AddFile 上传素材文件
// @Summary 上传素材文件
// @Description 上传文档或图片作为素材附件，文档会抽取正文
// @Tags BrainDump
// @Accept multipart/form-data
// @Produce json
// @Param pid path string true "项目 ID"
// @Param file formData file true "素材文件"
// @Success 201 {object} dto.Response[dto.BrainDumpFileResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/braindump/files [post]
func (h *BrainDumpHandler) AddFile(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)
	ownerID := middleware.GetUserIDFromGin(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		dto.BadRequest(c, "missing file field: "+err.Error())
		return
	}
	if fileHeader.Size > maxUploadSize {
		dto.BadRequest(c, "file exceeds maximum size of 10MB")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		dto.BadRequest(c, "failed to open uploaded file: "+err.Error())
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadSize+1))
	if err != nil {
		logger.Error(ctx, "failed to read uploaded file", err)
		dto.InternalError(c, "failed to read uploaded file")
		return
	}

	file, err := h.svc.AddFile(ctx, projectID, ownerID, fileHeader.Filename, data)
	if err != nil {
		respondError(c, err, "failed to add brain dump file")
		return
	}

	dto.Created(c, dto.ToBrainDumpFileResponse(file))
}

// RemoveFile 删除素材文件
// @Summary 删除素材文件
// @Description 删除指定素材文件
// @Tags BrainDump
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param fid path string true "文件 ID"
// @Success 204 "No Content"
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/braindump/files/{fid} [delete]
func (h *BrainDumpHandler) RemoveFile(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)
	ownerID := middleware.GetUserIDFromGin(c)
	fileID := dto.BindFileID(c)

	if err := h.svc.RemoveFile(ctx, projectID, ownerID, fileID); err != nil {
		respondError(c, err, "failed to remove brain dump file")
		return
	}

	dto.NoContent(c)
}

// AddLink 添加素材链接
// @Summary 添加素材链接
// @Description 添加网页或 YouTube 链接，字幕在后台抓取
// @Tags BrainDump
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param body body dto.AddLinkRequest true "链接"
// @Success 201 {object} dto.Response[dto.BrainDumpLinkResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/braindump/links [post]
func (h *BrainDumpHandler) AddLink(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)
	ownerID := middleware.GetUserIDFromGin(c)

	var req dto.AddLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	link, err := h.svc.AddLink(ctx, projectID, ownerID, req.URL)
	if err != nil {
		respondError(c, err, "failed to add brain dump link")
		return
	}

	dto.Created(c, dto.ToBrainDumpLinkResponse(link))
}

// RemoveLink 删除素材链接
// @Summary 删除素材链接
// @Description 删除指定素材链接
// @Tags BrainDump
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param lid path string true "链接 ID"
// @Success 204 "No Content"
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/braindump/links/{lid} [delete]
func (h *BrainDumpHandler) RemoveLink(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)
	ownerID := middleware.GetUserIDFromGin(c)
	linkID := dto.BindLinkID(c)

	if err := h.svc.RemoveLink(ctx, projectID, ownerID, linkID); err != nil {
		respondError(c, err, "failed to remove brain dump link")
		return
	}

	dto.NoContent(c)
}

// Analyze 分析素材
// @Summary 分析素材
// @Description 同步分析素材并产出构思；async 时入队后台任务
// @Tags BrainDump
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param body body dto.AnalyzeRequest true "分析选项"
// @Success 200 {object} dto.Response[dto.AnalyzeResponse]
// @Success 202 {object} dto.Response[dto.JobResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/braindump/analyze [post]
func (h *BrainDumpHandler) Analyze(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)
	ownerID := middleware.GetUserIDFromGin(c)

	var req dto.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	opts := &braindump.AnalyzeOptions{
		Provider: req.Provider,
		Model:    req.Model,
	}

	if req.Async {
		job, err := h.svc.EnqueueAnalysis(ctx, projectID, ownerID, opts)
		if err != nil {
			respondError(c, err, "failed to enqueue analysis")
			return
		}
		dto.Accepted(c, dto.ToJobResponse(job))
		return
	}

	result, err := h.svc.Analyze(ctx, projectID, ownerID, opts)
	if err != nil {
		respondError(c, err, "failed to analyze brain dump")
		return
	}

	ideas := make([]*dto.IdeaResponse, 0, len(result.Ideas))
	for _, idea := range result.Ideas {
		ideas = append(ideas, dto.ToIdeaResponse(idea))
	}

	files, err := h.dumpRepo.ListFiles(ctx, result.Dump.ID)
	if err != nil {
		logger.Error(ctx, "failed to list brain dump files", err)
		dto.InternalError(c, "failed to load brain dump")
		return
	}
	links, err := h.dumpRepo.ListLinks(ctx, result.Dump.ID)
	if err != nil {
		logger.Error(ctx, "failed to list brain dump links", err)
		dto.InternalError(c, "failed to load brain dump")
		return
	}

	dto.Success(c, &dto.AnalyzeResponse{
		BrainDump: dto.ToBrainDumpResponse(result.Dump, files, links),
		Ideas:     ideas,
		Degraded:  result.Degraded,
	})
}
