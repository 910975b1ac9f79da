// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"autopen-api/internal/application/chapter"
	"autopen-api/internal/domain/entity"
	"autopen-api/internal/domain/repository"
	"autopen-api/internal/interfaces/http/dto"
	"autopen-api/internal/interfaces/http/middleware"
	"autopen-api/pkg/logger"
)

// ChapterHandler 电子书与章节处理器
type ChapterHandler struct {
	svc         *chapter.Service
	batchRunner *chapter.BatchRunner
	projectRepo repository.ProjectRepository
	ebookRepo   repository.EbookRepository
	chapterRepo repository.ChapterRepository
}

// NewChapterHandler 创建电子书与章节处理器
func NewChapterHandler(
	svc *chapter.Service,
	batchRunner *chapter.BatchRunner,
	projectRepo repository.ProjectRepository,
	ebookRepo repository.EbookRepository,
	chapterRepo repository.ChapterRepository,
) *ChapterHandler {
	return &ChapterHandler{
		svc:         svc,
		batchRunner: batchRunner,
		projectRepo: projectRepo,
		ebookRepo:   ebookRepo,
		chapterRepo: chapterRepo,
	}
}

// authorizeEbook 校验电子书归属于当前用户
func (h *ChapterHandler) authorizeEbook(c *gin.Context, ebookID string) (*entity.Ebook, bool) {
	ctx := c.Request.Context()

	ebook, err := h.ebookRepo.GetByID(ctx, ebookID)
	if err != nil {
		respondError(c, err, "failed to get ebook")
		return nil, false
	}

	ownerID := middleware.GetUserIDFromGin(c)
	if _, err := h.projectRepo.GetByIDForOwner(ctx, ebook.ProjectID, ownerID); err != nil {
		respondError(c, err, "failed to get project")
		return nil, false
	}
	return ebook, true
}

// authorizeChapter 校验章节归属于当前用户
func (h *ChapterHandler) authorizeChapter(c *gin.Context, chapterID string) (*entity.Chapter, bool) {
	ctx := c.Request.Context()

	ch, err := h.chapterRepo.GetByID(ctx, chapterID)
	if err != nil {
		respondError(c, err, "failed to get chapter")
		return nil, false
	}
	if _, ok := h.authorizeEbook(c, ch.EbookID); !ok {
		return nil, false
	}
	return ch, true
}

// GetEbook 获取项目电子书
// @Summary 获取项目电子书
// @Description 获取项目的电子书与章节列表
// @Tags Ebooks
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Success 200 {object} dto.Response[dto.EbookDetailResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/ebook [get]
func (h *ChapterHandler) GetEbook(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)
	ownerID := middleware.GetUserIDFromGin(c)

	if _, err := h.projectRepo.GetByIDForOwner(ctx, projectID, ownerID); err != nil {
		respondError(c, err, "failed to get project")
		return
	}

	ebook, err := h.ebookRepo.GetByProject(ctx, projectID)
	if err != nil {
		respondError(c, err, "failed to get ebook")
		return
	}

	chapters, err := h.chapterRepo.ListByEbook(ctx, ebook.ID)
	if err != nil {
		logger.Error(ctx, "failed to list chapters", err)
		dto.InternalError(c, "failed to list chapters")
		return
	}

	dto.Success(c, &dto.EbookDetailResponse{
		Ebook:    dto.ToEbookResponse(ebook),
		Chapters: dto.ToChapterListResponse(chapters).Chapters,
	})
}

// ListChapters 获取章节列表
// @Summary 获取章节列表
// @Description 按序号升序获取电子书章节
// @Tags Chapters
// @Accept json
// @Produce json
// @Param eid path string true "电子书 ID"
// @Success 200 {object} dto.Response[dto.ChapterListResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/ebooks/{eid}/chapters [get]
func (h *ChapterHandler) ListChapters(c *gin.Context) {
	ctx := c.Request.Context()
	ebookID := dto.BindEbookID(c)

	ebook, ok := h.authorizeEbook(c, ebookID)
	if !ok {
		return
	}

	chapters, err := h.chapterRepo.ListByEbook(ctx, ebook.ID)
	if err != nil {
		logger.Error(ctx, "failed to list chapters", err)
		dto.InternalError(c, "failed to list chapters")
		return
	}

	dto.Success(c, dto.ToChapterListResponse(chapters))
}

// AddChapter 新增章节
// @Summary 新增章节
// @Description 追加章节，manual 模式创建占位内容，ai 模式立即生成
// @Tags Chapters
// @Accept json
// @Produce json
// @Param eid path string true "电子书 ID"
// @Param body body dto.AddChapterRequest true "章节信息"
// @Success 201 {object} dto.Response[dto.ChapterResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/ebooks/{eid}/chapters [post]
func (h *ChapterHandler) AddChapter(c *gin.Context) {
	ctx := c.Request.Context()
	ebookID := dto.BindEbookID(c)

	var req dto.AddChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	ebook, ok := h.authorizeEbook(c, ebookID)
	if !ok {
		return
	}

	ch, err := h.svc.Add(ctx, ebook.ID, &chapter.AddInput{
		Title:    req.Title,
		Mode:     chapter.AddMode(req.Mode),
		Provider: req.Provider,
		Model:    req.Model,
	})
	if err != nil {
		respondError(c, err, "failed to add chapter")
		return
	}

	dto.Created(c, dto.ToChapterResponse(ch))
}

// GetChapter 获取章节详情
// @Summary 获取章节详情
// @Description 获取章节内容与生成状态
// @Tags Chapters
// @Accept json
// @Produce json
// @Param cid path string true "章节 ID"
// @Success 200 {object} dto.Response[dto.ChapterResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/chapters/{cid} [get]
func (h *ChapterHandler) GetChapter(c *gin.Context) {
	chapterID := dto.BindChapterID(c)

	ch, ok := h.authorizeChapter(c, chapterID)
	if !ok {
		return
	}

	dto.Success(c, dto.ToChapterResponse(ch))
}

// EditChapter 编辑章节
// @Summary 编辑章节
// @Description 人工覆盖已生成章节的内容
// @Tags Chapters
// @Accept json
// @Produce json
// @Param cid path string true "章节 ID"
// @Param body body dto.EditChapterRequest true "章节内容"
// @Success 200 {object} dto.Response[dto.ChapterResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/chapters/{cid} [put]
func (h *ChapterHandler) EditChapter(c *gin.Context) {
	ctx := c.Request.Context()
	chapterID := dto.BindChapterID(c)

	var req dto.EditChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	if _, ok := h.authorizeChapter(c, chapterID); !ok {
		return
	}

	ch, err := h.svc.Edit(ctx, chapterID, req.Content)
	if err != nil {
		respondError(c, err, "failed to edit chapter")
		return
	}

	dto.Success(c, dto.ToChapterResponse(ch))
}

// DeleteChapter 删除章节
// @Summary 删除章节
// @Description 删除章节并重排后续序号；最后一章不可删除
// @Tags Chapters
// @Accept json
// @Produce json
// @Param cid path string true "章节 ID"
// @Success 204 "No Content"
// @Failure 404 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /v1/chapters/{cid} [delete]
func (h *ChapterHandler) DeleteChapter(c *gin.Context) {
	ctx := c.Request.Context()
	chapterID := dto.BindChapterID(c)

	if _, ok := h.authorizeChapter(c, chapterID); !ok {
		return
	}

	if err := h.svc.Delete(ctx, chapterID); err != nil {
		respondError(c, err, "failed to delete chapter")
		return
	}

	dto.NoContent(c)
}

// GenerateChapter 生成章节
// @Summary 生成章节
// @Description 同步生成单章内容，同章并发生成被拒绝
// @Tags Chapters
// @Accept json
// @Produce json
// @Param cid path string true "章节 ID"
// @Param body body dto.GenerateChapterRequest false "生成选项"
// @Success 200 {object} dto.Response[dto.ChapterResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/chapters/{cid}/generate [post]
func (h *ChapterHandler) GenerateChapter(c *gin.Context) {
	ctx := c.Request.Context()
	chapterID := dto.BindChapterID(c)

	var req dto.GenerateChapterRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			dto.BadRequest(c, "invalid request body: "+err.Error())
			return
		}
	}

	if _, ok := h.authorizeChapter(c, chapterID); !ok {
		return
	}

	ch, err := h.svc.Generate(ctx, chapterID, &chapter.GenerateOptions{
		Provider: req.Provider,
		Model:    req.Model,
	})
	if err != nil {
		respondError(c, err, "failed to generate chapter")
		return
	}

	dto.Success(c, dto.ToChapterResponse(ch))
}

// GenerateAll 批量生成章节
// @Summary 批量生成章节
// @Description 顺序生成全部待生成章节；async 时入队后台任务
// @Tags Chapters
// @Accept json
// @Produce json
// @Param eid path string true "电子书 ID"
// @Param body body dto.GenerateAllRequest false "生成选项"
// @Success 200 {object} dto.Response[dto.BatchGenResponse]
// @Success 202 {object} dto.Response[dto.JobResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/ebooks/{eid}/generate [post]
func (h *ChapterHandler) GenerateAll(c *gin.Context) {
	ctx := c.Request.Context()
	ebookID := dto.BindEbookID(c)

	var req dto.GenerateAllRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			dto.BadRequest(c, "invalid request body: "+err.Error())
			return
		}
	}

	ebook, ok := h.authorizeEbook(c, ebookID)
	if !ok {
		return
	}

	opts := &chapter.GenerateOptions{
		Provider: req.Provider,
		Model:    req.Model,
	}

	if req.Async {
		job, err := h.batchRunner.Enqueue(ctx, ebook.ID, opts)
		if err != nil {
			respondError(c, err, "failed to enqueue batch generation")
			return
		}
		dto.Accepted(c, dto.ToJobResponse(job))
		return
	}

	result, err := h.svc.GenerateAllPending(ctx, ebook.ID, opts)
	if err != nil {
		respondError(c, err, "failed to generate chapters")
		return
	}

	dto.Success(c, dto.ToBatchGenResponse(result))
}

// GetProgress 获取生成进度
// @Summary 获取生成进度
// @Description 统计电子书章节生成进度
// @Tags Chapters
// @Accept json
// @Produce json
// @Param eid path string true "电子书 ID"
// @Success 200 {object} dto.Response[dto.ProgressResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/ebooks/{eid}/progress [get]
func (h *ChapterHandler) GetProgress(c *gin.Context) {
	ctx := c.Request.Context()
	ebookID := dto.BindEbookID(c)

	ebook, ok := h.authorizeEbook(c, ebookID)
	if !ok {
		return
	}

	progress, err := h.svc.GetProgress(ctx, ebook.ID)
	if err != nil {
		respondError(c, err, "failed to get generation progress")
		return
	}

	dto.Success(c, dto.ToProgressResponse(progress))
}
