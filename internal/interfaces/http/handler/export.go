// Package handler 提供 HTTP 请求处理器
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"autopen-api/internal/application/export"
	"autopen-api/internal/interfaces/http/dto"
)

// ExportHandler 导出处理器
type ExportHandler struct {
	assembler *export.Assembler
	chapters  *ChapterHandler
}

// NewExportHandler 创建导出处理器
func NewExportHandler(assembler *export.Assembler, chapters *ChapterHandler) *ExportHandler {
	return &ExportHandler{
		assembler: assembler,
		chapters:  chapters,
	}
}

// Export 导出电子书
// @Summary 导出电子书
// @Description 组装全部章节并以附件下载，默认 markdown 格式
// @Tags Ebooks
// @Accept json
// @Produce application/octet-stream
// @Param eid path string true "电子书 ID"
// @Param format query string false "导出格式" Enums(markdown, pdf, epub)
// @Success 200 "document attachment"
// @Failure 404 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /v1/ebooks/{eid}/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	ctx := c.Request.Context()
	ebookID := dto.BindEbookID(c)

	ebook, ok := h.chapters.authorizeEbook(c, ebookID)
	if !ok {
		return
	}

	doc, err := h.assembler.Export(ctx, ebook.ID, export.Format(c.Query("format")))
	if err != nil {
		respondError(c, err, "failed to export ebook")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+doc.FileName+`"`)
	c.Header("Content-Length", strconv.Itoa(len(doc.Data)))
	c.Data(http.StatusOK, doc.ContentType, doc.Data)
}
