// Package handler 提供 HTTP 请求处理器
package handler

import (
	"errors"
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"autopen-api/internal/application/chapter"
	"autopen-api/internal/interfaces/http/dto"
	"autopen-api/pkg/logger"
)

// StreamHandler 流式生成处理器
type StreamHandler struct {
	svc      *chapter.Service
	chapters *ChapterHandler
}

// NewStreamHandler 创建流式生成处理器
func NewStreamHandler(svc *chapter.Service, chapters *ChapterHandler) *StreamHandler {
	return &StreamHandler{
		svc:      svc,
		chapters: chapters,
	}
}

// StreamChapter 流式生成章节
// @Summary 流式生成章节
// @Description 通过 SSE 流式输出章节生成内容，结束后落库
// @Tags Chapters
// @Accept json
// @Produce text/event-stream
// @Param cid path string true "章节 ID"
// @Success 200 "SSE stream"
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/chapters/{cid}/stream [get]
func (h *StreamHandler) StreamChapter(c *gin.Context) {
	ctx := c.Request.Context()
	chapterID := dto.BindChapterID(c)

	if _, ok := h.chapters.authorizeChapter(c, chapterID); !ok {
		return
	}

	opts := &chapter.GenerateOptions{
		Provider: c.Query("provider"),
		Model:    c.Query("model"),
	}

	session, err := h.svc.StreamGenerate(ctx, chapterID, opts)
	if err != nil {
		respondError(c, err, "failed to start chapter stream")
		return
	}
	defer session.Reader.Close()

	// SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	var content strings.Builder
	var streamErr error
	index := 0

	c.Stream(func(w io.Writer) bool {
		msg, err := session.Reader.Recv()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				streamErr = err
				c.SSEvent("error", gin.H{
					"message": err.Error(),
				})
			}
			return false
		}

		content.WriteString(msg.Content)
		c.SSEvent("content", gin.H{
			"chunk": msg.Content,
			"index": index,
		})
		index++
		return true
	})

	// 客户端断开也要落库或回退
	if finishErr := session.Finish(ctx, content.String(), streamErr); finishErr != nil {
		logger.Error(ctx, "failed to finish chapter stream", finishErr, "chapter_id", chapterID)
		return
	}

	if streamErr == nil {
		c.SSEvent("done", gin.H{
			"chapter_id": chapterID,
		})
	}
}
