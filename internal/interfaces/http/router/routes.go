// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(v1 *gin.RouterGroup, h RouterHandlers) {
	// 认证管理
	auth := v1.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.RefreshToken)
	}

	// 项目管理
	projects := v1.Group("/projects")
	{
		projects.GET("", h.Project.ListProjects)
		projects.POST("", h.Project.CreateProject)
		projects.GET("/:pid", h.Project.GetProject)
		projects.PUT("/:pid", h.Project.UpdateProject)
		projects.DELETE("/:pid", h.Project.DeleteProject)

		// 创作流程
		projects.GET("/:pid/workflow/step", h.Workflow.GetStep)
		projects.POST("/:pid/workflow/transition", h.Workflow.Transition)
		projects.POST("/:pid/workflow/commit-idea", h.Workflow.CommitIdea)
		projects.POST("/:pid/workflow/finalize", h.Workflow.Finalize)
		projects.GET("/:pid/ideas", h.Workflow.ListIdeas)

		// 素材
		projects.GET("/:pid/braindump", h.BrainDump.GetBrainDump)
		projects.PUT("/:pid/braindump/content", h.BrainDump.SaveContent)
		projects.POST("/:pid/braindump/files", h.BrainDump.AddFile)
		projects.DELETE("/:pid/braindump/files/:fid", h.BrainDump.RemoveFile)
		projects.POST("/:pid/braindump/links", h.BrainDump.AddLink)
		projects.DELETE("/:pid/braindump/links/:lid", h.BrainDump.RemoveLink)
		projects.POST("/:pid/braindump/analyze", h.BrainDump.Analyze)

		// 项目下的电子书与任务
		projects.GET("/:pid/ebook", h.Chapter.GetEbook)
		projects.GET("/:pid/jobs", h.Job.ListProjectJobs)
	}

	// 电子书管理
	ebooks := v1.Group("/ebooks")
	{
		ebooks.GET("/:eid/chapters", h.Chapter.ListChapters)
		ebooks.POST("/:eid/chapters", h.Chapter.AddChapter)
		ebooks.POST("/:eid/generate", h.Chapter.GenerateAll)
		ebooks.GET("/:eid/progress", h.Chapter.GetProgress)
		ebooks.GET("/:eid/export", h.Export.Export)
	}

	// 章节管理
	chapters := v1.Group("/chapters")
	{
		chapters.GET("/:cid", h.Chapter.GetChapter)
		chapters.PUT("/:cid", h.Chapter.EditChapter)
		chapters.DELETE("/:cid", h.Chapter.DeleteChapter)
		chapters.POST("/:cid/generate", h.Chapter.GenerateChapter)
		chapters.GET("/:cid/stream", h.Stream.StreamChapter) // SSE
	}

	// 任务管理
	jobs := v1.Group("/jobs")
	{
		jobs.GET("/:jid", h.Job.GetJob)
		jobs.POST("/:jid/cancel", h.Job.CancelJob)
	}

	// 创作会话
	sessions := v1.Group("/sessions")
	{
		sessions.POST("/progress", h.Session.SaveProgress)
		sessions.POST("/pending-project", h.Session.SavePendingProject)
		sessions.POST("/resume", h.Session.Resume)
	}
}
