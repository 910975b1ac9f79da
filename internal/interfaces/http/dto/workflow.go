// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"autopen-api/internal/application/workflow"
)

// StepStateResponse 流程步骤状态响应
type StepStateResponse struct {
	Step    string           `json:"step"`
	Project *ProjectResponse `json:"project"`
}

// TransitionRequest 步骤跳转请求
type TransitionRequest struct {
	Target string `json:"target" binding:"required,max=50"`
}

// CommitIdeaRequest 提交构思请求。
// IdeaID 与自定义标题二选一；自定义时 custom_title 必填。
type CommitIdeaRequest struct {
	IdeaID            string `json:"idea_id,omitempty"`
	CustomTitle       string `json:"custom_title,omitempty" binding:"max=255"`
	CustomDescription string `json:"custom_description,omitempty" binding:"max=5000"`
	Provider          string `json:"provider,omitempty" binding:"max=32"`
	Model             string `json:"model,omitempty" binding:"max=64"`
}

// SaveProgressRequest 保存进度请求
type SaveProgressRequest struct {
	ProjectID string `json:"project_id" binding:"required"`
	Step      string `json:"step" binding:"required,max=50"`
}

// SavePendingProjectRequest 保存未落库项目请求
type SavePendingProjectRequest struct {
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description" binding:"max=5000"`
}

// SessionTokenResponse 会话令牌响应
type SessionTokenResponse struct {
	Token string `json:"token"`
}

// ResumeRequest 恢复会话请求
type ResumeRequest struct {
	Token string `json:"token" binding:"required"`
}

// ResumeResponse 恢复会话响应
type ResumeResponse struct {
	ProjectID      string `json:"project_id"`
	Step           string `json:"step"`
	CreatedProject bool   `json:"created_project"`
}

// ToStepStateResponse 将步骤状态转换为响应 DTO
func ToStepStateResponse(s *workflow.StepState) *StepStateResponse {
	if s == nil {
		return nil
	}
	return &StepStateResponse{
		Step:    string(s.Step),
		Project: ToProjectResponse(s.Project),
	}
}

// ToResumeResponse 将恢复结果转换为响应 DTO
func ToResumeResponse(r *workflow.ResumeResult) *ResumeResponse {
	if r == nil {
		return nil
	}
	return &ResumeResponse{
		ProjectID:      r.ProjectID,
		Step:           string(r.Step),
		CreatedProject: r.CreatedProject,
	}
}
