package workflow

import (
	"context"

	"autopen-api/internal/domain/entity"
	"autopen-api/internal/domain/repository"
	redisstore "autopen-api/internal/infrastructure/persistence/redis"
	apperrors "autopen-api/pkg/errors"
	"autopen-api/pkg/logger"
)

// Resumer 会话恢复服务：登录中断前保存进度，登录后凭恢复令牌找回。
// 两种载荷：恢复令牌（步骤 + 项目 ID）与待创建项目（标题 + 描述，
// 在认证完成后才落库为真正的项目）。
type Resumer struct {
	sessions *redisstore.SessionStore
	machine  *Machine
	projects repository.ProjectRepository
}

// NewResumer 创建会话恢复服务
func NewResumer(sessions *redisstore.SessionStore, machine *Machine, projects repository.ProjectRepository) *Resumer {
	return &Resumer{sessions: sessions, machine: machine, projects: projects}
}

// SaveProgress 保存当前进度并返回恢复令牌
func (r *Resumer) SaveProgress(ctx context.Context, projectID string, step Step) (string, error) {
	if !step.IsValid() {
		return "", apperrors.ErrValidationFailed.WithDetail("unknown workflow step: " + step.String())
	}
	return r.sessions.Save(ctx, &redisstore.WorkflowSession{
		ProjectID: projectID,
		Step:      step.Normalize().String(),
	})
}

// SavePendingProject 认证跳转前暂存项目创建载荷
func (r *Resumer) SavePendingProject(ctx context.Context, title, description string) (string, error) {
	if title == "" {
		return "", apperrors.ErrValidationFailed.WithDetail("project title is required")
	}
	return r.sessions.Save(ctx, &redisstore.WorkflowSession{
		Step: StepCreator.String(),
		PendingProject: &redisstore.PendingProject{
			Title:       title,
			Description: description,
		},
	})
}

// ResumeResult 恢复结果
type ResumeResult struct {
	ProjectID string
	Step      Step
	// CreatedProject 为 true 表示本次恢复落库了一个待创建项目
	CreatedProject bool
}

// Resume 凭恢复令牌找回进度。
// 会话携带待创建项目时先为当前用户创建项目再解析步骤；
// 会话中的步骤名非法时拒绝恢复；步骤以实体状态的自动前进结果为准。
// 令牌一次性：恢复成功即删除。
func (r *Resumer) Resume(ctx context.Context, token, ownerID string) (*ResumeResult, error) {
	session, err := r.sessions.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	if _, err := ParseStep(session.Step); err != nil {
		return nil, apperrors.ErrResumeTokenInvalid.WithDetail("session carries unknown step: " + session.Step)
	}

	result := &ResumeResult{}

	projectID := session.ProjectID
	if projectID == "" {
		if session.PendingProject == nil {
			return nil, apperrors.ErrResumeTokenInvalid.WithDetail("session carries neither project nor pending payload")
		}
		project := entity.NewProject(ownerID, session.PendingProject.Title, session.PendingProject.Description)
		if !project.ValidateTitle() {
			return nil, apperrors.ErrResumeTokenInvalid.WithDetail("pending project has empty title")
		}
		// 标题合法的项目一经创建即离开入口步骤
		project.CurrentStep = StepBrainDump.String()
		if err := r.projects.Create(ctx, project); err != nil {
			return nil, err
		}
		projectID = project.ID
		result.CreatedProject = true
	}

	state, err := r.machine.ResolveStep(ctx, projectID, ownerID)
	if err != nil {
		return nil, err
	}

	if err := r.sessions.Delete(ctx, token); err != nil {
		// 删除失败不影响恢复结果，TTL 最终会清理
		logger.Warn(ctx, "failed to delete resume session", "error", err)
	}

	result.ProjectID = projectID
	result.Step = state.Step
	return result, nil
}
