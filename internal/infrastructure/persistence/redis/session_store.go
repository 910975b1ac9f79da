// Package redis 提供工作流会话存储实现
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "autopen-api/pkg/errors"
)

var sessionTracer = otel.Tracer("redis.session")

// WorkflowSession 工作流恢复会话
// 登录跳转前后通过恢复令牌找回创作进度；PendingProject 保存
// 认证前已填写但尚未落库的项目信息
type WorkflowSession struct {
	ProjectID      string          `json:"project_id,omitempty"`
	Step           string          `json:"step"`
	PendingProject *PendingProject `json:"pending_project,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// PendingProject 认证前暂存的项目创建载荷
type PendingProject struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// SessionStore 工作流会话存储
type SessionStore struct {
	client *Client
	ttl    time.Duration
}

// NewSessionStore 创建会话存储
func NewSessionStore(client *Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionStore{client: client, ttl: ttl}
}

// Save 保存会话并返回恢复令牌
func (s *SessionStore) Save(ctx context.Context, session *WorkflowSession) (string, error) {
	ctx, span := sessionTracer.Start(ctx, "session.Save")
	defer span.End()

	if session == nil {
		return "", apperrors.ErrInvalidParam.WithDetail("session is nil")
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	token := uuid.NewString()
	data, err := json.Marshal(session)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.rdb.Set(ctx, sessionKey(token), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to save session: %w", err)
	}

	span.SetAttributes(attribute.String("session.step", session.Step))
	return token, nil
}

// Get 根据恢复令牌读取会话
func (s *SessionStore) Get(ctx context.Context, token string) (*WorkflowSession, error) {
	ctx, span := sessionTracer.Start(ctx, "session.Get",
		trace.WithAttributes(attribute.String("session.token", token)))
	defer span.End()

	data, err := s.client.rdb.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if IsNil(err) {
			return nil, apperrors.ErrResumeTokenInvalid.WithDetail("resume token expired or unknown")
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session WorkflowSession
	if err := json.Unmarshal(data, &session); err != nil {
		span.RecordError(err)
		return nil, apperrors.ErrResumeTokenInvalid.WithDetail("corrupt session payload").WithError(err)
	}
	return &session, nil
}

// Touch 续期会话
func (s *SessionStore) Touch(ctx context.Context, token string) error {
	ctx, span := sessionTracer.Start(ctx, "session.Touch")
	defer span.End()

	ok, err := s.client.rdb.Expire(ctx, sessionKey(token), s.ttl).Result()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to touch session: %w", err)
	}
	if !ok {
		return apperrors.ErrResumeTokenInvalid
	}
	return nil
}

// Delete 删除会话（令牌一次性使用时调用）
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	ctx, span := sessionTracer.Start(ctx, "session.Delete")
	defer span.End()

	return s.client.rdb.Del(ctx, sessionKey(token)).Err()
}

func sessionKey(token string) string {
	return "wf:session:" + token
}
