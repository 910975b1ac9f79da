// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"encoding/json"
	"time"

	"autopen-api/internal/domain/entity"
)

// JobResponse 生成任务响应
type JobResponse struct {
	ID           string          `json:"id"`
	ProjectID    string          `json:"project_id"`
	EbookID      string          `json:"ebook_id,omitempty"`
	JobType      string          `json:"job_type"`
	Status       string          `json:"status"`
	Progress     int             `json:"progress"`
	OutputResult json.RawMessage `json:"output_result,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	RetryCount   int             `json:"retry_count"`
	CreatedAt    time.Time       `json:"created_at"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

// JobListResponse 任务列表响应
type JobListResponse struct {
	Jobs []*JobResponse `json:"jobs"`
}

// ToJobResponse 将任务实体转换为响应 DTO
func ToJobResponse(j *entity.GenerationJob) *JobResponse {
	if j == nil {
		return nil
	}
	return &JobResponse{
		ID:           j.ID,
		ProjectID:    j.ProjectID,
		EbookID:      j.EbookID,
		JobType:      string(j.JobType),
		Status:       string(j.Status),
		Progress:     j.Progress,
		OutputResult: j.OutputResult,
		ErrorMessage: j.ErrorMessage,
		RetryCount:   j.RetryCount,
		CreatedAt:    j.CreatedAt,
		StartedAt:    j.StartedAt,
		CompletedAt:  j.CompletedAt,
	}
}

// ToJobListResponse 将任务实体列表转换为列表响应
func ToJobListResponse(jobs []*entity.GenerationJob) *JobListResponse {
	items := make([]*JobResponse, 0, len(jobs))
	for _, j := range jobs {
		items = append(items, ToJobResponse(j))
	}
	return &JobListResponse{Jobs: items}
}
