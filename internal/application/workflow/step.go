// Package workflow 实现创作流程状态机与会话恢复
package workflow

import (
	apperrors "autopen-api/pkg/errors"
)

// Step 创作流程步骤
type Step string

const (
	StepCreator        Step = "creator"
	StepBrainDump      Step = "brain-dump"
	StepIdeaSelection  Step = "idea-selection"
	StepEbookStructure Step = "ebook-structure"
	StepEbookWriting   Step = "ebook-writing"
	StepEbookPreview   Step = "ebook-preview"
	StepCompleted      Step = "completed"
)

// orderedSteps 步骤的线性顺序；ebook-structure 是瞬态步骤，解析时归一到 ebook-writing
var orderedSteps = []Step{
	StepCreator,
	StepBrainDump,
	StepIdeaSelection,
	StepEbookStructure,
	StepEbookWriting,
	StepEbookPreview,
	StepCompleted,
}

var stepOrder = func() map[Step]int {
	m := make(map[Step]int, len(orderedSteps))
	for i, s := range orderedSteps {
		m[s] = i
	}
	return m
}()

// ParseStep 解析步骤名；未知名称返回错误
func ParseStep(s string) (Step, error) {
	step := Step(s)
	if _, ok := stepOrder[step]; !ok {
		return "", apperrors.ErrValidationFailed.WithDetail("unknown workflow step: " + s)
	}
	return step, nil
}

// Normalize 将瞬态步骤归一为可驻留步骤
func (s Step) Normalize() Step {
	if s == StepEbookStructure {
		return StepEbookWriting
	}
	return s
}

// IsValid 步骤名是否合法
func (s Step) IsValid() bool {
	_, ok := stepOrder[s]
	return ok
}

// IsBackward 目标步骤是否在当前步骤之前
func (s Step) IsBackward(target Step) bool {
	return stepOrder[target] < stepOrder[s]
}

// NextOf 线性顺序上的下一步
func (s Step) NextOf() Step {
	idx := stepOrder[s]
	if idx+1 >= len(orderedSteps) {
		return s
	}
	return orderedSteps[idx+1].Normalize()
}

func (s Step) String() string {
	return string(s)
}
