// Package braindump 实现脑暴内容的保存、附件摄取与 LLM 分析
package braindump

import (
	"time"
)

// TimeoutState 分析计时状态
type TimeoutState string

const (
	// TimeoutRunning 正常进行中
	TimeoutRunning TimeoutState = "running"
	// TimeoutDegraded 超过软阈值，向调用方通告仍在处理
	TimeoutDegraded TimeoutState = "degraded"
	// TimeoutForced 超过硬上限，以现有内容强制完成
	TimeoutForced TimeoutState = "forced-complete"
)

// TimeoutTracker 分析超时跟踪。
// 状态只随时间单向推进：running → degraded → forced-complete。
type TimeoutTracker struct {
	start time.Time
	soft  time.Duration
	hard  time.Duration
	now   func() time.Time
}

// NewTimeoutTracker 创建超时跟踪器；now 为 nil 时使用真实时钟
func NewTimeoutTracker(soft, hard time.Duration, now func() time.Time) *TimeoutTracker {
	if now == nil {
		now = time.Now
	}
	if soft <= 0 {
		soft = 30 * time.Second
	}
	if hard <= soft {
		hard = 4 * soft
	}
	t := &TimeoutTracker{soft: soft, hard: hard, now: now}
	t.start = now()
	return t
}

// State 当前计时状态
func (t *TimeoutTracker) State() TimeoutState {
	elapsed := t.now().Sub(t.start)
	switch {
	case elapsed >= t.hard:
		return TimeoutForced
	case elapsed >= t.soft:
		return TimeoutDegraded
	default:
		return TimeoutRunning
	}
}

// SoftRemaining 距软阈值的剩余时间；已过则为 0
func (t *TimeoutTracker) SoftRemaining() time.Duration {
	return t.remaining(t.soft)
}

// HardRemaining 距硬上限的剩余时间；已过则为 0
func (t *TimeoutTracker) HardRemaining() time.Duration {
	return t.remaining(t.hard)
}

func (t *TimeoutTracker) remaining(limit time.Duration) time.Duration {
	left := limit - t.now().Sub(t.start)
	if left < 0 {
		return 0
	}
	return left
}
