// Package chapter 实现章节生成子流程
package chapter

import "sync"

// keyedMutex 按键互斥：同一章节的生成在进程内串行化。
// TryLock 失败表示该章节已有生成在途。
type keyedMutex struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{held: make(map[string]struct{})}
}

// TryLock 尝试获取键锁；已被持有时返回 false
func (m *keyedMutex) TryLock(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.held[key]; ok {
		return false
	}
	m.held[key] = struct{}{}
	return true
}

// Unlock 释放键锁
func (m *keyedMutex) Unlock(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, key)
}
