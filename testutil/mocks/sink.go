// RecordingSink 的日志目标测试模拟实现。
package mocks

import (
	"sync"

	"github.com/BaSui01/crewtel/logging"
)

// SinkEntry 是一条记录的日志
type SinkEntry struct {
	Level   logging.Level
	Message string
}

// RecordingSink 在内存中保存每一条日志
type RecordingSink struct {
	mu      sync.Mutex
	entries []SinkEntry
	panics  bool
}

// NewRecordingSink 创建新的 RecordingSink
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

// WithPanic 让 Log 调用 panic，用于验证调用方的恢复逻辑
func (s *RecordingSink) WithPanic() *RecordingSink {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panics = true
	return s
}

// Log 实现 logging.Sink
func (s *RecordingSink) Log(level logging.Level, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panics {
		panic("recording sink failure")
	}
	s.entries = append(s.entries, SinkEntry{Level: level, Message: message})
}

// Entries 返回记录快照
func (s *RecordingSink) Entries() []SinkEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SinkEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Last 返回最后一条记录
func (s *RecordingSink) Last() (SinkEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return SinkEntry{}, false
	}
	return s.entries[len(s.entries)-1], true
}
