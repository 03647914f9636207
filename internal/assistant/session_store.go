// Package assistant 保存助手对话历史，按用户隔离，进程重启后丢失
package assistant

import (
	"errors"
	"sync"
	"time"

	"github.com/blues/catalyst/internal/config"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MessageRole 消息角色
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// Valid 是否为已知角色
func (r MessageRole) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

var ErrEmptyMessage = errors.New("message content is empty")

// Message 一条对话消息
type Message struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"createdAt"`
}

// SessionStore 对话历史存储：用户数量有上限（LRU 淘汰），会话有过期时间，单个会话消息数有上限
type SessionStore struct {
	mu          sync.Mutex // 保证读取-追加-写回的原子性
	sessions    *expirable.LRU[int64, []Message]
	maxMessages int
	now         func() time.Time
}

// NewSessionStore 创建会话存储
func NewSessionStore(cfg config.AssistantConfig) *SessionStore {
	maxSessions := cfg.MaxSessions
	if maxSessions <= 0 {
		maxSessions = 1000
	}
	maxMessages := cfg.MaxMessages
	if maxMessages <= 0 {
		maxMessages = 50
	}
	return &SessionStore{
		sessions:    expirable.NewLRU[int64, []Message](maxSessions, nil, cfg.SessionTTL),
		maxMessages: maxMessages,
		now:         time.Now,
	}
}

// Append 追加消息，超过上限时丢弃最早的消息，返回当前历史
func (s *SessionStore) Append(userId int64, role MessageRole, content string) ([]Message, error) {
	if content == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history, _ := s.sessions.Get(userId)
	next := make([]Message, 0, len(history)+1)
	next = append(next, history...)
	next = append(next, Message{Role: role, Content: content, CreatedAt: s.now()})
	if len(next) > s.maxMessages {
		next = next[len(next)-s.maxMessages:]
	}
	s.sessions.Add(userId, next)
	return clone(next), nil
}

// History 获取用户的对话历史
func (s *SessionStore) History(userId int64) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.sessions.Get(userId)
	if !ok {
		return []Message{}
	}
	return clone(history)
}

// Clear 清空用户的对话历史
func (s *SessionStore) Clear(userId int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions.Remove(userId)
}

// Len 当前会话数
func (s *SessionStore) Len() int {
	return s.sessions.Len()
}

func clone(history []Message) []Message {
	out := make([]Message, len(history))
	copy(out, history)
	return out
}
