package assistant

import (
	"time"

	"github.com/erp/smarterp/internal/domain/shared"
)

// CollectionChats is the document collection holding chat sessions
const CollectionChats = "chats"

// MaxHistory is the number of messages kept per session
const MaxHistory = 10

// MessageRole identifies who wrote a chat message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ChatMessage is one turn of a conversation
type ChatMessage struct {
	Role      MessageRole `json:"role" firestore:"role" validate:"oneof=user assistant"`
	Content   string      `json:"content" firestore:"content"`
	Timestamp time.Time   `json:"timestamp" firestore:"timestamp"`
}

// ChatSession is the rolling conversation of one user
type ChatSession struct {
	shared.DocumentID
	UserID        string        `json:"userId" firestore:"userId" validate:"required"`
	Title         string        `json:"title" firestore:"title"`
	Messages      []ChatMessage `json:"messages" firestore:"messages" validate:"dive"`
	LastMessageAt time.Time     `json:"lastMessageAt" firestore:"lastMessageAt"`
}

// NewChatSession starts an empty session for userID
func NewChatSession(userID string) *ChatSession {
	return &ChatSession{UserID: userID, Title: "ERP Assistant", Messages: []ChatMessage{}}
}

// Append adds messages and drops the oldest so at most MaxHistory remain
func (s *ChatSession) Append(messages ...ChatMessage) {
	all := make([]ChatMessage, 0, len(s.Messages)+len(messages))
	all = append(all, s.Messages...)
	all = append(all, messages...)
	if len(all) > MaxHistory {
		all = all[len(all)-MaxHistory:]
	}
	s.Messages = all
	if n := len(all); n > 0 {
		s.LastMessageAt = all[n-1].Timestamp
	}
}
