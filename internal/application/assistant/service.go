// Package assistant answers free-form questions about the business data
// and keeps a short per-user conversation history.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/erp/smarterp/internal/application/state"
	"github.com/erp/smarterp/internal/domain/assistant"
	"github.com/erp/smarterp/internal/domain/shared"
	"github.com/erp/smarterp/internal/infrastructure/genai"
	"github.com/erp/smarterp/internal/infrastructure/logger"
	"github.com/erp/smarterp/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// FallbackReply is sent to the user when no answer could be generated
const FallbackReply = "Sorry, I could not process your request."

// DefaultContextMaxAge is how stale the business context may be
const DefaultContextMaxAge = time.Minute

const maxQuestionLength = 4000

const featureChat = "chat"

// SnapshotSource provides a recent view of the business data
type SnapshotSource interface {
	Current(ctx context.Context, maxAge time.Duration) (state.Snapshot, error)
}

// SessionStore loads and saves chat sessions keyed by user id
type SessionStore interface {
	GetByID(ctx context.Context, id string) (*assistant.ChatSession, error)
	Put(ctx context.Context, id string, record *assistant.ChatSession) error
}

// Reply is the outcome of one question
type Reply struct {
	Message assistant.ChatMessage  `json:"message"`
	Session *assistant.ChatSession `json:"session"`
}

// Service is the chat assistant
type Service struct {
	snapshots SnapshotSource
	sessions  SessionStore
	generator genai.TextGenerator
	writer    *ContextWriter
	metrics   *telemetry.BusinessMetrics
	maxAge    time.Duration
	now       func() time.Time
}

// NewService creates a chat assistant
func NewService(snapshots SnapshotSource, sessions SessionStore, generator genai.TextGenerator) *Service {
	return &Service{
		snapshots: snapshots,
		sessions:  sessions,
		generator: generator,
		writer:    NewContextWriter(language.Turkish),
		maxAge:    DefaultContextMaxAge,
		now:       time.Now,
	}
}

// SetBusinessMetrics sets the business metrics recorder
func (s *Service) SetBusinessMetrics(m *telemetry.BusinessMetrics) {
	s.metrics = m
}

// SetContextMaxAge sets how stale the business context may be
func (s *Service) SetContextMaxAge(d time.Duration) {
	if d > 0 {
		s.maxAge = d
	}
}

// Ask answers question for userID. A generator failure is logged and
// answered with FallbackReply; a failure to save the session is logged and
// the reply is still returned.
func (s *Service) Ask(ctx context.Context, userID, question string) (*Reply, error) {
	question = strings.TrimSpace(question)
	if userID == "" {
		return nil, shared.NewValidationError("userId", "user cannot be empty")
	}
	if question == "" {
		return nil, shared.NewValidationError("message", "message cannot be empty")
	}
	if len(question) > maxQuestionLength {
		return nil, shared.NewValidationError("message", fmt.Sprintf("message cannot exceed %d characters", maxQuestionLength))
	}

	log := logger.L(ctx).With(zap.String("user_id", userID))

	session, err := s.History(ctx, userID)
	if err != nil {
		log.Warn("Failed to load chat history, starting a new session", zap.Error(err))
		session = assistant.NewChatSession(userID)
	}

	snap, err := s.snapshots.Current(ctx, s.maxAge)
	if err != nil {
		log.Warn("Business context is incomplete", zap.Error(err))
	}

	asked := assistant.ChatMessage{Role: assistant.RoleUser, Content: question, Timestamp: s.now()}
	prompt := s.prompt(snap, session.Messages, question)

	start := s.now()
	answer, err := s.generator.Generate(ctx, prompt)
	s.metrics.RecordAIRequest(ctx, featureChat, s.now().Sub(start), err)
	if err != nil {
		log.Error("Chat generation failed", zap.Error(err))
		answer = FallbackReply
	}

	answered := assistant.ChatMessage{Role: assistant.RoleAssistant, Content: answer, Timestamp: s.now()}
	session.Append(asked, answered)
	session.ID = userID

	if err := s.sessions.Put(ctx, userID, session); err != nil {
		log.Warn("Failed to save chat session", zap.Error(err))
	}

	return &Reply{Message: answered, Session: session}, nil
}

// History returns the saved session of userID, or an empty one
func (s *Service) History(ctx context.Context, userID string) (*assistant.ChatSession, error) {
	if userID == "" {
		return nil, shared.NewValidationError("userId", "user cannot be empty")
	}
	session, err := s.sessions.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return assistant.NewChatSession(userID), nil
	}
	if len(session.Messages) > assistant.MaxHistory {
		session.Messages = session.Messages[len(session.Messages)-assistant.MaxHistory:]
	}
	return session, nil
}

func (s *Service) prompt(snap state.Snapshot, history []assistant.ChatMessage, question string) string {
	var b strings.Builder
	b.WriteString("You are the assistant of a small ERP system. Answer in Turkish, briefly, and quote figures from the data below when they are relevant.\n\n")
	b.WriteString("ERP DATA:\n")
	b.WriteString(s.writer.Write(snap))
	if len(history) > 0 {
		b.WriteString("\nCONVERSATION SO FAR:\n")
		for _, m := range history {
			fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(string(m.Role)), m.Content)
		}
	}
	fmt.Fprintf(&b, "\nUSER: %s\n", question)
	return b.String()
}
