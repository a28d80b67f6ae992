package advisor

import (
	"context"
	"sync"
	"time"

	"trading-assistant/internal/domain"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ConversationStore interface {
	AppendMessage(ctx context.Context, chatID int64, role, content string) error
	RecentMessages(ctx context.Context, chatID int64, limit int) ([]domain.ConversationMessage, error)
}

// InMemoryConversationStore keeps the newest messages per chat in process.
type InMemoryConversationStore struct {
	mu      sync.Mutex
	chats   map[int64][]domain.ConversationMessage
	maxKept int
	now     func() time.Time
}

func NewInMemoryConversationStore(maxKept int) *InMemoryConversationStore {
	if maxKept <= 0 {
		maxKept = 100
	}
	return &InMemoryConversationStore{
		chats:   make(map[int64][]domain.ConversationMessage),
		maxKept: maxKept,
		now:     time.Now,
	}
}

func (s *InMemoryConversationStore) AppendMessage(_ context.Context, chatID int64, role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := append(s.chats[chatID], domain.ConversationMessage{
		Role:      role,
		Content:   content,
		CreatedAt: s.now(),
	})
	if len(msgs) > s.maxKept {
		msgs = append([]domain.ConversationMessage(nil), msgs[len(msgs)-s.maxKept:]...)
	}
	s.chats[chatID] = msgs
	return nil
}

func (s *InMemoryConversationStore) RecentMessages(_ context.Context, chatID int64, limit int) ([]domain.ConversationMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.chats[chatID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]domain.ConversationMessage(nil), msgs...), nil
}
