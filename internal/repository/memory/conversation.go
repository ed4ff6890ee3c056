package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/Rrens/funnair-assistant/internal/domain"
)

// ErrEmptyChatID is returned for a blank chat identifier
var ErrEmptyChatID = errors.New("chat id is empty")

// Thread is the message log of one chat. A thread handed out by Acquire is
// held exclusively until Release; only the holder appends.
type Thread struct {
	chatID string
	sem    chan struct{}

	mu       sync.RWMutex
	messages []domain.Message
}

// ChatID returns the identifier the thread is keyed by
func (t *Thread) ChatID() string {
	return t.chatID
}

// Messages returns a copy of the log in arrival order
func (t *Thread) Messages() []domain.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]domain.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Append adds messages to the end of the log
func (t *Thread) Append(msgs ...domain.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, msgs...)
}

// Len returns the number of messages in the log
func (t *Thread) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Release gives up exclusive access to the thread
func (t *Thread) Release() {
	<-t.sem
}

// ConversationStore keeps one thread per chat id. The map lock only guards
// thread creation; turn-level exclusion is per thread.
type ConversationStore struct {
	mu      sync.Mutex
	threads map[string]*Thread
}

// NewConversationStore creates an empty conversation store
func NewConversationStore() *ConversationStore {
	return &ConversationStore{threads: make(map[string]*Thread)}
}

// Acquire returns the thread for chatID, creating it on first use, and
// blocks until no other caller holds it or ctx is done.
func (s *ConversationStore) Acquire(ctx context.Context, chatID string) (*Thread, error) {
	t, err := s.thread(chatID)
	if err != nil {
		return nil, err
	}

	select {
	case t.sem <- struct{}{}:
		return t, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len returns the number of messages stored for chatID
func (s *ConversationStore) Len(chatID string) int {
	s.mu.Lock()
	t, ok := s.threads[strings.TrimSpace(chatID)]
	s.mu.Unlock()
	if !ok {
		return 0
	}
	return t.Len()
}

// Clear drops the messages of chatID once any running turn has finished
func (s *ConversationStore) Clear(ctx context.Context, chatID string) error {
	t, err := s.Acquire(ctx, chatID)
	if err != nil {
		return err
	}
	defer t.Release()

	t.mu.Lock()
	t.messages = nil
	t.mu.Unlock()
	return nil
}

func (s *ConversationStore) thread(chatID string) (*Thread, error) {
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return nil, ErrEmptyChatID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[chatID]
	if !ok {
		t = &Thread{chatID: chatID, sem: make(chan struct{}, 1)}
		s.threads[chatID] = t
	}
	return t, nil
}
