// Package chat manages a device's chat sessions and their message logs.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ashureev/wildscan/internal/domain"
	"github.com/ashureev/wildscan/internal/store"
	"github.com/google/uuid"
)

// ErrSessionNotFound is returned when a session id does not resolve.
var ErrSessionNotFound = errors.New("chat session not found")

// WelcomeMessage opens every conversation started from the chat screen.
const WelcomeMessage = "Welcome to WildScan AI!\n\n" +
	"I'm here to help you identify and learn about wildlife species. Upload a photo of any animal, " +
	"and I'll help you discover what species it is, along with fascinating details about its habitat, " +
	"behavior, and conservation status. What wildlife would you like to explore today?"

// Options configures a Store.
type Options struct {
	// OnNewChat runs after every NewChat, outside the store lock. Sessions
	// opened through Create or StartConversation do not trigger it.
	OnNewChat func(ctx context.Context)
	// OnChange runs after any mutation with the affected session id.
	OnChange func(sessionID string)
	// Now overrides the clock.
	Now    func() time.Time
	Logger *slog.Logger
}

// Store holds the sessions of one device. Sessions are kept newest-inserted
// first, which is the tie-break order for List.
type Store struct {
	mu       sync.Mutex
	backend  store.Backend
	deviceID string
	sessions []*domain.ChatSession
	opts     Options
	logger   *slog.Logger
}

// Load reads a device's sessions from backend. A missing or unreadable entry
// yields an empty store.
func Load(ctx context.Context, backend store.Backend, deviceID string, opts Options) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		backend:  backend,
		deviceID: deviceID,
		opts:     opts,
		logger:   logger.With("device_id", deviceID),
	}

	raw, err := backend.Get(ctx, store.DeviceKey(deviceID, store.KeyChatSessions))
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		s.logger.Warn("Failed to read chat sessions, starting empty", "error", err)
	default:
		if err := json.Unmarshal(raw, &s.sessions); err != nil {
			s.logger.Warn("Persisted chat sessions are corrupt, starting empty", "error", err)
			s.sessions = nil
		}
	}
	return s
}

func (s *Store) persistLocked(ctx context.Context) {
	raw, err := json.Marshal(s.sessions)
	if err != nil {
		s.logger.Error("Failed to encode chat sessions", "error", err)
		return
	}
	if err := s.backend.Set(ctx, store.DeviceKey(s.deviceID, store.KeyChatSessions), raw); err != nil {
		s.logger.Warn("Failed to persist chat sessions, kept in memory only", "error", err)
	}
}

func (s *Store) changed(sessionID string) {
	if s.opts.OnChange != nil {
		s.opts.OnChange(sessionID)
	}
}

// List returns copies of all sessions, most recently updated first. Sessions
// with equal UpdatedAt keep their insertion order, newest first.
func (s *Store) List() []*domain.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.ChatSession, len(s.sessions))
	for i, sess := range s.sessions {
		out[i] = sess.Clone()
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// Get returns a copy of the session with the given id.
func (s *Store) Get(id string) (*domain.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.findLocked(id)
	if sess == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess.Clone(), nil
}

func (s *Store) findLocked(id string) *domain.ChatSession {
	for _, sess := range s.sessions {
		if sess.ID == id {
			return sess
		}
	}
	return nil
}

// Create starts an empty session titled title.
func (s *Store) Create(ctx context.Context, title string) *domain.ChatSession {
	now := s.opts.Now()
	sess := &domain.ChatSession{
		ID:        uuid.NewString(),
		Title:     title,
		Messages:  []domain.ChatMessage{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.sessions = append([]*domain.ChatSession{sess}, s.sessions...)
	s.persistLocked(ctx)
	out := sess.Clone()
	s.mu.Unlock()

	s.changed(sess.ID)
	return out
}

// StartConversation creates a session opened by the assistant's welcome message.
func (s *Store) StartConversation(ctx context.Context, title string) (*domain.ChatSession, error) {
	sess := s.Create(ctx, title)
	if _, err := s.Append(ctx, sess.ID, domain.ChatMessage{
		Type:    domain.MessageTypeAI,
		Content: WelcomeMessage,
	}); err != nil {
		return nil, err
	}
	return s.Get(sess.ID)
}

// NewChat starts a conversation the user asked for explicitly and reports it
// through OnNewChat, which is what the chat session statistic counts.
func (s *Store) NewChat(ctx context.Context, title string) (*domain.ChatSession, error) {
	sess, err := s.StartConversation(ctx, title)
	if err != nil {
		return nil, err
	}
	if s.opts.OnNewChat != nil {
		s.opts.OnNewChat(ctx)
	}
	return sess, nil
}

// Append adds msg to the end of the session. The message id is always
// generated here; a zero timestamp is set to now. The session's UpdatedAt is
// bumped to now and never moves backwards.
func (s *Store) Append(ctx context.Context, sessionID string, msg domain.ChatMessage) (domain.ChatMessage, error) {
	s.mu.Lock()
	sess := s.findLocked(sessionID)
	if sess == nil {
		s.mu.Unlock()
		return domain.ChatMessage{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	now := s.opts.Now()
	msg.ID = uuid.NewString()
	if msg.Timestamp.IsZero() {
		msg.Timestamp = now
	}
	sess.Messages = append(sess.Messages, msg)
	if now.After(sess.UpdatedAt) {
		sess.UpdatedAt = now
	}
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.changed(sessionID)
	return msg, nil
}

// Delete removes a session and its messages.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	idx := -1
	for i, sess := range s.sessions {
		if sess.ID == sessionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	s.sessions = append(s.sessions[:idx], s.sessions[idx+1:]...)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.changed(sessionID)
	return nil
}

// Len returns the number of sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
