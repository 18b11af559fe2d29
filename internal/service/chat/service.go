package chat

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/groqchat/groqchat/internal/model/chat"
	"github.com/groqchat/groqchat/internal/sessionlog"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidRole     = errors.New("invalid message role")
)

// Service encapsulates conversation state management. Transcripts are
// append-only; each saved message is mirrored to the session's log file.
type Service struct {
	mu       sync.RWMutex
	logDir   string
	sessions map[string]chat.Session
	messages map[string][]chat.Message
	logs     map[string]*sessionlog.Log
}

// NewService bootstraps the in-memory chat service. An empty logDir
// disables session logging.
func NewService(logDir string) *Service {
	return &Service{
		logDir:   logDir,
		sessions: make(map[string]chat.Session),
		messages: make(map[string][]chat.Message),
		logs:     make(map[string]*sessionlog.Log),
	}
}

// CreateSession provisions an anonymous session and opens its log file.
func (s *Service) CreateSession(_ context.Context, model string) (chat.Session, error) {
	session := chat.Session{
		ID:        uuid.NewString(),
		Model:     model,
		CreatedAt: time.Now().UTC(),
	}

	var sessionLog *sessionlog.Log
	if s.logDir != "" {
		var err error
		sessionLog, err = sessionlog.Open(s.logDir, session.ID)
		if err != nil {
			// The chat stays usable without its durable mirror.
			log.Printf("[chat] warning: session log unavailable for session=%s: %v", session.ID, err)
		}
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.messages[session.ID] = make([]chat.Message, 0, 16)
	if sessionLog != nil {
		s.logs[session.ID] = sessionLog
	}
	s.mu.Unlock()

	return session, nil
}

// SaveMessage appends a message to the session history and mirrors it to
// the session log. A log write failure is a warning, not an error.
func (s *Service) SaveMessage(_ context.Context, message chat.Message) (chat.Message, error) {
	if message.SessionID == "" {
		return chat.Message{}, ErrSessionNotFound
	}
	if !message.Role.Valid() {
		return chat.Message{}, ErrInvalidRole
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[message.SessionID]; !ok {
		return chat.Message{}, ErrSessionNotFound
	}

	message.ID = uuid.NewString()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	s.messages[message.SessionID] = append(s.messages[message.SessionID], message)

	if sessionLog, ok := s.logs[message.SessionID]; ok {
		if err := sessionLog.Append(string(message.Role), message.Content); err != nil {
			log.Printf("[chat] warning: session log write failed for session=%s: %v", message.SessionID, err)
		}
	}

	return message, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// LoadTranscript returns stored messages for the provided session.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}

// LogPath reports where a session's transcript is being mirrored.
// Empty when logging is disabled or the log failed to open.
func (s *Service) LogPath(sessionID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sessionLog, ok := s.logs[sessionID]; ok {
		return sessionLog.Path()
	}
	return ""
}

// Close releases all open session log files.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for _, sessionLog := range s.logs {
		if err := sessionLog.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
