// Package chat drives the floating direct-message conversation with the
// stream administrators. The backend assigns a chat id on the first message;
// the session keeps that id so every later message and poll lands in the
// same conversation.
package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"sanctuary-live/internal/api"
	"sanctuary-live/internal/domain"
	"sanctuary-live/internal/logger"
	"sanctuary-live/internal/poller"
)

// Backend is the slice of the API client the chat session uses
type Backend interface {
	PostGeneralChat(ctx context.Context, req api.GeneralChatRequest) (string, error)
	GeneralChatMessages(ctx context.Context, chatID string) ([]domain.Message, error)
}

// SessionStore persists the assigned chat id across runs
type SessionStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, chatID string) error
}

// Contact is the sender identity attached to chat messages
type Contact struct {
	Name  string
	Email string
}

// ParseGuestContact splits a single "Name <email@example.com>" field into
// its parts. Both parts are required.
func ParseGuestContact(input string) (Contact, error) {
	input = strings.TrimSpace(input)
	open := strings.LastIndex(input, "<")
	end := strings.LastIndex(input, ">")

	if open < 0 || end < open || end != len(input)-1 {
		return Contact{}, domain.NewUserMessageError(domain.ErrInvalidInput,
			"Please use the format: Name <email@example.com>")
	}

	contact := Contact{
		Name:  strings.TrimSpace(input[:open]),
		Email: strings.TrimSpace(input[open+1 : end]),
	}
	if contact.Name == "" || contact.Email == "" || !strings.Contains(contact.Email, "@") {
		return Contact{}, domain.NewUserMessageError(domain.ErrInvalidInput,
			"Please use the format: Name <email@example.com>")
	}
	return contact, nil
}

// Session is one viewer's conversation with the admins
type Session struct {
	backend  Backend
	store    SessionStore
	logger   *logger.Logger
	interval time.Duration

	mu       sync.Mutex
	chatID   string
	contact  Contact
	messages []domain.Message
	p        *poller.Poller
	cancel   context.CancelFunc

	updates chan []domain.Message
}

// NewSession restores any previously assigned chat id from the store
func NewSession(ctx context.Context, backend Backend, store SessionStore, interval time.Duration, log *logger.Logger) (*Session, error) {
	if log == nil {
		log = logger.Default()
	}
	if interval <= 0 {
		interval = poller.DefaultInterval
	}

	chatID, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}

	s := &Session{
		backend:  backend,
		store:    store,
		logger:   log,
		interval: interval,
		chatID:   chatID,
		updates:  make(chan []domain.Message, 16),
	}
	if chatID != "" {
		log.Debug("restored chat session", map[string]interface{}{"chat_id": chatID})
		s.startPolling()
	}
	return s, nil
}

// Updates delivers the conversation's message list after each poll
func (s *Session) Updates() <-chan []domain.Message {
	return s.updates
}

// SetContact attaches the sender identity used for outgoing messages
func (s *Session) SetContact(contact Contact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contact = contact
}

// Contact returns the attached sender identity
func (s *Session) Contact() Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contact
}

// ChatID returns the assigned conversation id, or "" before the first send
func (s *Session) ChatID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chatID
}

// Messages returns a copy of the conversation
func (s *Session) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Message(nil), s.messages...)
}

// Send posts one message. The first send carries no chat id; the id the
// backend assigns is persisted and polling starts on it. Later sends reuse
// the stored id.
func (s *Session) Send(ctx context.Context, body string) error {
	body = strings.TrimSpace(body)
	if body == "" {
		return domain.NewUserMessageError(domain.ErrInvalidInput, "Message can't be empty")
	}

	s.mu.Lock()
	contact := s.contact
	chatID := s.chatID
	s.mu.Unlock()

	if contact.Name == "" || contact.Email == "" {
		return domain.NewUserMessageError(domain.ErrIdentityRequired,
			"Please enter your contact as: Name <email@example.com>")
	}

	assigned, err := s.backend.PostGeneralChat(ctx, api.GeneralChatRequest{
		ChatID: chatID,
		Name:   contact.Name,
		Email:  contact.Email,
		Body:   body,
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	firstSend := s.chatID == ""
	if firstSend && assigned != "" {
		s.chatID = assigned
	}
	p := s.p
	s.mu.Unlock()

	if firstSend && assigned != "" {
		if err := s.store.Save(ctx, assigned); err != nil {
			// The conversation still works this run; only restart
			// continuity is lost.
			s.logger.Warn("failed to persist chat session", map[string]interface{}{
				"chat_id": assigned,
				"error":   err.Error(),
			})
		}
		s.startPolling()
	} else if p != nil {
		p.Refresh()
	}
	return nil
}

// Close stops polling
func (s *Session) Close() {
	s.mu.Lock()
	p := s.p
	cancel := s.cancel
	s.p = nil
	s.cancel = nil
	s.mu.Unlock()

	if p != nil {
		p.Stop()
	}
	if cancel != nil {
		cancel()
	}
}

func (s *Session) startPolling() {
	s.mu.Lock()
	if s.p != nil || s.chatID == "" {
		s.mu.Unlock()
		return
	}
	chatID := s.chatID

	fetch := func(ctx context.Context) ([]domain.Message, error) {
		return s.backend.GeneralChatMessages(ctx, chatID)
	}
	p := poller.New(s.interval, fetch, s.logger)
	ctx, cancel := context.WithCancel(context.Background())
	s.p = p
	s.cancel = cancel
	s.mu.Unlock()

	p.Start(ctx)
	go s.consume(ctx, p)
}

func (s *Session) consume(ctx context.Context, p *poller.Poller) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-p.Updates():
			if snap.Err != nil {
				s.logger.Warn("chat poll failed", map[string]interface{}{"error": snap.Err.Error()})
				continue
			}

			s.mu.Lock()
			if s.p != p {
				s.mu.Unlock()
				return
			}
			s.messages = append([]domain.Message(nil), snap.Messages...)
			messages := append([]domain.Message(nil), snap.Messages...)
			s.mu.Unlock()

			select {
			case s.updates <- messages:
			default:
			}
		}
	}
}
