package api

import (
	"time"

	"sanctuary-live/internal/domain"
)

// streamPayload mirrors the backend's stream record shape
type streamPayload struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	StreamType    string         `json:"streamType"`
	StreamURL     string         `json:"streamUrl"`
	EmbedURL      string         `json:"embedUrl"`
	IsLive        bool           `json:"isLive"`
	IsActive      bool           `json:"isActive"`
	Reactions     map[string]int `json:"reactions"`
	LikeCount     int            `json:"likeCount"`
	Tags          []string       `json:"tags"`
	ScheduledDate *time.Time     `json:"scheduledDate,omitempty"`
}

func (p streamPayload) toDomain() domain.Stream {
	return domain.Stream{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		Type:          domain.StreamType(p.StreamType),
		StreamURL:     p.StreamURL,
		EmbedURL:      p.EmbedURL,
		IsLive:        p.IsLive,
		IsActive:      p.IsActive,
		Reactions:     toReactionCounts(p.Reactions),
		LikeCount:     p.LikeCount,
		Tags:          p.Tags,
		ScheduledDate: p.ScheduledDate,
	}
}

// messagePayload mirrors the backend's message shape, shared by comments,
// chat messages and prayer requests
type messagePayload struct {
	ID          string         `json:"id"`
	StreamID    string         `json:"streamId"`
	AuthorName  string         `json:"authorName"`
	AuthorEmail string         `json:"authorEmail"`
	Body        string         `json:"body"`
	CreatedAt   time.Time      `json:"createdAt"`
	Reactions   map[string]int `json:"reactions"`
	MessageType string         `json:"messageType"`
}

func (p messagePayload) toDomain(kind domain.MessageKind) domain.Message {
	if p.MessageType != "" && domain.MessageKind(p.MessageType).Valid() {
		kind = domain.MessageKind(p.MessageType)
	}
	return domain.Message{
		ID:          p.ID,
		StreamID:    p.StreamID,
		AuthorName:  p.AuthorName,
		AuthorEmail: p.AuthorEmail,
		Body:        p.Body,
		CreatedAt:   p.CreatedAt,
		Reactions:   toReactionCounts(p.Reactions),
		Kind:        kind,
	}
}

func toReactionCounts(m map[string]int) domain.ReactionCounts {
	if m == nil {
		return domain.ReactionCounts{}
	}
	counts := make(domain.ReactionCounts, len(m))
	for k, v := range m {
		counts[domain.ReactionCategory(k)] = v
	}
	return counts
}

func toMessages(payloads []messagePayload, kind domain.MessageKind) []domain.Message {
	messages := make([]domain.Message, 0, len(payloads))
	for _, p := range payloads {
		messages = append(messages, p.toDomain(kind))
	}
	return messages
}

// CommentRequest is the body of POST /comment
type CommentRequest struct {
	StreamID    string `json:"streamId"`
	AuthorName  string `json:"authorName"`
	AuthorEmail string `json:"authorEmail"`
	Body        string `json:"body"`
}

// ChatMessageRequest is the body of POST /chat-message. MessageType selects
// the live-chat or prayer-request thread.
type ChatMessageRequest struct {
	StreamID    string `json:"streamId"`
	MessageType string `json:"messageType"`
	AuthorName  string `json:"authorName"`
	AuthorEmail string `json:"authorEmail"`
	Body        string `json:"body"`
}

// StreamReactionRequest is the body of POST /stream-reaction
type StreamReactionRequest struct {
	StreamID string `json:"streamId"`
	Category string `json:"category"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// messageReactionRequest is the body of PUT /chat-message/{id}/reaction
type messageReactionRequest struct {
	Category string `json:"category"`
}

// RegistrationRequest is the body of POST /user/register
type RegistrationRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	Password string `json:"password"`
}

// RegisteredUser is the response of a successful registration
type RegisteredUser struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	Token    string `json:"token"`
}

// GeneralChatRequest is the body of POST /general-chat. An empty ChatID
// creates a new direct-chat session; the response carries the assigned id.
type GeneralChatRequest struct {
	ChatID string `json:"chatId,omitempty"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Body   string `json:"body"`
}

type generalChatResponse struct {
	ChatID string `json:"chatId"`
}

// errorResponse is the backend's error body shape. Some endpoints use
// "message", others "error"; both are accepted.
type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e errorResponse) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}
