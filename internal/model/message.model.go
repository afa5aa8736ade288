package model

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MessageType is the kind of content a time-capsule message carries.
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeAudio MessageType = "audio"
	MessageTypeVideo MessageType = "video"
	MessageTypeImage MessageType = "image"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeAudio, MessageTypeVideo, MessageTypeImage:
		return true
	}
	return false
}

var (
	ErrChildIDRequired     = errors.New("valid child ID is required")
	ErrTitleRequired       = errors.New("title is required")
	ErrContentRequired     = errors.New("content is required")
	ErrInvalidMessageType  = errors.New("type must be one of: text, audio, video, image")
	ErrDeliveryDateMissing = errors.New("delivery date is required")
	ErrInvalidMediaURL     = errors.New("media URL must be a valid URL")
)

// Message is scheduled for delivery once DeliveryDate has passed.
// IsDelivered only ever moves from false to true.
type Message struct {
	ID           uuid.UUID   `json:"id"`
	UserID       uuid.UUID   `json:"user_id"`
	ChildID      uuid.UUID   `json:"child_id"`
	Title        string      `json:"title"`
	Content      string      `json:"content"`
	Type         MessageType `json:"type"`
	MediaURL     *string     `json:"media_url,omitempty"`
	AIPrompt     *string     `json:"ai_prompt,omitempty"`
	DeliveryDate time.Time   `json:"delivery_date"`
	IsDelivered  bool        `json:"is_delivered"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// IsDue reports whether the message should be picked up by a sweep running at now.
func (m *Message) IsDue(now time.Time) bool {
	return !m.IsDelivered && !m.DeliveryDate.After(now)
}

type MessageCreateRequest struct {
	ChildID      uuid.UUID
	Title        string
	Content      string
	Type         MessageType
	DeliveryDate time.Time
	MediaURL     *string
	AIPrompt     *string
}

func (p MessageCreateRequest) Validate() error {
	if p.ChildID == uuid.Nil {
		return ErrChildIDRequired
	}
	if strings.TrimSpace(p.Title) == "" {
		return ErrTitleRequired
	}
	if strings.TrimSpace(p.Content) == "" {
		return ErrContentRequired
	}
	if !p.Type.Valid() {
		return ErrInvalidMessageType
	}
	if p.DeliveryDate.IsZero() {
		return ErrDeliveryDateMissing
	}
	if p.MediaURL != nil && !validURL(*p.MediaURL) {
		return ErrInvalidMediaURL
	}
	return nil
}

// MessageUpdateRequest holds a partial update; nil fields are left untouched.
type MessageUpdateRequest struct {
	Title        *string
	Content      *string
	Type         *MessageType
	DeliveryDate *time.Time
	MediaURL     *string
	AIPrompt     *string
}

func (p MessageUpdateRequest) Validate() error {
	if p.Type != nil && !p.Type.Valid() {
		return ErrInvalidMessageType
	}
	if p.DeliveryDate != nil && p.DeliveryDate.IsZero() {
		return ErrDeliveryDateMissing
	}
	if p.MediaURL != nil && !validURL(*p.MediaURL) {
		return ErrInvalidMediaURL
	}
	return nil
}

func (p MessageUpdateRequest) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Type == nil &&
		p.DeliveryDate == nil && p.MediaURL == nil && p.AIPrompt == nil
}

// MessageFilter controls List queries. Results are ordered by delivery_date ascending.
type MessageFilter struct {
	UserID  uuid.UUID
	ChildID *uuid.UUID
	Limit   int // default 100
	Offset  int
}

func validURL(s string) bool {
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
