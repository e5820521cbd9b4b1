package dto

import (
	"time"

	"github.com/google/uuid"
)

// DispatchRequest is one user message directed at the edit assistant.
type DispatchRequest struct {
	ConversationID string `json:"conversation_id" validate:"required"`
	UserID         string `json:"user_id" validate:"required"`
	DisplayName    string `json:"display_name"`
	Text           string `json:"text" validate:"required"`
}

// DispatchResponse carries the assistant replies, already split into chunks
// short enough for chat transports.
type DispatchResponse struct {
	Replies []string `json:"replies"`
}

type SubmissionResponse struct {
	Id             uuid.UUID  `json:"id"`
	ConversationID string     `json:"conversation_id"`
	UserID         string     `json:"user_id"`
	CourseCode     string     `json:"course_code"`
	Operation      string     `json:"operation"`
	Status         string     `json:"status"`
	PRURL          string     `json:"pr_url,omitempty"`
	RequestID      string     `json:"request_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
}

// SubmissionCompletedMessage is the payload published on the event bus when a
// confirmed edit has been handed to the publication server.
type SubmissionCompletedMessage struct {
	SubmissionID   uuid.UUID              `json:"submission_id"`
	ConversationID string                 `json:"conversation_id"`
	UserID         string                 `json:"user_id"`
	CourseCode     string                 `json:"course_code"`
	Operation      string                 `json:"operation"`
	PRURL          string                 `json:"pr_url,omitempty"`
	RequestID      string                 `json:"request_id,omitempty"`
	Attribution    map[string]interface{} `json:"attribution,omitempty"`
	TOML           string                 `json:"toml"`
}
