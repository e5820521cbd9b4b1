package entity

import (
	"time"

	"github.com/google/uuid"
)

type Submission struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConversationID string
	UserID         string
	CourseCode     string
	Operation      string
	Status         string
	PRURL          string
	RequestID      string
	Attribution    map[string]interface{}
	TOML           string
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}
