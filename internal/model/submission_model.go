package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Submission struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationID string         `gorm:"type:varchar(128);not null;index"`
	UserID         string         `gorm:"type:varchar(128);not null;index"`
	CourseCode     string         `gorm:"type:varchar(32);not null;index"`
	Operation      string         `gorm:"type:varchar(32);not null"`
	Status         string         `gorm:"type:varchar(32);not null"`
	PRURL          string         `gorm:"type:text"`
	RequestID      string         `gorm:"type:varchar(128)"`
	Attribution    datatypes.JSON `gorm:"type:jsonb"`
	TOML           string         `gorm:"type:text;not null"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`
}

func (Submission) TableName() string {
	return "submissions"
}
