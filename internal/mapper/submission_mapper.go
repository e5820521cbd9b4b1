package mapper

import (
	"encoding/json"
	"time"

	"course-pr-be/internal/entity"
	"course-pr-be/internal/model"

	"gorm.io/datatypes"
)

type SubmissionMapper struct{}

func NewSubmissionMapper() *SubmissionMapper {
	return &SubmissionMapper{}
}

func (m *SubmissionMapper) ToEntity(s *model.Submission) *entity.Submission {
	if s == nil {
		return nil
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	var attribution map[string]interface{}
	if len(s.Attribution) > 0 {
		// A decode failure here means the column was written by hand;
		// treat it as absent rather than failing the read.
		_ = json.Unmarshal(s.Attribution, &attribution)
	}

	return &entity.Submission{
		Id:             s.Id,
		ConversationID: s.ConversationID,
		UserID:         s.UserID,
		CourseCode:     s.CourseCode,
		Operation:      s.Operation,
		Status:         s.Status,
		PRURL:          s.PRURL,
		RequestID:      s.RequestID,
		Attribution:    attribution,
		TOML:           s.TOML,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

func (m *SubmissionMapper) ToEntities(models []*model.Submission) []*entity.Submission {
	entities := make([]*entity.Submission, 0, len(models))
	for _, s := range models {
		entities = append(entities, m.ToEntity(s))
	}
	return entities
}

func (m *SubmissionMapper) ToModel(e *entity.Submission) *model.Submission {
	if e == nil {
		return nil
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	var attribution datatypes.JSON
	if e.Attribution != nil {
		if raw, err := json.Marshal(e.Attribution); err == nil {
			attribution = raw
		}
	}

	return &model.Submission{
		Id:             e.Id,
		ConversationID: e.ConversationID,
		UserID:         e.UserID,
		CourseCode:     e.CourseCode,
		Operation:      e.Operation,
		Status:         e.Status,
		PRURL:          e.PRURL,
		RequestID:      e.RequestID,
		Attribution:    attribution,
		TOML:           e.TOML,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}
