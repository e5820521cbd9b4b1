package specification

import "gorm.io/gorm"

// ByConversation filters submissions belonging to one chat conversation.
type ByConversation struct {
	ConversationID string
}

func (s ByConversation) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("conversation_id = ?", s.ConversationID)
}

// ByUser filters submissions made by one user.
type ByUser struct {
	UserID string
}

func (s ByUser) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

// ByCourse filters submissions targeting one course repository.
type ByCourse struct {
	CourseCode string
}

func (s ByCourse) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("course_code = ?", s.CourseCode)
}

// ByStatus filters by lifecycle status.
type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}
