package service

import (
	"context"

	"course-pr-be/internal/dto"
	"course-pr-be/internal/repository/contract"
	"course-pr-be/internal/repository/specification"
)

type ISubmissionService interface {
	List(ctx context.Context, courseCode string, limit int) ([]*dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions contract.SubmissionRepository
}

func NewSubmissionService(submissions contract.SubmissionRepository) ISubmissionService {
	return &submissionService{submissions: submissions}
}

func (s *submissionService) List(ctx context.Context, courseCode string, limit int) ([]*dto.SubmissionResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	specs := []specification.Specification{
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit},
	}
	if courseCode != "" {
		specs = append([]specification.Specification{specification.ByCourse{CourseCode: courseCode}}, specs...)
	}

	subs, err := s.submissions.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.SubmissionResponse, 0, len(subs))
	for _, sub := range subs {
		out = append(out, &dto.SubmissionResponse{
			Id:             sub.Id,
			ConversationID: sub.ConversationID,
			UserID:         sub.UserID,
			CourseCode:     sub.CourseCode,
			Operation:      sub.Operation,
			Status:         sub.Status,
			PRURL:          sub.PRURL,
			RequestID:      sub.RequestID,
			CreatedAt:      sub.CreatedAt,
			UpdatedAt:      sub.UpdatedAt,
		})
	}
	return out, nil
}
