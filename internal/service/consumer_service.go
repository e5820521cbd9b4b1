package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"course-pr-be/internal/dto"
	"course-pr-be/internal/entity"
	"course-pr-be/internal/repository/contract"
	"course-pr-be/pkg/events"
	pktNats "course-pr-be/pkg/nats" // Renamed to avoid collision

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// ActivityDelivery pushes accepted submissions to live watchers. Typically
// implemented by the websocket Hub.
type ActivityDelivery interface {
	Broadcast(activity interface{})
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub      *gochannel.GoChannel
	topicName   string
	submissions contract.SubmissionRepository
	delivery    ActivityDelivery
	natsPub     *pktNats.Publisher
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	submissions contract.SubmissionRepository,
	delivery ActivityDelivery,
	natsPub *pktNats.Publisher,
) IConsumerService {
	return &consumerService{
		pubSub:      pubSub,
		topicName:   topicName,
		submissions: submissions,
		delivery:    delivery,
		natsPub:     natsPub,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.SubmissionCompletedMessage
	err := json.Unmarshal(msg.Payload, &payload)
	if err != nil {
		log.Printf("[ERROR] Failed to unmarshal submission message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Recording submission %s for %s", payload.SubmissionID, payload.CourseCode)

	status := "published"
	if payload.PRURL == "" {
		status = "pending"
	}

	sub := &entity.Submission{
		Id:             payload.SubmissionID,
		ConversationID: payload.ConversationID,
		UserID:         payload.UserID,
		CourseCode:     payload.CourseCode,
		Operation:      payload.Operation,
		Status:         status,
		PRURL:          payload.PRURL,
		RequestID:      payload.RequestID,
		Attribution:    payload.Attribution,
		TOML:           payload.TOML,
		CreatedAt:      time.Now(),
	}

	if cs.submissions != nil {
		if err := cs.submissions.Create(ctx, sub); err != nil {
			log.Printf("[ERROR] Failed to persist submission %s: %v", payload.SubmissionID, err)
			msg.Nack() // Nack for retriable errors
			return
		}
	}

	if cs.delivery != nil {
		cs.delivery.Broadcast(dto.SubmissionResponse{
			Id:             sub.Id,
			ConversationID: sub.ConversationID,
			UserID:         sub.UserID,
			CourseCode:     sub.CourseCode,
			Operation:      sub.Operation,
			Status:         sub.Status,
			PRURL:          sub.PRURL,
			RequestID:      sub.RequestID,
			CreatedAt:      sub.CreatedAt,
		})
	}

	if cs.natsPub != nil {
		event := events.BaseEvent{
			Type:       "SUBMISSION_PUBLISHED",
			OccurredAt: sub.CreatedAt,
			Data: map[string]interface{}{
				"submission_id": sub.Id.String(),
				"course_code":   sub.CourseCode,
				"operation":     sub.Operation,
				"status":        sub.Status,
				"pr_url":        sub.PRURL,
			},
		}
		if err := cs.natsPub.Publish(ctx, event); err != nil {
			// NATS forwarding is best-effort; the record is already saved
			log.Printf("[WARN] Failed to forward submission %s to NATS: %v", sub.Id, err)
		}
	}

	log.Printf("[SUCCESS] Submission recorded: %s (%s)", sub.Id, sub.Status)
	msg.Ack()
}
