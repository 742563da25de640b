package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"mediagrid-be/internal/model"
	"mediagrid-be/internal/pkg/logger"
	"mediagrid-be/internal/repository"
	"mediagrid-be/pkg/events"
	pkgNats "mediagrid-be/pkg/nats"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// NotificationDelivery defines how to push real-time updates.
// Typically implemented by the websocket hub.
type NotificationDelivery interface {
	Send(userID string, notification model.Notification)
	Broadcast(notification model.Notification)
}

type NotificationService struct {
	repo       repository.INotificationRepository
	subscriber *pkgNats.Subscriber
	delivery   NotificationDelivery
	logger     logger.ILogger
}

func NewNotificationService(repo repository.INotificationRepository, sub *pkgNats.Subscriber, delivery NotificationDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		repo:       repo,
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus with a durable consumer.
func (s *NotificationService) Start() {
	if s.subscriber == nil {
		s.logger.Warn("NotificationService", "No event bus connection, notifications disabled", nil)
		return
	}
	err := s.subscriber.Subscribe("events.>", "notif-service-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("NotificationService", "Failed to start notification subscriber", map[string]interface{}{"error": err.Error()})
		return
	}
	s.logger.Info("NotificationService", "Notification service started, listening to events.>", nil)
}

func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	typeCode := strings.TrimPrefix(event.EventType(), "events.")
	s.logger.Info("NotificationService", "Processing event", map[string]interface{}{"type": typeCode})

	switch typeCode {
	case "USER_FOLLOWED":
		return s.handleUserFollowed(ctx, event)
	default:
		// Unknown events are acked, never retried.
		return nil
	}
}

func (s *NotificationService) handleUserFollowed(ctx context.Context, event events.Event) error {
	payload := event.Payload()
	targetUID, _ := payload["target_uid"].(string)
	followerUID, _ := payload["follower_uid"].(string)
	followerName, _ := payload["follower_name"].(string)

	if targetUID == "" || followerUID == "" {
		s.logger.Warn("NotificationService", "USER_FOLLOWED event missing uids, dropping", map[string]interface{}{"payload": payload})
		return nil
	}
	if followerName == "" {
		followerName = "Someone"
	}

	metadata, _ := json.Marshal(payload)

	notification := model.Notification{
		ID:        uuid.New(),
		UserID:    targetUID,
		ActorID:   &followerUID,
		TypeCode:  "USER_FOLLOWED",
		Title:     "New follower",
		Message:   fmt.Sprintf("%s started following you.", followerName),
		Metadata:  datatypes.JSON(metadata),
		IsRead:    false,
		CreatedAt: time.Now(),
	}

	if err := s.repo.Create(ctx, &notification); err != nil {
		s.logger.Error("NotificationService", "Failed to store notification", map[string]interface{}{"error": err.Error()})
		return err
	}

	if s.delivery != nil {
		s.delivery.Send(targetUID, notification)
	}
	return nil
}

// List returns the newest notifications for one user.
func (s *NotificationService) List(ctx context.Context, userID string, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.FindByUser(ctx, userID, limit)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID string, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, userID, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	return s.repo.MarkAllRead(ctx, userID)
}
