package service

import (
	"context"

	"iotkit-rental-backend/internal/domain"
	"iotkit-rental-backend/internal/repository"
)

type notificationService struct {
	noteRepo repository.NotificationRepository
}

func NewNotificationService(noteRepo repository.NotificationRepository) NotificationService {
	return &notificationService{noteRepo: noteRepo}
}

func (s *notificationService) GetNotifications(ctx context.Context, accountID int32, page, pageSize int32) ([]domain.Notification, int32, error) {
	page, pageSize = normalizePage(page, pageSize)
	offset := (page - 1) * pageSize
	return s.noteRepo.List(ctx, accountID, pageSize, offset)
}

func (s *notificationService) MarkAsRead(ctx context.Context, accountID, notificationID int32) error {
	return s.noteRepo.MarkAsRead(ctx, notificationID, accountID)
}

// normalizePage defaults to the first page of 20 and caps pages at 100 items.
func normalizePage(page, pageSize int32) (int32, int32) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
