package domain

import "time"

type NotificationType string

const (
	NotificationTypeUnpaidPenalty   NotificationType = "UNPAID_PENALTY"
	NotificationTypePenaltyPaid     NotificationType = "PENALTY_PAID"
	NotificationTypePenaltyReminder NotificationType = "PENALTY_REMINDER"
	NotificationTypeRefundProcessed NotificationType = "REFUND_PROCESSED"
	NotificationTypeRefundRejected  NotificationType = "REFUND_REJECTED"
	NotificationTypeKitReturned     NotificationType = "KIT_RETURNED"
)

type Notification struct {
	ID         int32             `json:"id"`
	AccountID  int32             `json:"account_id"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	Type       NotificationType  `json:"type"`
	IsRead     bool              `json:"is_read"`
	Attributes map[string]string `json:"attributes"`
	CreatedOn  time.Time         `json:"created_on"`
}
