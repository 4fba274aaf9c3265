package jobs

import (
	"context"
	"fmt"
	"time"

	"iotkit-rental-backend/internal/domain"
	"iotkit-rental-backend/internal/logger"
)

// SendPenaltyReminders emails and notifies billed accounts whose penalties
// stay unpaid longer than the configured number of days.
func (jr *JobRunner) SendPenaltyReminders() {
	jr.runWithRecovery("SendPenaltyReminders", func() {
		sent, err := jr.sendPenaltyReminders(context.Background())
		if err != nil {
			logger.Error("Failed to send penalty reminders", "error", err)
			return
		}
		logger.Info("Sent penalty reminders", "count", sent)
	})
}

func (jr *JobRunner) sendPenaltyReminders(ctx context.Context) (int, error) {
	now := jr.now()
	cutoff := now.AddDate(0, 0, -jr.config.Billing.ReminderAfterDays)

	penalties, err := jr.repos.Penalties.ListUnresolvedOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, p := range penalties {
		account, err := jr.repos.Accounts.GetByID(ctx, p.AccountID)
		if err != nil {
			logger.Error("Failed to load billed account", "penalty_id", p.ID, "account_id", p.AccountID, "error", err)
			continue
		}

		days := int(now.Sub(p.CreatedOn) / (24 * time.Hour))
		if err := jr.emailSvc.SendPenaltyReminder(ctx, account.Email, p.ID, p.TotalAmount, days); err != nil {
			logger.Error("Failed to send penalty reminder", "penalty_id", p.ID, "error", err)
		}

		note := &domain.Notification{
			AccountID: p.AccountID,
			Title:     "Penalty reminder",
			Message:   fmt.Sprintf("Penalty #%d of %d VND has been unpaid for %d days", p.ID, p.TotalAmount, days),
			Type:      domain.NotificationTypePenaltyReminder,
			Attributes: map[string]string{
				"penalty_id": fmt.Sprintf("%d", p.ID),
			},
		}
		if err := jr.repos.Notifications.Create(ctx, note); err != nil {
			logger.Error("Failed to create reminder notification", "penalty_id", p.ID, "error", err)
			continue
		}
		sent++
	}
	return sent, nil
}
