package jobs

import (
	"context"

	"iotkit-rental-backend/internal/logger"
)

// MarkOverdueBorrowings moves BORROWED requests past their due date to OVERDUE
func (jr *JobRunner) MarkOverdueBorrowings() {
	jr.runWithRecovery("MarkOverdueBorrowings", func() {
		count, err := jr.repos.Borrowings.MarkOverdue(context.Background(), jr.now())
		if err != nil {
			logger.Error("Failed to mark overdue borrowings", "error", err)
			return
		}
		logger.Info("Marked borrowings as overdue", "count", count)
	})
}
