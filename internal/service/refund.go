package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"iotkit-rental-backend/internal/domain"
	"iotkit-rental-backend/internal/events"
	"iotkit-rental-backend/internal/logger"
	"iotkit-rental-backend/internal/repository"
	"iotkit-rental-backend/internal/utils"
)

type RefundOutcome struct {
	BorrowRequest *domain.BorrowingRequest `json:"borrow_request"`
	Breakdown     utils.RefundBreakdown    `json:"breakdown"`
}

type refundService struct {
	repos         repository.Repositories
	txManager     repository.TxManager
	emailSvc      EmailService
	publisher     events.Publisher
	lateFeePerDay int64
	now           func() time.Time
}

func NewRefundService(
	repos repository.Repositories,
	txManager repository.TxManager,
	emailSvc EmailService,
	publisher events.Publisher,
	lateFeePerDay int64,
) RefundService {
	return &refundService{
		repos:         repos,
		txManager:     txManager,
		emailSvc:      emailSvc,
		publisher:     publisher,
		lateFeePerDay: lateFeePerDay,
		now:           time.Now,
	}
}

func (s *refundService) ListRefundRequests(ctx context.Context) ([]domain.RefundRequest, error) {
	borrows, err := s.repos.Borrowings.ListByStatuses(ctx, []domain.BorrowingStatus{
		domain.BorrowingStatusApproved,
		domain.BorrowingStatusPending,
	})
	if err != nil {
		return nil, err
	}

	kitNames := make(map[int32]string)
	requests := make([]domain.RefundRequest, 0, len(borrows))
	for _, b := range borrows {
		name, ok := kitNames[b.KitID]
		if !ok {
			kit, err := s.repos.Kits.GetByID(ctx, b.KitID)
			if err != nil {
				return nil, err
			}
			name = kit.Name
			kitNames[b.KitID] = name
		}
		requests = append(requests, domain.NewRefundRequest(b, name))
	}
	return requests, nil
}

func (s *refundService) loadQueued(ctx context.Context, borrowRequestID int32) (*domain.BorrowingRequest, error) {
	b, err := s.repos.Borrowings.GetByID(ctx, borrowRequestID)
	if err != nil {
		return nil, err
	}
	if !b.InRefundQueue() {
		return nil, fmt.Errorf("%w: borrow request %d is %s, not awaiting refund", domain.ErrInvalidState, b.ID, b.Status)
	}
	return b, nil
}

func (s *refundService) breakdown(b *domain.BorrowingRequest, assessment map[string]domain.DamageEntry, returnDate time.Time) (utils.RefundBreakdown, error) {
	for name, entry := range assessment {
		if entry.Damaged < 0 || entry.Value < 0 {
			return utils.RefundBreakdown{}, fmt.Errorf("component %q: %w", name, domain.ErrNegativeAmount)
		}
	}
	original := utils.RemainingRentalFee(b.DepositAmount, b.TotalCost)
	return utils.BreakdownRefund(original, assessment, returnDate, b.DueDate, s.lateFeePerDay)
}

// PreviewRefund computes the refund for a return on returnDate, or now when
// returnDate is zero.
func (s *refundService) PreviewRefund(ctx context.Context, borrowRequestID int32, assessment map[string]domain.DamageEntry, returnDate time.Time) (*utils.RefundBreakdown, error) {
	b, err := s.loadQueued(ctx, borrowRequestID)
	if err != nil {
		return nil, err
	}
	if returnDate.IsZero() {
		returnDate = s.now()
	}
	bd, err := s.breakdown(b, assessment, returnDate)
	if err != nil {
		return nil, err
	}
	return &bd, nil
}

func (s *refundService) ApproveRefund(ctx context.Context, adminEmail string, borrowRequestID int32, assessment map[string]domain.DamageEntry) (*RefundOutcome, error) {
	logger.EnterMethod("refundService.ApproveRefund", "borrowRequestID", borrowRequestID, "admin", adminEmail)

	b, err := s.loadQueued(ctx, borrowRequestID)
	if err != nil {
		logger.ExitMethodWithError("refundService.ApproveRefund", err, "borrowRequestID", borrowRequestID)
		return nil, err
	}
	now := s.now()
	bd, err := s.breakdown(b, assessment, now)
	if err != nil {
		logger.ExitMethodWithError("refundService.ApproveRefund", err, "borrowRequestID", borrowRequestID)
		return nil, err
	}

	updated := *b
	err = s.txManager.WithinTx(ctx, func(repos repository.Repositories) error {
		updated.Status = domain.BorrowingStatusReturned
		updated.ActualReturnDate = &now
		if err := repos.Borrowings.Update(ctx, &updated); err != nil {
			return err
		}
		if err := repos.Kits.UpdateStatus(ctx, b.KitID, domain.KitStatusAvailable); err != nil {
			return err
		}
		if bd.Refund > 0 {
			borrowID := b.ID
			if err := repos.Wallets.CreateTransaction(ctx, &domain.WalletTransaction{
				AccountID:       b.AccountID,
				Amount:          bd.Refund,
				Type:            domain.WalletTransactionTypeRefund,
				BorrowRequestID: &borrowID,
				Description:     fmt.Sprintf("Refund for borrow request #%d", b.ID),
			}); err != nil {
				return err
			}
		}
		return repos.LogHistory.Create(ctx, &domain.LogHistory{
			BorrowRequestID: b.ID,
			Action:          domain.LogActionRefundApproved,
			ActorEmail:      adminEmail,
			Amount:          bd.Refund,
			Details: fmt.Sprintf("original %d, damage %d, %d days late (%d)",
				bd.OriginalAmount, bd.DamageFee, bd.DaysLate, bd.LatePenalty),
		})
	})
	if err != nil {
		logger.ExitMethodWithError("refundService.ApproveRefund", err, "borrowRequestID", borrowRequestID)
		return nil, err
	}

	kitName := s.kitName(ctx, b.KitID)
	notifyAccount(ctx, s.repos.Notifications, b.AccountID, "Refund processed",
		fmt.Sprintf("%d VND was refunded to your wallet for %s", bd.Refund, kitName),
		domain.NotificationTypeRefundProcessed, map[string]string{"borrow_request_id": fmt.Sprintf("%d", b.ID)})
	if err := s.emailSvc.SendRefundNotice(ctx, b.RenterEmail, kitName, bd.Refund); err != nil {
		logger.Warn("Failed to send refund email", "error", err, "borrowRequestID", b.ID)
	}
	s.publish(ctx, events.RoutingRefundProcessed, b, bd.Refund, "")

	logger.ExitMethod("refundService.ApproveRefund", "borrowRequestID", b.ID, "refund", bd.Refund)
	return &RefundOutcome{BorrowRequest: &updated, Breakdown: bd}, nil
}

// RejectRefund closes the request without moving money. The kit status is left
// as it is.
func (s *refundService) RejectRefund(ctx context.Context, adminEmail string, borrowRequestID int32, reason string) (*domain.BorrowingRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", domain.ErrValidation)
	}

	b, err := s.loadQueued(ctx, borrowRequestID)
	if err != nil {
		return nil, err
	}

	updated := *b
	err = s.txManager.WithinTx(ctx, func(repos repository.Repositories) error {
		updated.Status = domain.BorrowingStatusRejected
		updated.Reason = reason
		if err := repos.Borrowings.Update(ctx, &updated); err != nil {
			return err
		}
		return repos.LogHistory.Create(ctx, &domain.LogHistory{
			BorrowRequestID: b.ID,
			Action:          domain.LogActionRefundRejected,
			ActorEmail:      adminEmail,
			Details:         reason,
		})
	})
	if err != nil {
		return nil, err
	}

	kitName := s.kitName(ctx, b.KitID)
	notifyAccount(ctx, s.repos.Notifications, b.AccountID, "Refund rejected",
		fmt.Sprintf("Your refund for %s was rejected: %s", kitName, reason),
		domain.NotificationTypeRefundRejected, map[string]string{"borrow_request_id": fmt.Sprintf("%d", b.ID)})
	if err := s.emailSvc.SendRefundRejection(ctx, b.RenterEmail, kitName, reason); err != nil {
		logger.Warn("Failed to send refund rejection email", "error", err, "borrowRequestID", b.ID)
	}
	s.publish(ctx, events.RoutingRefundRejected, b, 0, reason)

	return &updated, nil
}

func (s *refundService) kitName(ctx context.Context, kitID int32) string {
	kit, err := s.repos.Kits.GetByID(ctx, kitID)
	if err != nil {
		return fmt.Sprintf("kit #%d", kitID)
	}
	return kit.Name
}

func (s *refundService) publish(ctx context.Context, routingKey string, b *domain.BorrowingRequest, amount int64, reason string) {
	err := s.publisher.Publish(ctx, routingKey, events.RefundEvent{
		EventID:         events.NewID(),
		BorrowRequestID: b.ID,
		AccountID:       b.AccountID,
		Amount:          amount,
		Reason:          reason,
		Timestamp:       s.now(),
	})
	if err != nil {
		logger.Warn("Failed to publish refund event", "error", err, "routing_key", routingKey)
	}
}
