package service

import (
	"context"
	"fmt"
	"time"

	"iotkit-rental-backend/internal/domain"
	"iotkit-rental-backend/internal/events"
	"iotkit-rental-backend/internal/logger"
	"iotkit-rental-backend/internal/repository"
)

type penaltyService struct {
	repos     repository.Repositories
	txManager repository.TxManager
	emailSvc  EmailService
	publisher events.Publisher
	now       func() time.Time
}

func NewPenaltyService(
	repos repository.Repositories,
	txManager repository.TxManager,
	emailSvc EmailService,
	publisher events.Publisher,
) PenaltyService {
	return &penaltyService{
		repos:     repos,
		txManager: txManager,
		emailSvc:  emailSvc,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *penaltyService) GetUnresolved(ctx context.Context) ([]domain.Penalty, error) {
	return s.repos.Penalties.ListUnresolved(ctx)
}

func (s *penaltyService) GetPenaltiesByAccount(ctx context.Context, accountID int32) ([]domain.Penalty, error) {
	return s.repos.Penalties.ListByAccount(ctx, accountID)
}

// GetPenalty is open to admins and to the billed account.
func (s *penaltyService) GetPenalty(ctx context.Context, caller Caller, penaltyID int32) (*domain.Penalty, []domain.PenaltyDetail, error) {
	p, err := s.repos.Penalties.GetByID(ctx, penaltyID)
	if err != nil {
		return nil, nil, err
	}
	if !caller.IsAdmin && p.AccountID != caller.AccountID {
		return nil, nil, fmt.Errorf("%w: penalty %d belongs to another account", domain.ErrForbidden, penaltyID)
	}
	details, err := s.repos.Penalties.ListDetails(ctx, penaltyID)
	if err != nil {
		return nil, nil, err
	}
	return p, details, nil
}

// ConfirmPenaltyPayment debits the billed account's wallet and resolves the
// penalty in one transaction.
func (s *penaltyService) ConfirmPenaltyPayment(ctx context.Context, accountID, penaltyID int32) (*domain.Penalty, error) {
	logger.EnterMethod("penaltyService.ConfirmPenaltyPayment", "accountID", accountID, "penaltyID", penaltyID)

	var paid *domain.Penalty
	err := s.txManager.WithinTx(ctx, func(repos repository.Repositories) error {
		p, err := repos.Penalties.GetByID(ctx, penaltyID)
		if err != nil {
			return err
		}
		if p.AccountID != accountID {
			return fmt.Errorf("%w: penalty %d belongs to another account", domain.ErrForbidden, penaltyID)
		}
		if p.Resolved {
			return fmt.Errorf("%w: penalty %d is already paid", domain.ErrInvalidState, penaltyID)
		}

		balance, err := repos.Wallets.LockBalance(ctx, accountID)
		if err != nil {
			return err
		}
		if balance < p.TotalAmount {
			return fmt.Errorf("%w: balance %d, penalty %d", domain.ErrInsufficientBalance, balance, p.TotalAmount)
		}

		pid, bid := p.ID, p.BorrowRequestID
		if err := repos.Wallets.CreateTransaction(ctx, &domain.WalletTransaction{
			AccountID:       accountID,
			Amount:          -p.TotalAmount,
			Type:            domain.WalletTransactionTypePenaltyPayment,
			BorrowRequestID: &bid,
			PenaltyID:       &pid,
			Description:     fmt.Sprintf("Payment of penalty #%d", p.ID),
		}); err != nil {
			return err
		}
		if err := repos.Penalties.MarkResolved(ctx, p); err != nil {
			return err
		}
		paid = p
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("penaltyService.ConfirmPenaltyPayment", err, "penaltyID", penaltyID)
		return nil, err
	}

	notifyAccount(ctx, s.repos.Notifications, accountID, "Penalty paid",
		fmt.Sprintf("Penalty #%d of %d VND was paid from your wallet", paid.ID, paid.TotalAmount),
		domain.NotificationTypePenaltyPaid, map[string]string{"penalty_id": fmt.Sprintf("%d", paid.ID)})

	if account, err := s.repos.Accounts.GetByID(ctx, accountID); err == nil {
		if err := s.emailSvc.SendPenaltyReceipt(ctx, account.Email, paid.ID, paid.TotalAmount); err != nil {
			logger.Warn("Failed to send penalty receipt", "error", err, "penaltyID", paid.ID)
		}
	}

	if err := s.publisher.Publish(ctx, events.RoutingPenaltyPaid, events.PenaltyPaidEvent{
		EventID:   events.NewID(),
		PenaltyID: paid.ID,
		AccountID: accountID,
		Amount:    paid.TotalAmount,
		Timestamp: s.now(),
	}); err != nil {
		logger.Warn("Failed to publish penalty paid event", "error", err, "penaltyID", paid.ID)
	}

	logger.ExitMethod("penaltyService.ConfirmPenaltyPayment", "penaltyID", paid.ID)
	return paid, nil
}
