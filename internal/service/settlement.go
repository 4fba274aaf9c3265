package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"iotkit-rental-backend/internal/domain"
	"iotkit-rental-backend/internal/events"
	"iotkit-rental-backend/internal/idempotency"
	"iotkit-rental-backend/internal/logger"
	"iotkit-rental-backend/internal/repository"
	"iotkit-rental-backend/internal/utils"
)

type SettlementOutcome string

const (
	OutcomeDamageFound SettlementOutcome = "DAMAGE_FOUND"
	OutcomeNoDamage    SettlementOutcome = "NO_DAMAGE"
)

const WarningNoGroupFound = "no group found"

type SettleReturnInput struct {
	BorrowRequestID           int32
	InspectorEmail            string
	Components                []domain.Component
	PolicyIDs                 []int32
	IncludeRemainingRentalFee bool
	Note                      string
	IdempotencyKey            string
}

type SettlementPreview struct {
	Outcome            SettlementOutcome        `json:"outcome"`
	Damage             utils.DamageAssessment   `json:"damage"`
	Penalty            utils.PenaltyComposition `json:"penalty"`
	RemainingRentalFee int64                    `json:"remaining_rental_fee"`
	RefundFlow         bool                     `json:"refund_flow"`
}

type SettlementResult struct {
	Outcome             SettlementOutcome        `json:"outcome"`
	BorrowRequest       *domain.BorrowingRequest `json:"borrow_request"`
	Penalty             *domain.Penalty          `json:"penalty,omitempty"`
	Details             []domain.PenaltyDetail   `json:"details"`
	DamageReport        *domain.DamageReport     `json:"damage_report,omitempty"`
	BilledAccountID     int32                    `json:"billed_account_id,omitempty"`
	BilledToGroupLeader bool                     `json:"billed_to_group_leader"`
	RefundAmount        int64                    `json:"refund_amount"`
	RefundFlow          bool                     `json:"refund_flow"`
	Warnings            []string                 `json:"warnings"`
}

type settlementService struct {
	repos     repository.Repositories
	txManager repository.TxManager
	emailSvc  EmailService
	publisher events.Publisher
	idem      idempotency.Store
	now       func() time.Time
}

func NewSettlementService(
	repos repository.Repositories,
	txManager repository.TxManager,
	emailSvc EmailService,
	publisher events.Publisher,
	idem idempotency.Store,
) SettlementService {
	return &settlementService{
		repos:     repos,
		txManager: txManager,
		emailSvc:  emailSvc,
		publisher: publisher,
		idem:      idem,
		now:       time.Now,
	}
}

// inspection is everything loaded and computed before any write happens.
type inspection struct {
	borrow   *domain.BorrowingRequest
	kit      *domain.Kit
	policies []domain.PenaltyPolicy
	preview  SettlementPreview
}

func (s *settlementService) inspect(ctx context.Context, in SettleReturnInput) (*inspection, error) {
	if in.BorrowRequestID <= 0 {
		return nil, fmt.Errorf("%w: borrow request id is required", domain.ErrValidation)
	}

	borrow, err := s.repos.Borrowings.GetByID(ctx, in.BorrowRequestID)
	if err != nil {
		return nil, err
	}
	if borrow.IsClosed() {
		return nil, fmt.Errorf("%w: borrow request %d is already %s", domain.ErrInvalidState, borrow.ID, borrow.Status)
	}

	kit, err := s.repos.Kits.GetByID(ctx, borrow.KitID)
	if err != nil {
		return nil, err
	}

	policyIDs := uniqueIDs(in.PolicyIDs)
	policies, err := s.repos.Policies.ListByIDs(ctx, policyIDs)
	if err != nil {
		return nil, err
	}
	if len(policies) != len(policyIDs) {
		return nil, fmt.Errorf("%w: unknown penalty policy in %v", domain.ErrValidation, policyIDs)
	}
	for _, p := range policies {
		if p.Amount < 0 {
			return nil, fmt.Errorf("penalty policy %d: %w", p.ID, domain.ErrNegativeAmount)
		}
	}

	damage, err := utils.AssessDamage(in.Components)
	if err != nil {
		return nil, err
	}

	var remaining int64
	if in.IncludeRemainingRentalFee {
		remaining = utils.RemainingRentalFee(borrow.DepositAmount, borrow.TotalCost)
	}
	composition, err := utils.ComposePenalty(damage.TotalDamageFee, policies, remaining)
	if err != nil {
		return nil, err
	}

	outcome := OutcomeNoDamage
	if composition.HasCharges() {
		outcome = OutcomeDamageFound
	}

	return &inspection{
		borrow:   borrow,
		kit:      kit,
		policies: policies,
		preview: SettlementPreview{
			Outcome:            outcome,
			Damage:             damage,
			Penalty:            composition,
			RemainingRentalFee: remaining,
			RefundFlow:         borrow.InRefundQueue(),
		},
	}, nil
}

func (s *settlementService) AssessReturn(ctx context.Context, in SettleReturnInput) (*SettlementPreview, error) {
	insp, err := s.inspect(ctx, in)
	if err != nil {
		return nil, err
	}
	return &insp.preview, nil
}

func (s *settlementService) SettleReturn(ctx context.Context, in SettleReturnInput) (result *SettlementResult, err error) {
	logger.EnterMethod("settlementService.SettleReturn", "borrowRequestID", in.BorrowRequestID, "inspector", in.InspectorEmail)
	defer func() {
		if err != nil {
			logger.ExitMethodWithError("settlementService.SettleReturn", err, "borrowRequestID", in.BorrowRequestID)
		} else {
			logger.ExitMethod("settlementService.SettleReturn", "borrowRequestID", in.BorrowRequestID, "outcome", result.Outcome)
		}
	}()

	if strings.TrimSpace(in.InspectorEmail) == "" {
		return nil, fmt.Errorf("%w: inspector email is required", domain.ErrValidation)
	}

	var claim *idempotency.Claim
	if key := strings.TrimSpace(in.IdempotencyKey); key != "" {
		var cached []byte
		claim, cached, err = s.idem.Begin(ctx, fmt.Sprintf("settle:%d:%s", in.BorrowRequestID, key))
		if errors.Is(err, idempotency.ErrInProgress) {
			return nil, fmt.Errorf("%w: %v", domain.ErrConflict, err)
		}
		if err != nil {
			return nil, err
		}
		if cached != nil {
			var replay SettlementResult
			if err := json.Unmarshal(cached, &replay); err != nil {
				return nil, err
			}
			logger.Info("Returning stored settlement for idempotency key", "borrowRequestID", in.BorrowRequestID)
			return &replay, nil
		}
	}

	result, err = s.settle(ctx, in)
	if claim != nil {
		if err != nil {
			if abortErr := s.idem.Abort(ctx, claim); abortErr != nil {
				logger.Warn("Failed to release idempotency key", "error", abortErr)
			}
		} else if payload, mErr := json.Marshal(result); mErr == nil {
			if cErr := s.idem.Complete(ctx, claim, payload); cErr != nil {
				logger.Warn("Failed to store settlement for idempotency key", "error", cErr)
			}
		}
	}
	return result, err
}

func (s *settlementService) settle(ctx context.Context, in SettleReturnInput) (*SettlementResult, error) {
	insp, err := s.inspect(ctx, in)
	if err != nil {
		return nil, err
	}
	borrow, kit, preview := insp.borrow, insp.kit, insp.preview

	result := &SettlementResult{
		Outcome:       preview.Outcome,
		BorrowRequest: borrow,
		Details:       []domain.PenaltyDetail{},
		RefundFlow:    preview.RefundFlow,
		Warnings:      []string{},
	}

	var leader *domain.Group
	if preview.Outcome == OutcomeDamageFound {
		result.BilledAccountID = borrow.AccountID
		group, err := s.repos.Groups.FindByMemberEmail(ctx, borrow.RenterEmail)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			result.Warnings = append(result.Warnings, WarningNoGroupFound)
		case err != nil:
			return nil, err
		default:
			leader = group
			result.BilledAccountID = group.LeaderAccountID
			result.BilledToGroupLeader = true
		}
	}

	now := s.now()
	err = s.txManager.WithinTx(ctx, func(repos repository.Repositories) error {
		updated := *borrow
		updated.Status = domain.BorrowingStatusReturned
		updated.ActualReturnDate = &now
		if err := repos.Borrowings.Update(ctx, &updated); err != nil {
			return err
		}
		if err := repos.Kits.UpdateStatus(ctx, kit.ID, domain.KitStatusAvailable); err != nil {
			return err
		}
		result.BorrowRequest = &updated

		if preview.Outcome == OutcomeDamageFound {
			return s.recordPenalty(ctx, repos, in, insp, result, now)
		}
		if preview.RefundFlow {
			return s.recordFullRefund(ctx, repos, in, borrow, result)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterSettlement(ctx, kit, borrow, leader, result)
	return result, nil
}

func (s *settlementService) recordPenalty(ctx context.Context, repos repository.Repositories, in SettleReturnInput, insp *inspection, result *SettlementResult, now time.Time) error {
	composition := insp.preview.Penalty

	penalty := &domain.Penalty{
		Semester:        utils.Semester(now),
		TakeEffectDate:  now,
		KitType:         insp.kit.Type,
		Note:            in.Note,
		TotalAmount:     composition.Total,
		BorrowRequestID: insp.borrow.ID,
		AccountID:       result.BilledAccountID,
		CreatedOn:       now,
	}
	if len(insp.policies) == 1 {
		id := insp.policies[0].ID
		penalty.PolicyID = &id
	}
	if err := repos.Penalties.Create(ctx, penalty); err != nil {
		return fmt.Errorf("create penalty: %w", err)
	}

	details := make([]domain.PenaltyDetail, len(composition.Details))
	copy(details, composition.Details)
	for i := range details {
		details[i].PenaltyID = penalty.ID
	}
	if err := repos.Penalties.CreateDetails(ctx, details); err != nil {
		return err
	}
	result.Penalty = penalty
	result.Details = details

	if damageFee := insp.preview.Damage.TotalDamageFee; damageFee > 0 {
		penaltyID := penalty.ID
		report := &domain.DamageReport{
			Description:      utils.DescribeDamage(in.Components),
			Status:           domain.DamageReportStatusReported,
			GeneratedByEmail: in.InspectorEmail,
			KitID:            insp.kit.ID,
			BorrowRequestID:  insp.borrow.ID,
			PenaltyID:        &penaltyID,
			TotalDamageValue: damageFee,
			CreatedOn:        now,
		}
		if err := repos.DamageReports.Create(ctx, report); err != nil {
			return fmt.Errorf("create damage report: %w", err)
		}
		result.DamageReport = report
	}

	if result.RefundFlow {
		entry := &domain.LogHistory{
			BorrowRequestID: insp.borrow.ID,
			Action:          domain.LogActionPenaltyIssued,
			ActorEmail:      in.InspectorEmail,
			Amount:          penalty.TotalAmount,
			Details:         fmt.Sprintf("Penalty #%d issued during refund check", penalty.ID),
		}
		if err := repos.LogHistory.Create(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

func (s *settlementService) recordFullRefund(ctx context.Context, repos repository.Repositories, in SettleReturnInput, borrow *domain.BorrowingRequest, result *SettlementResult) error {
	amount := utils.RemainingRentalFee(borrow.DepositAmount, borrow.TotalCost)
	if amount > 0 {
		borrowID := borrow.ID
		tx := &domain.WalletTransaction{
			AccountID:       borrow.AccountID,
			Amount:          amount,
			Type:            domain.WalletTransactionTypeRefund,
			BorrowRequestID: &borrowID,
			Description:     fmt.Sprintf("Full refund for borrow request #%d", borrow.ID),
		}
		if err := repos.Wallets.CreateTransaction(ctx, tx); err != nil {
			return fmt.Errorf("refund to wallet: %w", err)
		}
	}
	result.RefundAmount = amount

	return repos.LogHistory.Create(ctx, &domain.LogHistory{
		BorrowRequestID: borrow.ID,
		Action:          domain.LogActionRefundApproved,
		ActorEmail:      in.InspectorEmail,
		Amount:          amount,
		Details:         "No damage found, full refund",
	})
}

// afterSettlement sends notifications, emails and the completion event. None
// of it can fail the settlement.
func (s *settlementService) afterSettlement(ctx context.Context, kit *domain.Kit, borrow *domain.BorrowingRequest, leader *domain.Group, result *SettlementResult) {
	borrowID := fmt.Sprintf("%d", borrow.ID)

	switch {
	case result.Outcome == OutcomeDamageFound:
		penaltyID := fmt.Sprintf("%d", result.Penalty.ID)
		message := fmt.Sprintf("A penalty of %d VND was issued after inspecting %s", result.Penalty.TotalAmount, kit.Name)
		s.notify(ctx, borrow.AccountID, "Unpaid penalty", message, domain.NotificationTypeUnpaidPenalty,
			map[string]string{"penalty_id": penaltyID, "borrow_request_id": borrowID})

		if leader != nil && leader.LeaderAccountID != borrow.AccountID {
			s.notify(ctx, leader.LeaderAccountID, "Unpaid penalty for your group",
				fmt.Sprintf("%s (member %s)", message, borrow.RenterEmail), domain.NotificationTypeUnpaidPenalty,
				map[string]string{"penalty_id": penaltyID, "borrow_request_id": borrowID, "member_email": borrow.RenterEmail})
		}

		billedEmail := borrow.RenterEmail
		if leader != nil {
			billedEmail = leader.LeaderEmail
		}
		if err := s.emailSvc.SendPenaltyNotice(ctx, billedEmail, kit.Name, result.Penalty.ID, result.Penalty.TotalAmount, borrow.RenterEmail); err != nil {
			logger.Warn("Failed to send penalty email", "error", err, "penaltyID", result.Penalty.ID)
		}

	case result.RefundAmount > 0:
		s.notify(ctx, borrow.AccountID, "Refund processed",
			fmt.Sprintf("%d VND was refunded to your wallet for %s", result.RefundAmount, kit.Name),
			domain.NotificationTypeRefundProcessed, map[string]string{"borrow_request_id": borrowID})
		if err := s.emailSvc.SendRefundNotice(ctx, borrow.RenterEmail, kit.Name, result.RefundAmount); err != nil {
			logger.Warn("Failed to send refund email", "error", err, "borrowRequestID", borrow.ID)
		}

	default:
		s.notify(ctx, borrow.AccountID, "Kit returned",
			fmt.Sprintf("Your return of %s was inspected with no damage", kit.Name),
			domain.NotificationTypeKitReturned, map[string]string{"borrow_request_id": borrowID})
	}

	event := events.SettlementCompletedEvent{
		EventID:         events.NewID(),
		BorrowRequestID: borrow.ID,
		KitID:           kit.ID,
		Outcome:         string(result.Outcome),
		RefundAmount:    result.RefundAmount,
		BilledAccountID: result.BilledAccountID,
		Timestamp:       s.now(),
	}
	if result.Penalty != nil {
		event.PenaltyID = result.Penalty.ID
		event.PenaltyTotal = result.Penalty.TotalAmount
	}
	if err := s.publisher.Publish(ctx, events.RoutingSettlementCompleted, event); err != nil {
		logger.Warn("Failed to publish settlement event", "error", err, "borrowRequestID", borrow.ID)
	}
}

func (s *settlementService) notify(ctx context.Context, accountID int32, title, message string, kind domain.NotificationType, attrs map[string]string) {
	notifyAccount(ctx, s.repos.Notifications, accountID, title, message, kind, attrs)
}

// notifyAccount stores a notification, logging instead of failing.
func notifyAccount(ctx context.Context, repo repository.NotificationRepository, accountID int32, title, message string, kind domain.NotificationType, attrs map[string]string) {
	note := &domain.Notification{
		AccountID:  accountID,
		Title:      title,
		Message:    message,
		Type:       kind,
		Attributes: attrs,
	}
	if err := repo.Create(ctx, note); err != nil {
		logger.Warn("Failed to create notification", "error", err, "accountID", accountID, "type", kind)
	}
}

func uniqueIDs(ids []int32) []int32 {
	seen := make(map[int32]bool, len(ids))
	out := make([]int32, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
