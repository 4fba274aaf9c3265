package service

import (
	"context"

	"iotkit-rental-backend/internal/domain"
	"iotkit-rental-backend/internal/repository"
)

type walletService struct {
	walletRepo repository.WalletRepository
}

func NewWalletService(walletRepo repository.WalletRepository) WalletService {
	return &walletService{walletRepo: walletRepo}
}

func (s *walletService) GetBalance(ctx context.Context, accountID int32) (int64, error) {
	return s.walletRepo.GetBalance(ctx, accountID)
}

func (s *walletService) GetTransactions(ctx context.Context, accountID int32, page, pageSize int32) ([]domain.WalletTransaction, int32, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.walletRepo.ListTransactions(ctx, accountID, page, pageSize)
}
