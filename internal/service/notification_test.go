package service

import (
	"context"
	"testing"

	"iotkit-rental-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetNotifications_Paging(t *testing.T) {
	tests := []struct {
		name           string
		page, pageSize int32
		limit, offset  int32
	}{
		{"Defaults", 0, 0, 20, 0},
		{"Third page", 3, 10, 10, 20},
		{"Capped size", 1, 500, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockNotificationRepo)
			svc := NewNotificationService(repo)
			repo.On("List", mock.Anything, int32(7), tt.limit, tt.offset).Return([]domain.Notification{}, int32(0), nil)

			_, _, err := svc.GetNotifications(context.Background(), 7, tt.page, tt.pageSize)
			require.NoError(t, err)
			repo.AssertExpectations(t)
		})
	}
}

func TestMarkAsRead_OtherAccount(t *testing.T) {
	repo := new(MockNotificationRepo)
	svc := NewNotificationService(repo)
	repo.On("MarkAsRead", mock.Anything, int32(4), int32(8)).Return(domain.ErrNotFound)

	err := svc.MarkAsRead(context.Background(), 8, 4)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWalletService_GetTransactions(t *testing.T) {
	repo := new(MockWalletRepo)
	svc := NewWalletService(repo)
	txs := []domain.WalletTransaction{{ID: 1, AccountID: 7, Amount: -70000, Type: domain.WalletTransactionTypePenaltyPayment}}
	repo.On("ListTransactions", mock.Anything, int32(7), int32(1), int32(20)).Return(txs, int32(1), nil)
	repo.On("GetBalance", mock.Anything, int32(7)).Return(int64(30000), nil)

	got, total, err := svc.GetTransactions(context.Background(), 7, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(1), total)
	assert.Equal(t, txs, got)

	balance, err := svc.GetBalance(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(30000), balance)
}
