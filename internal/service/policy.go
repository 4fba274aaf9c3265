package service

import (
	"context"
	"fmt"
	"strings"

	"iotkit-rental-backend/internal/domain"
	"iotkit-rental-backend/internal/repository"
)

type policyService struct {
	policyRepo repository.PenaltyPolicyRepository
}

func NewPolicyService(policyRepo repository.PenaltyPolicyRepository) PolicyService {
	return &policyService{policyRepo: policyRepo}
}

func validatePolicy(p *domain.PenaltyPolicy) error {
	p.PolicyName = strings.TrimSpace(p.PolicyName)
	if p.PolicyName == "" {
		return fmt.Errorf("%w: policy name is required", domain.ErrValidation)
	}
	if !p.Type.Valid() {
		return fmt.Errorf("%w: unknown policy type %q", domain.ErrValidation, p.Type)
	}
	if p.Amount < 0 {
		return domain.ErrNegativeAmount
	}
	return nil
}

func (s *policyService) CreatePolicy(ctx context.Context, p *domain.PenaltyPolicy) error {
	if err := validatePolicy(p); err != nil {
		return err
	}
	return s.policyRepo.Create(ctx, p)
}

func (s *policyService) ListPolicies(ctx context.Context, policyType domain.PolicyType) ([]domain.PenaltyPolicy, error) {
	if policyType != "" && !policyType.Valid() {
		return nil, fmt.Errorf("%w: unknown policy type %q", domain.ErrValidation, policyType)
	}
	return s.policyRepo.List(ctx, policyType)
}

func (s *policyService) GetPolicy(ctx context.Context, id int32) (*domain.PenaltyPolicy, error) {
	return s.policyRepo.GetByID(ctx, id)
}

func (s *policyService) UpdatePolicy(ctx context.Context, p *domain.PenaltyPolicy) error {
	if err := validatePolicy(p); err != nil {
		return err
	}
	existing, err := s.policyRepo.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	p.IssuedDate = existing.IssuedDate
	return s.policyRepo.Update(ctx, p)
}
