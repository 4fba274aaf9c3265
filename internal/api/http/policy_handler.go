package http

import (
	"net/http"

	"iotkit-rental-backend/internal/domain"
)

type policyRequest struct {
	PolicyName string `json:"policy_name" validate:"notblank,max=255"`
	Type       string `json:"type" validate:"required,oneof=damaged lost lated"`
	Amount     int64  `json:"amount" validate:"gte=0,lte=1000000000000"`
}

func (req policyRequest) toDomain(id int32) *domain.PenaltyPolicy {
	return &domain.PenaltyPolicy{
		ID:         id,
		PolicyName: req.PolicyName,
		Type:       domain.PolicyType(req.Type),
		Amount:     req.Amount,
	}
}

func (h *Handlers) ListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.policySvc.ListPolicies(r.Context(), domain.PolicyType(r.URL.Query().Get("type")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"policies": policies})
}

func (h *Handlers) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req policyRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p := req.toDomain(0)
	if err := h.policySvc.CreatePolicy(r.Context(), p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handlers) GetPolicy(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.policySvc.GetPolicy(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req policyRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p := req.toDomain(id)
	if err := h.policySvc.UpdatePolicy(r.Context(), p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
