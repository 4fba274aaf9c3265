package http

import (
	"net/http"

	"iotkit-rental-backend/internal/domain"
	"iotkit-rental-backend/internal/service"
)

type componentInput struct {
	Name        string `json:"name" validate:"notblank,max=255"`
	Damaged     bool   `json:"damaged"`
	DamageValue int64  `json:"damage_value" validate:"gte=0,lte=1000000000000"`
}

type settleReturnRequest struct {
	BorrowRequestID           int32            `json:"borrow_request_id" validate:"required,gt=0"`
	Components                []componentInput `json:"components" validate:"dive"`
	PolicyIDs                 []int32          `json:"policy_ids" validate:"dive,gt=0"`
	IncludeRemainingRentalFee bool             `json:"include_remaining_rental_fee"`
	Note                      string           `json:"note" validate:"max=1000"`
}

func (req settleReturnRequest) toInput(inspector, idempotencyKey string) service.SettleReturnInput {
	components := make([]domain.Component, 0, len(req.Components))
	for _, c := range req.Components {
		components = append(components, domain.Component{
			Name:        c.Name,
			Damaged:     c.Damaged,
			DamageValue: c.DamageValue,
		})
	}
	return service.SettleReturnInput{
		BorrowRequestID:           req.BorrowRequestID,
		InspectorEmail:            inspector,
		Components:                components,
		PolicyIDs:                 req.PolicyIDs,
		IncludeRemainingRentalFee: req.IncludeRemainingRentalFee,
		Note:                      req.Note,
		IdempotencyKey:            idempotencyKey,
	}
}

func (h *Handlers) SettleReturn(w http.ResponseWriter, r *http.Request) {
	caller, _ := callerFromContext(r.Context())

	var req settleReturnRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.settlementSvc.SettleReturn(r.Context(), req.toInput(caller.Email, r.Header.Get("Idempotency-Key")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) AssessReturn(w http.ResponseWriter, r *http.Request) {
	caller, _ := callerFromContext(r.Context())

	var req settleReturnRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	preview, err := h.settlementSvc.AssessReturn(r.Context(), req.toInput(caller.Email, ""))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}
