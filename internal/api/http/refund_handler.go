package http

import (
	"net/http"
	"time"

	"iotkit-rental-backend/internal/domain"
)

// Amount bounds match utils.MaxAmount.
type damageEntryInput struct {
	Damaged int32 `json:"damaged" validate:"gte=0,lte=10000"`
	Value   int64 `json:"value" validate:"gte=0,lte=1000000000000"`
}

type refundAssessmentRequest struct {
	DamageAssessment map[string]damageEntryInput `json:"damage_assessment" validate:"dive,keys,notblank,max=255,endkeys"`
	ReturnDate       *time.Time                  `json:"return_date,omitempty"`
}

func (req refundAssessmentRequest) assessment() map[string]domain.DamageEntry {
	if req.DamageAssessment == nil {
		return nil
	}
	out := make(map[string]domain.DamageEntry, len(req.DamageAssessment))
	for name, e := range req.DamageAssessment {
		out[name] = domain.DamageEntry{Damaged: e.Damaged, Value: e.Value}
	}
	return out
}

type rejectRefundRequest struct {
	Reason string `json:"reason" validate:"notblank,max=1000"`
}

func (h *Handlers) ListRefunds(w http.ResponseWriter, r *http.Request) {
	requests, err := h.refundSvc.ListRefundRequests(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"refund_requests": requests})
}

func (h *Handlers) PreviewRefund(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req refundAssessmentRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	var returnDate time.Time
	if req.ReturnDate != nil {
		returnDate = *req.ReturnDate
	}

	breakdown, err := h.refundSvc.PreviewRefund(r.Context(), id, req.assessment(), returnDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

func (h *Handlers) ApproveRefund(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req refundAssessmentRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	caller, _ := callerFromContext(r.Context())

	outcome, err := h.refundSvc.ApproveRefund(r.Context(), caller.Email, id, req.assessment())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (h *Handlers) RejectRefund(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req rejectRefundRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	caller, _ := callerFromContext(r.Context())

	borrow, err := h.refundSvc.RejectRefund(r.Context(), caller.Email, id, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"borrow_request": borrow})
}
