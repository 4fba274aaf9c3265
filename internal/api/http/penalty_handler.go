package http

import (
	"net/http"

	"iotkit-rental-backend/internal/domain"
)

type penaltyResponse struct {
	Penalty *domain.Penalty        `json:"penalty"`
	Details []domain.PenaltyDetail `json:"details"`
}

func (h *Handlers) ListUnresolvedPenalties(w http.ResponseWriter, r *http.Request) {
	penalties, err := h.penaltySvc.GetUnresolved(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"penalties": penalties})
}

func (h *Handlers) ListMyPenalties(w http.ResponseWriter, r *http.Request) {
	caller, _ := callerFromContext(r.Context())
	penalties, err := h.penaltySvc.GetPenaltiesByAccount(r.Context(), caller.AccountID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"penalties": penalties})
}

func (h *Handlers) GetPenalty(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	caller, _ := callerFromContext(r.Context())

	p, details, err := h.penaltySvc.GetPenalty(r.Context(), caller, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if details == nil {
		details = []domain.PenaltyDetail{}
	}
	writeJSON(w, http.StatusOK, penaltyResponse{Penalty: p, Details: details})
}

func (h *Handlers) PayPenalty(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	caller, _ := callerFromContext(r.Context())

	p, err := h.penaltySvc.ConfirmPenaltyPayment(r.Context(), caller.AccountID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"penalty": p})
}
