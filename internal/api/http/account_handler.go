package http

import (
	"net/http"
)

func (h *Handlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt32(r, "page")
	if err != nil {
		writeError(w, r, err)
		return
	}
	pageSize, err := queryInt32(r, "page_size")
	if err != nil {
		writeError(w, r, err)
		return
	}
	caller, _ := callerFromContext(r.Context())

	notes, total, err := h.notificationSvc.GetNotifications(r.Context(), caller.AccountID, page, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notifications": notes, "total": total})
}

func (h *Handlers) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	caller, _ := callerFromContext(r.Context())

	if err := h.notificationSvc.MarkAsRead(r.Context(), caller.AccountID, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) GetWallet(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt32(r, "page")
	if err != nil {
		writeError(w, r, err)
		return
	}
	pageSize, err := queryInt32(r, "page_size")
	if err != nil {
		writeError(w, r, err)
		return
	}
	caller, _ := callerFromContext(r.Context())

	balance, err := h.walletSvc.GetBalance(r.Context(), caller.AccountID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, total, err := h.walletSvc.GetTransactions(r.Context(), caller.AccountID, page, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"balance":      balance,
		"transactions": txs,
		"total":        total,
	})
}
