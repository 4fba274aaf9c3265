package http

import (
	"context"
	"net/http"

	"iotkit-rental-backend/internal/security"
	"iotkit-rental-backend/internal/service"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// Pinger reports whether a dependency is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handlers serves the JSON API on top of the services.
type Handlers struct {
	settlementSvc   service.SettlementService
	penaltySvc      service.PenaltyService
	policySvc       service.PolicyService
	refundSvc       service.RefundService
	notificationSvc service.NotificationService
	walletSvc       service.WalletService
	db              Pinger

	validate   *validator.Validate
	translator ut.Translator
}

type Services struct {
	Settlement   service.SettlementService
	Penalty      service.PenaltyService
	Policy       service.PolicyService
	Refund       service.RefundService
	Notification service.NotificationService
	Wallet       service.WalletService
}

func NewHandlers(svcs Services, db Pinger) *Handlers {
	validate, translator := newValidator()
	return &Handlers{
		settlementSvc:   svcs.Settlement,
		penaltySvc:      svcs.Penalty,
		policySvc:       svcs.Policy,
		refundSvc:       svcs.Refund,
		notificationSvc: svcs.Notification,
		walletSvc:       svcs.Wallet,
		db:              db,
		validate:        validate,
		translator:      translator,
	}
}

// NewRouter registers every route with its full path so the auth middleware
// can look templates up in config.EndpointSecurityConfig.
func NewRouter(h *Handlers, tm security.TokenManager) *mux.Router {
	r := mux.NewRouter()
	r.Use(LoggingMiddleware, AuthMiddleware(tm))

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	r.HandleFunc("/api/v1/returns/settle", h.SettleReturn).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/returns/assess", h.AssessReturn).Methods(http.MethodPost)

	r.HandleFunc("/api/v1/penalties/unresolved", h.ListUnresolvedPenalties).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/penalties/mine", h.ListMyPenalties).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/penalties/{id}", h.GetPenalty).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/penalties/{id}/pay", h.PayPenalty).Methods(http.MethodPost)

	r.HandleFunc("/api/v1/penalty-policies", h.ListPolicies).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/penalty-policies", h.CreatePolicy).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/penalty-policies/{id}", h.GetPolicy).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/penalty-policies/{id}", h.UpdatePolicy).Methods(http.MethodPut)

	r.HandleFunc("/api/v1/refunds", h.ListRefunds).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/refunds/{id}/preview", h.PreviewRefund).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/refunds/{id}/approve", h.ApproveRefund).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/refunds/{id}/reject", h.RejectRefund).Methods(http.MethodPost)

	r.HandleFunc("/api/v1/notifications", h.ListNotifications).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/notifications/{id}/read", h.MarkNotificationRead).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/wallet", h.GetWallet).Methods(http.MethodGet)

	return r
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
