package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/trms/treasury-mock/internal/eod"
	"github.com/trms/treasury-mock/internal/messaging"
	"github.com/trms/treasury-mock/internal/treasury"
)

// NewRouter creates the Chi router with all API routes mounted.
func NewRouter(
	messagingSvc *messaging.Service,
	treasurySvc *treasury.Service,
	eodSvc *eod.Service,
) http.Handler {
	h := &Handlers{
		messaging: messagingSvc,
		treasury:  treasurySvc,
		eod:       eodSvc,
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		// SWIFT messaging.
		r.Route("/swift", func(r chi.Router) {
			r.Post("/messages", h.SendMessage)
			r.Get("/messages", h.ListMessages)
			r.Get("/messages/unreconciled", h.ListUnreconciled)
			r.Get("/messages/account/{accountId}", h.ListMessagesByAccount)
			r.Get("/messages/transaction/{transactionId}", h.ListMessagesByTransaction)
			r.Post("/messages/reconcile", h.Reconcile)
			r.Get("/messages/{messageId}", h.GetMessage)
			r.Get("/messages/{messageId}/status", h.GetMessageStatus)
			r.Post("/messages/{messageId}/confirm", h.ConfirmMessage)
			r.Get("/messages/{messageId}/confirmations", h.ListConfirmations)

			r.Get("/reconciliations/latest", h.LatestReconciliation)
			r.Get("/settlements/account/{accountId}", h.ListSettlements)

			r.Post("/reports/redemptions/process", h.ProcessRedemptionReport)
			r.Get("/reports/eod/verify", h.VerifyEODReports)
		})

		// Treasury accounts and transactions.
		r.Get("/accounts", h.ListAccounts)
		r.Get("/accounts/{id}", h.GetAccount)
		r.Get("/accounts/{id}/balance", h.GetBalance)
		r.Get("/transactions", h.ListTransactions)
		r.Post("/transactions", h.CreateTransaction)
		r.Get("/transactions/{id}", h.GetTransaction)

		// End of day.
		r.Route("/eod", func(r chi.Router) {
			r.Get("/readiness", h.CheckReadiness)
			r.Get("/market-data-status", h.MarketDataStatus)
			r.Post("/market-data", h.RecordDelivery)
			r.Post("/market-data/refresh", h.RefreshMarketData)
			r.Get("/transaction-status", h.TransactionStatus)
			r.Get("/missing-resets", h.MissingResets)
			r.Post("/propose-fixings", h.ProposeFixings)
			r.Post("/run", h.RunEOD)
		})
	})

	return r
}
