package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trms/treasury-mock/internal/domain"
)

func (h *Handlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req domain.SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.messaging.SendMessage(req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *Handlers) ListMessages(w http.ResponseWriter, r *http.Request) {
	var msgs []domain.SwiftMessage
	var err error
	if status := r.URL.Query().Get("status"); status != "" {
		msgs, err = h.messaging.ListByStatus(status)
	} else {
		msgs, err = h.messaging.ListMessages()
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (h *Handlers) ListUnreconciled(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.messaging.ListUnreconciled()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (h *Handlers) ListMessagesByAccount(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.messaging.ListByAccount(chi.URLParam(r, "accountId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (h *Handlers) ListMessagesByTransaction(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.messaging.ListByTransaction(chi.URLParam(r, "transactionId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (h *Handlers) GetMessage(w http.ResponseWriter, r *http.Request) {
	msg, err := h.messaging.GetMessage(chi.URLParam(r, "messageId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (h *Handlers) GetMessageStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.messaging.GetMessageStatus(chi.URLParam(r, "messageId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *Handlers) ListConfirmations(w http.ResponseWriter, r *http.Request) {
	confs, err := h.messaging.Confirmations(chi.URLParam(r, "messageId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, confs)
}

func (h *Handlers) ConfirmMessage(w http.ResponseWriter, r *http.Request) {
	msg, err := h.messaging.ConfirmMessage(chi.URLParam(r, "messageId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (h *Handlers) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req domain.ReconciliationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.messaging.Reconcile(req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) LatestReconciliation(w http.ResponseWriter, r *http.Request) {
	run, err := h.messaging.LatestReconciliation()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *Handlers) ListSettlements(w http.ResponseWriter, r *http.Request) {
	settlements, err := h.messaging.ListSettlements(chi.URLParam(r, "accountId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settlements)
}

func (h *Handlers) ProcessRedemptionReport(w http.ResponseWriter, r *http.Request) {
	fileName := r.URL.Query().Get("fileName")
	if fileName == "" {
		writeError(w, http.StatusBadRequest, "fileName is required")
		return
	}

	res, err := h.messaging.ProcessRedemptionReport(fileName)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) VerifyEODReports(w http.ResponseWriter, r *http.Request) {
	res, err := h.messaging.VerifyEODReports(r.URL.Query().Get("reportDate"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
