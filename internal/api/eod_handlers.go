package api

import (
	"errors"
	"net/http"

	"github.com/trms/treasury-mock/internal/domain"
)

// Dates arrive as YYYY-MM-DD, so the request bodies are decoded here and
// converted to the service requests.
type proposeFixingsBody struct {
	InstrumentIDs []string `json:"instrumentIds"`
	FixingDate    string   `json:"fixingDate"`
	IndexName     string   `json:"indexName"`
	Source        string   `json:"source"`
	AutoApprove   bool     `json:"autoApprove"`
}

type deliveryBody struct {
	Venue        string   `json:"venue"`
	Provider     string   `json:"provider"`
	Expected     int      `json:"expected"`
	Received     int      `json:"received"`
	MissingItems []string `json:"missingItems"`
}

type runEODBody struct {
	BusinessDate   string `json:"businessDate"`
	ForceRun       bool   `json:"forceRun"`
	SkipValidation bool   `json:"skipValidation"`
	InitiatedBy    string `json:"initiatedBy"`
}

func (h *Handlers) CheckReadiness(w http.ResponseWriter, r *http.Request) {
	res, err := h.eod.CheckReadiness()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) MarketDataStatus(w http.ResponseWriter, r *http.Request) {
	md, err := h.eod.MarketDataStatus()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if md == nil {
		writeError(w, http.StatusNotFound, "no market data feeds configured")
		return
	}
	writeJSON(w, http.StatusOK, md)
}

// RecordDelivery stores a venue's latest delivery, stamped on receipt.
func (h *Handlers) RecordDelivery(w http.ResponseWriter, r *http.Request) {
	var body deliveryBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	feed, err := h.eod.RecordDelivery(domain.FeedStatus{
		Venue:        body.Venue,
		Provider:     body.Provider,
		Expected:     body.Expected,
		Received:     body.Received,
		MissingItems: body.MissingItems,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

func (h *Handlers) RefreshMarketData(w http.ResponseWriter, r *http.Request) {
	md, err := h.eod.RefreshMarketData()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if md == nil {
		writeError(w, http.StatusNotFound, "no market data feeds configured")
		return
	}
	writeJSON(w, http.StatusOK, md)
}

func (h *Handlers) TransactionStatus(w http.ResponseWriter, r *http.Request) {
	ts, err := h.eod.TransactionStatus()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

func (h *Handlers) MissingResets(w http.ResponseWriter, r *http.Request) {
	resets, err := h.eod.MissingResets()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resets)
}

func (h *Handlers) ProposeFixings(w http.ResponseWriter, r *http.Request) {
	var body proposeFixingsBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	fixingDate, err := parseDate("fixingDate", body.FixingDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resets, err := h.eod.ProposeFixings(domain.ProposeFixingsRequest{
		InstrumentIDs: body.InstrumentIDs,
		FixingDate:    fixingDate,
		IndexName:     body.IndexName,
		Source:        body.Source,
		AutoApprove:   body.AutoApprove,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resets)
}

func (h *Handlers) RunEOD(w http.ResponseWriter, r *http.Request) {
	var body runEODBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	businessDate, err := parseDate("businessDate", body.BusinessDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.eod.RunEOD(domain.EODRunRequest{
		BusinessDate:   businessDate,
		ForceRun:       body.ForceRun,
		SkipValidation: body.SkipValidation,
		InitiatedBy:    body.InitiatedBy,
	})
	if errors.Is(err, domain.ErrConflict) && res != nil {
		writeJSON(w, http.StatusUnprocessableEntity, res)
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
