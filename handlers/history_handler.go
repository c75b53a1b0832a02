package handlers

import (
	"net/http"

	"github.com/brianbrunner/just2guys/services"
)

type HistoryHandler struct {
	historyService services.HistoryService
}

func NewHistoryHandler(hs services.HistoryService) *HistoryHandler {
	return &HistoryHandler{historyService: hs}
}

func (h *HistoryHandler) ListRivalries(w http.ResponseWriter, r *http.Request) {
	rivalries, err := h.historyService.Rivalries(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	err = writeJSON(w, http.StatusOK, jsonResponse{"rivalries": rivalries}, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *HistoryHandler) GetManagerRivalries(w http.ResponseWriter, r *http.Request) {
	managerKey, err := urlParam(r, "managerKey")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	rivalries, err := h.historyService.ManagerRivalries(r.Context(), managerKey)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"manager_key": managerKey,
		"rivalries":   rivalries,
	}
	err = writeJSON(w, http.StatusOK, response, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *HistoryHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	tables, err := h.historyService.Records(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	err = writeJSON(w, http.StatusOK, jsonResponse{"records": tables}, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}
