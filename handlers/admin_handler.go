package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/brianbrunner/just2guys/middleware"
	"github.com/brianbrunner/just2guys/services"
)

type AdminHandler struct {
	adminService   services.AdminService
	bracketService services.BracketService
}

func NewAdminHandler(as services.AdminService, bs services.BracketService) *AdminHandler {
	return &AdminHandler{adminService: as, bracketService: bs}
}

type mergeManagersInput struct {
	Keep  string `json:"keep"`
	Merge string `json:"merge"`
}

func (h *AdminHandler) MergeManagers(w http.ResponseWriter, r *http.Request) {
	var input mergeManagersInput
	err := readJSON(w, r, &input)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	input.Keep, input.Merge = strings.TrimSpace(input.Keep), strings.TrimSpace(input.Merge)
	if input.Keep == "" || input.Merge == "" {
		badRequestResponse(w, r, errors.New("keep and merge are required"))
		return
	}

	result, err := h.adminService.MergeManagers(r.Context(), input.Keep, input.Merge)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	err = writeJSON(w, http.StatusOK, jsonResponse{"merge": result}, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) AdvanceLeague(w http.ResponseWriter, r *http.Request) {
	leagueKey, err := urlParam(r, "leagueKey")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.bracketService.AdvanceLeague(r.Context(), leagueKey)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	err = writeJSON(w, http.StatusOK, jsonResponse{"result": result}, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) ResetPlayoffs(w http.ResponseWriter, r *http.Request) {
	leagueKey, err := urlParam(r, "leagueKey")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if _, err := middleware.GetUserRoleFromContext(r.Context()); err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	decoupled, err := h.bracketService.ResetPlayoffs(r.Context(), leagueKey)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"league_key": leagueKey,
		"decoupled":  decoupled,
	}
	err = writeJSON(w, http.StatusOK, response, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}
