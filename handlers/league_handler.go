package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/brianbrunner/just2guys/services"
	"github.com/go-chi/chi/v5"
)

type LeagueHandler struct {
	leagueService services.LeagueService
}

func NewLeagueHandler(ls services.LeagueService) *LeagueHandler {
	return &LeagueHandler{leagueService: ls}
}

func urlParam(r *http.Request, name string) (string, error) {
	v := strings.TrimSpace(chi.URLParam(r, name))
	if v == "" {
		return "", errors.New("missing " + name + " in URL")
	}
	return v, nil
}

func (h *LeagueHandler) ListLeagues(w http.ResponseWriter, r *http.Request) {
	leagues, err := h.leagueService.ListLeagues(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	err = writeJSON(w, http.StatusOK, jsonResponse{"leagues": leagues}, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeagueHandler) GetLeague(w http.ResponseWriter, r *http.Request) {
	leagueKey, err := urlParam(r, "leagueKey")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	league, err := h.leagueService.GetLeague(r.Context(), leagueKey)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	err = writeJSON(w, http.StatusOK, jsonResponse{"league": league}, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetStandings returns the league table, optionally limited by ?division=.
func (h *LeagueHandler) GetStandings(w http.ResponseWriter, r *http.Request) {
	leagueKey, err := urlParam(r, "leagueKey")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	division := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("division")))

	rows, err := h.leagueService.Standings(r.Context(), leagueKey, division)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"league_key": leagueKey,
		"standings":  rows,
	}
	if division != "" {
		response["division"] = division
	}
	err = writeJSON(w, http.StatusOK, response, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeagueHandler) GetBracket(w http.ResponseWriter, r *http.Request) {
	leagueKey, err := urlParam(r, "leagueKey")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.leagueService.Bracket(r.Context(), leagueKey)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	err = writeJSON(w, http.StatusOK, jsonResponse{"bracket": view}, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeagueHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	teamKey, err := urlParam(r, "teamKey")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	summary, err := h.leagueService.TeamSummary(r.Context(), teamKey)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	err = writeJSON(w, http.StatusOK, jsonResponse{"team": summary}, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeagueHandler) GetMatchupRoster(w http.ResponseWriter, r *http.Request) {
	matchupID, err := urlParam(r, "matchupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	roster, err := h.leagueService.MatchupRoster(r.Context(), matchupID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	err = writeJSON(w, http.StatusOK, jsonResponse{"roster": roster}, nil)
	if err != nil {
		serverErrorResponse(w, r, err)
	}
}
