package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/brianbrunner/just2guys/brackets"
	"github.com/brianbrunner/just2guys/models"
	"github.com/brianbrunner/just2guys/repositories"
	"github.com/brianbrunner/just2guys/standings"
)

type BracketView struct {
	LeagueKey string           `json:"league_key"`
	Rounds    []brackets.Round `json:"rounds"`
	Champion  string           `json:"champion,omitempty"`
}

type TeamSummary struct {
	Team     *models.Team      `json:"team"`
	Standing *models.Standing  `json:"standing,omitempty"`
	Matchups []*models.Matchup `json:"matchups"`
}

type MatchupRoster struct {
	Matchup *models.Matchup      `json:"matchup"`
	TeamA   []*models.RosterSlot `json:"team_a"`
	TeamB   []*models.RosterSlot `json:"team_b,omitempty"`
}

type LeagueService interface {
	ListLeagues(ctx context.Context) ([]*models.League, error)
	GetLeague(ctx context.Context, leagueKey string) (*models.League, error)
	// Standings ranks the league's teams. A non-empty division limits the
	// table to that division.
	Standings(ctx context.Context, leagueKey, division string) ([]models.Standing, error)
	Bracket(ctx context.Context, leagueKey string) (*BracketView, error)
	TeamSummary(ctx context.Context, teamKey string) (*TeamSummary, error)
	MatchupRoster(ctx context.Context, matchupID string) (*MatchupRoster, error)
}

type leagueService struct {
	leagueRepo  repositories.LeagueRepository
	teamRepo    repositories.TeamRepository
	playerRepo  repositories.PlayerRepository
	matchupRepo repositories.MatchupRepository
	rosterRepo  repositories.RosterSlotRepository
	logger      *slog.Logger
}

func NewLeagueService(
	leagueRepo repositories.LeagueRepository,
	teamRepo repositories.TeamRepository,
	playerRepo repositories.PlayerRepository,
	matchupRepo repositories.MatchupRepository,
	rosterRepo repositories.RosterSlotRepository,
	logger *slog.Logger,
) LeagueService {
	return &leagueService{
		leagueRepo:  leagueRepo,
		teamRepo:    teamRepo,
		playerRepo:  playerRepo,
		matchupRepo: matchupRepo,
		rosterRepo:  rosterRepo,
		logger:      logger,
	}
}

func (s *leagueService) ListLeagues(ctx context.Context) ([]*models.League, error) {
	leagues, err := s.leagueRepo.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	return leagues, nil
}

func (s *leagueService) GetLeague(ctx context.Context, leagueKey string) (*models.League, error) {
	league, err := s.leagueRepo.GetByKey(ctx, nil, leagueKey)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	league.Teams, err = s.teamRepo.ListByLeague(ctx, nil, leagueKey)
	if err != nil {
		return nil, err
	}
	return league, nil
}

func (s *leagueService) Standings(ctx context.Context, leagueKey, division string) ([]models.Standing, error) {
	if division != "" && division != models.DivisionA && division != models.DivisionB {
		return nil, ErrInvalidDivision
	}
	if _, err := s.leagueRepo.GetByKey(ctx, nil, leagueKey); err != nil {
		return nil, handleRepositoryError(err)
	}
	teams, err := s.teamRepo.ListByLeague(ctx, nil, leagueKey)
	if err != nil {
		return nil, err
	}
	matchups, err := s.matchupRepo.ListByLeague(ctx, nil, leagueKey, 1, models.RegularSeasonWeeks)
	if err != nil {
		return nil, err
	}
	if division != "" {
		return standings.ComputeDivision(teams, matchups, division), nil
	}
	return standings.Compute(teams, matchups), nil
}

func (s *leagueService) Bracket(ctx context.Context, leagueKey string) (*BracketView, error) {
	if _, err := s.leagueRepo.GetByKey(ctx, nil, leagueKey); err != nil {
		return nil, handleRepositoryError(err)
	}
	matchups, err := s.matchupRepo.ListByLeague(ctx, nil, leagueKey, models.FirstPlayoffWeek, models.FinalWeek)
	if err != nil {
		return nil, err
	}
	view := &BracketView{LeagueKey: leagueKey, Rounds: brackets.Rounds(matchups)}
	if champion, ok := brackets.Champion(matchups); ok {
		view.Champion = champion
	}
	return view, nil
}

func (s *leagueService) TeamSummary(ctx context.Context, teamKey string) (*TeamSummary, error) {
	team, err := s.teamRepo.GetByKey(ctx, nil, teamKey)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	teams, err := s.teamRepo.ListByLeague(ctx, nil, team.LeagueKey)
	if err != nil {
		return nil, err
	}
	all, err := s.matchupRepo.ListByLeague(ctx, nil, team.LeagueKey, 1, models.FinalWeek)
	if err != nil {
		return nil, err
	}

	summary := &TeamSummary{Team: team, Matchups: []*models.Matchup{}}
	for _, m := range all {
		if m.HasTeam(teamKey) {
			summary.Matchups = append(summary.Matchups, m)
		}
	}
	for _, row := range standings.Compute(teams, all) {
		if row.TeamKey == teamKey {
			row := row
			summary.Standing = &row
			break
		}
	}
	return summary, nil
}

func (s *leagueService) MatchupRoster(ctx context.Context, matchupID string) (*MatchupRoster, error) {
	matchup, err := s.matchupRepo.GetByID(ctx, nil, matchupID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	slots, err := s.rosterRepo.ListByMatchup(ctx, nil, matchupID)
	if err != nil {
		return nil, err
	}

	players := make(map[string]*models.Player)
	roster := &MatchupRoster{Matchup: matchup, TeamA: []*models.RosterSlot{}}
	for _, slot := range slots {
		p, ok := players[slot.PlayerKey]
		if !ok {
			p, err = s.playerRepo.GetByKey(ctx, nil, slot.PlayerKey)
			if err != nil && !errors.Is(err, repositories.ErrPlayerNotFound) {
				return nil, fmt.Errorf("failed to load player %s: %w", slot.PlayerKey, err)
			}
			players[slot.PlayerKey] = p
		}
		slot.Player = p

		switch {
		case slot.TeamKey == matchup.TeamAKey:
			roster.TeamA = append(roster.TeamA, slot)
		case matchup.TeamBKey != nil && slot.TeamKey == *matchup.TeamBKey:
			roster.TeamB = append(roster.TeamB, slot)
		default:
			s.logger.Warn("roster slot belongs to neither side",
				slog.String("matchup_id", matchupID),
				slog.String("team_key", slot.TeamKey),
			)
		}
	}
	models.SortRosterSlots(roster.TeamA)
	models.SortRosterSlots(roster.TeamB)
	return roster, nil
}
