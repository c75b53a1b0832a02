package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/brianbrunner/just2guys/config"
	"github.com/brianbrunner/just2guys/ingest"
	"github.com/brianbrunner/just2guys/models"
	"github.com/brianbrunner/just2guys/repositories"
)

type ImportResult struct {
	Leagues        int `json:"leagues"`
	Teams          int `json:"teams"`
	Matchups       int `json:"matchups"`
	PlayoffSides   int `json:"playoff_sides"`
	RosterSlots    int `json:"roster_slots"`
	ManagersMerged int `json:"managers_merged"`
}

type IngestService interface {
	// Import upserts a snapshot in one transaction. Playoff weeks are stored
	// side by side: an existing matchup holding the team is updated, and a
	// placeholder is created otherwise.
	Import(ctx context.Context, snap *ingest.Snapshot) (*ImportResult, error)
}

type ingestService struct {
	db          *sql.DB
	leagueRepo  repositories.LeagueRepository
	teamRepo    repositories.TeamRepository
	managerRepo repositories.ManagerRepository
	playerRepo  repositories.PlayerRepository
	matchupRepo repositories.MatchupRepository
	rosterRepo  repositories.RosterSlotRepository
	merges      []config.ManagerMerge
	pipeline    *Pipeline
	logger      *slog.Logger
}

func NewIngestService(
	db *sql.DB,
	leagueRepo repositories.LeagueRepository,
	teamRepo repositories.TeamRepository,
	managerRepo repositories.ManagerRepository,
	playerRepo repositories.PlayerRepository,
	matchupRepo repositories.MatchupRepository,
	rosterRepo repositories.RosterSlotRepository,
	merges []config.ManagerMerge,
	pipeline *Pipeline,
	logger *slog.Logger,
) IngestService {
	return &ingestService{
		db:          db,
		leagueRepo:  leagueRepo,
		teamRepo:    teamRepo,
		managerRepo: managerRepo,
		playerRepo:  playerRepo,
		matchupRepo: matchupRepo,
		rosterRepo:  rosterRepo,
		merges:      merges,
		pipeline:    pipeline,
		logger:      logger,
	}
}

func (s *ingestService) Import(ctx context.Context, snap *ingest.Snapshot) (*ImportResult, error) {
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	result := &ImportResult{}
	err := s.pipeline.Do(ctx, "import", func(ctx context.Context) error {
		return withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
			return s.importTx(ctx, tx, snap, result)
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("snapshot imported",
		slog.Int("leagues", result.Leagues),
		slog.Int("teams", result.Teams),
		slog.Int("matchups", result.Matchups),
		slog.Int("playoff_sides", result.PlayoffSides),
		slog.Int("roster_slots", result.RosterSlots),
		slog.Int("managers_merged", result.ManagersMerged),
	)
	return result, nil
}

func (s *ingestService) importTx(ctx context.Context, tx *sql.Tx, snap *ingest.Snapshot, result *ImportResult) error {
	for _, p := range snap.Players {
		player := &models.Player{
			Key:             p.Key,
			Name:            p.Name,
			DisplayPosition: p.DisplayPosition,
			PositionType:    p.PositionType,
			ImageURL:        p.ImageURL,
		}
		if err := s.playerRepo.Upsert(ctx, tx, player); err != nil {
			return err
		}
	}

	for _, l := range snap.Leagues {
		if err := s.importLeague(ctx, tx, l, result); err != nil {
			return fmt.Errorf("league %s: %w", l.Key, err)
		}
		result.Leagues++
	}

	for _, m := range s.merges {
		merged, err := mergeManagers(ctx, tx, s.managerRepo, m.Keep, m.Merge)
		if err != nil {
			if errors.Is(err, ErrManagerNotFound) {
				s.logger.Warn("manager merge skipped, keep manager unknown", slog.String("keep", m.Keep))
				continue
			}
			return fmt.Errorf("merge %s into %s: %w", m.Merge, m.Keep, err)
		}
		if merged.Removed {
			result.ManagersMerged++
		}
	}
	return nil
}

func (s *ingestService) importLeague(ctx context.Context, tx *sql.Tx, l ingest.League, result *ImportResult) error {
	league := &models.League{
		Key:           l.Key,
		Name:          l.Name,
		Season:        l.Season,
		CurrentWeek:   l.CurrentWeek,
		IsFinished:    l.IsFinished,
		IsMultiLeague: l.IsMultiLeague,
	}
	if err := s.leagueRepo.Upsert(ctx, tx, league); err != nil {
		return err
	}

	names := make(map[string]string, len(l.Teams))
	for _, t := range l.Teams {
		team := &models.Team{Key: t.Key, LeagueKey: l.Key, Name: t.Name, Logo: t.Logo, Division: t.Division}
		if err := s.teamRepo.Upsert(ctx, tx, team); err != nil {
			return err
		}
		names[t.Key] = t.Name
		for _, m := range t.Managers {
			if err := s.managerRepo.Upsert(ctx, tx, &models.Manager{Key: m.Key, Nickname: m.Nickname}); err != nil {
				return err
			}
			if err := s.teamRepo.AddManager(ctx, tx, t.Key, m.Key); err != nil {
				return err
			}
		}
		for _, pk := range t.Players {
			if err := s.teamRepo.AddPlayer(ctx, tx, t.Key, pk); err != nil {
				return err
			}
		}
		result.Teams++
	}

	for _, m := range l.Matchups {
		if m.Week >= models.FirstPlayoffWeek {
			for _, side := range m.Sides {
				if err := s.importPlayoffSide(ctx, tx, l.Key, m.Week, side, result); err != nil {
					return err
				}
			}
			continue
		}
		if err := s.importMatchup(ctx, tx, l.Key, m, names, result); err != nil {
			return err
		}
	}
	return nil
}

// importMatchup stores a regular-season matchup, team A being the side
// whose team name sorts first.
func (s *ingestService) importMatchup(ctx context.Context, tx *sql.Tx, leagueKey string, m ingest.Matchup, names map[string]string, result *ImportResult) error {
	sides := append([]ingest.Side(nil), m.Sides...)
	sort.SliceStable(sides, func(i, j int) bool {
		ni, nj := names[sides[i].TeamKey], names[sides[j].TeamKey]
		if ni != nj {
			return ni < nj
		}
		return sides[i].TeamKey < sides[j].TeamKey
	})
	a, b := sides[0], sides[1]
	teamB := b.TeamKey

	matchup := &models.Matchup{
		LeagueKey:            leagueKey,
		Week:                 m.Week,
		TeamAKey:             a.TeamKey,
		TeamAPoints:          a.Points,
		TeamAProjectedPoints: a.ProjectedPoints,
		TeamBKey:             &teamB,
		TeamBPoints:          b.Points,
		TeamBProjectedPoints: b.ProjectedPoints,
		IsPlayoffs:           m.IsPlayoffs,
		IsConsolation:        m.IsConsolation,
		WinnerTeamKey:        m.WinnerTeamKey,
	}
	if err := s.matchupRepo.Upsert(ctx, tx, matchup); err != nil {
		return err
	}
	result.Matchups++

	for _, side := range sides {
		if err := s.replaceRoster(ctx, tx, matchup.ID, m.Week, side, result); err != nil {
			return err
		}
	}
	return nil
}

func (s *ingestService) importPlayoffSide(ctx context.Context, tx *sql.Tx, leagueKey string, week int, side ingest.Side, result *ImportResult) error {
	existing, err := s.matchupRepo.FindByTeamWeek(ctx, tx, leagueKey, week, side.TeamKey)
	switch {
	case errors.Is(err, repositories.ErrMatchupNotFound):
		existing = &models.Matchup{
			LeagueKey:            leagueKey,
			Week:                 week,
			TeamAKey:             side.TeamKey,
			TeamAPoints:          side.Points,
			TeamAProjectedPoints: side.ProjectedPoints,
		}
		if err := s.matchupRepo.Create(ctx, tx, existing); err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		if existing.TeamAKey == side.TeamKey {
			existing.TeamAPoints = side.Points
			existing.TeamAProjectedPoints = side.ProjectedPoints
		} else {
			existing.TeamBPoints = side.Points
			existing.TeamBProjectedPoints = side.ProjectedPoints
		}
		if err := s.matchupRepo.UpdateSides(ctx, tx, existing); err != nil {
			return err
		}
	}
	result.PlayoffSides++
	return s.replaceRoster(ctx, tx, existing.ID, week, side, result)
}

func (s *ingestService) replaceRoster(ctx context.Context, tx *sql.Tx, matchupID string, week int, side ingest.Side, result *ImportResult) error {
	if len(side.Roster) == 0 {
		return nil
	}
	slots := make([]*models.RosterSlot, 0, len(side.Roster))
	for _, r := range side.Roster {
		slots = append(slots, &models.RosterSlot{
			Week:      week,
			PlayerKey: r.PlayerKey,
			Points:    r.Points,
			Position:  r.Position,
		})
	}
	if err := s.rosterRepo.ReplaceForTeam(ctx, tx, matchupID, side.TeamKey, slots); err != nil {
		return err
	}
	result.RosterSlots += len(slots)
	return nil
}
