package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/brianbrunner/just2guys/brackets"
	"github.com/brianbrunner/just2guys/models"
	"github.com/brianbrunner/just2guys/repositories"
)

// BracketPublisher receives bracket change notifications after commit.
type BracketPublisher interface {
	PublishLeague(leagueKey, messageType string, payload interface{})
}

type BracketService interface {
	AdvanceLeague(ctx context.Context, leagueKey string) (*brackets.Result, error)
	// AdvanceAll advances every league that has reached the playoffs.
	AdvanceAll(ctx context.Context) ([]*brackets.Result, error)
	ResetPlayoffs(ctx context.Context, leagueKey string) (int, error)
}

type bracketService struct {
	db          *sql.DB
	leagueRepo  repositories.LeagueRepository
	teamRepo    repositories.TeamRepository
	matchupRepo repositories.MatchupRepository
	rosterRepo  repositories.RosterSlotRepository
	builder     *brackets.Builder
	publisher   BracketPublisher
	pipeline    *Pipeline
	logger      *slog.Logger
}

func NewBracketService(
	db *sql.DB,
	leagueRepo repositories.LeagueRepository,
	teamRepo repositories.TeamRepository,
	matchupRepo repositories.MatchupRepository,
	rosterRepo repositories.RosterSlotRepository,
	publisher BracketPublisher,
	pipeline *Pipeline,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		db:          db,
		leagueRepo:  leagueRepo,
		teamRepo:    teamRepo,
		matchupRepo: matchupRepo,
		rosterRepo:  rosterRepo,
		builder:     brackets.NewBuilder(logger),
		publisher:   publisher,
		pipeline:    pipeline,
		logger:      logger,
	}
}

func (s *bracketService) AdvanceLeague(ctx context.Context, leagueKey string) (*brackets.Result, error) {
	var result *brackets.Result
	err := s.pipeline.Do(ctx, "advance", func(ctx context.Context) error {
		var err error
		result, err = s.advance(ctx, leagueKey)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *bracketService) AdvanceAll(ctx context.Context) ([]*brackets.Result, error) {
	var results []*brackets.Result
	err := s.pipeline.Do(ctx, "advance-all", func(ctx context.Context) error {
		leagues, err := s.leagueRepo.List(ctx, nil)
		if err != nil {
			return err
		}
		var errs []error
		for _, l := range leagues {
			if !l.InPlayoffs() {
				continue
			}
			res, err := s.advance(ctx, l.Key)
			if err != nil {
				s.logger.Error("bracket advance failed", slog.String("league", l.Key), slog.Any("error", err))
				errs = append(errs, fmt.Errorf("league %s: %w", l.Key, err))
				continue
			}
			results = append(results, res)
		}
		return errors.Join(errs...)
	})
	return results, err
}

func (s *bracketService) advance(ctx context.Context, leagueKey string) (*brackets.Result, error) {
	var result *brackets.Result
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		var err error
		result, err = s.builder.Advance(ctx, s.store(tx), leagueKey)
		return err
	})
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if result.Changed && s.publisher != nil {
		s.publisher.PublishLeague(leagueKey, brackets.MessageBracketUpdated, result)
	}
	return result, nil
}

func (s *bracketService) ResetPlayoffs(ctx context.Context, leagueKey string) (int, error) {
	decoupled := 0
	err := s.pipeline.Do(ctx, "reset-playoffs", func(ctx context.Context) error {
		if _, err := s.leagueRepo.GetByKey(ctx, nil, leagueKey); err != nil {
			return handleRepositoryError(err)
		}
		return withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
			var err error
			decoupled, err = s.builder.Reset(ctx, s.store(tx), leagueKey)
			return err
		})
	})
	if err != nil {
		return 0, err
	}
	if s.publisher != nil {
		s.publisher.PublishLeague(leagueKey, brackets.MessageBracketReset, map[string]interface{}{
			"league_key": leagueKey,
			"decoupled":  decoupled,
		})
	}
	return decoupled, nil
}

func (s *bracketService) store(tx *sql.Tx) *txBracketStore {
	return &txBracketStore{
		tx:          tx,
		leagueRepo:  s.leagueRepo,
		teamRepo:    s.teamRepo,
		matchupRepo: s.matchupRepo,
		rosterRepo:  s.rosterRepo,
	}
}

// txBracketStore runs every builder call on one transaction.
type txBracketStore struct {
	tx          *sql.Tx
	leagueRepo  repositories.LeagueRepository
	teamRepo    repositories.TeamRepository
	matchupRepo repositories.MatchupRepository
	rosterRepo  repositories.RosterSlotRepository
}

var _ brackets.Store = (*txBracketStore)(nil)

func (s *txBracketStore) GetLeague(ctx context.Context, leagueKey string) (*models.League, error) {
	return s.leagueRepo.GetByKey(ctx, s.tx, leagueKey)
}

func (s *txBracketStore) ListTeams(ctx context.Context, leagueKey string) ([]*models.Team, error) {
	return s.teamRepo.ListByLeague(ctx, s.tx, leagueKey)
}

func (s *txBracketStore) ListMatchups(ctx context.Context, leagueKey string, fromWeek, toWeek int) ([]*models.Matchup, error) {
	return s.matchupRepo.ListByLeague(ctx, s.tx, leagueKey, fromWeek, toWeek)
}

func (s *txBracketStore) ListRosterSlots(ctx context.Context, matchupID string) ([]*models.RosterSlot, error) {
	return s.rosterRepo.ListByMatchup(ctx, s.tx, matchupID)
}

func (s *txBracketStore) MergeMatchups(ctx context.Context, a, b *models.Matchup) (*models.Matchup, error) {
	return s.matchupRepo.Merge(ctx, s.tx, a, b)
}

func (s *txBracketStore) DecoupleMatchup(ctx context.Context, m *models.Matchup) (*models.Matchup, *models.Matchup, error) {
	return s.matchupRepo.Decouple(ctx, s.tx, m)
}

func (s *txBracketStore) UpdateBracketInfo(ctx context.Context, matchupID string, info models.BracketInfo) error {
	return s.matchupRepo.UpdateBracketInfo(ctx, s.tx, matchupID, info)
}

func (s *txBracketStore) UpdateScore(ctx context.Context, matchupID string, teamAPoints, teamBPoints float64) error {
	return s.matchupRepo.UpdateScore(ctx, s.tx, matchupID, teamAPoints, teamBPoints)
}

func (s *txBracketStore) SetWinner(ctx context.Context, matchupID string, winnerTeamKey *string) error {
	return s.matchupRepo.SetWinner(ctx, s.tx, matchupID, winnerTeamKey)
}

func (s *txBracketStore) SetPlayoffSeed(ctx context.Context, teamKey string, seed *int) error {
	return s.teamRepo.SetPlayoffSeed(ctx, s.tx, teamKey, seed)
}
