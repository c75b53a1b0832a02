package services

import (
	"context"
	"fmt"

	"github.com/brianbrunner/just2guys/dataset"
	"github.com/brianbrunner/just2guys/repositories"
	"golang.org/x/sync/errgroup"
)

// SnapshotLoader reads the whole store into a dataset.
type SnapshotLoader struct {
	leagueRepo  repositories.LeagueRepository
	teamRepo    repositories.TeamRepository
	managerRepo repositories.ManagerRepository
	playerRepo  repositories.PlayerRepository
	matchupRepo repositories.MatchupRepository
	rosterRepo  repositories.RosterSlotRepository
}

func NewSnapshotLoader(
	leagueRepo repositories.LeagueRepository,
	teamRepo repositories.TeamRepository,
	managerRepo repositories.ManagerRepository,
	playerRepo repositories.PlayerRepository,
	matchupRepo repositories.MatchupRepository,
	rosterRepo repositories.RosterSlotRepository,
) *SnapshotLoader {
	return &SnapshotLoader{
		leagueRepo:  leagueRepo,
		teamRepo:    teamRepo,
		managerRepo: managerRepo,
		playerRepo:  playerRepo,
		matchupRepo: matchupRepo,
		rosterRepo:  rosterRepo,
	}
}

func (l *SnapshotLoader) Load(ctx context.Context) (*dataset.Dataset, error) {
	var in dataset.Input
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) { in.Leagues, err = l.leagueRepo.List(gctx, nil); return })
	g.Go(func() (err error) { in.Teams, err = l.teamRepo.ListAll(gctx, nil); return })
	g.Go(func() (err error) { in.Managers, err = l.managerRepo.List(gctx, nil); return })
	g.Go(func() (err error) { in.Players, err = l.playerRepo.List(gctx, nil); return })
	g.Go(func() (err error) { in.Matchups, err = l.matchupRepo.ListAll(gctx, nil); return })
	g.Go(func() (err error) { in.Slots, err = l.rosterRepo.ListAll(gctx, nil); return })
	g.Go(func() (err error) { in.TeamManagers, err = l.teamRepo.ListTeamManagers(gctx, nil); return })
	g.Go(func() (err error) { in.TeamPlayers, err = l.teamRepo.ListTeamPlayers(gctx, nil); return })

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return dataset.New(in), nil
}
