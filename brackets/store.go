package brackets

import (
	"context"

	"github.com/brianbrunner/just2guys/models"
)

// Store is the persistence the builder needs. Implementations are expected
// to run every call of one Advance inside a single transaction.
type Store interface {
	GetLeague(ctx context.Context, leagueKey string) (*models.League, error)
	ListTeams(ctx context.Context, leagueKey string) ([]*models.Team, error)
	// ListMatchups returns matchups with fromWeek <= week <= toWeek.
	ListMatchups(ctx context.Context, leagueKey string, fromWeek, toWeek int) ([]*models.Matchup, error)
	ListRosterSlots(ctx context.Context, matchupID string) ([]*models.RosterSlot, error)

	MergeMatchups(ctx context.Context, a, b *models.Matchup) (*models.Matchup, error)
	DecoupleMatchup(ctx context.Context, m *models.Matchup) (*models.Matchup, *models.Matchup, error)
	UpdateBracketInfo(ctx context.Context, matchupID string, info models.BracketInfo) error
	UpdateScore(ctx context.Context, matchupID string, teamAPoints, teamBPoints float64) error
	SetWinner(ctx context.Context, matchupID string, winnerTeamKey *string) error
	SetPlayoffSeed(ctx context.Context, teamKey string, seed *int) error
}
