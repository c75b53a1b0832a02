package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/brianbrunner/just2guys/models"
	"github.com/google/uuid"
)

var ErrMatchupNotFound = errors.New("matchup not found")

type MatchupRepository interface {
	// Upsert inserts or updates a matchup on its composite key and fills in
	// the row ID.
	Upsert(ctx context.Context, exec SQLExecutor, m *models.Matchup) error
	Create(ctx context.Context, exec SQLExecutor, m *models.Matchup) error
	GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Matchup, error)
	FindByTeamWeek(ctx context.Context, exec SQLExecutor, leagueKey string, week int, teamKey string) (*models.Matchup, error)
	ListByLeague(ctx context.Context, exec SQLExecutor, leagueKey string, fromWeek, toWeek int) ([]*models.Matchup, error)
	ListAll(ctx context.Context, exec SQLExecutor) ([]*models.Matchup, error)

	UpdateSides(ctx context.Context, exec SQLExecutor, m *models.Matchup) error
	UpdateScore(ctx context.Context, exec SQLExecutor, id string, teamAPoints, teamBPoints float64) error
	UpdateBracketInfo(ctx context.Context, exec SQLExecutor, id string, info models.BracketInfo) error
	SetWinner(ctx context.Context, exec SQLExecutor, id string, winnerTeamKey *string) error

	Merge(ctx context.Context, exec SQLExecutor, a, b *models.Matchup) (*models.Matchup, error)
	Decouple(ctx context.Context, exec SQLExecutor, m *models.Matchup) (*models.Matchup, *models.Matchup, error)
}

type postgresMatchupRepository struct {
	db *sql.DB
}

func NewPostgresMatchupRepository(db *sql.DB) MatchupRepository {
	return &postgresMatchupRepository{db: db}
}

func (r *postgresMatchupRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchupColumns = `
	id, matchup_key, league_key, week,
	team_a_key, team_a_projected_points, team_a_points,
	team_b_key, team_b_projected_points, team_b_points,
	is_playoffs, is_consolation, is_losers, is_bye, bracket_order, winner_team_key`

func (r *postgresMatchupRepository) Upsert(ctx context.Context, exec SQLExecutor, m *models.Matchup) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.Key = models.MatchupKey(m.LeagueKey, m.Week, m.TeamAKey, m.TeamBKey)

	query := `
		INSERT INTO matchups (` + matchupColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (matchup_key) DO UPDATE SET
			team_a_projected_points = excluded.team_a_projected_points,
			team_a_points = excluded.team_a_points,
			team_b_projected_points = excluded.team_b_projected_points,
			team_b_points = excluded.team_b_points,
			is_playoffs = excluded.is_playoffs,
			is_consolation = excluded.is_consolation,
			winner_team_key = excluded.winner_team_key
		RETURNING id`

	err := r.getExecutor(exec).QueryRowContext(ctx, query, matchupArgs(m)...).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert matchup %s: %w", m.Key, translateConstraintError(err))
	}
	return nil
}

func (r *postgresMatchupRepository) Create(ctx context.Context, exec SQLExecutor, m *models.Matchup) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.Key = models.MatchupKey(m.LeagueKey, m.Week, m.TeamAKey, m.TeamBKey)

	query := `
		INSERT INTO matchups (` + matchupColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	if _, err := r.getExecutor(exec).ExecContext(ctx, query, matchupArgs(m)...); err != nil {
		return fmt.Errorf("failed to create matchup %s: %w", m.Key, translateConstraintError(err))
	}
	return nil
}

func (r *postgresMatchupRepository) GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Matchup, error) {
	query := `SELECT ` + matchupColumns + ` FROM matchups WHERE id = $1`

	m, err := scanMatchup(r.getExecutor(exec).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchupNotFound
		}
		return nil, fmt.Errorf("failed to get matchup %s: %w", id, err)
	}
	return m, nil
}

func (r *postgresMatchupRepository) FindByTeamWeek(ctx context.Context, exec SQLExecutor, leagueKey string, week int, teamKey string) (*models.Matchup, error) {
	query := `
		SELECT ` + matchupColumns + `
		FROM matchups
		WHERE league_key = $1 AND week = $2 AND (team_a_key = $3 OR team_b_key = $3)
		ORDER BY matchup_key
		LIMIT 1`

	m, err := scanMatchup(r.getExecutor(exec).QueryRowContext(ctx, query, leagueKey, week, teamKey))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchupNotFound
		}
		return nil, fmt.Errorf("failed to find week %d matchup of team %s: %w", week, teamKey, err)
	}
	return m, nil
}

func (r *postgresMatchupRepository) ListByLeague(ctx context.Context, exec SQLExecutor, leagueKey string, fromWeek, toWeek int) ([]*models.Matchup, error) {
	query := `
		SELECT ` + matchupColumns + `
		FROM matchups
		WHERE league_key = $1 AND week >= $2 AND week <= $3
		ORDER BY week ASC, bracket_order ASC, matchup_key ASC`
	return r.list(ctx, exec, query, leagueKey, fromWeek, toWeek)
}

func (r *postgresMatchupRepository) ListAll(ctx context.Context, exec SQLExecutor) ([]*models.Matchup, error) {
	query := `SELECT ` + matchupColumns + ` FROM matchups ORDER BY league_key, week, matchup_key`
	return r.list(ctx, exec, query)
}

func (r *postgresMatchupRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.Matchup, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matchups: %w", err)
	}
	defer rows.Close()

	matchups := make([]*models.Matchup, 0)
	for rows.Next() {
		m, scanErr := scanMatchup(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan matchup row: %w", scanErr)
		}
		matchups = append(matchups, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during matchup rows iteration: %w", err)
	}
	return matchups, nil
}

// UpdateSides rewrites both teams, their points and projections, and the key.
func (r *postgresMatchupRepository) UpdateSides(ctx context.Context, exec SQLExecutor, m *models.Matchup) error {
	m.Key = models.MatchupKey(m.LeagueKey, m.Week, m.TeamAKey, m.TeamBKey)
	query := `
		UPDATE matchups SET
			matchup_key = $1,
			team_a_key = $2, team_a_projected_points = $3, team_a_points = $4,
			team_b_key = $5, team_b_projected_points = $6, team_b_points = $7
		WHERE id = $8`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		m.Key,
		m.TeamAKey, m.TeamAProjectedPoints, m.TeamAPoints,
		m.TeamBKey, m.TeamBProjectedPoints, m.TeamBPoints,
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("UpdateSides: failed to execute query for matchup %s: %w", m.ID, translateConstraintError(err))
	}
	return checkAffectedRows(result, ErrMatchupNotFound)
}

func (r *postgresMatchupRepository) UpdateScore(ctx context.Context, exec SQLExecutor, id string, teamAPoints, teamBPoints float64) error {
	query := `UPDATE matchups SET team_a_points = $1, team_b_points = $2 WHERE id = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, teamAPoints, teamBPoints, id)
	if err != nil {
		return fmt.Errorf("UpdateScore: failed to execute query for matchup %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchupNotFound)
}

func (r *postgresMatchupRepository) UpdateBracketInfo(ctx context.Context, exec SQLExecutor, id string, info models.BracketInfo) error {
	query := `
		UPDATE matchups
		SET is_playoffs = $1, is_consolation = $2, is_losers = $3, is_bye = $4, bracket_order = $5
		WHERE id = $6`
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		info.IsPlayoffs, info.IsConsolation, info.IsLosers, info.IsBye, info.BracketOrder, id)
	if err != nil {
		return fmt.Errorf("UpdateBracketInfo: failed to execute query for matchup %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchupNotFound)
}

func (r *postgresMatchupRepository) SetWinner(ctx context.Context, exec SQLExecutor, id string, winnerTeamKey *string) error {
	query := `UPDATE matchups SET winner_team_key = $1 WHERE id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, winnerTeamKey, id)
	if err != nil {
		return fmt.Errorf("SetWinner: failed to execute query for matchup %s: %w", id, translateConstraintError(err))
	}
	return checkAffectedRows(result, ErrMatchupNotFound)
}

// Merge joins two placeholders into one matchup. Roster slots of the absorbed
// row follow the team onto the survivor before the absorbed row is deleted.
func (r *postgresMatchupRepository) Merge(ctx context.Context, exec SQLExecutor, a, b *models.Matchup) (*models.Matchup, error) {
	executor := r.getExecutor(exec)

	nameA, err := r.teamName(ctx, executor, a.TeamAKey)
	if err != nil {
		return nil, err
	}
	nameB, err := r.teamName(ctx, executor, b.TeamAKey)
	if err != nil {
		return nil, err
	}

	merged, absorbedID, err := models.MergeMatchups(a, b, nameA, nameB)
	if err != nil {
		return nil, err
	}

	if _, err := executor.ExecContext(ctx, `UPDATE roster_slots SET matchup_id = $1 WHERE matchup_id = $2`, merged.ID, absorbedID); err != nil {
		return nil, fmt.Errorf("failed to move roster slots from matchup %s: %w", absorbedID, err)
	}
	result, err := executor.ExecContext(ctx, `DELETE FROM matchups WHERE id = $1`, absorbedID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete absorbed matchup %s: %w", absorbedID, err)
	}
	if err := checkAffectedRows(result, ErrMatchupNotFound); err != nil {
		return nil, err
	}
	if err := r.rewrite(ctx, executor, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// Decouple splits a two-sided matchup: team A keeps the row, team B gets a
// fresh placeholder along with its roster slots.
func (r *postgresMatchupRepository) Decouple(ctx context.Context, exec SQLExecutor, m *models.Matchup) (*models.Matchup, *models.Matchup, error) {
	executor := r.getExecutor(exec)

	kept, split, err := models.DecoupleMatchup(m, uuid.NewString())
	if err != nil {
		return nil, nil, err
	}

	if err := r.rewrite(ctx, executor, kept); err != nil {
		return nil, nil, err
	}
	if err := r.Create(ctx, executor, split); err != nil {
		return nil, nil, err
	}
	query := `UPDATE roster_slots SET matchup_id = $1 WHERE matchup_id = $2 AND team_key = $3`
	if _, err := executor.ExecContext(ctx, query, split.ID, kept.ID, split.TeamAKey); err != nil {
		return nil, nil, fmt.Errorf("failed to move roster slots of team %s: %w", split.TeamAKey, err)
	}
	return kept, split, nil
}

// rewrite stores every mutable column of m.
func (r *postgresMatchupRepository) rewrite(ctx context.Context, exec SQLExecutor, m *models.Matchup) error {
	query := `
		UPDATE matchups SET
			matchup_key = $2, league_key = $3, week = $4,
			team_a_key = $5, team_a_projected_points = $6, team_a_points = $7,
			team_b_key = $8, team_b_projected_points = $9, team_b_points = $10,
			is_playoffs = $11, is_consolation = $12, is_losers = $13, is_bye = $14,
			bracket_order = $15, winner_team_key = $16
		WHERE id = $1`

	result, err := exec.ExecContext(ctx, query, matchupArgs(m)...)
	if err != nil {
		return fmt.Errorf("failed to rewrite matchup %s: %w", m.ID, translateConstraintError(err))
	}
	return checkAffectedRows(result, ErrMatchupNotFound)
}

func (r *postgresMatchupRepository) teamName(ctx context.Context, exec SQLExecutor, teamKey string) (string, error) {
	var name string
	err := exec.QueryRowContext(ctx, `SELECT name FROM teams WHERE team_key = $1`, teamKey).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrTeamNotFound
		}
		return "", fmt.Errorf("failed to get name of team %s: %w", teamKey, err)
	}
	return name, nil
}

// matchupArgs lists m's fields in matchupColumns order.
func matchupArgs(m *models.Matchup) []interface{} {
	return []interface{}{
		m.ID,
		m.Key,
		m.LeagueKey,
		m.Week,
		m.TeamAKey,
		m.TeamAProjectedPoints,
		m.TeamAPoints,
		m.TeamBKey,
		m.TeamBProjectedPoints,
		m.TeamBPoints,
		m.IsPlayoffs,
		m.IsConsolation,
		m.IsLosers,
		m.IsBye,
		m.BracketOrder,
		m.WinnerTeamKey,
	}
}

func scanMatchup(row rowScanner) (*models.Matchup, error) {
	var (
		m             models.Matchup
		projA, projB  sql.NullFloat64
		teamB, winner sql.NullString
	)
	err := row.Scan(
		&m.ID,
		&m.Key,
		&m.LeagueKey,
		&m.Week,
		&m.TeamAKey,
		&projA,
		&m.TeamAPoints,
		&teamB,
		&projB,
		&m.TeamBPoints,
		&m.IsPlayoffs,
		&m.IsConsolation,
		&m.IsLosers,
		&m.IsBye,
		&m.BracketOrder,
		&winner,
	)
	if err != nil {
		return nil, err
	}
	if projA.Valid {
		m.TeamAProjectedPoints = &projA.Float64
	}
	if projB.Valid {
		m.TeamBProjectedPoints = &projB.Float64
	}
	if teamB.Valid {
		m.TeamBKey = &teamB.String
	}
	if winner.Valid {
		m.WinnerTeamKey = &winner.String
	}
	return &m, nil
}
