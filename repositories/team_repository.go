package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/brianbrunner/just2guys/models"
)

var ErrTeamNotFound = errors.New("team not found")

type TeamRepository interface {
	Upsert(ctx context.Context, exec SQLExecutor, team *models.Team) error
	GetByKey(ctx context.Context, exec SQLExecutor, teamKey string) (*models.Team, error)
	ListByLeague(ctx context.Context, exec SQLExecutor, leagueKey string) ([]*models.Team, error)
	ListAll(ctx context.Context, exec SQLExecutor) ([]*models.Team, error)
	SetPlayoffSeed(ctx context.Context, exec SQLExecutor, teamKey string, seed *int) error

	AddManager(ctx context.Context, exec SQLExecutor, teamKey, managerKey string) error
	ListTeamManagers(ctx context.Context, exec SQLExecutor) ([]models.TeamManager, error)
	AddPlayer(ctx context.Context, exec SQLExecutor, teamKey, playerKey string) error
	ListTeamPlayers(ctx context.Context, exec SQLExecutor) ([]models.TeamPlayer, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const teamColumns = `team_key, league_key, name, logo, division, playoff_seed`

// Upsert never touches playoff_seed; seeds belong to the bracket builder.
func (r *postgresTeamRepository) Upsert(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	division := team.Division
	if division == "" {
		division = models.DivisionA
	}
	query := `
		INSERT INTO teams (team_key, league_key, name, logo, division)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (team_key) DO UPDATE SET
			league_key = excluded.league_key,
			name = excluded.name,
			logo = excluded.logo,
			division = excluded.division`

	_, err := r.getExecutor(exec).ExecContext(ctx, query, team.Key, team.LeagueKey, team.Name, team.Logo, division)
	if err != nil {
		return fmt.Errorf("failed to upsert team %s: %w", team.Key, translateConstraintError(err))
	}
	team.Division = division
	return nil
}

func (r *postgresTeamRepository) GetByKey(ctx context.Context, exec SQLExecutor, teamKey string) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE team_key = $1`

	team, err := scanTeam(r.getExecutor(exec).QueryRowContext(ctx, query, teamKey))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %s: %w", teamKey, err)
	}
	return team, nil
}

func (r *postgresTeamRepository) ListByLeague(ctx context.Context, exec SQLExecutor, leagueKey string) ([]*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE league_key = $1 ORDER BY team_key ASC`
	return r.list(ctx, exec, query, leagueKey)
}

func (r *postgresTeamRepository) ListAll(ctx context.Context, exec SQLExecutor) ([]*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams ORDER BY team_key ASC`
	return r.list(ctx, exec, query)
}

func (r *postgresTeamRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.Team, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		team, scanErr := scanTeam(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", scanErr)
		}
		teams = append(teams, team)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during team rows iteration: %w", err)
	}
	return teams, nil
}

func (r *postgresTeamRepository) SetPlayoffSeed(ctx context.Context, exec SQLExecutor, teamKey string, seed *int) error {
	query := `UPDATE teams SET playoff_seed = $1 WHERE team_key = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, seed, teamKey)
	if err != nil {
		return fmt.Errorf("SetPlayoffSeed: failed to execute query for team %s: %w", teamKey, err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) AddManager(ctx context.Context, exec SQLExecutor, teamKey, managerKey string) error {
	query := `
		INSERT INTO team_managers (team_key, manager_key) VALUES ($1, $2)
		ON CONFLICT (team_key, manager_key) DO NOTHING`
	if _, err := r.getExecutor(exec).ExecContext(ctx, query, teamKey, managerKey); err != nil {
		return fmt.Errorf("failed to link manager %s to team %s: %w", managerKey, teamKey, translateConstraintError(err))
	}
	return nil
}

func (r *postgresTeamRepository) ListTeamManagers(ctx context.Context, exec SQLExecutor) ([]models.TeamManager, error) {
	query := `SELECT team_key, manager_key FROM team_managers ORDER BY team_key, manager_key`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list team managers: %w", err)
	}
	defer rows.Close()

	links := make([]models.TeamManager, 0)
	for rows.Next() {
		var link models.TeamManager
		if err := rows.Scan(&link.TeamKey, &link.ManagerKey); err != nil {
			return nil, fmt.Errorf("failed to scan team manager row: %w", err)
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

func (r *postgresTeamRepository) AddPlayer(ctx context.Context, exec SQLExecutor, teamKey, playerKey string) error {
	query := `
		INSERT INTO team_players (team_key, player_key) VALUES ($1, $2)
		ON CONFLICT (team_key, player_key) DO NOTHING`
	if _, err := r.getExecutor(exec).ExecContext(ctx, query, teamKey, playerKey); err != nil {
		return fmt.Errorf("failed to link player %s to team %s: %w", playerKey, teamKey, translateConstraintError(err))
	}
	return nil
}

func (r *postgresTeamRepository) ListTeamPlayers(ctx context.Context, exec SQLExecutor) ([]models.TeamPlayer, error) {
	query := `SELECT team_key, player_key FROM team_players ORDER BY team_key, player_key`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list team players: %w", err)
	}
	defer rows.Close()

	links := make([]models.TeamPlayer, 0)
	for rows.Next() {
		var link models.TeamPlayer
		if err := rows.Scan(&link.TeamKey, &link.PlayerKey); err != nil {
			return nil, fmt.Errorf("failed to scan team player row: %w", err)
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

func scanTeam(row rowScanner) (*models.Team, error) {
	var t models.Team
	var seed sql.NullInt64
	if err := row.Scan(&t.Key, &t.LeagueKey, &t.Name, &t.Logo, &t.Division, &seed); err != nil {
		return nil, err
	}
	if seed.Valid {
		s := int(seed.Int64)
		t.PlayoffSeed = &s
	}
	return &t, nil
}
