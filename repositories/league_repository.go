package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/brianbrunner/just2guys/models"
)

var ErrLeagueNotFound = errors.New("league not found")

type LeagueRepository interface {
	Upsert(ctx context.Context, exec SQLExecutor, league *models.League) error
	GetByKey(ctx context.Context, exec SQLExecutor, leagueKey string) (*models.League, error)
	List(ctx context.Context, exec SQLExecutor) ([]*models.League, error)
}

type postgresLeagueRepository struct {
	db *sql.DB
}

func NewPostgresLeagueRepository(db *sql.DB) LeagueRepository {
	return &postgresLeagueRepository{db: db}
}

func (r *postgresLeagueRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const leagueColumns = `league_key, name, season, current_week, is_finished, is_multi_league`

func (r *postgresLeagueRepository) Upsert(ctx context.Context, exec SQLExecutor, league *models.League) error {
	query := `
		INSERT INTO leagues (` + leagueColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (league_key) DO UPDATE SET
			name = excluded.name,
			season = excluded.season,
			current_week = excluded.current_week,
			is_finished = excluded.is_finished,
			is_multi_league = excluded.is_multi_league`

	_, err := r.getExecutor(exec).ExecContext(ctx, query,
		league.Key,
		league.Name,
		league.Season,
		league.CurrentWeek,
		league.IsFinished,
		league.IsMultiLeague,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert league %s: %w", league.Key, translateConstraintError(err))
	}
	return nil
}

func (r *postgresLeagueRepository) GetByKey(ctx context.Context, exec SQLExecutor, leagueKey string) (*models.League, error) {
	query := `SELECT ` + leagueColumns + ` FROM leagues WHERE league_key = $1`

	league, err := scanLeague(r.getExecutor(exec).QueryRowContext(ctx, query, leagueKey))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLeagueNotFound
		}
		return nil, fmt.Errorf("failed to get league %s: %w", leagueKey, err)
	}
	return league, nil
}

func (r *postgresLeagueRepository) List(ctx context.Context, exec SQLExecutor) ([]*models.League, error) {
	query := `SELECT ` + leagueColumns + ` FROM leagues ORDER BY season ASC, league_key ASC`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list leagues: %w", err)
	}
	defer rows.Close()

	leagues := make([]*models.League, 0)
	for rows.Next() {
		league, scanErr := scanLeague(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan league row: %w", scanErr)
		}
		leagues = append(leagues, league)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during league rows iteration: %w", err)
	}
	return leagues, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLeague(row rowScanner) (*models.League, error) {
	var l models.League
	err := row.Scan(&l.Key, &l.Name, &l.Season, &l.CurrentWeek, &l.IsFinished, &l.IsMultiLeague)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
