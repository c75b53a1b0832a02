package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/brianbrunner/just2guys/models"
)

var ErrPlayerNotFound = errors.New("player not found")

type PlayerRepository interface {
	Upsert(ctx context.Context, exec SQLExecutor, player *models.Player) error
	GetByKey(ctx context.Context, exec SQLExecutor, playerKey string) (*models.Player, error)
	List(ctx context.Context, exec SQLExecutor) ([]*models.Player, error)
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPlayerRepository) Upsert(ctx context.Context, exec SQLExecutor, player *models.Player) error {
	query := `
		INSERT INTO players (player_key, name, display_position, position_type, image_url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (player_key) DO UPDATE SET
			name = excluded.name,
			display_position = excluded.display_position,
			position_type = excluded.position_type,
			image_url = excluded.image_url`

	_, err := r.getExecutor(exec).ExecContext(ctx, query,
		player.Key,
		player.Name,
		player.DisplayPosition,
		player.PositionType,
		player.ImageURL,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert player %s: %w", player.Key, translateConstraintError(err))
	}
	return nil
}

func (r *postgresPlayerRepository) GetByKey(ctx context.Context, exec SQLExecutor, playerKey string) (*models.Player, error) {
	query := `
		SELECT player_key, name, display_position, position_type, image_url
		FROM players WHERE player_key = $1`

	var p models.Player
	err := r.getExecutor(exec).QueryRowContext(ctx, query, playerKey).Scan(
		&p.Key, &p.Name, &p.DisplayPosition, &p.PositionType, &p.ImageURL,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player %s: %w", playerKey, err)
	}
	return &p, nil
}

func (r *postgresPlayerRepository) List(ctx context.Context, exec SQLExecutor) ([]*models.Player, error) {
	query := `
		SELECT player_key, name, display_position, position_type, image_url
		FROM players ORDER BY player_key`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	players := make([]*models.Player, 0)
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.Key, &p.Name, &p.DisplayPosition, &p.PositionType, &p.ImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan player row: %w", err)
		}
		players = append(players, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during player rows iteration: %w", err)
	}
	return players, nil
}
