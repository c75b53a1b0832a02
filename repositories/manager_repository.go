package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/brianbrunner/just2guys/models"
)

var ErrManagerNotFound = errors.New("manager not found")

type ManagerRepository interface {
	Upsert(ctx context.Context, exec SQLExecutor, manager *models.Manager) error
	GetByKey(ctx context.Context, exec SQLExecutor, managerKey string) (*models.Manager, error)
	List(ctx context.Context, exec SQLExecutor) ([]*models.Manager, error)
	// ReassignTeams moves every team of fromKey to toKey and reports how many
	// team links fromKey had.
	ReassignTeams(ctx context.Context, exec SQLExecutor, fromKey, toKey string) (int64, error)
	Delete(ctx context.Context, exec SQLExecutor, managerKey string) error
}

type postgresManagerRepository struct {
	db *sql.DB
}

func NewPostgresManagerRepository(db *sql.DB) ManagerRepository {
	return &postgresManagerRepository{db: db}
}

func (r *postgresManagerRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresManagerRepository) Upsert(ctx context.Context, exec SQLExecutor, manager *models.Manager) error {
	query := `
		INSERT INTO managers (manager_key, nickname) VALUES ($1, $2)
		ON CONFLICT (manager_key) DO UPDATE SET nickname = excluded.nickname`
	if _, err := r.getExecutor(exec).ExecContext(ctx, query, manager.Key, manager.Nickname); err != nil {
		return fmt.Errorf("failed to upsert manager %s: %w", manager.Key, translateConstraintError(err))
	}
	return nil
}

func (r *postgresManagerRepository) GetByKey(ctx context.Context, exec SQLExecutor, managerKey string) (*models.Manager, error) {
	query := `SELECT manager_key, nickname FROM managers WHERE manager_key = $1`

	var m models.Manager
	err := r.getExecutor(exec).QueryRowContext(ctx, query, managerKey).Scan(&m.Key, &m.Nickname)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrManagerNotFound
		}
		return nil, fmt.Errorf("failed to get manager %s: %w", managerKey, err)
	}
	return &m, nil
}

func (r *postgresManagerRepository) List(ctx context.Context, exec SQLExecutor) ([]*models.Manager, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, `SELECT manager_key, nickname FROM managers ORDER BY manager_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list managers: %w", err)
	}
	defer rows.Close()

	managers := make([]*models.Manager, 0)
	for rows.Next() {
		var m models.Manager
		if err := rows.Scan(&m.Key, &m.Nickname); err != nil {
			return nil, fmt.Errorf("failed to scan manager row: %w", err)
		}
		managers = append(managers, &m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during manager rows iteration: %w", err)
	}
	return managers, nil
}

func (r *postgresManagerRepository) ReassignTeams(ctx context.Context, exec SQLExecutor, fromKey, toKey string) (int64, error) {
	executor := r.getExecutor(exec)

	insert := `
		INSERT INTO team_managers (team_key, manager_key)
		SELECT team_key, $1 FROM team_managers WHERE manager_key = $2
		ON CONFLICT (team_key, manager_key) DO NOTHING`
	if _, err := executor.ExecContext(ctx, insert, toKey, fromKey); err != nil {
		return 0, fmt.Errorf("failed to copy teams from manager %s to %s: %w", fromKey, toKey, translateConstraintError(err))
	}

	result, err := executor.ExecContext(ctx, `DELETE FROM team_managers WHERE manager_key = $1`, fromKey)
	if err != nil {
		return 0, fmt.Errorf("failed to unlink teams of manager %s: %w", fromKey, err)
	}
	moved, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return moved, nil
}

func (r *postgresManagerRepository) Delete(ctx context.Context, exec SQLExecutor, managerKey string) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM managers WHERE manager_key = $1`, managerKey)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrManagerNotFound)
}
