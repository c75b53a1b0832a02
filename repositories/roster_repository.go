package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/brianbrunner/just2guys/models"
	"github.com/google/uuid"
)

type RosterSlotRepository interface {
	// ReplaceForTeam swaps teamKey's slots on a matchup for slots.
	ReplaceForTeam(ctx context.Context, exec SQLExecutor, matchupID, teamKey string, slots []*models.RosterSlot) error
	ListByMatchup(ctx context.Context, exec SQLExecutor, matchupID string) ([]*models.RosterSlot, error)
	ListAll(ctx context.Context, exec SQLExecutor) ([]*models.RosterSlot, error)
}

type postgresRosterSlotRepository struct {
	db *sql.DB
}

func NewPostgresRosterSlotRepository(db *sql.DB) RosterSlotRepository {
	return &postgresRosterSlotRepository{db: db}
}

func (r *postgresRosterSlotRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRosterSlotRepository) ReplaceForTeam(ctx context.Context, exec SQLExecutor, matchupID, teamKey string, slots []*models.RosterSlot) (err error) {
	executor := r.getExecutor(exec)

	tx, isExternalTx := executor.(*sql.Tx)
	if !isExternalTx {
		tx, err = r.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("ReplaceForTeam failed to begin transaction: %w", err)
		}
		defer func() {
			if p := recover(); p != nil {
				tx.Rollback()
				panic(p)
			} else if err != nil {
				tx.Rollback()
			} else {
				err = tx.Commit()
			}
		}()
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM roster_slots WHERE matchup_id = $1 AND team_key = $2`, matchupID, teamKey); err != nil {
		return fmt.Errorf("ReplaceForTeam failed to clear slots of team %s: %w", teamKey, err)
	}
	if len(slots) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO roster_slots (id, week, matchup_id, team_key, player_key, points, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return fmt.Errorf("ReplaceForTeam failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, slot := range slots {
		if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		slot.MatchupID = matchupID
		slot.TeamKey = teamKey
		_, err = stmt.ExecContext(ctx, slot.ID, slot.Week, matchupID, teamKey, slot.PlayerKey, slot.Points, slot.Position)
		if err != nil {
			return fmt.Errorf("ReplaceForTeam failed for player %s at %s: %w", slot.PlayerKey, slot.Position, translateConstraintError(err))
		}
	}
	return nil
}

func (r *postgresRosterSlotRepository) ListByMatchup(ctx context.Context, exec SQLExecutor, matchupID string) ([]*models.RosterSlot, error) {
	query := `
		SELECT id, week, matchup_id, team_key, player_key, points, position
		FROM roster_slots WHERE matchup_id = $1
		ORDER BY team_key, player_key`
	return r.list(ctx, exec, query, matchupID)
}

func (r *postgresRosterSlotRepository) ListAll(ctx context.Context, exec SQLExecutor) ([]*models.RosterSlot, error) {
	query := `
		SELECT id, week, matchup_id, team_key, player_key, points, position
		FROM roster_slots
		ORDER BY matchup_id, team_key, player_key`
	return r.list(ctx, exec, query)
}

func (r *postgresRosterSlotRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.RosterSlot, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query roster slots: %w", err)
	}
	defer rows.Close()

	slots := make([]*models.RosterSlot, 0)
	for rows.Next() {
		var s models.RosterSlot
		if err := rows.Scan(&s.ID, &s.Week, &s.MatchupID, &s.TeamKey, &s.PlayerKey, &s.Points, &s.Position); err != nil {
			return nil, fmt.Errorf("failed to scan roster slot: %w", err)
		}
		slots = append(slots, &s)
	}
	return slots, rows.Err()
}
