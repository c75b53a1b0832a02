package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/brianbrunner/just2guys/repositories"
)

type MergeResult struct {
	Keep       string `json:"keep"`
	Merge      string `json:"merge"`
	TeamsMoved int64  `json:"teams_moved"`
	Removed    bool   `json:"removed"`
}

type AdminService interface {
	// MergeManagers moves every team of merge onto keep and removes merge.
	// Merging a manager that no longer exists is a no-op.
	MergeManagers(ctx context.Context, keep, merge string) (*MergeResult, error)
}

type adminService struct {
	db          *sql.DB
	managerRepo repositories.ManagerRepository
	pipeline    *Pipeline
	logger      *slog.Logger
}

func NewAdminService(db *sql.DB, managerRepo repositories.ManagerRepository, pipeline *Pipeline, logger *slog.Logger) AdminService {
	return &adminService{db: db, managerRepo: managerRepo, pipeline: pipeline, logger: logger}
}

func (s *adminService) MergeManagers(ctx context.Context, keep, merge string) (*MergeResult, error) {
	var result *MergeResult
	err := s.pipeline.Do(ctx, "merge-managers", func(ctx context.Context) error {
		return withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
			var err error
			result, err = mergeManagers(ctx, tx, s.managerRepo, keep, merge)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("managers merged",
		slog.String("keep", keep),
		slog.String("merge", merge),
		slog.Int64("teams_moved", result.TeamsMoved),
		slog.Bool("removed", result.Removed),
	)
	return result, nil
}

func mergeManagers(ctx context.Context, exec repositories.SQLExecutor, managerRepo repositories.ManagerRepository, keep, merge string) (*MergeResult, error) {
	if keep == "" || merge == "" {
		return nil, fmt.Errorf("%w: both manager keys are required", ErrValidationFailed)
	}
	if keep == merge {
		return nil, ErrSameManager
	}
	result := &MergeResult{Keep: keep, Merge: merge}

	if _, err := managerRepo.GetByKey(ctx, exec, keep); err != nil {
		return nil, handleRepositoryError(err)
	}
	if _, err := managerRepo.GetByKey(ctx, exec, merge); err != nil {
		if errors.Is(err, repositories.ErrManagerNotFound) {
			return result, nil
		}
		return nil, err
	}

	moved, err := managerRepo.ReassignTeams(ctx, exec, merge, keep)
	if err != nil {
		return nil, err
	}
	if err := managerRepo.Delete(ctx, exec, merge); err != nil {
		return nil, handleRepositoryError(err)
	}
	result.TeamsMoved = moved
	result.Removed = true
	return result, nil
}
