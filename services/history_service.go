package services

import (
	"context"

	"github.com/brianbrunner/just2guys/records"
	"github.com/brianbrunner/just2guys/rivalry"
)

// HistoryService answers all-time questions. Each call replays the whole
// store, so results always reflect the latest import and merges.
type HistoryService interface {
	ManagerRivalries(ctx context.Context, managerKey string) ([]*rivalry.Record, error)
	Rivalries(ctx context.Context) ([]*rivalry.Record, error)
	Records(ctx context.Context) ([]records.Table, error)
}

type historyService struct {
	loader *SnapshotLoader
}

func NewHistoryService(loader *SnapshotLoader) HistoryService {
	return &historyService{loader: loader}
}

func (s *historyService) ManagerRivalries(ctx context.Context, managerKey string) ([]*rivalry.Record, error) {
	ds, err := s.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := ds.Manager(managerKey); !ok {
		return nil, ErrManagerNotFound
	}
	return rivalry.Aggregate(ds).For(managerKey), nil
}

func (s *historyService) Rivalries(ctx context.Context) ([]*rivalry.Record, error) {
	ds, err := s.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	return rivalry.Aggregate(ds).All(), nil
}

func (s *historyService) Records(ctx context.Context) ([]records.Table, error) {
	ds, err := s.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	return records.Build(ds, rivalry.Aggregate(ds)), nil
}
